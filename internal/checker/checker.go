// Package checker orchestrates check passes: it expands configured targets,
// fans them out over a bounded worker pool, applies per-platform politeness
// limits and circuit breaking, retries transient failures, and drives each
// target through fetch, transition detection, persistence and alert dispatch.
package checker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"pinstock/internal/alert"
	"pinstock/internal/config"
	"pinstock/internal/detect"
	apperrors "pinstock/internal/errors"
	"pinstock/internal/logging"
	"pinstock/internal/models"
	"pinstock/internal/notify"
	"pinstock/internal/platform"
	"pinstock/internal/store"
	"pinstock/pkg/utils"
)

// PassSummary aggregates the outcome of one complete check pass.
type PassSummary struct {
	StartedAt  time.Time
	Duration   time.Duration
	Checked    int
	InStock    int
	LowStock   int
	OutOfStock int
	Failed     int
	Events     int
	Skipped    int
}

// Checker runs check passes over the configured target matrix.
type Checker struct {
	cfg        *config.Config
	registry   *platform.Registry
	store      store.StatusStore
	dispatcher *alert.Dispatcher
	notifier   notify.Notifier
	logger     zerolog.Logger

	limiterMu sync.Mutex
	limiters  map[models.Platform]*rate.Limiter

	breakers *breakerSet

	// lastErrorKind dedupes FetchFailed alerts across passes of one Run: a
	// target alerts when its fetch starts failing or the failure kind changes,
	// not on every pass of a sustained outage.
	errMu         sync.Mutex
	lastErrorKind map[string]apperrors.FetchErrorKind

	running atomic.Bool
}

// New creates a Checker. The notifier receives pass summaries when enabled;
// per-event delivery goes through the dispatcher.
func New(cfg *config.Config, registry *platform.Registry, st store.StatusStore, dispatcher *alert.Dispatcher, notifier notify.Notifier, logger zerolog.Logger) *Checker {
	return &Checker{
		cfg:           cfg,
		registry:      registry,
		store:         st,
		dispatcher:    dispatcher,
		notifier:      notifier,
		logger:        logger,
		limiters:      make(map[models.Platform]*rate.Limiter),
		breakers:      newBreakerSet(cfg.Checker.BreakerThreshold, cfg.Checker.BreakerCooldown),
		lastErrorKind: make(map[string]apperrors.FetchErrorKind),
	}
}

// targetOutcome is one worker's result for one target.
type targetOutcome struct {
	status models.StockStatus
	events int
	failed bool
}

// RunOnce executes a single check pass over every configured target and
// returns its summary. Per-target failures are absorbed into the summary; the
// returned error is non-nil only when the pass cannot start at all.
func (c *Checker) RunOnce(ctx context.Context) (PassSummary, error) {
	start := time.Now()

	targets, skipped := c.cfg.Targets()
	for _, reason := range skipped {
		c.logger.Warn().Str("target", reason).Msg("Skipping invalid target")
	}
	if len(targets) == 0 {
		return PassSummary{}, apperrors.ErrNoTargets
	}

	c.logger.Info().
		Int("targets", len(targets)).
		Int("skipped", len(skipped)).
		Int("concurrency", c.cfg.Checker.Concurrency).
		Msg("Starting check pass")

	outcomes := make(chan targetOutcome, len(targets))

	var wg sync.WaitGroup
	sem := make(chan struct{}, c.cfg.Checker.Concurrency)
	for _, target := range targets {
		wg.Add(1)
		go func(t models.Target) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}
			outcomes <- c.checkTarget(ctx, t)
		}(target)
	}
	wg.Wait()
	close(outcomes)

	summary := PassSummary{StartedAt: start, Skipped: len(skipped)}
	for out := range outcomes {
		summary.Checked++
		summary.Events += out.events
		switch {
		case out.failed:
			summary.Failed++
		case out.status == models.StatusInStock:
			summary.InStock++
		case out.status == models.StatusLowStock:
			summary.LowStock++
		case out.status == models.StatusOutOfStock:
			summary.OutOfStock++
		}
	}
	summary.Duration = time.Since(start)

	c.logger.Info().
		Int("checked", summary.Checked).
		Int("in_stock", summary.InStock).
		Int("low_stock", summary.LowStock).
		Int("out_of_stock", summary.OutOfStock).
		Int("failed", summary.Failed).
		Int("events", summary.Events).
		Dur("duration", summary.Duration).
		Msg("Check pass complete")

	if c.cfg.Alerts.SendSummary {
		c.sendSummary(ctx, summary)
	}

	return summary, ctx.Err()
}

// checkTarget drives one target through the full pipeline. The order is
// strict: fetch, detect against the previous snapshot, persist the fresh
// observation, then dispatch. The store is never written on a failed fetch.
func (c *Checker) checkTarget(ctx context.Context, target models.Target) targetOutcome {
	logger := logging.WithTarget(c.logger, target)

	prev := c.snapshot(ctx, target)

	obs, fetchErr := c.fetch(ctx, target, logger)

	var result detect.Result
	if fetchErr != nil {
		if ctx.Err() != nil {
			// Cancelled mid-fetch: neither a platform failure nor worth alerting.
			return targetOutcome{failed: true}
		}
		kind := apperrors.NetworkError
		if fe := apperrors.AsFetchError(fetchErr); fe != nil {
			kind = fe.Kind
		}
		logging.LogFetch(logger, target, models.StatusFetchError, c.cfg.Checker.MaxRetries, fetchErr)
		result = detect.Failed(kind)
	} else {
		logging.LogFetch(logger, target, obs.Status, 1, nil)
		result = detect.Succeeded(obs)
	}

	events := detect.Detect(target, prev, result)
	c.recordErrorKind(target.Key(), result)

	if !result.Failed {
		record := models.StatusRecord{
			TargetKey:  target.Key(),
			ProductID:  target.ProductID,
			Pincode:    target.Pincode,
			Platform:   target.Platform,
			Status:     obs.Status,
			Price:      obs.Price,
			ObservedAt: obs.FetchedAt,
		}
		if err := c.store.Put(ctx, record); err != nil {
			logger.Error().Err(err).Msg("Failed to persist status record")
		}
	}

	for _, ev := range events {
		logging.LogTransition(logger, target, ev.Kind, ev.Previous, ev.Current)
		if err := c.dispatcher.Dispatch(ctx, ev); err != nil {
			logger.Error().Err(err).Str("alert_id", ev.ID).Msg("Alert delivery failed")
		}
	}

	return targetOutcome{
		status: obs.Status,
		events: len(events),
		failed: result.Failed,
	}
}

// snapshot loads the previous state for a target. An absent record yields an
// unknown, unseeded snapshot; a store read error is treated the same way and
// logged, since alerting on a degraded store would be noise.
func (c *Checker) snapshot(ctx context.Context, target models.Target) detect.Snapshot {
	key := target.Key()

	snap := detect.Snapshot{Status: models.StatusUnknown, LastErrorKind: c.errorKind(key)}

	rec, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		snap.Known = true
		snap.Status = rec.Status
		snap.Price = rec.Price
	case !apperrors.Is(err, apperrors.ErrRecordNotFound):
		c.logger.Error().Err(err).Str("target", key).Msg("Failed to load status record")
	}

	return snap
}

// fetch performs the rate-limited, breaker-guarded fetch with retry. Only
// network failures are retried; parse and validation failures return
// immediately because repeating the request cannot change the outcome.
func (c *Checker) fetch(ctx context.Context, target models.Target, logger zerolog.Logger) (models.Observation, error) {
	adapter, err := c.registry.Get(target.Platform)
	if err != nil {
		return models.Observation{}, apperrors.NewFetchError(apperrors.InvalidTarget, target, err)
	}

	breaker := c.breakers.get(target.Platform)
	limiter := c.limiterFor(target.Platform)

	retryCfg := utils.RetryConfig{
		MaxAttempts:   c.cfg.Checker.MaxRetries,
		InitialDelay:  c.cfg.Checker.RetryDelay,
		MaxDelay:      c.cfg.Checker.RetryMaxDelay,
		BackoffFactor: c.cfg.Checker.BackoffFactor,
		Retryable: func(err error) bool {
			fe := apperrors.AsFetchError(err)
			return fe != nil && fe.Retryable()
		},
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logger.Warn().
				Int("attempt", attempt).
				Dur("backoff", delay).
				Err(err).
				Msg("Retrying fetch")
		},
	}

	return utils.RetryWithResult(ctx, retryCfg, func() (models.Observation, error) {
		if err := breaker.Allow(); err != nil {
			// Treated as a network-kind failure so the retry backoff keeps
			// probing until the cooldown lets a request through.
			return models.Observation{}, apperrors.NewFetchError(apperrors.NetworkError, target, err)
		}
		if err := limiter.Wait(ctx); err != nil {
			return models.Observation{}, err
		}

		obs, err := adapter.Fetch(ctx, target)
		if err != nil {
			if fe := apperrors.AsFetchError(err); fe != nil && fe.Kind == apperrors.NetworkError {
				breaker.RecordFailure()
			}
			return models.Observation{}, err
		}
		breaker.RecordSuccess()
		return obs, nil
	})
}

// limiterFor returns the shared politeness limiter for a platform, creating
// it on first use from the configured spacing.
func (c *Checker) limiterFor(p models.Platform) *rate.Limiter {
	c.limiterMu.Lock()
	defer c.limiterMu.Unlock()

	if l, ok := c.limiters[p]; ok {
		return l
	}

	spacing := c.cfg.Checker.SpacingFor(p)
	var l *rate.Limiter
	if spacing <= 0 {
		l = rate.NewLimiter(rate.Inf, 1)
	} else {
		l = rate.NewLimiter(rate.Every(spacing), 1)
	}
	c.limiters[p] = l
	return l
}

// recordErrorKind updates the run-scoped failure state for a target. A
// successful fetch clears it, so a later outage alerts again.
func (c *Checker) recordErrorKind(key string, result detect.Result) {
	c.errMu.Lock()
	defer c.errMu.Unlock()

	if result.Failed {
		c.lastErrorKind[key] = result.ErrorKind
	} else {
		delete(c.lastErrorKind, key)
	}
}

func (c *Checker) errorKind(key string) apperrors.FetchErrorKind {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.lastErrorKind[key]
}

// sendSummary delivers a pass summary through the notifier.
func (c *Checker) sendSummary(ctx context.Context, s PassSummary) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Checked %d targets in %s\n\n", s.Checked, s.Duration.Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("✅ In stock: %d\n", s.InStock))
	sb.WriteString(fmt.Sprintf("⚠️ Low stock: %d\n", s.LowStock))
	sb.WriteString(fmt.Sprintf("🚨 Out of stock: %d\n", s.OutOfStock))
	sb.WriteString(fmt.Sprintf("❌ Failed: %d\n", s.Failed))
	sb.WriteString(fmt.Sprintf("🔔 Alerts: %d", s.Events))

	n := notify.Notification{
		Title:     "📋 Check Summary",
		Message:   sb.String(),
		Timestamp: time.Now(),
	}
	if err := c.notifier.Send(ctx, n); err != nil {
		c.logger.Error().Err(err).Msg("Failed to send pass summary")
	}
}

// Run executes check passes continuously until the context is cancelled,
// either on the configured cron schedule or at a fixed interval. Only one Run
// may be active per Checker.
func (c *Checker) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return apperrors.ErrAlreadyRunning
	}
	defer c.running.Store(false)

	if c.cfg.Checker.Schedule != "" {
		return c.runScheduled(ctx)
	}
	return c.runInterval(ctx)
}

// runScheduled drives passes off a cron expression. A pass still in flight
// when the next trigger fires is not overlapped; the trigger is skipped.
func (c *Checker) runScheduled(ctx context.Context) error {
	if _, err := cron.ParseStandard(c.cfg.Checker.Schedule); err != nil {
		return apperrors.Wrapf(err, "invalid schedule %q", c.cfg.Checker.Schedule)
	}

	var busy atomic.Bool
	runner := cron.New()
	_, err := runner.AddFunc(c.cfg.Checker.Schedule, func() {
		if !busy.CompareAndSwap(false, true) {
			c.logger.Warn().Msg("Previous pass still running, skipping trigger")
			return
		}
		defer busy.Store(false)

		if _, err := c.RunOnce(ctx); err != nil && ctx.Err() == nil {
			c.logger.Error().Err(err).Msg("Check pass failed")
		}
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to schedule checker")
	}

	c.logger.Info().Str("schedule", c.cfg.Checker.Schedule).Msg("Checker started on cron schedule")
	runner.Start()
	<-ctx.Done()

	// Wait for an in-flight pass before reporting shutdown.
	stopCtx := runner.Stop()
	<-stopCtx.Done()

	c.logger.Info().Msg("Checker stopped")
	return ctx.Err()
}

// runInterval runs a pass immediately, then every configured interval.
func (c *Checker) runInterval(ctx context.Context) error {
	interval := c.cfg.Checker.Interval
	if interval <= 0 {
		return apperrors.NewValidationError("checker.interval", interval, "must be positive for continuous mode")
	}
	c.logger.Info().Dur("interval", interval).Msg("Checker started")

	if _, err := c.RunOnce(ctx); err != nil {
		if apperrors.Is(err, apperrors.ErrNoTargets) || ctx.Err() != nil {
			return err
		}
		c.logger.Error().Err(err).Msg("Check pass failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("Checker stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := c.RunOnce(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error().Err(err).Msg("Check pass failed")
			}
		}
	}
}
