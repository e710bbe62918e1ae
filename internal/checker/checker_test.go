package checker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinstock/internal/alert"
	"pinstock/internal/config"
	apperrors "pinstock/internal/errors"
	"pinstock/internal/models"
	"pinstock/internal/notify"
	"pinstock/internal/platform"
	"pinstock/internal/store"
)

// memStore is an in-memory StatusStore for orchestrator tests.
type memStore struct {
	mu      sync.Mutex
	records map[string]models.StatusRecord
	puts    int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]models.StatusRecord)}
}

func (m *memStore) Get(ctx context.Context, key string) (models.StatusRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return models.StatusRecord{}, apperrors.ErrRecordNotFound
	}
	return rec, nil
}

func (m *memStore) Put(ctx context.Context, record models.StatusRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.TargetKey] = record
	m.puts++
	return nil
}

func (m *memStore) LoadAll(ctx context.Context) (map[string]models.StatusRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.StatusRecord, len(m.records))
	for k, v := range m.records {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

var _ store.StatusStore = (*memStore)(nil)

// scriptedAdapter returns canned results per product ID and counts fetches.
type scriptedAdapter struct {
	platform models.Platform

	mu      sync.Mutex
	results map[string]func() (models.Observation, error)
	fetches map[string]int
}

func newScriptedAdapter(p models.Platform) *scriptedAdapter {
	return &scriptedAdapter{
		platform: p,
		results:  make(map[string]func() (models.Observation, error)),
		fetches:  make(map[string]int),
	}
}

func (a *scriptedAdapter) Name() models.Platform { return a.platform }

func (a *scriptedAdapter) Fetch(ctx context.Context, target models.Target) (models.Observation, error) {
	a.mu.Lock()
	a.fetches[target.ProductID]++
	fn := a.results[target.ProductID]
	a.mu.Unlock()

	if fn == nil {
		return models.Observation{Status: models.StatusInStock, FetchedAt: time.Now()}, nil
	}
	return fn()
}

func (a *scriptedAdapter) script(productID string, fn func() (models.Observation, error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results[productID] = fn
}

func (a *scriptedAdapter) fetchCount(productID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fetches[productID]
}

func inStock(price float64) func() (models.Observation, error) {
	return func() (models.Observation, error) {
		return models.Observation{Status: models.StatusInStock, Price: &price, FetchedAt: time.Now()}, nil
	}
}

func outOfStock() func() (models.Observation, error) {
	return func() (models.Observation, error) {
		return models.Observation{Status: models.StatusOutOfStock, FetchedAt: time.Now()}, nil
	}
}

func failWith(kind apperrors.FetchErrorKind) func() (models.Observation, error) {
	return func() (models.Observation, error) {
		return models.Observation{}, apperrors.NewFetchError(kind, models.Target{}, errors.New("scripted failure"))
	}
}

// countingNotifier records every forwarded notification.
type countingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (c *countingNotifier) Send(ctx context.Context, n notify.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return nil
}

func (c *countingNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func testConfig(products map[string]config.Product, pincodes []string) *config.Config {
	return &config.Config{
		Checker: config.CheckerConfig{
			Interval:         time.Minute,
			Concurrency:      3,
			RequestTimeout:   time.Second,
			MaxRetries:       3,
			RetryDelay:       time.Millisecond,
			RetryMaxDelay:    5 * time.Millisecond,
			BackoffFactor:    2.0,
			PlatformSpacing:  time.Millisecond,
			BreakerThreshold: 100,
			BreakerCooldown:  time.Minute,
		},
		Pincodes: pincodes,
		Products: products,
		Alerts: config.AlertSettings{
			SendAlerts:          true,
			AlertOnStatusChange: true,
			AlertOnLowStock:     true,
			AlertOnOOS:          true,
			AlertOnBackInStock:  true,
			AlertOnPriceChange:  true,
		},
	}
}

func testChecker(t *testing.T, cfg *config.Config, adapter *scriptedAdapter, st store.StatusStore) (*Checker, *countingNotifier) {
	t.Helper()

	registry := platform.NewRegistry(time.Second)
	registry.Register(adapter)

	sink := &countingNotifier{}
	dispatcher := alert.NewDispatcher(sink, cfg.Alerts, zerolog.Nop())
	return New(cfg, registry, st, dispatcher, sink, zerolog.Nop()), sink
}

func TestRunOnce_NoTargetsIsFatal(t *testing.T) {
	cfg := testConfig(nil, nil)
	chk, _ := testChecker(t, cfg, newScriptedAdapter(models.PlatformBlinkit), newMemStore())

	_, err := chk.RunOnce(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNoTargets)
}

func TestRunOnce_SeedsStoreWithoutAlerts(t *testing.T) {
	cfg := testConfig(map[string]config.Product{
		"Amul Butter": {URL: "https://blinkit.com/prn/amul-butter/prid/1"},
	}, []string{"110001", "560001"})

	adapter := newScriptedAdapter(models.PlatformBlinkit)
	adapter.script("amul-butter", inStock(55))
	st := newMemStore()
	chk, sink := testChecker(t, cfg, adapter, st)

	summary, err := chk.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Checked)
	assert.Equal(t, 2, summary.InStock)
	assert.Equal(t, 0, summary.Events)
	assert.Equal(t, 0, sink.count(), "first observations must not alert")
	assert.Len(t, st.records, 2)
}

func TestRunOnce_DetectsTransitionAcrossPasses(t *testing.T) {
	cfg := testConfig(map[string]config.Product{
		"Amul Butter": {URL: "https://blinkit.com/prn/amul-butter/prid/1"},
	}, []string{"110001"})

	adapter := newScriptedAdapter(models.PlatformBlinkit)
	adapter.script("amul-butter", inStock(55))
	st := newMemStore()
	chk, sink := testChecker(t, cfg, adapter, st)

	_, err := chk.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, sink.count())

	adapter.script("amul-butter", outOfStock())
	summary, err := chk.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Events)
	assert.Equal(t, 1, sink.count())

	rec := st.records["amul-butter/110001/blinkit"]
	assert.Equal(t, models.StatusOutOfStock, rec.Status)
}

func TestRunOnce_NetworkFailureRetriesThenAlertsOnce(t *testing.T) {
	cfg := testConfig(map[string]config.Product{
		"Amul Butter": {URL: "https://blinkit.com/prn/amul-butter/prid/1"},
	}, []string{"110001"})

	adapter := newScriptedAdapter(models.PlatformBlinkit)
	adapter.script("amul-butter", failWith(apperrors.NetworkError))
	st := newMemStore()
	chk, sink := testChecker(t, cfg, adapter, st)

	summary, err := chk.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, cfg.Checker.MaxRetries, adapter.fetchCount("amul-butter"), "network failures retry up to the cap")
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Events, "exhausted retries fire one FetchFailed")
	assert.Equal(t, 0, st.puts, "failed fetches never touch the store")

	// A second pass with the same failure kind stays silent.
	summary, err = chk.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Events, "sustained outage alerts only once")
	assert.Equal(t, 1, sink.count())
}

func TestRunOnce_ParseFailureDoesNotRetry(t *testing.T) {
	cfg := testConfig(map[string]config.Product{
		"Amul Butter": {URL: "https://blinkit.com/prn/amul-butter/prid/1"},
	}, []string{"110001"})

	adapter := newScriptedAdapter(models.PlatformBlinkit)
	adapter.script("amul-butter", failWith(apperrors.ParseError))
	st := newMemStore()
	chk, _ := testChecker(t, cfg, adapter, st)

	summary, err := chk.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, adapter.fetchCount("amul-butter"), "parse failures are not retryable")
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, st.puts)
}

func TestRunOnce_FailureIsolation(t *testing.T) {
	products := map[string]config.Product{
		"Amul Butter": {URL: "https://blinkit.com/prn/amul-butter/prid/1"},
		"Tata Salt":   {URL: "https://blinkit.com/prn/tata-salt/prid/2"},
		"Maggi":       {URL: "https://blinkit.com/prn/maggi/prid/3"},
		"Aashirvaad":  {URL: "https://blinkit.com/prn/aashirvaad/prid/4"},
		"Daawat Rice": {URL: "https://blinkit.com/prn/daawat-rice/prid/5"},
	}
	cfg := testConfig(products, []string{"110001"})

	adapter := newScriptedAdapter(models.PlatformBlinkit)
	adapter.script("maggi", failWith(apperrors.ParseError))
	st := newMemStore()
	chk, _ := testChecker(t, cfg, adapter, st)

	summary, err := chk.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Checked)
	assert.Equal(t, 4, summary.InStock, "one broken target must not poison the pass")
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, st.records, 4)
	assert.NotContains(t, st.records, "maggi/110001/blinkit")
}

func TestRunOnce_RecoveryAfterOutageAlertsAgain(t *testing.T) {
	cfg := testConfig(map[string]config.Product{
		"Amul Butter": {URL: "https://blinkit.com/prn/amul-butter/prid/1"},
	}, []string{"110001"})

	adapter := newScriptedAdapter(models.PlatformBlinkit)
	st := newMemStore()
	chk, sink := testChecker(t, cfg, adapter, st)

	// Seed, fail, recover, fail again.
	adapter.script("amul-butter", inStock(55))
	_, err := chk.RunOnce(context.Background())
	require.NoError(t, err)

	adapter.script("amul-butter", failWith(apperrors.ParseError))
	_, err = chk.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, sink.count())

	adapter.script("amul-butter", inStock(55))
	_, err = chk.RunOnce(context.Background())
	require.NoError(t, err)

	adapter.script("amul-butter", failWith(apperrors.ParseError))
	_, err = chk.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sink.count(), "a new outage after recovery alerts again")
}

func TestRunOnce_Cancellation(t *testing.T) {
	cfg := testConfig(map[string]config.Product{
		"Amul Butter": {URL: "https://blinkit.com/prn/amul-butter/prid/1"},
	}, []string{"110001", "110002", "110003", "110004"})

	adapter := newScriptedAdapter(models.PlatformBlinkit)
	st := newMemStore()
	chk, _ := testChecker(t, cfg, adapter, st)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := chk.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_RejectsConcurrentRuns(t *testing.T) {
	cfg := testConfig(map[string]config.Product{
		"Amul Butter": {URL: "https://blinkit.com/prn/amul-butter/prid/1"},
	}, []string{"110001"})
	cfg.Checker.Interval = time.Hour

	adapter := newScriptedAdapter(models.PlatformBlinkit)
	chk, _ := testChecker(t, cfg, adapter, newMemStore())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan error, 1)
	go func() { started <- chk.Run(ctx) }()

	// Wait for the first pass so Run is definitely active.
	require.Eventually(t, func() bool {
		return adapter.fetchCount("amul-butter") > 0
	}, 2*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, chk.Run(ctx), apperrors.ErrAlreadyRunning)

	cancel()
	assert.ErrorIs(t, <-started, context.Canceled)
}

func TestRun_IntervalRequiresPositiveInterval(t *testing.T) {
	cfg := testConfig(map[string]config.Product{
		"Amul Butter": {URL: "https://blinkit.com/prn/amul-butter/prid/1"},
	}, []string{"110001"})
	cfg.Checker.Interval = 0

	chk, _ := testChecker(t, cfg, newScriptedAdapter(models.PlatformBlinkit), newMemStore())

	err := chk.Run(context.Background())
	var verr *apperrors.ValidationError
	assert.True(t, apperrors.As(err, &verr))
}

func TestRun_InvalidScheduleFailsFast(t *testing.T) {
	cfg := testConfig(map[string]config.Product{
		"Amul Butter": {URL: "https://blinkit.com/prn/amul-butter/prid/1"},
	}, []string{"110001"})
	cfg.Checker.Schedule = "not a cron line"

	chk, _ := testChecker(t, cfg, newScriptedAdapter(models.PlatformBlinkit), newMemStore())
	assert.Error(t, chk.Run(context.Background()))
}
