// Package detect decides which alert events a fresh observation fires,
// given the last known state of the target.
package detect

import (
	"math"

	apperrors "pinstock/internal/errors"
	"pinstock/internal/models"
)

// PriceTolerance is the rounding tolerance below which two prices are equal.
const PriceTolerance = 0.01

// Snapshot is the detector's view of a target's previous state. Known is true
// only when a prior successful observation exists for the target; LastErrorKind
// is the fetch-error kind last seen for the target within the current run, or
// empty.
type Snapshot struct {
	Known         bool
	Status        models.StockStatus
	Price         *float64
	LastErrorKind apperrors.FetchErrorKind
}

// Result is the outcome of one fetch: a successful observation, or the error
// kind when the fetch failed.
type Result struct {
	Observation models.Observation
	ErrorKind   apperrors.FetchErrorKind
	Failed      bool
}

// Succeeded wraps a successful observation.
func Succeeded(obs models.Observation) Result {
	return Result{Observation: obs}
}

// Failed wraps a failed fetch.
func Failed(kind apperrors.FetchErrorKind) Result {
	return Result{Failed: true, ErrorKind: kind}
}

// Detect compares the previous state against a fresh result and returns the
// alert events that fire. It is a pure function: no side effects, same inputs
// always yield the same events. At most one status-kind event and one price
// event are returned per call.
func Detect(target models.Target, prev Snapshot, cur Result) []models.AlertEvent {
	if cur.Failed {
		return detectFailure(target, prev, cur)
	}

	// First successful observation only seeds the store. Alerting here would
	// fire a false burst every time a new target is added.
	if !prev.Known {
		return nil
	}

	var events []models.AlertEvent

	if ev, ok := statusEvent(target, prev, cur.Observation); ok {
		events = append(events, ev)
	}
	if ev, ok := priceEvent(target, prev, cur.Observation); ok {
		events = append(events, ev)
	}

	return events
}

// detectFailure emits FetchFailed unless the previous fetch for this target
// already reported the same error kind within the current run. Sustained
// outages therefore alert once, not every pass.
func detectFailure(target models.Target, prev Snapshot, cur Result) []models.AlertEvent {
	if prev.LastErrorKind == cur.ErrorKind {
		return nil
	}

	ev := models.NewAlertEvent(models.AlertFetchFailed, target)
	ev.Previous = prev.Status
	ev.Current = models.StatusFetchError
	ev.PreviousPrice = prev.Price
	return []models.AlertEvent{ev}
}

// statusEvent applies the status-kind rules in priority order.
func statusEvent(target models.Target, prev Snapshot, obs models.Observation) (models.AlertEvent, bool) {
	prevStatus, curStatus := prev.Status, obs.Status

	var kind models.AlertKind
	switch {
	case (prevStatus == models.StatusOutOfStock || prevStatus == models.StatusUnknown) &&
		(curStatus == models.StatusInStock || curStatus == models.StatusLowStock):
		kind = models.AlertBackInStock
	case curStatus == models.StatusOutOfStock && prevStatus != models.StatusOutOfStock:
		kind = models.AlertBecameOutOfStock
	case curStatus == models.StatusLowStock && prevStatus == models.StatusInStock:
		kind = models.AlertBecameLowStock
	case curStatus != prevStatus:
		kind = models.AlertStatusChanged
	default:
		return models.AlertEvent{}, false
	}

	ev := models.NewAlertEvent(kind, target)
	ev.Previous = prevStatus
	ev.Current = curStatus
	ev.PreviousPrice = prev.Price
	ev.CurrentPrice = obs.Price
	return ev, true
}

// priceEvent fires when both observations carry a price and they differ
// beyond the rounding tolerance, independent of any status-kind event.
func priceEvent(target models.Target, prev Snapshot, obs models.Observation) (models.AlertEvent, bool) {
	if prev.Price == nil || obs.Price == nil {
		return models.AlertEvent{}, false
	}
	if math.Abs(*prev.Price-*obs.Price) <= PriceTolerance {
		return models.AlertEvent{}, false
	}

	ev := models.NewAlertEvent(models.AlertPriceChanged, target)
	ev.Previous = prev.Status
	ev.Current = obs.Status
	ev.PreviousPrice = prev.Price
	ev.CurrentPrice = obs.Price
	return ev, true
}
