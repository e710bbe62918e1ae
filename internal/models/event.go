package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertKind classifies a detected, alert-worthy change.
type AlertKind string

const (
	AlertBecameOutOfStock AlertKind = "BECAME_OUT_OF_STOCK"
	AlertBecameLowStock   AlertKind = "BECAME_LOW_STOCK"
	AlertBackInStock      AlertKind = "BACK_IN_STOCK"
	AlertPriceChanged     AlertKind = "PRICE_CHANGED"
	AlertStatusChanged    AlertKind = "STATUS_CHANGED"
	AlertFetchFailed      AlertKind = "FETCH_FAILED"
)

// AlertEvent is a detected change for a target. Events are created only by
// the transition detector and handed to the dispatcher exactly once; they are
// not persisted.
type AlertEvent struct {
	ID            string
	Kind          AlertKind
	Target        Target
	Previous      StockStatus
	Current       StockStatus
	PreviousPrice *float64
	CurrentPrice  *float64
	GeneratedAt   time.Time
}

// NewAlertEvent creates an AlertEvent with a fresh ID and timestamp.
func NewAlertEvent(kind AlertKind, target Target) AlertEvent {
	return AlertEvent{
		ID:          uuid.NewString(),
		Kind:        kind,
		Target:      target,
		GeneratedAt: time.Now(),
	}
}
