package models

import "time"

// StockStatus is the normalized availability classification for a target.
// The stock variants are ordered Unknown < InStock < LowStock < OutOfStock;
// StatusFetchError is a terminal variant distinct from the stock variants.
type StockStatus int

const (
	StatusUnknown StockStatus = iota
	StatusInStock
	StatusLowStock
	StatusOutOfStock
	StatusFetchError
)

// String returns the display form of the status.
func (s StockStatus) String() string {
	switch s {
	case StatusInStock:
		return "IN_STOCK"
	case StatusLowStock:
		return "LOW_STOCK"
	case StatusOutOfStock:
		return "OUT_OF_STOCK"
	case StatusFetchError:
		return "FETCH_ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseStockStatus parses a persisted status string.
func ParseStockStatus(s string) StockStatus {
	switch s {
	case "IN_STOCK":
		return StatusInStock
	case "LOW_STOCK":
		return StatusLowStock
	case "OUT_OF_STOCK":
		return StatusOutOfStock
	case "FETCH_ERROR":
		return StatusFetchError
	default:
		return StatusUnknown
	}
}

// IsStockVariant reports whether s is one of the stock variants as opposed
// to StatusFetchError.
func (s StockStatus) IsStockVariant() bool {
	return s != StatusFetchError
}

// Observation is one normalized adapter result for a target.
// Price and OldPrice may be absent when the page carries no price signal.
type Observation struct {
	Status    StockStatus
	Price     *float64
	OldPrice  *float64
	FetchedAt time.Time
}

// StatusRecord is the persisted last-known status for a target.
// It is written after every successful fetch and never on a fetch error, so
// the next check always compares against the last successful observation.
type StatusRecord struct {
	TargetKey  string
	ProductID  string
	Pincode    string
	Platform   Platform
	Status     StockStatus
	Price      *float64
	ObservedAt time.Time
}
