// Package alert formats detected events into human-readable messages and
// hands them to the notification sink.
package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pinstock/internal/config"
	apperrors "pinstock/internal/errors"
	"pinstock/internal/logging"
	"pinstock/internal/models"
	"pinstock/internal/notify"
	"pinstock/pkg/utils"
)

// Dispatcher forwards alert events to the notification sink, at most once per
// event. Alert-settings toggles suppress forwarding only: detection upstream
// is unconditional.
type Dispatcher struct {
	notifier notify.Notifier
	settings config.AlertSettings
	logger   zerolog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(notifier notify.Notifier, settings config.AlertSettings, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		settings: settings,
		logger:   logger,
	}
}

// Dispatch formats and forwards one event. A transport failure is logged and
// returned, but the caller never rolls back store state because of it: stock
// state stays authoritative even when delivery fails.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.AlertEvent) error {
	if !d.shouldForward(event.Kind) {
		d.logger.Debug().
			Str("alert_id", event.ID).
			Str("kind", string(event.Kind)).
			Msg("Alert suppressed by settings")
		return nil
	}

	n := notify.Notification{
		Title:     title(event.Kind),
		Message:   formatMessage(event),
		Timestamp: event.GeneratedAt,
	}

	if err := d.notifier.Send(ctx, n); err != nil {
		derr := apperrors.NewDispatchError("sink", event.ID, event.Kind, err)
		logging.LogDispatch(d.logger, event.ID, event.Kind, derr)
		return derr
	}

	logging.LogDispatch(d.logger, event.ID, event.Kind, nil)
	return nil
}

// shouldForward applies the alert settings toggles.
func (d *Dispatcher) shouldForward(kind models.AlertKind) bool {
	if !d.settings.SendAlerts {
		return false
	}
	switch kind {
	case models.AlertBecameOutOfStock:
		return d.settings.AlertOnOOS
	case models.AlertBecameLowStock:
		return d.settings.AlertOnLowStock
	case models.AlertBackInStock:
		return d.settings.AlertOnBackInStock
	case models.AlertStatusChanged:
		return d.settings.AlertOnStatusChange
	case models.AlertPriceChanged:
		return d.settings.AlertOnPriceChange
	case models.AlertFetchFailed:
		return true
	default:
		return d.settings.AlertOnStatusChange
	}
}

// title returns the fixed per-kind headline.
func title(kind models.AlertKind) string {
	switch kind {
	case models.AlertBecameOutOfStock:
		return "🚨 OUT OF STOCK"
	case models.AlertBecameLowStock:
		return "⚠️ LOW STOCK"
	case models.AlertBackInStock:
		return "✅ BACK IN STOCK"
	case models.AlertPriceChanged:
		return "💰 PRICE CHANGED"
	case models.AlertStatusChanged:
		return "📊 STATUS UPDATE"
	case models.AlertFetchFailed:
		return "❌ CHECK FAILED"
	default:
		return "📊 STOCK ALERT"
	}
}

// formatMessage renders the event-kind-specific template with target identity.
func formatMessage(event models.AlertEvent) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📦 Product: %s\n", event.Target.ProductName))
	sb.WriteString(fmt.Sprintf("📍 Pincode: %s\n", event.Target.Pincode))
	sb.WriteString(fmt.Sprintf("🛒 Platform: %s\n", event.Target.Platform))

	switch event.Kind {
	case models.AlertBecameOutOfStock:
		sb.WriteString("\nProduct is no longer available!\n")
	case models.AlertBecameLowStock:
		sb.WriteString("\nOnly a few units remaining!\n")
	case models.AlertBackInStock:
		sb.WriteString("\nProduct is available again!\n")
	case models.AlertPriceChanged:
		sb.WriteString(fmt.Sprintf("\nPrice changed: %s → %s\n",
			formatPrice(event.PreviousPrice), formatPrice(event.CurrentPrice)))
	case models.AlertStatusChanged:
		sb.WriteString(fmt.Sprintf("\nStatus changed: %s → %s\n",
			event.Previous, event.Current))
	case models.AlertFetchFailed:
		sb.WriteString("\nStock check is failing for this product; status may be stale.\n")
	}

	if event.Kind != models.AlertPriceChanged && event.CurrentPrice != nil {
		sb.WriteString(fmt.Sprintf("💰 Price: %s\n", formatPrice(event.CurrentPrice)))
	}

	sb.WriteString(fmt.Sprintf("\n🕐 %s", event.GeneratedAt.Format(time.RFC1123)))
	return sb.String()
}

func formatPrice(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return utils.FormatRupees(*p)
}
