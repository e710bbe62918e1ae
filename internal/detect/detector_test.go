package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pinstock/internal/errors"
	"pinstock/internal/models"
)

func testTarget() models.Target {
	return models.Target{
		ProductID:   "amul-butter-500g",
		ProductName: "Amul Butter 500g",
		Platform:    models.PlatformBlinkit,
		ProductURL:  "https://blinkit.com/prn/amul-butter/prid/12345",
		Pincode:     "110001",
	}
}

func price(v float64) *float64 { return &v }

func known(status models.StockStatus, p *float64) Snapshot {
	return Snapshot{Known: true, Status: status, Price: p}
}

func observed(status models.StockStatus, p *float64) Result {
	return Succeeded(models.Observation{Status: status, Price: p})
}

func kinds(events []models.AlertEvent) []models.AlertKind {
	out := make([]models.AlertKind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestDetect_StatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		prev Snapshot
		cur  Result
		want []models.AlertKind
	}{
		{
			name: "in stock to out of stock",
			prev: known(models.StatusInStock, nil),
			cur:  observed(models.StatusOutOfStock, nil),
			want: []models.AlertKind{models.AlertBecameOutOfStock},
		},
		{
			name: "low stock to out of stock",
			prev: known(models.StatusLowStock, nil),
			cur:  observed(models.StatusOutOfStock, nil),
			want: []models.AlertKind{models.AlertBecameOutOfStock},
		},
		{
			name: "out of stock to in stock",
			prev: known(models.StatusOutOfStock, nil),
			cur:  observed(models.StatusInStock, nil),
			want: []models.AlertKind{models.AlertBackInStock},
		},
		{
			name: "out of stock to low stock counts as back in stock",
			prev: known(models.StatusOutOfStock, nil),
			cur:  observed(models.StatusLowStock, nil),
			want: []models.AlertKind{models.AlertBackInStock},
		},
		{
			name: "persisted unknown to in stock counts as back in stock",
			prev: known(models.StatusUnknown, nil),
			cur:  observed(models.StatusInStock, nil),
			want: []models.AlertKind{models.AlertBackInStock},
		},
		{
			name: "in stock to low stock",
			prev: known(models.StatusInStock, nil),
			cur:  observed(models.StatusLowStock, nil),
			want: []models.AlertKind{models.AlertBecameLowStock},
		},
		{
			name: "low stock to in stock is a plain status change",
			prev: known(models.StatusLowStock, nil),
			cur:  observed(models.StatusInStock, nil),
			want: []models.AlertKind{models.AlertStatusChanged},
		},
		{
			name: "in stock to unknown is a plain status change",
			prev: known(models.StatusInStock, nil),
			cur:  observed(models.StatusUnknown, nil),
			want: []models.AlertKind{models.AlertStatusChanged},
		},
		{
			name: "steady in stock is silent",
			prev: known(models.StatusInStock, nil),
			cur:  observed(models.StatusInStock, nil),
			want: nil,
		},
		{
			name: "steady out of stock is silent",
			prev: known(models.StatusOutOfStock, nil),
			cur:  observed(models.StatusOutOfStock, nil),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := Detect(testTarget(), tt.prev, tt.cur)
			assert.Equal(t, tt.want, kinds(events))
		})
	}
}

func TestDetect_FirstObservationSeedsSilently(t *testing.T) {
	// A brand-new target must never alert, whatever the first status is.
	for _, status := range []models.StockStatus{
		models.StatusInStock,
		models.StatusLowStock,
		models.StatusOutOfStock,
		models.StatusUnknown,
	} {
		events := Detect(testTarget(), Snapshot{Status: models.StatusUnknown}, observed(status, price(40)))
		assert.Empty(t, events, "first observation of %s must not alert", status)
	}
}

func TestDetect_PriceChange(t *testing.T) {
	t.Run("fires alongside steady status", func(t *testing.T) {
		events := Detect(testTarget(),
			known(models.StatusInStock, price(50)),
			observed(models.StatusInStock, price(55)))

		require.Len(t, events, 1)
		assert.Equal(t, models.AlertPriceChanged, events[0].Kind)
		assert.Equal(t, 50.0, *events[0].PreviousPrice)
		assert.Equal(t, 55.0, *events[0].CurrentPrice)
	})

	t.Run("fires alongside a status transition", func(t *testing.T) {
		events := Detect(testTarget(),
			known(models.StatusInStock, price(50)),
			observed(models.StatusLowStock, price(60)))

		assert.Equal(t, []models.AlertKind{models.AlertBecameLowStock, models.AlertPriceChanged}, kinds(events))
	})

	t.Run("within tolerance is silent", func(t *testing.T) {
		events := Detect(testTarget(),
			known(models.StatusInStock, price(50.00)),
			observed(models.StatusInStock, price(50.01)))
		assert.Empty(t, events)
	})

	t.Run("missing previous price is silent", func(t *testing.T) {
		events := Detect(testTarget(),
			known(models.StatusInStock, nil),
			observed(models.StatusInStock, price(50)))
		assert.Empty(t, events)
	})

	t.Run("missing current price is silent", func(t *testing.T) {
		events := Detect(testTarget(),
			known(models.StatusInStock, price(50)),
			observed(models.StatusInStock, nil))
		assert.Empty(t, events)
	})
}

func TestDetect_FetchFailure(t *testing.T) {
	t.Run("first failure alerts", func(t *testing.T) {
		events := Detect(testTarget(),
			known(models.StatusInStock, price(50)),
			Failed(apperrors.NetworkError))

		require.Len(t, events, 1)
		assert.Equal(t, models.AlertFetchFailed, events[0].Kind)
		assert.Equal(t, models.StatusInStock, events[0].Previous)
		assert.Equal(t, models.StatusFetchError, events[0].Current)
	})

	t.Run("repeated failure of the same kind is silent", func(t *testing.T) {
		prev := known(models.StatusInStock, nil)
		prev.LastErrorKind = apperrors.NetworkError

		events := Detect(testTarget(), prev, Failed(apperrors.NetworkError))
		assert.Empty(t, events)
	})

	t.Run("failure kind change alerts again", func(t *testing.T) {
		prev := known(models.StatusInStock, nil)
		prev.LastErrorKind = apperrors.NetworkError

		events := Detect(testTarget(), prev, Failed(apperrors.ParseError))
		assert.Equal(t, []models.AlertKind{models.AlertFetchFailed}, kinds(events))
	})

	t.Run("failure on an unseeded target still alerts", func(t *testing.T) {
		events := Detect(testTarget(), Snapshot{Status: models.StatusUnknown}, Failed(apperrors.NetworkError))
		assert.Equal(t, []models.AlertKind{models.AlertFetchFailed}, kinds(events))
	})
}

func TestDetect_EventCarriesTargetIdentity(t *testing.T) {
	target := testTarget()
	events := Detect(target,
		known(models.StatusInStock, nil),
		observed(models.StatusOutOfStock, nil))

	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, target, ev.Target)
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.GeneratedAt.IsZero())
}
