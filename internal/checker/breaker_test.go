package checker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pinstock/internal/errors"
	"pinstock/internal/models"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := newPlatformBreaker(models.PlatformBlinkit, 3, time.Minute)

	require.NoError(t, b.Allow())
	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, BreakerClosed, b.State())
	require.NoError(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, BreakerOpen, b.State())
	assert.ErrorIs(t, b.Allow(), apperrors.ErrCircuitOpen)
}

func TestBreaker_SuccessResetsStreak(t *testing.T) {
	b := newPlatformBreaker(models.PlatformBlinkit, 3, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()

	// Streak never reached the threshold in a row.
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	b := newPlatformBreaker(models.PlatformBlinkit, 1, 10*time.Millisecond)

	b.RecordFailure()
	require.Equal(t, BreakerOpen, b.State())
	require.ErrorIs(t, b.Allow(), apperrors.ErrCircuitOpen)

	time.Sleep(20 * time.Millisecond)

	// Cooldown elapsed: one probe goes through.
	require.NoError(t, b.Allow())
	require.Equal(t, BreakerHalfOpen, b.State())

	t.Run("probe success closes", func(t *testing.T) {
		b.RecordSuccess()
		assert.Equal(t, BreakerClosed, b.State())
	})
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := newPlatformBreaker(models.PlatformBlinkit, 1, 10*time.Millisecond)

	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, b.Allow())
	require.Equal(t, BreakerHalfOpen, b.State())

	b.RecordFailure()
	assert.Equal(t, BreakerOpen, b.State())
	assert.ErrorIs(t, b.Allow(), apperrors.ErrCircuitOpen)
}

func TestBreakerSet_IsolatesPlatforms(t *testing.T) {
	set := newBreakerSet(1, time.Minute)

	set.get(models.PlatformBlinkit).RecordFailure()

	assert.Equal(t, BreakerOpen, set.get(models.PlatformBlinkit).State())
	assert.Equal(t, BreakerClosed, set.get(models.PlatformZepto).State())
	assert.NoError(t, set.get(models.PlatformZepto).Allow())

	// Same platform always resolves to the same breaker.
	assert.Same(t, set.get(models.PlatformBlinkit), set.get(models.PlatformBlinkit))
}
