package analysis

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRange(t *testing.T) {
	t.Run("end covers the whole end day", func(t *testing.T) {
		rng, err := ValidateRange("2024-01-01", "2024-01-05")
		require.NoError(t, err)

		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), rng.Start)
		assert.Equal(t, time.Date(2024, 1, 5, 23, 59, 59, 0, time.UTC), rng.End)
		assert.True(t, rng.Contains(time.Date(2024, 1, 5, 23, 59, 59, 0, time.UTC)))
		assert.False(t, rng.Contains(time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("same day range is non-empty", func(t *testing.T) {
		rng, err := ValidateRange("2024-03-10", "2024-03-10")
		require.NoError(t, err)

		assert.True(t, rng.Contains(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)))
		assert.False(t, rng.Start.After(rng.End))
	})

	t.Run("start after end is rejected not swapped", func(t *testing.T) {
		_, err := ValidateRange("2024-02-01", "2024-01-01")
		require.Error(t, err)

		var rangeErr *InvalidRangeError
		require.True(t, errors.As(err, &rangeErr))
		assert.Equal(t, "2024-02-01", rangeErr.Start)
		assert.Equal(t, "2024-01-01", rangeErr.End)
	})

	t.Run("unparsable input echoes the offender", func(t *testing.T) {
		_, err := ValidateRange("not-a-date", "2024-01-01")
		require.Error(t, err)

		var rangeErr *InvalidRangeError
		require.True(t, errors.As(err, &rangeErr))
		assert.Contains(t, rangeErr.Error(), "not-a-date")

		_, err = ValidateRange("2024-01-01", "01.02.2024")
		assert.Error(t, err)
	})

	t.Run("accepts timestamps and normalizes to day end", func(t *testing.T) {
		rng, err := ValidateRange("2024-01-01T08:30:00Z", "2024-01-05T10:00:00Z")
		require.NoError(t, err)

		assert.Equal(t, time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC), rng.Start)
		assert.Equal(t, time.Date(2024, 1, 5, 23, 59, 59, 0, time.UTC), rng.End)
	})

	t.Run("same day inverted by time of day still valid", func(t *testing.T) {
		// Normalizing end to day end makes an afternoon start on the same
		// calendar day a legal one-day range.
		rng, err := ValidateRange("2024-01-05T18:00:00Z", "2024-01-05")
		require.NoError(t, err)
		assert.True(t, rng.Start.Before(rng.End))
	})
}
