package analysis

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmartel/consoscan/pkg/models"
)

// columnsOnly builds a dataset with the given column layout and no rows;
// resolution only looks at the column names.
func columnsOnly(dateCol string, columns ...string) *models.Dataset {
	return &models.Dataset{
		Name:       "test",
		LoadedAt:   time.Now(),
		DateColumn: dateCol,
		Columns:    columns,
	}
}

func TestResolveSeriesOrder(t *testing.T) {
	t.Run("exact beats keyword", func(t *testing.T) {
		ds := columnsOnly("date", "date", "Consommation gaz (MW)", "gas_consumption")

		series, err := ResolveSeries(ds, models.Gas)
		require.NoError(t, err)
		assert.Equal(t, "gas_consumption", series.Column)
		assert.Equal(t, RuleExact, series.Rule)
	})

	t.Run("keyword picks first column in original order", func(t *testing.T) {
		ds := columnsOnly("date", "date", "Consommation gaz GRTgaz (MW)", "Consommation gaz Teréga (MW)")

		series, err := ResolveSeries(ds, models.Gas)
		require.NoError(t, err)
		assert.Equal(t, "Consommation gaz GRTgaz (MW)", series.Column)
		assert.Equal(t, RuleKeyword, series.Rule)
	})

	t.Run("keyword is case-insensitive", func(t *testing.T) {
		ds := columnsOnly("date", "date", "CONSOMMATION GAZ (MW)")

		series, err := ResolveSeries(ds, models.Gas)
		require.NoError(t, err)
		assert.Equal(t, RuleKeyword, series.Rule)
	})

	t.Run("accented electricity header matches", func(t *testing.T) {
		ds := columnsOnly("date", "date", "Consommation électricité (MW)", "Consommation gaz (MW)")

		series, err := ResolveSeries(ds, models.Electricity)
		require.NoError(t, err)
		assert.Equal(t, "Consommation électricité (MW)", series.Column)
		assert.Equal(t, RuleKeyword, series.Rule)
	})

	t.Run("gas keyword column never resolves via fallback", func(t *testing.T) {
		// Single non-date column that also matches the keyword set: the
		// keyword rule must claim it before the generic fallback can.
		ds := columnsOnly("date", "date", "gaz naturel")

		series, err := ResolveSeries(ds, models.Gas)
		require.NoError(t, err)
		assert.Equal(t, RuleKeyword, series.Rule)
	})
}

func TestResolveSeriesFallback(t *testing.T) {
	t.Run("sole non-date column is used", func(t *testing.T) {
		ds := columnsOnly("date", "date", "daily_load_mw")

		series, err := ResolveSeries(ds, models.Electricity)
		require.NoError(t, err)
		assert.Equal(t, "daily_load_mw", series.Column)
		assert.Equal(t, RuleFallback, series.Rule)
	})

	t.Run("several ambiguous columns decline", func(t *testing.T) {
		ds := columnsOnly("date", "date", "load_a", "load_b")

		_, err := ResolveSeries(ds, models.Electricity)
		require.Error(t, err)

		var notFound *SeriesNotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, models.Electricity, notFound.Category)
		assert.Contains(t, notFound.Error(), "load_a")
		assert.Contains(t, notFound.Error(), "load_b")
	})
}

func TestResolveSeriesErrors(t *testing.T) {
	t.Run("no date column", func(t *testing.T) {
		ds := columnsOnly("", "gas_consumption")

		_, err := ResolveSeries(ds, models.Gas)
		var notFound *SeriesNotFoundError
		require.True(t, errors.As(err, &notFound))
	})

	t.Run("date column named but absent", func(t *testing.T) {
		ds := columnsOnly("date", "gas_consumption")

		_, err := ResolveSeries(ds, models.Gas)
		assert.Error(t, err)
	})

	t.Run("message names the category", func(t *testing.T) {
		ds := columnsOnly("date", "date", "a", "b")

		_, err := ResolveSeries(ds, models.Gas)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gas")
	})
}
