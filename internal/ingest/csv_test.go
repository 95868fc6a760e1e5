package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmartel/consoscan/pkg/models"
)

func TestParseSemicolonSeparatedFrenchExport(t *testing.T) {
	loader := NewLoader(nil)

	raw := []byte("Date - Heure;Date;Heure;Consommation brute gaz (MW PCS 0°C) - GRTgaz;Statut - GRTgaz;Consommation brute électricité (MW) - RTE;Statut - RTE\n" +
		"2024-01-15T12:00:00+01:00;2024-01-15;12:00;38000;Définitif;55000;Définitif\n" +
		"2024-01-15T12:30:00+01:00;2024-01-15;12:30;37500;Définitif;54800;Définitif\n")

	ds, err := loader.Parse("odre", "test", raw)
	require.NoError(t, err)

	assert.Equal(t, models.DateColumn, ds.DateColumn)
	assert.Equal(t, []string{models.DateColumn, models.ElectricityColumn, models.GasColumn}, ds.Columns)
	require.Len(t, ds.Rows, 2)

	// The timestamp carries a +01:00 offset and must come back as UTC.
	assert.Equal(t, time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC), ds.Rows[0].Date)
	assert.Equal(t, 55000.0, ds.Rows[0].Values[models.ElectricityColumn])
	assert.Equal(t, 38000.0, ds.Rows[0].Values[models.GasColumn])
}

func TestParseCommaSeparated(t *testing.T) {
	loader := NewLoader(nil)

	raw := []byte("date,electricity usage,gas usage\n2024-03-01,120.5,80\n2024-03-02,118,79.5\n")

	ds, err := loader.Parse("simple", "test", raw)
	require.NoError(t, err)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, 120.5, ds.Rows[0].Values[models.ElectricityColumn])
	assert.Equal(t, 79.5, ds.Rows[1].Values[models.GasColumn])
}

func TestParseLatin1Fallback(t *testing.T) {
	loader := NewLoader(nil)

	// 0xe9 is é in Latin-1 and an invalid byte sequence in UTF-8.
	raw := []byte("date;consommation \xe9lectricit\xe9\n2024-01-01;100\n")

	ds, err := loader.Parse("legacy", "test", raw)
	require.NoError(t, err)
	assert.Equal(t, []string{models.DateColumn, models.ElectricityColumn}, ds.Columns)
	require.Len(t, ds.Rows, 1)
	assert.Equal(t, 100.0, ds.Rows[0].Values[models.ElectricityColumn])
}

func TestParseByteOrderMark(t *testing.T) {
	loader := NewLoader(nil)

	raw := []byte("﻿date,electr\n2024-01-01,5\n")

	ds, err := loader.Parse("bom", "test", raw)
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)
	assert.Equal(t, 5.0, ds.Rows[0].Values[models.ElectricityColumn])
}

func TestParseFrenchDecimals(t *testing.T) {
	loader := NewLoader(nil)

	raw := []byte("date;electr;gaz\n2024-01-01;1 234,5;2 000,25\n")

	ds, err := loader.Parse("decimals", "test", raw)
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)
	assert.Equal(t, 1234.5, ds.Rows[0].Values[models.ElectricityColumn])
	assert.Equal(t, 2000.25, ds.Rows[0].Values[models.GasColumn])
}

func TestParseDropsFlaggedRows(t *testing.T) {
	loader := NewLoader(nil)

	raw := []byte("date,electr,flag_ignore\n" +
		"2024-01-01,10,non\n" +
		"2024-01-02,20,oui\n" +
		"2024-01-03,30,\n" +
		"2024-01-04,40,OUI\n")

	ds, err := loader.Parse("flagged", "test", raw)
	require.NoError(t, err)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, 10.0, ds.Rows[0].Values[models.ElectricityColumn])
	assert.Equal(t, 30.0, ds.Rows[1].Values[models.ElectricityColumn])
}

func TestParseSkipsBadDatesAndKeepsBadReadingsAsMissing(t *testing.T) {
	loader := NewLoader(nil)

	raw := []byte("date,electr\n" +
		"2024-01-01,10\n" +
		"not a date,20\n" +
		"2024-01-03,n/a\n" +
		"2024-01-04,\n" +
		"2024-01-05,50\n")

	ds, err := loader.Parse("dirty", "test", raw)
	require.NoError(t, err)
	require.Len(t, ds.Rows, 4, "row with unparsable date is dropped")

	_, present := ds.Rows[1].Values[models.ElectricityColumn]
	assert.False(t, present, "unparsable reading becomes a missing value")
	_, present = ds.Rows[2].Values[models.ElectricityColumn]
	assert.False(t, present, "empty reading becomes a missing value")
	assert.Equal(t, 50.0, ds.Rows[3].Values[models.ElectricityColumn])
}

func TestParseDayFirstDates(t *testing.T) {
	loader := NewLoader(nil)

	raw := []byte("date;electr\n15/01/2024;100\n")

	ds, err := loader.Parse("dayfirst", "test", raw)
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), ds.Rows[0].Date)
}

func TestParseNumericColumnFallback(t *testing.T) {
	loader := NewLoader(nil)

	// No column name matches any pattern: the date column is found by
	// sampling values and the numeric columns map to electricity then gas.
	raw := []byte("Jour;Quantité A;Quantité B\n" +
		"2024-01-01;10;20\n" +
		"2024-01-02;11;21\n")

	ds, err := loader.Parse("anonymous", "test", raw)
	require.NoError(t, err)
	assert.Equal(t, []string{models.DateColumn, models.ElectricityColumn, models.GasColumn}, ds.Columns)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, 10.0, ds.Rows[0].Values[models.ElectricityColumn])
	assert.Equal(t, 20.0, ds.Rows[0].Values[models.GasColumn])
}

func TestParseRejectsUnusableFiles(t *testing.T) {
	loader := NewLoader(nil)

	t.Run("empty file", func(t *testing.T) {
		_, err := loader.Parse("empty", "test", nil)
		assert.Error(t, err)
	})

	t.Run("single column", func(t *testing.T) {
		_, err := loader.Parse("narrow", "test", []byte("date\n2024-01-01\n"))
		assert.Error(t, err)
	})

	t.Run("no date column", func(t *testing.T) {
		_, err := loader.Parse("dateless", "test", []byte("a,b\nfoo,bar\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no date column")
	})

	t.Run("no consumption column", func(t *testing.T) {
		_, err := loader.Parse("valueless", "test", []byte("date,comment\n2024-01-01,hello\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no consumption columns")
	})
}

func TestLoadFile(t *testing.T) {
	loader := NewLoader(nil)

	path := filepath.Join(t.TempDir(), "house_2024.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,electr\n2024-01-01,10\n"), 0644))

	ds, err := loader.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "house_2024", ds.Name)
	assert.Equal(t, path, ds.Source)
	require.Len(t, ds.Rows, 1)
}

func TestLoadFileMissing(t *testing.T) {
	loader := NewLoader(nil)

	_, err := loader.LoadFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
