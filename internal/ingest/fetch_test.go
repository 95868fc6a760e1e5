package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmartel/consoscan/internal/config"
)

func TestRewriteSourceURL(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{
			name:     "exploration URL becomes export endpoint",
			in:       "https://odre.opendatasoft.com/explore/dataset/consommation-quotidienne-brute/information/",
			expected: config.DefaultFetchURL,
		},
		{
			name:     "direct csv link untouched",
			in:       "https://odre.opendatasoft.com/files/consommation.csv",
			expected: "https://odre.opendatasoft.com/files/consommation.csv",
		},
		{
			name:     "unrelated URL untouched",
			in:       "https://example.com/data",
			expected: "https://example.com/data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RewriteSourceURL(tt.in))
		})
	}
}

func TestFetchDownloadsParsesAndBacksUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("date;electr;gaz\n2024-01-01;120;80\n2024-01-02;118;79\n"))
	}))
	defer server.Close()

	destDir := t.TempDir()
	fetcher := NewFetcher(NewLoader(nil), nil)

	result, err := fetcher.Fetch(context.Background(), server.URL+"/export.csv", destDir)
	require.NoError(t, err)
	require.NotNil(t, result.Dataset)
	assert.Len(t, result.Dataset.Rows, 2)
	assert.Equal(t, server.URL+"/export.csv", result.Dataset.Source)
	assert.True(t, strings.HasPrefix(result.Dataset.Name, "odre_data_"))

	// The raw payload is kept as a timestamped backup and the temp file is gone.
	data, err := os.ReadFile(result.BackupPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2024-01-01")

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(result.BackupPath), entries[0].Name())
}

func TestFetchPreservesUnparsableDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a csv at all"))
	}))
	defer server.Close()

	destDir := t.TempDir()
	fetcher := NewFetcher(NewLoader(nil), nil)

	_, err := fetcher.Fetch(context.Background(), server.URL+"/bad.csv", destDir)
	require.Error(t, err)

	// The payload stays on disk for inspection.
	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "temp_"))
}

func TestFetchReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone fishing", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := NewFetcher(NewLoader(nil), nil)

	_, err := fetcher.Fetch(context.Background(), server.URL, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
