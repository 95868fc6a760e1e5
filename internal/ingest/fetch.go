package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmartel/consoscan/internal/config"
	"github.com/jmartel/consoscan/pkg/models"
)

// FetchResult describes a successful download.
type FetchResult struct {
	Dataset    *models.Dataset
	BackupPath string
}

// Fetcher downloads CSV exports over HTTP and hands them to a Loader.
type Fetcher struct {
	loader *Loader
	client *http.Client
	logger *slog.Logger
}

// NewFetcher creates a fetcher. A nil logger discards diagnostics.
func NewFetcher(loader *Loader, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Fetcher{
		loader: loader,
		client: &http.Client{Timeout: 60 * time.Second},
		logger: logger,
	}
}

// RewriteSourceURL converts an opendatasoft dataset exploration URL into
// the direct CSV export endpoint. Every other URL passes through untouched.
func RewriteSourceURL(rawURL string) string {
	if strings.Contains(rawURL, "opendatasoft.com") && !strings.HasSuffix(rawURL, ".csv") &&
		strings.Contains(rawURL, "explore/dataset/consommation-quotidienne-brute") {
		return config.DefaultFetchURL
	}
	return rawURL
}

// Fetch downloads a CSV export, parses it and keeps a timestamped backup of
// the raw file in destDir. When parsing fails the downloaded payload is
// preserved in destDir so it can be inspected.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, destDir string) (*FetchResult, error) {
	fetchURL := RewriteSourceURL(rawURL)
	if fetchURL != rawURL {
		f.logger.Info("converted exploration URL to direct download URL", "url", fetchURL)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("download returned status %d: %s", resp.StatusCode, string(body))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	f.logger.Info("downloaded data", "size", humanize.Bytes(uint64(len(raw))))

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("creating download directory: %w", err)
	}
	tempPath := filepath.Join(destDir, "temp_"+downloadFilename(fetchURL))
	if err := os.WriteFile(tempPath, raw, 0644); err != nil {
		return nil, fmt.Errorf("saving download: %w", err)
	}

	name := fmt.Sprintf("odre_data_%s", time.Now().Format("20060102_150405"))
	ds, err := f.loader.Parse(name, fetchURL, raw)
	if err != nil {
		// Keep the temp file so the payload can be inspected.
		f.logger.Error("downloaded file did not parse", "path", tempPath, "error", err)
		return nil, fmt.Errorf("parsing downloaded CSV (preserved at %s): %w", tempPath, err)
	}

	backupPath := filepath.Join(destDir, name+".csv")
	if err := os.Rename(tempPath, backupPath); err != nil {
		return nil, fmt.Errorf("saving backup: %w", err)
	}
	f.logger.Info("saved a backup of the data", "path", backupPath)

	return &FetchResult{Dataset: ds, BackupPath: backupPath}, nil
}

// downloadFilename derives a file name from the URL path, defaulting to
// downloaded_data.csv and always ending in .csv.
func downloadFilename(rawURL string) string {
	name := "downloaded_data.csv"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "." && base != "/" {
			name = base
		}
	}
	if !strings.HasSuffix(name, ".csv") {
		name += ".csv"
	}
	return name
}
