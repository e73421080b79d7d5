package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/roastx/internal/formatter"
	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/services"
	"github.com/desertthunder/roastx/internal/shared"
)

const (
	defaultWorkers   = 4
	maxWorkers       = 8
	defaultRateLimit = 2.0
	manifestName     = "export_manifest.json"
)

// BulkExportOpts contains configuration for bulk roast exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format (default: markdown)
	OutputDir  string           // Base output directory (default: roast_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 4, max: 8)
	RateLimit  float64          // Records started per second (default: 2)
	Covers     bool             // Download the top artist image for Markdown exports
}

// ExportManifest is written next to the exports and lists every outcome.
type ExportManifest struct {
	Format            formatter.Format `json:"format"`
	OutputDirectory   string           `json:"output_directory"`
	CreatedAt         time.Time        `json:"created_at"`
	TotalRecords      int              `json:"total_records"`
	SuccessfulExports int              `json:"successful_exports"`
	FailedExports     int              `json:"failed_exports"`
	Records           []ManifestRecord `json:"records"`
}

type ManifestRecord struct {
	RecordExportResult
	Error string `json:"error,omitempty"`
}

// BulkExport exports every target concurrently with rate limiting and progress tracking.
//
// A producer paces record jobs through the limiter; workers load each record
// with [services.FetchRoast] and write it in the requested format. Individual
// failures are counted, not returned. The manifest is written even when ctx is
// cancelled part way, in which case ctx's error is returned with the partial result.
func (e *RoastEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	jar models.CookieJar,
	targets []models.HistoryEntry,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Format == "" {
		opts.Format = formatter.Markdown
	}
	if _, err := formatter.ParseFormat(string(opts.Format)); err != nil {
		return nil, err
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("roast_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	total := len(targets)
	result := &BulkExportResult{
		TotalRecords:    total,
		OutputDirectory: opts.OutputDir,
		Results:         make([]RecordExportResult, 0, total),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan recordJob, total)
	results := make(chan indexedResult, total)

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jar, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, target := range targets {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			e.sendProgress(prog, fetchRecordUpdate(i+1, total, title(target)))
			jobs <- recordJob{step: i + 1, entry: target}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var collected []indexedResult
	completed := 0
	for res := range results {
		completed++
		collected = append(collected, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, total, res.Title, len(res.Files)))
		} else {
			result.FailedExports++
			e.logger.Warn("record export failed", "record", res.RecordID, "error", res.Error)
			e.sendProgress(prog, exportFailedUpdate(completed, total, res.Title, res.Error))
		}
	}

	slices.SortFunc(collected, func(a, b indexedResult) int { return a.step - b.step })
	for _, res := range collected {
		result.Results = append(result.Results, res.RecordExportResult)
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	if err := writeManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))

	e.logger.Info("bulk export finished",
		"dir", opts.OutputDir, "format", opts.Format,
		"ok", result.SuccessfulExports, "failed", result.FailedExports)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

type indexedResult struct {
	step int
	RecordExportResult
}

// exportWorker is a worker goroutine that exports records from the jobs channel.
func (e *RoastEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jar models.CookieJar,
	jobs <-chan recordJob,
	results chan<- indexedResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- indexedResult{step: job.step, RecordExportResult: e.exportRecord(ctx, jar, job.entry, opts)}
	}
}

// exportRecord fetches and writes a single record.
func (e *RoastEngine) exportRecord(ctx context.Context, jar models.CookieJar, h models.HistoryEntry, opts BulkExportOpts) RecordExportResult {
	result := RecordExportResult{
		RecordID: h.ID,
		Title:    title(h),
		Files:    []string{},
	}

	if !fileSafeID(h.ID) {
		result.Error = fmt.Errorf("%w: record id %q cannot name a file", shared.ErrInvalidInput, h.ID)
		return result
	}

	roast, err := services.FetchRoast(ctx, e.svc, jar, h.ID, h.TimeRange, h.Duo, h.Partner)
	if err != nil {
		result.Error = fmt.Errorf("failed to fetch record: %w", err)
		return result
	}

	base := filepath.Join(opts.OutputDir, "roast-"+h.ID)
	switch opts.Format {
	case formatter.Markdown:
		mdRes, err := formatter.WriteMarkdownExport(roast, base, opts.Covers)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files
	default:
		path, err := formatter.WriteExport(roast, opts.Format, base+opts.Format.Extension())
		if err != nil {
			result.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
			return result
		}
		result.Files = []string{path}
	}

	result.Success = true
	return result
}

// fileSafeID reports whether a remote record id can be used as a file name
// inside the output directory.
func fileSafeID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`+"\x00")
}

func writeManifest(result *BulkExportResult, f formatter.Format, path string) error {
	manifest := ExportManifest{
		Format:            f,
		OutputDirectory:   result.OutputDirectory,
		CreatedAt:         time.Now().UTC(),
		TotalRecords:      result.TotalRecords,
		SuccessfulExports: result.SuccessfulExports,
		FailedExports:     result.FailedExports,
		Records:           make([]ManifestRecord, 0, len(result.Results)),
	}
	for _, r := range result.Results {
		rec := ManifestRecord{RecordExportResult: r}
		if r.Error != nil {
			rec.Error = r.Error.Error()
		}
		manifest.Records = append(manifest.Records, rec)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
