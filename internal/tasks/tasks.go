package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/services"
	"github.com/desertthunder/roastx/internal/shared"
)

// RecordExportResult is the outcome of exporting a single record.
type RecordExportResult struct {
	RecordID string   `json:"record_id"`
	Title    string   `json:"title"`
	Success  bool     `json:"success"`
	Files    []string `json:"files,omitempty"`
	Error    error    `json:"-"`
}

// BulkExportResult contains all data from a bulk export run.
type BulkExportResult struct {
	TotalRecords      int                  // Records requested
	SuccessfulExports int                  // Records written
	FailedExports     int                  // Records that failed to fetch or write
	OutputDirectory   string               // Directory holding every export
	ManifestPath      string               // Path of export_manifest.json
	Results           []RecordExportResult // Per-record outcomes in completion order
}

type recordJob struct {
	step  int
	entry models.HistoryEntry
}

// RoastEngine runs export operations against a [services.RoastService].
type RoastEngine struct {
	svc    services.RoastService
	logger *log.Logger
}

// NewRoastEngine creates a RoastEngine. A nil logger discards output.
func NewRoastEngine(svc services.RoastService, logger *log.Logger) *RoastEngine {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &RoastEngine{svc: svc, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *RoastEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Targets resolves record ids against the remote history so each export knows
// its time range and partner. With no ids every history entry is returned.
func (e *RoastEngine) Targets(ctx context.Context, progress chan<- ProgressUpdate, jar models.CookieJar, ids []string) ([]models.HistoryEntry, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchHistoryUpdate())
	history, err := e.svc.History(ctx, jar)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	e.sendProgress(progress, foundHistoryUpdate(len(history)))

	if len(ids) == 0 {
		return history, nil
	}

	byID := make(map[string]models.HistoryEntry, len(history))
	for _, h := range history {
		byID[h.ID] = h
	}

	var (
		targets []models.HistoryEntry
		missing []string
	)
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || id == models.PendingRecordID {
			continue
		}
		h, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		targets = append(targets, h)
	}

	if len(missing) > 0 {
		return targets, fmt.Errorf("%w: %s", shared.ErrRecordNotFound, strings.Join(missing, ", "))
	}
	return targets, nil
}

func title(h models.HistoryEntry) string {
	return models.Roast{RecordID: h.ID, TimeRange: h.TimeRange, Duo: h.Duo, Partner: h.Partner}.Title()
}
