package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/roastx/internal/formatter"
	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/shared"
	tu "github.com/desertthunder/roastx/internal/testing"
)

// flakyRoast fails the artists call for one record id.
type flakyRoast struct {
	*tu.MockRoast
	fail string
}

func (f *flakyRoast) Artists(ctx context.Context, jar models.CookieJar, id string, duo bool) (models.Ranking, error) {
	if id == f.fail {
		return models.Ranking{}, shared.ErrServiceUnavailable
	}
	return f.MockRoast.Artists(ctx, jar, id, duo)
}

func filledMock() *tu.MockRoast {
	mock := tu.NewMockRoast()
	mock.ArtistList = tu.SoloArtists(3)
	mock.TrackList = models.Ranking{Entries: []models.Entry{{Rank: 1, Name: "Song", Artist: "Artist 1"}}}
	mock.GenreData = models.Genres{Genres: []string{"pop"}}
	mock.SummaryData = models.Summary{Artists: []string{"Artist 1"}, Narrative: "yikes"}
	return mock
}

func drain(ch chan ProgressUpdate) {
	go func() {
		for range ch {
		}
	}()
}

func readManifest(t *testing.T, path string) ExportManifest {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	var manifest ExportManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("failed to parse manifest: %v", err)
	}
	return manifest
}

func TestBulkExport(t *testing.T) {
	sess := models.NewSession(0)

	tests := []struct {
		name     string
		format   formatter.Format
		targets  []models.HistoryEntry
		validate func(t *testing.T, result *BulkExportResult, dir string)
	}{
		{
			name:    "json export",
			format:  formatter.JSON,
			targets: history()[:1],
			validate: func(t *testing.T, result *BulkExportResult, dir string) {
				path := filepath.Join(dir, "roast-1.json")
				tu.AssertFileExists(t, path)
				if len(result.Results[0].Files) != 1 || result.Results[0].Files[0] != path {
					t.Errorf("unexpected files %v", result.Results[0].Files)
				}
			},
		},
		{
			name:    "csv export",
			format:  formatter.CSV,
			targets: history(),
			validate: func(t *testing.T, result *BulkExportResult, dir string) {
				for _, id := range []string{"1", "2", "3"} {
					tu.AssertFileExists(t, filepath.Join(dir, "roast-"+id+".csv"))
				}
				if !strings.Contains(tu.MustReadFile(t, filepath.Join(dir, "roast-2.csv")), "Category,Rank") {
					t.Error("csv export missing headers")
				}
			},
		},
		{
			name:    "text export",
			format:  formatter.Text,
			targets: history()[1:2],
			validate: func(t *testing.T, result *BulkExportResult, dir string) {
				out := tu.MustReadFile(t, filepath.Join(dir, "roast-2.txt"))
				if !strings.Contains(out, "Duo roast with sam") {
					t.Errorf("text export missing title:\n%s", out)
				}
			},
		},
		{
			name:    "markdown export",
			format:  formatter.Markdown,
			targets: history()[:2],
			validate: func(t *testing.T, result *BulkExportResult, dir string) {
				tu.AssertDirExists(t, filepath.Join(dir, "roast-1"))
				tu.AssertFileExists(t, filepath.Join(dir, "roast-2", "README.md"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			engine := NewRoastEngine(filledMock(), nil)

			progress := make(chan ProgressUpdate, 100)
			drain(progress)

			result, err := engine.BulkExport(context.Background(), progress, sess, tt.targets, BulkExportOpts{
				Format:     tt.format,
				OutputDir:  dir,
				NumWorkers: 2,
				RateLimit:  100,
			})
			close(progress)

			if err != nil {
				t.Fatalf("BulkExport() error = %v", err)
			}
			if result.TotalRecords != len(tt.targets) || result.SuccessfulExports != len(tt.targets) || result.FailedExports != 0 {
				t.Errorf("unexpected counts %+v", result)
			}
			if result.OutputDirectory != dir {
				t.Errorf("OutputDirectory = %s, want %s", result.OutputDirectory, dir)
			}
			if result.ManifestPath != filepath.Join(dir, "export_manifest.json") {
				t.Errorf("ManifestPath = %q", result.ManifestPath)
			}

			manifest := readManifest(t, result.ManifestPath)
			if manifest.Format != tt.format || manifest.TotalRecords != len(tt.targets) {
				t.Errorf("unexpected manifest %+v", manifest)
			}
			for i, rec := range manifest.Records {
				if rec.RecordID != tt.targets[i].ID {
					t.Errorf("manifest record %d = %s, want %s", i, rec.RecordID, tt.targets[i].ID)
				}
			}

			tt.validate(t, result, dir)
		})
	}
}

func TestBulkExportFailures(t *testing.T) {
	sess := models.NewSession(0)

	t.Run("partial failure", func(t *testing.T) {
		dir := t.TempDir()
		engine := NewRoastEngine(&flakyRoast{MockRoast: filledMock(), fail: "2"}, nil)

		result, err := engine.BulkExport(context.Background(), nil, sess, history(), BulkExportOpts{
			Format: formatter.JSON, OutputDir: dir, RateLimit: 100,
		})
		if err != nil {
			t.Fatalf("BulkExport() error = %v", err)
		}
		if result.SuccessfulExports != 2 || result.FailedExports != 1 {
			t.Errorf("unexpected counts %+v", result)
		}

		failed := result.Results[1]
		if failed.Success || !errors.Is(failed.Error, shared.ErrServiceUnavailable) {
			t.Errorf("record 2 should fail with ErrServiceUnavailable, got %+v", failed)
		}

		manifest := readManifest(t, result.ManifestPath)
		if manifest.FailedExports != 1 || !strings.Contains(manifest.Records[1].Error, "service unavailable") {
			t.Errorf("manifest should carry the failure, got %+v", manifest.Records[1])
		}
		if _, err := os.Stat(filepath.Join(dir, "roast-2.json")); !os.IsNotExist(err) {
			t.Error("failed record should not be written")
		}
	})

	t.Run("ids that escape the output directory", func(t *testing.T) {
		root := t.TempDir()
		dir := filepath.Join(root, "out")
		mock := filledMock()
		engine := NewRoastEngine(mock, nil)

		targets := []models.HistoryEntry{{ID: "a/../../../x"}, {ID: `..\evil`}, {ID: ".."}, {ID: "7"}}
		result, err := engine.BulkExport(context.Background(), nil, sess, targets, BulkExportOpts{
			Format: formatter.JSON, OutputDir: dir, RateLimit: 100,
		})
		if err != nil {
			t.Fatalf("BulkExport() error = %v", err)
		}
		if result.SuccessfulExports != 1 || result.FailedExports != 3 {
			t.Errorf("unexpected counts %+v", result)
		}
		for _, r := range result.Results[:3] {
			if r.Success || !errors.Is(r.Error, shared.ErrInvalidInput) {
				t.Errorf("%q should be rejected, got %+v", r.RecordID, r)
			}
		}
		entries, _ := os.ReadDir(root)
		if len(entries) != 1 || entries[0].Name() != "out" {
			t.Errorf("files written outside the output directory: %v", entries)
		}
		for _, c := range mock.Called("Artists") {
			if c.Args[0] != "7" {
				t.Errorf("unsafe id %q was fetched", c.Args[0])
			}
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		engine := NewRoastEngine(filledMock(), nil)
		_, err := engine.BulkExport(context.Background(), nil, sess, history(), BulkExportOpts{Format: "pdf", OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("nil service", func(t *testing.T) {
		engine := NewRoastEngine(nil, nil)
		if _, err := engine.BulkExport(context.Background(), nil, sess, nil, BulkExportOpts{}); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		dir := t.TempDir()
		mock := filledMock()
		engine := NewRoastEngine(mock, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := engine.BulkExport(ctx, nil, sess, history(), BulkExportOpts{Format: formatter.JSON, OutputDir: dir})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if result == nil || result.SuccessfulExports != 0 {
			t.Errorf("nothing should export after cancel, got %+v", result)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
		if len(mock.Called("Artists")) != 0 {
			t.Error("no record should be fetched")
		}
	})

	t.Run("defaults", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := tu.MustGetwd(t)
		tu.MustChdir(t, tempDir)
		defer tu.MustChdir(t, originalDir)

		engine := NewRoastEngine(filledMock(), nil)
		result, err := engine.BulkExport(context.Background(), nil, sess, history()[:1], BulkExportOpts{NumWorkers: 50, RateLimit: 100})
		if err != nil {
			t.Fatalf("BulkExport() error = %v", err)
		}
		if !strings.HasPrefix(result.OutputDirectory, "roast_export_") {
			t.Errorf("unexpected default directory %q", result.OutputDirectory)
		}
		tu.AssertFileExists(t, filepath.Join(result.OutputDirectory, "roast-1", "README.md"))
	})
}
