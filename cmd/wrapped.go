package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/roastx/internal/formatter"
	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/services"
	"github.com/desertthunder/roastx/internal/shared"
	"github.com/desertthunder/roastx/internal/tasks"
	"github.com/desertthunder/roastx/internal/wizard"
	"github.com/urfave/cli/v3"
)

// WrappedCreate creates a solo or duo record for the CLI session.
func (r *Runner) WrappedCreate(ctx context.Context, cmd *cli.Command) error {
	tr, err := models.ParseTimeRange(cmd.String("range"))
	if err != nil {
		return fmt.Errorf("%w: --range %q", shared.ErrInvalidFlag, cmd.String("range"))
	}

	sess, store, err := r.openSession()
	if err != nil {
		return err
	}
	svc := r.service()

	if ok, err := svc.IsAuthenticated(ctx, sess); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	} else if !ok {
		return shared.ErrNotAuthenticated
	}
	if name, err := svc.Username(ctx, sess); err == nil && name != "" {
		sess.Set(models.KeyUser1, name)
	}

	if partner := strings.TrimSpace(cmd.String("duo")); partner != "" {
		exists, err := svc.UsernameExists(ctx, sess, partner)
		if err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: %s", shared.ErrUserNotFound, partner)
		}
		sess.SetDuo(partner)
	} else {
		sess.SetSolo()
	}
	sess.SetTimeRange(tr)
	sess.ResetRecord()

	records, err := r.recordLog()
	if err != nil {
		return err
	}

	id, err := wizard.New(svc, r.logger).WithRecordLog(records).Start(ctx, sess, sess)
	if saveErr := store.Save(sess); saveErr != nil {
		r.logger.Warn("failed to save cli session", "error", saveErr)
	}
	if err != nil {
		return err
	}

	r.writePlain("✓ Created roast #%s (%s)\n", id, tr)
	r.writePlain("Run 'roastx wrapped show %s' or 'roastx tui' to see it\n", id)
	return nil
}

// WrappedShow prints every slide of a record; the session's current record by default.
func (r *Runner) WrappedShow(ctx context.Context, cmd *cli.Command) error {
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	sess, store, err := r.openSession()
	if err != nil {
		return err
	}

	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		var ok bool
		if id, ok = sess.RecordID(); !ok {
			return fmt.Errorf("%w: record id (none created in this session)", shared.ErrMissingArgument)
		}
	}

	entry, err := r.lookupRecord(ctx, sess, id)
	if err != nil {
		return err
	}

	roast, err := services.FetchRoast(ctx, r.service(), sess, entry.ID, entry.TimeRange, entry.Duo, entry.Partner)
	if err != nil {
		return err
	}
	if err := store.Save(sess); err != nil {
		r.logger.Warn("failed to save cli session", "error", err)
	}

	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteExport(roast, f, path)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %s\n", written)
	}

	data, err := formatter.Export(roast, f)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// lookupRecord resolves id to its time range and mode, from the local log
// when possible and the remote history otherwise.
func (r *Runner) lookupRecord(ctx context.Context, sess *models.Session, id string) (models.HistoryEntry, error) {
	if records, err := r.recordLog(); err == nil {
		if rec, err := records.FindByRemoteID(id); err == nil {
			return rec.History(), nil
		}
	}

	targets, err := r.roastEngine().Targets(ctx, nil, sess, []string{id})
	if err != nil {
		return models.HistoryEntry{}, err
	}
	return targets[0], nil
}

// WrappedList prints the remote history, or the local record log with --local.
func (r *Runner) WrappedList(ctx context.Context, cmd *cli.Command) error {
	var entries []models.HistoryEntry

	if cmd.Bool("local") {
		records, err := r.recordLog()
		if err != nil {
			return err
		}
		list, err := records.List(map[string]any{"limit": int(cmd.Int("limit"))})
		if err != nil {
			return err
		}
		for _, rec := range list {
			entries = append(entries, rec.History())
		}
	} else {
		sess, store, err := r.openSession()
		if err != nil {
			return err
		}
		if entries, err = r.service().History(ctx, sess); err != nil {
			return fmt.Errorf("failed to fetch history: %w", err)
		}
		if err := store.Save(sess); err != nil {
			r.logger.Warn("failed to save cli session", "error", err)
		}
	}

	if cmd.Bool("json") {
		if entries == nil {
			entries = []models.HistoryEntry{}
		}
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		return r.writePlain("No roasts yet. Run 'roastx wrapped create' first.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Past roasts (%d)", len(entries)))
	for _, e := range entries {
		mode := "solo"
		if e.Duo {
			mode = "duo with " + e.Partner
		}
		created := "-"
		if !e.CreatedAt.IsZero() {
			created = e.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		r.writePlain("#%-6s %-14s %-16s %s\n", e.ID, e.TimeRange, created, mode)
	}
	return nil
}

// WrappedExport writes past roasts to files with the bulk exporter.
//
// With no ids every record in the remote history is exported.
func (r *Runner) WrappedExport(ctx context.Context, cmd *cli.Command) error {
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	sess, store, err := r.openSession()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Save(sess); err != nil {
			r.logger.Warn("failed to save cli session", "error", err)
		}
	}()

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchHistory:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.FetchRecord, tasks.ExportRecord:
				r.writePlain("   %s\n", update.Message)
			case tasks.WriteManifest:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	engine := r.roastEngine()
	targets, err := engine.Targets(ctx, progressCh, sess, cmd.Args().Slice())
	if err != nil {
		if !errors.Is(err, shared.ErrRecordNotFound) || len(targets) == 0 {
			close(progressCh)
			<-done
			return err
		}
		r.logger.Warn("skipping unknown records", "error", err)
	}

	result, err := engine.BulkExport(ctx, progressCh, sess, targets, tasks.BulkExportOpts{
		Format:     f,
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
		Covers:     cmd.Bool("covers"),
	})
	close(progressCh)
	<-done

	if result == nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Format: %s\n", f)
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Exported: %d/%d\n", result.SuccessfulExports, result.TotalRecords)
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}

	if result.FailedExports > 0 {
		r.writePlain("\nFailed to export %d records:\n", result.FailedExports)
		for _, rec := range result.Results {
			if !rec.Success {
				r.writePlain("  - %s: %v\n", rec.Title, rec.Error)
			}
		}
	}
	return err
}
