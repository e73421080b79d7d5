package main

import (
	"context"
	"time"

	"github.com/desertthunder/roastx/internal/models"
	"github.com/urfave/cli/v3"
)

// SessionsList prints the sessions stored in sqlite, newest first.
func (r *Runner) SessionsList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.sessionStore()
	if err != nil {
		return err
	}

	sessions, err := store.List(map[string]any{"active": cmd.Bool("active")})
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		return r.writePlain("No stored sessions\n")
	}

	now := time.Now()
	r.writePlainHeader("Sessions")
	for _, s := range sessions {
		user, _ := s.Get(models.KeyUser1)
		if user == "" {
			user = "-"
		}
		state := "active"
		if s.Expired(now) {
			state = "expired"
		}
		r.writePlain("%-36s %-16s %-8s updated %s\n", s.ID(), user, state, s.UpdatedAt().Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// SessionsPrune deletes expired sessions.
func (r *Runner) SessionsPrune(ctx context.Context, cmd *cli.Command) error {
	store, err := r.sessionStore()
	if err != nil {
		return err
	}

	n, err := store.Prune(time.Now())
	if err != nil {
		return err
	}
	r.logger.Info("pruned sessions", "count", n)
	return r.writePlain("✓ Pruned %d expired sessions\n", n)
}
