package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/repositories"
	"github.com/desertthunder/roastx/internal/server"
	"github.com/desertthunder/roastx/internal/shared"
	"github.com/desertthunder/roastx/internal/web"
	"github.com/urfave/cli/v3"
)

const pruneInterval = time.Hour

// Serve runs the web app until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := r.database()
	if err != nil {
		return err
	}

	var store models.SessionStore = repositories.NewSessionRepository(db)
	if r.config.Server.MemorySessions {
		store = repositories.NewMemorySessionStore()
	}

	sessions := server.NewSessionManager(
		store,
		r.config.Server.SessionCookie,
		r.config.Server.SessionTTL(),
		r.config.Server.SecureCookies,
	)

	app, err := web.New(web.Options{
		Service:        r.service(),
		Sessions:       sessions,
		Records:        repositories.NewRecordRepository(db),
		Logger:         r.logger,
		ForwardCookies: r.config.API.ForwardCookies,
	})
	if err != nil {
		return fmt.Errorf("failed to build web app: %w", err)
	}

	addr := r.config.Server.Addr()
	if a := cmd.String("addr"); a != "" {
		addr = a
	}

	go r.pruneSessions(ctx, store)

	if cmd.Bool("open") {
		go func() {
			time.Sleep(250 * time.Millisecond)
			url := "http://" + addr
			if err := shared.OpenBrowser(url); err != nil {
				r.logger.Warn("could not open browser", "url", url, "error", err)
			}
		}()
	}

	r.logger.Info("starting web app", "addr", addr, "api", r.config.API.BaseURL, "memory_sessions", r.config.Server.MemorySessions)
	return server.New(addr, app.Handler(), r.logger).Run(ctx)
}

// pruneSessions deletes expired sessions now and then every [pruneInterval].
func (r *Runner) pruneSessions(ctx context.Context, store models.SessionStore) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		if n, err := store.Prune(time.Now()); err != nil {
			r.logger.Warn("failed to prune sessions", "error", err)
		} else if n > 0 {
			r.logger.Info("pruned expired sessions", "count", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
