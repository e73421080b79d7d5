package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/repositories"
	"github.com/desertthunder/roastx/internal/services"
	"github.com/desertthunder/roastx/internal/shared"
	"github.com/desertthunder/roastx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// cliSessionID names the single session the CLI and TUI share in sqlite.
const cliSessionID = "cli"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	svc        services.RoastService
	api        *services.APIService
	ownService bool
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.RoastEngine
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Service is built from Config on first use, along with API.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Service    services.RoastService
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		svc:        opts.Service,
		api:        opts.API,
		ownService: opts.Service == nil,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	if r.svc != nil {
		r.engine = tasks.NewRoastEngine(r.svc, r.logger)
	}
	return r
}

// configure loads the --config file and applies its log level. Runs before
// every command.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	config, err := shared.LoadOrDefault(path)
	if err != nil {
		return ctx, err
	}
	if err := config.Validate(); err != nil {
		return ctx, err
	}

	lvl, err := shared.ParseLogLevel(config.Server.LogLevel)
	if err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, lvl)
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	r.config = config
	r.configPath = path
	if r.ownService {
		r.svc = nil
		r.api = nil
		r.engine = nil
	}
	return ctx, nil
}

// SetLogger swaps the logger and rebuilds the services that log through it.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	if r.ownService {
		r.svc = nil
		r.api = nil
	}
	r.engine = nil
}

// service returns the remote client, building it from config when none was injected.
func (r *Runner) service() services.RoastService {
	if r.svc == nil {
		client := services.NewRoastClientFromConfig(r.config, r.logger)
		r.svc = client
		if r.api == nil {
			r.api = client.API()
		}
	}
	return r.svc
}

func (r *Runner) apiService() *services.APIService {
	if r.api != nil {
		return r.api
	}
	if c, ok := r.service().(*services.RoastClient); ok {
		r.api = c.API()
		return r.api
	}
	r.api = services.NewAPIService(r.config.API.BaseURL, r.httpClient).WithCSRFCookie(r.config.API.CSRFCookie)
	return r.api
}

func (r *Runner) roastEngine() *tasks.RoastEngine {
	if r.engine == nil {
		r.engine = tasks.NewRoastEngine(r.service(), r.logger)
	}
	return r.engine
}

// database opens and migrates the configured database once per process.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	r.db = db
	return db, nil
}

func (r *Runner) close() {
	if r.db != nil {
		r.db.Close()
		r.db = nil
	}
}

func (r *Runner) sessionStore() (*repositories.SessionRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewSessionRepository(db), nil
}

func (r *Runner) recordLog() (*repositories.RecordRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewRecordRepository(db), nil
}

// cliSession loads the CLI session, starting a fresh one when it is missing or expired.
func (r *Runner) cliSession(store models.SessionStore) (*models.Session, error) {
	sess, err := store.Get(cliSessionID)
	switch {
	case err == nil:
		sess.Touch(r.config.Server.SessionTTL())
		return sess, nil
	case errors.Is(err, shared.ErrSessionExpired):
		r.logger.Warn("cli session expired, starting over")
		if err := store.Delete(cliSessionID); err != nil {
			return nil, err
		}
		fallthrough
	case errors.Is(err, shared.ErrSessionNotFound):
		return models.NewNamedSession(cliSessionID, r.config.Server.SessionTTL()), nil
	default:
		return nil, err
	}
}

// openSession is [Runner.cliSession] on the sqlite store.
func (r *Runner) openSession() (*models.Session, *repositories.SessionRepository, error) {
	store, err := r.sessionStore()
	if err != nil {
		return nil, nil, err
	}
	sess, err := r.cliSession(store)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load cli session: %w", err)
	}
	return sess, store, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, authCommand, wrappedCommand, apiCommand, sessionsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
