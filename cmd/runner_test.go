package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/services"
	"github.com/desertthunder/roastx/internal/shared"
	tu "github.com/desertthunder/roastx/internal/testing"
	"github.com/desertthunder/roastx/internal/tasks"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			svc := tu.NewMockRoast()
			api := &services.APIService{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Service:    svc,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.svc != svc {
				t.Error("expected service to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine for an injected service")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				HTTPClient: nil,
			})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with nil service builds one from config", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.svc != nil {
				t.Fatal("service should be built lazily")
			}
			if _, ok := runner.service().(*services.RoastClient); !ok {
				t.Errorf("expected *services.RoastClient, got %T", runner.service())
			}
			if runner.apiService().BaseURL() != runner.config.API.BaseURL {
				t.Errorf("api base url = %q", runner.apiService().BaseURL())
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "/test/path/config.toml",
			})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)

			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"serve", "setup", "auth", "wrapped", "api", "sessions", "tui"} {
			if !names[want] {
				t.Errorf("expected %q to be registered", want)
			}
		}
	})
}

// testCLI runs commands against a mock remote and a temporary sqlite file.
type testCLI struct {
	t      *testing.T
	mock   *tu.MockRoast
	runner *Runner
	out    *bytes.Buffer
	config string
	dir    string
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()
	dir := t.TempDir()

	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(dir, "roastx.db")
	config.Server.LogLevel = "error"
	configPath := filepath.Join(dir, "config.toml")
	if err := shared.SaveConfig(configPath, config); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	mock := tu.NewMockRoast()
	out := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Service: mock, Output: out})
	t.Cleanup(runner.close)

	return &testCLI{t: t, mock: mock, runner: runner, out: out, config: configPath, dir: dir}
}

func (c *testCLI) run(args ...string) error {
	c.t.Helper()
	c.out.Reset()
	argv := append([]string{"roastx", "--config", c.config}, args...)
	return newApp(c.runner).Run(context.Background(), argv)
}

func (c *testCLI) mustRun(args ...string) string {
	c.t.Helper()
	if err := c.run(args...); err != nil {
		c.t.Fatalf("roastx %s: %v", strings.Join(args, " "), err)
	}
	return c.out.String()
}

func (c *testCLI) session() *models.Session {
	c.t.Helper()
	store, err := c.runner.sessionStore()
	if err != nil {
		c.t.Fatal(err)
	}
	sess, err := store.Get(cliSessionID)
	if err != nil {
		c.t.Fatalf("cli session not stored: %v", err)
	}
	return sess
}

func TestAuthCommands(t *testing.T) {
	t.Run("login stores the remote cookies", func(t *testing.T) {
		c := newTestCLI(t)
		out := c.mustRun("auth", "login", "--password", "pw", "tester")

		if !strings.Contains(out, "Logged in as tester") {
			t.Errorf("unexpected output %q", out)
		}
		if len(c.mock.Called("CSRF")) != 1 {
			t.Error("login should fetch a csrf token first")
		}
		sess := c.session()
		if sess.Cookie("sessionid") != "mock-session" || sess.Cookie("csrftoken") != "mock-token" {
			t.Errorf("cookies = %v", sess.Cookies())
		}
	})

	t.Run("login failure", func(t *testing.T) {
		c := newTestCLI(t)
		c.mock.Errs["Login"] = shared.ErrAPIRequest

		err := c.run("auth", "login", "--password", "pw", "tester")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("missing username", func(t *testing.T) {
		c := newTestCLI(t)
		if err := c.run("auth", "login", "--password", "pw"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("signup", func(t *testing.T) {
		c := newTestCLI(t)
		c.mustRun("auth", "signup", "--email", "a@b.c", "--password", "pw", "newbie")

		calls := c.mock.Called("Signup")
		if len(calls) != 1 || calls[0].Args[0] != "newbie" || calls[0].Args[1] != "a@b.c" {
			t.Errorf("Signup calls = %v", calls)
		}
	})

	t.Run("import from curl", func(t *testing.T) {
		c := newTestCLI(t)
		out := c.mustRun("auth", "import", "--curl", `curl 'http://localhost:8000/' -b 'sessionid=abc; csrftoken=tok'`)

		if !strings.Contains(out, "Imported 2 cookies") || !strings.Contains(out, "Logged in as: tester") {
			t.Errorf("unexpected output %q", out)
		}
		if got := c.session().Cookie("sessionid"); got != "abc" {
			t.Errorf("sessionid = %q", got)
		}
	})

	t.Run("import validation", func(t *testing.T) {
		c := newTestCLI(t)
		if err := c.run("auth", "import"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if err := c.run("auth", "import", "--curl", "curl x", "--curl-file", "x.sh"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}

		c.mock.Authenticated = false
		err := c.run("auth", "import", "--curl", `curl 'http://localhost:8000/' -b 'sessionid=stale'`)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("status", func(t *testing.T) {
		c := newTestCLI(t)
		out := c.mustRun("auth", "status")
		if !strings.Contains(out, "✓ Authenticated") || !strings.Contains(out, "User: tester") {
			t.Errorf("unexpected output %q", out)
		}

		c.mock.Authenticated = false
		if out := c.mustRun("auth", "status"); !strings.Contains(out, "Not authenticated") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("url", func(t *testing.T) {
		c := newTestCLI(t)
		if out := c.mustRun("auth", "url"); strings.TrimSpace(out) != c.mock.LoginPage {
			t.Errorf("url = %q", out)
		}
	})

	t.Run("logout deletes the session", func(t *testing.T) {
		c := newTestCLI(t)
		c.mustRun("auth", "login", "--password", "pw", "tester")
		c.mustRun("auth", "logout")

		store, _ := c.runner.sessionStore()
		if _, err := store.Get(cliSessionID); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected session to be gone, got %v", err)
		}
		if len(c.mock.Called("Logout")) != 1 {
			t.Error("expected remote logout")
		}
	})
}

func TestWrappedCommands(t *testing.T) {
	t.Run("create solo", func(t *testing.T) {
		c := newTestCLI(t)
		out := c.mustRun("wrapped", "create", "--range", "0")

		if !strings.Contains(out, "Created roast #42 (Past Month)") {
			t.Errorf("unexpected output %q", out)
		}
		if calls := c.mock.Called("CreateWrapped"); len(calls) != 1 || calls[0].Args[0] != "0" {
			t.Errorf("CreateWrapped calls = %v", calls)
		}
		if id, ok := c.session().RecordID(); !ok || id != "42" {
			t.Errorf("session record = %q", id)
		}

		records, _ := c.runner.recordLog()
		if rec, err := records.FindByRemoteID("42"); err != nil || rec.SessionID() != cliSessionID {
			t.Errorf("record not logged: %v", err)
		}
	})

	t.Run("create duo", func(t *testing.T) {
		c := newTestCLI(t)
		c.mock.KnownUsers["sam"] = true
		c.mustRun("wrapped", "create", "--duo", "sam")

		calls := c.mock.Called("CreateDuo")
		if len(calls) != 1 || calls[0].Args[0] != "2" || calls[0].Args[1] != "tester" || calls[0].Args[2] != "sam" {
			t.Errorf("CreateDuo calls = %v", calls)
		}
	})

	t.Run("create errors", func(t *testing.T) {
		c := newTestCLI(t)
		if err := c.run("wrapped", "create", "--duo", "ghost"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
		if err := c.run("wrapped", "create", "--range", "7"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}

		c.mock.Authenticated = false
		if err := c.run("wrapped", "create"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("show uses the logged record", func(t *testing.T) {
		c := newTestCLI(t)
		c.mock.ArtistList = tu.SoloArtists(2)
		c.mustRun("wrapped", "create")

		out := c.mustRun("wrapped", "show", "--format", "json")
		var roast models.Roast
		if err := json.Unmarshal([]byte(out), &roast); err != nil {
			t.Fatalf("show output is not JSON: %v\n%s", err, out)
		}
		if roast.RecordID != "42" || len(roast.Artists.Entries) != 2 {
			t.Errorf("unexpected roast %+v", roast)
		}
		if calls := c.mock.Called("Artists"); len(calls) != 1 || calls[0].Args[0] != "42" {
			t.Errorf("Artists calls = %v", calls)
		}
		if len(c.mock.Called("History")) != 0 {
			t.Error("a logged record should not need the remote history")
		}
	})

	t.Run("show falls back to remote history", func(t *testing.T) {
		c := newTestCLI(t)
		c.mock.HistoryList = []models.HistoryEntry{{ID: "7", TimeRange: models.PastMonth, Duo: true, Partner: "sam"}}

		path := filepath.Join(c.dir, "roast.md")
		out := c.mustRun("wrapped", "show", "--format", "md", "--output", path, "7")
		if !strings.Contains(out, "Wrote "+path) {
			t.Errorf("unexpected output %q", out)
		}
		tu.AssertFileExists(t, path)
		if calls := c.mock.Called("Artists"); len(calls) != 1 || calls[0].Args[1] != "true" {
			t.Errorf("Artists calls = %v", calls)
		}

		if err := c.run("wrapped", "show", "99"); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("show without a record", func(t *testing.T) {
		c := newTestCLI(t)
		if err := c.run("wrapped", "show"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("list", func(t *testing.T) {
		c := newTestCLI(t)
		if out := c.mustRun("wrapped", "list"); !strings.Contains(out, "No roasts yet") {
			t.Errorf("unexpected output %q", out)
		}

		c.mock.HistoryList = []models.HistoryEntry{
			{ID: "1", TimeRange: models.PastYear, CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
			{ID: "2", TimeRange: models.PastMonth, Duo: true, Partner: "sam"},
		}
		out := c.mustRun("wrapped", "list")
		if !strings.Contains(out, "Past roasts (2)") || !strings.Contains(out, "duo with sam") {
			t.Errorf("unexpected output %q", out)
		}

		c.mustRun("wrapped", "create")
		out = c.mustRun("wrapped", "list", "--local", "--json")
		var entries []models.HistoryEntry
		if err := json.Unmarshal([]byte(out), &entries); err != nil {
			t.Fatalf("list output is not JSON: %v", err)
		}
		if len(entries) != 1 || entries[0].ID != "42" {
			t.Errorf("local entries = %+v", entries)
		}
	})

	t.Run("export", func(t *testing.T) {
		c := newTestCLI(t)
		c.mock.HistoryList = []models.HistoryEntry{{ID: "1"}, {ID: "2"}}
		dir := filepath.Join(c.dir, "export")

		out := c.mustRun("wrapped", "export", "--format", "json", "--output", dir, "--rate", "100")
		if !strings.Contains(out, "Exported: 2/2") {
			t.Errorf("unexpected output %q", out)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "roast-1.json"))
		tu.AssertFileExists(t, filepath.Join(dir, "roast-2.json"))

		var manifest tasks.ExportManifest
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, filepath.Join(dir, "export_manifest.json"))), &manifest); err != nil {
			t.Fatal(err)
		}
		if manifest.SuccessfulExports != 2 {
			t.Errorf("manifest = %+v", manifest)
		}
	})

	t.Run("export skips unknown ids", func(t *testing.T) {
		c := newTestCLI(t)
		c.mock.HistoryList = []models.HistoryEntry{{ID: "1"}}
		dir := filepath.Join(c.dir, "export")

		out := c.mustRun("wrapped", "export", "--format", "csv", "--output", dir, "--rate", "100", "1", "9")
		if !strings.Contains(out, "Exported: 1/1") {
			t.Errorf("unexpected output %q", out)
		}

		if err := c.run("wrapped", "export", "--output", dir, "9"); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
		if err := c.run("wrapped", "export", "--format", "pdf"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestBuildBody(t *testing.T) {
	tc := []struct {
		name    string
		data    string
		sets    []string
		want    string
		wantErr error
	}{
		{name: "empty data", data: "", want: `{}`},
		{name: "string value", data: `{}`, sets: []string{"user=sam"}, want: `{"user":"sam"}`},
		{name: "raw JSON value", data: `{"a":1}`, sets: []string{"time_range=2", "duo=true"}, want: `{"a":1,"time_range":2,"duo":true}`},
		{name: "nested path", data: `{}`, sets: []string{"user.name=sam"}, want: `{"user":{"name":"sam"}}`},
		{name: "invalid data", data: `{`, wantErr: shared.ErrInvalidInput},
		{name: "missing separator", data: `{}`, sets: []string{"nope"}, wantErr: shared.ErrInvalidFlag},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildBody(tt.data, tt.sets)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("body = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSetupAndSessions(t *testing.T) {
	t.Run("setup config", func(t *testing.T) {
		c := newTestCLI(t)
		path := filepath.Join(c.dir, "fresh.toml")

		if err := newApp(c.runner).Run(context.Background(), []string{"roastx", "--config", path, "setup", "config"}); err != nil {
			t.Fatal(err)
		}
		tu.AssertFileExists(t, path)

		err := newApp(c.runner).Run(context.Background(), []string{"roastx", "--config", path, "setup", "config"})
		if err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Errorf("expected existing file error, got %v", err)
		}
		if err := newApp(c.runner).Run(context.Background(), []string{"roastx", "--config", path, "setup", "config", "--force"}); err != nil {
			t.Errorf("--force should overwrite, got %v", err)
		}
	})

	t.Run("setup database and status", func(t *testing.T) {
		c := newTestCLI(t)
		if out := c.mustRun("setup", "database"); !strings.Contains(out, "Database ready") {
			t.Errorf("unexpected output %q", out)
		}
		out := c.mustRun("setup", "status")
		if !strings.Contains(out, "✓ 0001") {
			t.Errorf("expected applied migrations:\n%s", out)
		}
	})

	t.Run("sessions list and prune", func(t *testing.T) {
		c := newTestCLI(t)
		if out := c.mustRun("sessions", "list"); !strings.Contains(out, "No stored sessions") {
			t.Errorf("unexpected output %q", out)
		}

		c.mustRun("auth", "login", "--password", "pw", "tester")
		store, _ := c.runner.sessionStore()
		expired := models.NewNamedSession("old", time.Millisecond)
		if err := store.Save(expired); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)

		out := c.mustRun("sessions", "list")
		if !strings.Contains(out, "cli") || !strings.Contains(out, "tester") || !strings.Contains(out, "expired") {
			t.Errorf("unexpected output %q", out)
		}

		if out := c.mustRun("sessions", "prune"); !strings.Contains(out, "Pruned 1 expired sessions") {
			t.Errorf("unexpected output %q", out)
		}
		if out := c.mustRun("sessions", "list", "--active"); strings.Contains(out, "old") {
			t.Errorf("expired session should be gone:\n%s", out)
		}
	})
}
