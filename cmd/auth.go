package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/services"
	"github.com/desertthunder/roastx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin logs the CLI session in with a username and password.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds := models.Credentials{
		Username: strings.TrimSpace(cmd.StringArg("username")),
		Password: cmd.String("password"),
	}
	if creds.Username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	return r.authenticate(ctx, creds, "login", r.service().Login)
}

// AuthSignup creates an account and keeps its session.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	creds := models.Credentials{
		Username: strings.TrimSpace(cmd.StringArg("username")),
		Email:    strings.TrimSpace(cmd.String("email")),
		Password: cmd.String("password"),
	}
	creds.Confirm = creds.Password
	if creds.Username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	return r.authenticate(ctx, creds, "signup", r.service().Signup)
}

type credentialCall func(ctx context.Context, jar models.CookieJar, creds models.Credentials) error

func (r *Runner) authenticate(ctx context.Context, creds models.Credentials, action string, call credentialCall) error {
	sess, store, err := r.openSession()
	if err != nil {
		return err
	}

	if err := r.service().CSRF(ctx, sess); err != nil {
		r.logger.Warn("failed to fetch csrf token", "error", err)
	}

	r.logger.Info("authenticating", "action", action, "username", creds.Username)
	if err := call(ctx, sess, creds); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, remoteMessage(err))
	}

	sess.ResetRecord()
	sess.Set(models.KeyUser1, creds.Username)
	if err := store.Save(sess); err != nil {
		return fmt.Errorf("failed to save cli session: %w", err)
	}

	return r.writePlain("✓ Logged in as %s\n", creds.Username)
}

// remoteMessage prefers the remote's form errors over the raw status line.
func remoteMessage(err error) string {
	var se *services.StatusError
	if errors.As(err, &se) {
		if msgs := se.Messages(); len(msgs) > 0 {
			return strings.Join(msgs, " ")
		}
		if m := se.Message(); m != "" {
			return m
		}
	}
	return err.Error()
}

// AuthImport copies cookies from a browser request into the CLI session.
//
// Accepts a cURL command or a file holding one.
func (r *Runner) AuthImport(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var (
		req *shared.CurlRequest
		err error
	)
	if curlFile != "" {
		if req, err = shared.ParseCurlFile(curlFile); err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		if req, err = shared.ParseCurlCommand(curlCmd); err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	if len(req.Cookies) == 0 {
		return fmt.Errorf("%w: the request carries no cookies", shared.ErrInvalidInput)
	}

	sess, store, err := r.openSession()
	if err != nil {
		return err
	}

	for name, value := range req.Cookies {
		sess.SetCookie(name, value)
	}
	csrfName := r.config.API.CSRFCookie
	if token := req.CSRFToken(csrfName); token != "" && sess.Cookie(csrfName) == "" {
		sess.SetCookie(csrfName, token)
	}
	sess.ResetRecord()

	ok, err := r.service().IsAuthenticated(ctx, sess)
	if err != nil {
		r.logger.Warn("could not verify imported session", "error", err)
	} else if !ok {
		return fmt.Errorf("%w: imported cookies are not logged in", shared.ErrNotAuthenticated)
	}
	if name, err := r.service().Username(ctx, sess); err == nil && name != "" {
		sess.Set(models.KeyUser1, name)
	}

	if err := store.Save(sess); err != nil {
		return fmt.Errorf("failed to save cli session: %w", err)
	}

	r.writePlain("✓ Imported %d cookies\n", len(req.Cookies))
	if user, ok := sess.Get(models.KeyUser1); ok {
		r.writePlain("Logged in as: %s\n", user)
	}
	return nil
}

// AuthURL prints the external login page.
func (r *Runner) AuthURL(ctx context.Context, cmd *cli.Command) error {
	url := r.service().LoginURL()
	if cmd.Bool("open") {
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("could not open browser", "error", err)
		}
	}
	return r.writePlain("%s\n", url)
}

// AuthStatus reports whether the CLI session is logged in.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status")

	sess, _, err := r.openSession()
	if err != nil {
		return err
	}

	ok, err := r.service().IsAuthenticated(ctx, sess)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	r.writePlain("API: %s\n", r.config.API.BaseURL)
	if !ok {
		r.writePlain("Authentication: ✗ Not authenticated\n")
		return nil
	}

	name, err := r.service().Username(ctx, sess)
	if err != nil || name == "" {
		name = "unknown"
	}
	r.writePlain("Authentication: ✓ Authenticated\n")
	r.writePlain("User: %s\n", name)
	return nil
}

// AuthLogout ends the remote session and deletes the CLI session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	sess, store, err := r.openSession()
	if err != nil {
		return err
	}

	if err := r.service().Logout(ctx, sess); err != nil {
		r.logger.Warn("remote logout failed", "error", err)
	}

	if err := store.Delete(sess.ID()); err != nil && !errors.Is(err, shared.ErrSessionNotFound) {
		return fmt.Errorf("failed to delete cli session: %w", err)
	}
	return r.writePlain("✓ Logged out\n")
}
