package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/roastx/internal/services"
	"github.com/desertthunder/roastx/internal/shared"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request with the CLI session's cookies
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	sess, store, err := r.openSession()
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.apiService().Get(ctx, path, sess)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := store.Save(sess); err != nil {
		r.logger.Warn("failed to save cli session", "error", err)
	}

	return r.writeResponse(resp, cmd.Bool("pretty"))
}

// APIPost makes a direct POST request with a JSON body.
//
// Each --set path=value is applied to --data with sjson; values that parse as
// JSON are set raw, anything else as a string.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	body, err := buildBody(cmd.String("data"), cmd.StringSlice("set"))
	if err != nil {
		return err
	}

	sess, store, err := r.openSession()
	if err != nil {
		return err
	}

	r.logger.Info("POST request", "path", path, "bytes", len(body))

	resp, err := r.apiService().Post(ctx, path, body, sess)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := store.Save(sess); err != nil {
		r.logger.Warn("failed to save cli session", "error", err)
	}

	return r.writeResponse(resp, cmd.Bool("pretty"))
}

func buildBody(data string, sets []string) ([]byte, error) {
	if strings.TrimSpace(data) == "" {
		data = "{}"
	}
	if !gjson.Valid(data) {
		return nil, fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidInput)
	}

	body := []byte(data)
	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: --set %q, want path=value", shared.ErrInvalidFlag, kv)
		}

		var err error
		if gjson.Valid(value) {
			body, err = sjson.SetRawBytes(body, key, []byte(value))
		} else {
			body, err = sjson.SetBytes(body, key, value)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: --set %q: %v", shared.ErrInvalidFlag, kv, err)
		}
	}
	return body, nil
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}
