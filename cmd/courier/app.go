package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/viper"

	"github.com/blackcoderx/courier/pkg/core"
	"github.com/blackcoderx/courier/pkg/dispatch"
	"github.com/blackcoderx/courier/pkg/history"
	"github.com/blackcoderx/courier/pkg/sandbox"
	"github.com/blackcoderx/courier/pkg/storage"
)

// app holds the components shared by every command.
type app struct {
	cfg        core.Config
	logger     *slog.Logger
	baseDir    string
	store      history.Store // nil when history is disabled
	recorder   *history.Recorder
	dispatcher *dispatch.Dispatcher
	runner     *core.Runner
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := core.LoadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	logger := core.NewLogger(cfg.LogLevel)

	a := &app{cfg: cfg, logger: logger, baseDir: core.FolderName}
	opts := []dispatch.Option{
		dispatch.WithAPIKeyHeader(cfg.APIKeyHeader),
		dispatch.WithLogger(logger),
	}

	if cfg.History.Enabled {
		store, err := history.OpenSQLite(ctx, cfg.History.Path)
		if err != nil {
			logger.Warn("history disabled", "path", cfg.History.Path, "error", err)
		} else {
			a.store = store
			a.recorder = history.NewRecorder(store, history.StaticIdentity(cfg.User), logger)
			opts = append(opts, dispatch.WithObserver(a.recorder))
		}
	}

	a.dispatcher = dispatch.New(opts...)
	a.runner = core.NewRunner(a.dispatcher, sandbox.New(cfg.ScriptTimeout, logger), cfg.Timeout, logger)
	return a, nil
}

// newBenchDispatcher returns a dispatcher that bypasses history. The
// configured timeout applies to each request.
func newBenchDispatcher(a *app) *dispatch.Dispatcher {
	return dispatch.New(
		dispatch.WithClient(&http.Client{Timeout: a.cfg.Timeout}),
		dispatch.WithAPIKeyHeader(a.cfg.APIKeyHeader),
		dispatch.WithLogger(a.logger),
	)
}

// Close flushes pending history writes and closes the store.
func (a *app) Close() {
	if a.recorder != nil {
		a.recorder.Wait()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing history store", "error", err)
		}
	}
}

// environment loads the named environment, falling back to the configured
// one. A missing default environment is not an error.
func (a *app) environment(name string) (map[string]string, string, error) {
	explicit := name != ""
	if !explicit {
		name = a.cfg.Environment
	}
	if name == "" {
		return nil, "", nil
	}

	env, err := storage.LoadEnvironment(a.baseDir, name)
	if errors.Is(err, storage.ErrNotFound) && !explicit {
		a.logger.Debug("default environment not found", "env", name)
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load environment '%s': %w", name, err)
	}
	return env, name, nil
}

// printMarkdown renders md with glamour, falling back to the raw text.
func printMarkdown(md string) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Println(md)
		return
	}

	out, err := renderer.Render(md)
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Fprint(os.Stdout, out)
}
