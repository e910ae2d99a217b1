// Package core wires the request pipeline together: environment
// substitution, URL composition, dispatch, test scripts and assertions.
package core

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/blackcoderx/courier/pkg/assert"
	"github.com/blackcoderx/courier/pkg/dispatch"
	"github.com/blackcoderx/courier/pkg/exchange"
	"github.com/blackcoderx/courier/pkg/sandbox"
	"github.com/blackcoderx/courier/pkg/storage"
)

// Dispatcher performs one HTTP call for a request.
type Dispatcher interface {
	Dispatch(ctx context.Context, req exchange.Request, effectiveURL string) (dispatch.Outcome, error)
}

// ScriptRunner executes a test script against a response.
type ScriptRunner interface {
	Run(ctx context.Context, script string, resp exchange.Response, elapsedMS int64) sandbox.Result
}

// RunOptions carries everything besides the request itself.
type RunOptions struct {
	Env        map[string]string
	Assertions []assert.Assertion
	Schema     string
}

// Result is the outcome of one pipeline run.
type Result struct {
	Request      exchange.Request // after environment substitution
	URL          string
	Outcome      dispatch.Outcome
	TestOutput   string // empty when no script ran
	ScriptFailed bool   // the script threw or was interrupted
	Assertions   assert.Report
}

// Passed reports whether the dispatch got a response, the test script did
// not fail and every assertion held.
func (r *Result) Passed() bool {
	if r.Outcome.Response.Failed() {
		return false
	}
	if r.ScriptFailed {
		return false
	}
	return r.Assertions.Passed()
}

// Runner runs requests through the full pipeline.
type Runner struct {
	dispatcher Dispatcher
	scripts    ScriptRunner
	timeout    time.Duration
	logger     *slog.Logger
}

// NewRunner creates a new Runner. timeout bounds each dispatch; zero means
// no deadline beyond the caller's context.
func NewRunner(d Dispatcher, scripts ScriptRunner, timeout time.Duration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{dispatcher: d, scripts: scripts, timeout: timeout, logger: logger}
}

// Run applies the environment, composes the URL, dispatches, then runs the
// test script and assertions when an HTTP response was obtained.
//
// Only validation failures (no URL, malformed GraphQL variables) are
// returned as errors. Transport failures are reported in the Result.
func (r *Runner) Run(ctx context.Context, req exchange.Request, opts RunOptions) (*Result, error) {
	if opts.Env != nil {
		req = storage.ApplyEnvironment(req, opts.Env)
	} else {
		req = req.Clone()
	}

	url, err := exchange.ComposeURL(req.URL, req.QueryParams)
	if err != nil {
		return nil, &dispatch.ValidationError{Field: "url", Reason: "a URL is required", Err: err}
	}

	dctx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	out, err := r.dispatcher.Dispatch(dctx, req, url)
	if err != nil {
		return nil, err
	}

	res := &Result{Request: req, URL: url, Outcome: out}
	if out.Response.Failed() {
		r.logger.Info("request failed", "url", url, "error", out.Response.Error)
		return res, nil
	}

	if r.scripts != nil && sandbox.ShouldRun(req.TestScript) {
		script := r.scripts.Run(ctx, req.TestScript, out.Response, out.ElapsedMillis())
		res.TestOutput = script.Output
		res.ScriptFailed = script.Failed
	}

	res.Assertions = assert.Evaluate(out.Response, out.ElapsedMillis(), opts.Assertions, opts.Schema)
	return res, nil
}

// RunSaved runs a saved request with its stored assertions and schema.
func (r *Runner) RunSaved(ctx context.Context, saved storage.SavedRequest, env map[string]string) (*Result, error) {
	return r.Run(ctx, saved.Request, RunOptions{
		Env:        env,
		Assertions: saved.Assertions,
		Schema:     saved.Schema,
	})
}
