// Package dispatch turns a request model into exactly one outbound HTTP call
// and normalizes whatever comes back into an exchange.Response.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/blackcoderx/courier/pkg/exchange"
)

// DefaultAPIKeyHeader carries the token for AuthAPIKey requests unless the
// dispatcher is configured otherwise.
const DefaultAPIKeyHeader = "X-API-Key"

// HTTPClient is the part of *http.Client the dispatcher needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Observer is notified after every dispatch that produced an HTTP response.
// Implementations must return quickly; Dispatch waits for Observe.
type Observer interface {
	Observe(ctx context.Context, req exchange.Request, url string, out Outcome)
}

// Outcome is the result of one dispatch: the normalized response plus the
// time between issuing the call and the call settling.
type Outcome struct {
	Response exchange.Response
	Elapsed  time.Duration
}

// ElapsedMillis returns the elapsed time in whole milliseconds.
func (o Outcome) ElapsedMillis() int64 {
	return o.Elapsed.Milliseconds()
}

// Dispatcher sends requests. It holds no per-request state and is safe for
// concurrent use.
type Dispatcher struct {
	client       HTTPClient
	apiKeyHeader string
	observer     Observer
	logger       *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClient replaces the default *http.Client.
func WithClient(c HTTPClient) Option {
	return func(d *Dispatcher) { d.client = c }
}

// WithAPIKeyHeader sets the header name used for AuthAPIKey.
func WithAPIKeyHeader(name string) Option {
	return func(d *Dispatcher) {
		if name != "" {
			d.apiKeyHeader = name
		}
	}
}

// WithObserver registers an observer for completed dispatches.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Dispatcher. The default client has no timeout of its own;
// callers bound a dispatch through its context.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:       &http.Client{},
		apiKeyHeader: DefaultAPIKeyHeader,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch performs one call for req against effectiveURL.
//
// A *ValidationError is returned, before any timing or network activity,
// when the URL is empty, the method is not one of exchange.Methods or the
// GraphQL variables are not a JSON object.
// Every other outcome, including network failure, is reported through the
// returned Outcome, which always carries the elapsed time.
func (d *Dispatcher) Dispatch(ctx context.Context, req exchange.Request, effectiveURL string) (Outcome, error) {
	if effectiveURL == "" {
		return Outcome{}, &ValidationError{Field: "url", Reason: "a URL is required", Err: exchange.ErrNoURL}
	}

	m, err := exchange.ParseMethod(string(req.EffectiveMethod()))
	if err != nil {
		return Outcome{}, &ValidationError{Field: "method", Reason: fmt.Sprintf("%q is not supported", req.Method), Err: err}
	}
	method := string(m)

	p, err := buildPayload(req)
	if err != nil {
		return Outcome{}, err
	}
	header := buildHeader(req, d.apiKeyHeader, p.contentType)

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, method, effectiveURL, bodyReader(p))
	if err != nil {
		return d.failed(method, effectiveURL, err, time.Since(start)), nil
	}
	httpReq.Header = header
	if host := header.Get("Host"); host != "" {
		httpReq.Host = host
	}

	httpResp, err := d.client.Do(httpReq)
	if err != nil {
		return d.failed(method, effectiveURL, err, time.Since(start)), nil
	}
	raw, readErr := io.ReadAll(httpResp.Body)
	_ = httpResp.Body.Close()
	elapsed := time.Since(start)

	if readErr != nil {
		d.logger.Warn("response body truncated", "url", effectiveURL, "error", readErr)
	}

	out := Outcome{
		Response: d.normalize(httpResp, raw),
		Elapsed:  elapsed,
	}

	d.logger.Debug("dispatch complete",
		"method", method,
		"url", effectiveURL,
		"status", out.Response.Status,
		"elapsed_ms", out.ElapsedMillis(),
	)

	if d.observer != nil {
		d.observer.Observe(ctx, req, effectiveURL, out)
	}
	return out, nil
}

func (d *Dispatcher) failed(method, url string, err error, elapsed time.Duration) Outcome {
	msg := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "request timed out: " + msg
	}
	d.logger.Debug("dispatch failed", "method", method, "url", url, "error", msg)
	return Outcome{
		Response: exchange.Response{Error: msg},
		Elapsed:  elapsed,
	}
}

func (d *Dispatcher) normalize(resp *http.Response, raw []byte) exchange.Response {
	contentType := resp.Header.Get("Content-Type")

	body := raw
	if !resp.Uncompressed {
		decoded, err := decompress(raw, resp.Header.Get("Content-Encoding"))
		if err != nil {
			d.logger.Warn("could not decode response body", "encoding", resp.Header.Get("Content-Encoding"), "error", err)
		} else {
			body = decoded
		}
	}
	body = toUTF8(body, contentType)

	return exchange.Response{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Headers:    flattenHeaders(resp.Header),
		Data:       decodeData(body, contentType),
	}
}

// statusText extracts the reason phrase from "200 OK".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}
