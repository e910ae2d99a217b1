package core

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cassert "github.com/blackcoderx/courier/pkg/assert"
	"github.com/blackcoderx/courier/pkg/dispatch"
	"github.com/blackcoderx/courier/pkg/echo"
	"github.com/blackcoderx/courier/pkg/exchange"
	"github.com/blackcoderx/courier/pkg/sandbox"
)

func newTestRunner(timeout time.Duration) *Runner {
	return NewRunner(dispatch.New(), sandbox.New(time.Second, nil), timeout, nil)
}

func TestRunner_Pipeline(t *testing.T) {
	e := echo.New(nil)
	srv := httptest.NewServer(e)
	defer srv.Close()

	req := exchange.New("{{BASE}}/items")
	req.Method = exchange.MethodPost
	req.Body = `{"name": "{{NAME}}"}`
	req.QueryParams = []exchange.QueryParam{
		{Key: "page", Value: "{{PAGE}}", Enabled: true},
		{Key: "debug", Value: "1", Enabled: false},
	}
	req.TestScript = "console.log(response.data.method, response.data.query.page, typeof responseTime)"

	res, err := newTestRunner(5*time.Second).Run(context.Background(), req, RunOptions{
		Env:        map[string]string{"BASE": srv.URL, "NAME": "widget", "PAGE": "2"},
		Assertions: []cassert.Assertion{{Expr: `status == 200 && data.body contains "widget"`, Enabled: true}},
	})
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/items?page=2", res.URL)
	assert.Equal(t, 200, res.Outcome.Response.Status)
	assert.Equal(t, "POST 2 number", res.TestOutput)
	assert.True(t, res.Assertions.Passed(), res.Assertions.String())
	assert.True(t, res.Passed())

	got := e.Requests()
	require.Len(t, got, 1)
	assert.Equal(t, `{"name": "widget"}`, got[0].Body)
	assert.Equal(t, "{{BASE}}/items", req.URL, "caller's request must not change")
}

func TestRunner_NoURL(t *testing.T) {
	_, err := newTestRunner(0).Run(context.Background(), exchange.New(""), RunOptions{})

	var verr *dispatch.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ErrorIs(t, err, exchange.ErrNoURL)
}

func TestRunner_TransportFailureSkipsScript(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	req := exchange.New(url)
	req.TestScript = "console.log('should not run')"

	res, err := newTestRunner(time.Second).Run(context.Background(), req, RunOptions{
		Assertions: []cassert.Assertion{{Expr: "status == 200", Enabled: true}},
	})
	require.NoError(t, err)
	assert.True(t, res.Outcome.Response.Failed())
	assert.Empty(t, res.TestOutput)
	assert.Empty(t, res.Assertions.Results)
	assert.False(t, res.Passed())
}

func TestRunner_ScriptErrorIsContained(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "hello")
	}))
	defer srv.Close()

	req := exchange.New(srv.URL)
	req.TestScript = `throw new Error("boom")`

	res, err := newTestRunner(time.Second).Run(context.Background(), req, RunOptions{})
	require.NoError(t, err)
	assert.Contains(t, res.TestOutput, "boom")
	assert.True(t, res.ScriptFailed)
	assert.False(t, res.Passed())
	assert.Equal(t, "hello", res.Outcome.Response.Data)
}

func TestRunner_LoggedErrorPrefixPasses(t *testing.T) {
	srv := httptest.NewServer(echo.New(nil))
	defer srv.Close()

	req := exchange.New(srv.URL)
	req.TestScript = `console.log("Test error: rate limit header missing (expected on staging)")`

	res, err := newTestRunner(time.Second).Run(context.Background(), req, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Test error: rate limit header missing (expected on staging)", res.TestOutput)
	assert.False(t, res.ScriptFailed)
	assert.True(t, res.Passed())
}

func TestRunner_DefaultScriptNotRun(t *testing.T) {
	srv := httptest.NewServer(echo.New(nil))
	defer srv.Close()

	req := exchange.New(srv.URL)
	req.TestScript = sandbox.DefaultScript

	res, err := newTestRunner(time.Second).Run(context.Background(), req, RunOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.TestOutput)
	assert.True(t, res.Passed())
}

func TestRunner_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	res, err := newTestRunner(50*time.Millisecond).Run(context.Background(), exchange.New(srv.URL), RunOptions{})
	require.NoError(t, err)
	assert.True(t, res.Outcome.Response.Failed())
}

func TestResult_Markdown(t *testing.T) {
	res := &Result{
		Request: exchange.New("http://h/x"),
		URL:     "http://h/x?a=1",
		Outcome: dispatch.Outcome{
			Response: exchange.Response{
				Status:     200,
				StatusText: "OK",
				Headers:    map[string]string{"content-type": "application/json", "x-b": "a|b"},
				Data:       map[string]any{"a": float64(1)},
			},
			Elapsed: 41 * time.Millisecond,
		},
		TestOutput: "Success!",
		Assertions: cassert.Report{Results: []cassert.Result{{Name: "status == 200", Passed: true}}},
	}

	md := res.Markdown()
	assert.Contains(t, md, "## GET http://h/x?a=1")
	assert.Contains(t, md, "**200 OK · 41 ms**")
	assert.Contains(t, md, "| content-type | application/json |")
	assert.Contains(t, md, `| x-b | a\|b |`)
	assert.Contains(t, md, "```json\n{\n  \"a\": 1\n}\n```")
	assert.Contains(t, md, "Success!")
	assert.Contains(t, md, "- ✓ `status == 200`")

	failed := &Result{
		Request: exchange.New("http://h"),
		URL:     "http://h",
		Outcome: dispatch.Outcome{Response: exchange.Response{Error: "connection refused"}, Elapsed: 3 * time.Millisecond},
	}
	assert.True(t, strings.Contains(failed.Markdown(), "Error: connection refused · 3 ms"))
}
