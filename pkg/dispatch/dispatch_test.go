package dispatch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackcoderx/courier/pkg/echo"
	"github.com/blackcoderx/courier/pkg/exchange"
)

type recordingObserver struct {
	mu   sync.Mutex
	seen []Outcome
}

func (o *recordingObserver) Observe(_ context.Context, _ exchange.Request, _ string, out Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, out)
}

func TestDispatch_EmptyURL(t *testing.T) {
	d := New()
	_, err := d.Dispatch(context.Background(), exchange.New(""), "")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "url", verr.Field)
	assert.ErrorIs(t, err, exchange.ErrNoURL)
}

func TestDispatch_UnknownMethod(t *testing.T) {
	e := echo.New(nil)
	srv := httptest.NewServer(e)
	defer srv.Close()

	req := exchange.New(srv.URL)
	req.Method = "FETCH"
	_, err := New().Dispatch(context.Background(), req, srv.URL)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "method", verr.Field)
	assert.ErrorIs(t, err, exchange.ErrInvalidMethod)
	assert.Empty(t, e.Requests())
}

func TestDispatch_StructuredVsText(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"a":1}`)
	})
	mux.HandleFunc("/text", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "hello")
	})
	mux.HandleFunc("/teapot", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, `{"broken"`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	d := New()

	out, err := d.Dispatch(context.Background(), exchange.New(srv.URL+"/json"), srv.URL+"/json")
	require.NoError(t, err)
	assert.Equal(t, 200, out.Response.Status)
	assert.Equal(t, "OK", out.Response.StatusText)
	assert.Equal(t, map[string]any{"a": float64(1)}, out.Response.Data)
	assert.Equal(t, "application/json", out.Response.Headers["content-type"])

	out, err = d.Dispatch(context.Background(), exchange.New(srv.URL+"/text"), srv.URL+"/text")
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Response.Data)

	out, err = d.Dispatch(context.Background(), exchange.New(srv.URL+"/teapot"), srv.URL+"/teapot")
	require.NoError(t, err, "an error status is still a successful dispatch")
	assert.Equal(t, http.StatusTeapot, out.Response.Status)
	assert.False(t, out.Response.Failed())
	assert.Equal(t, `{"broken"`, out.Response.Data)
}

func TestDispatch_TimingAlwaysPresent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
	}))
	url := srv.URL

	d := New()
	ok, err := d.Dispatch(context.Background(), exchange.New(url), url)
	require.NoError(t, err)
	assert.Equal(t, 200, ok.Response.Status)
	assert.GreaterOrEqual(t, ok.ElapsedMillis(), int64(5))

	srv.Close()

	failed, err := d.Dispatch(context.Background(), exchange.New(url), url)
	require.NoError(t, err)
	assert.True(t, failed.Response.Failed())
	assert.Zero(t, failed.Response.Status)
	assert.Nil(t, failed.Response.Headers)
	assert.GreaterOrEqual(t, failed.ElapsedMillis(), int64(0))
}

func TestDispatch_MalformedURLIsTransportFailure(t *testing.T) {
	out, err := New().Dispatch(context.Background(), exchange.New("::nope"), "::nope")
	require.NoError(t, err)
	assert.True(t, out.Response.Failed())
}

func TestDispatch_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	out, err := New().Dispatch(ctx, exchange.New(srv.URL), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out.Response.Error, "timed out")
	assert.Zero(t, out.Response.Status)
}

func TestDispatch_MalformedGraphQLNeverReachesNetwork(t *testing.T) {
	e := echo.New(nil)
	srv := httptest.NewServer(e)
	defer srv.Close()

	obs := &recordingObserver{}
	d := New(WithObserver(obs))

	req := exchange.Request{
		RequestType:      exchange.RequestTypeGraphQL,
		URL:              srv.URL,
		GraphQLQuery:     "{ a }",
		GraphQLVariables: "{not valid json",
	}
	_, err := d.Dispatch(context.Background(), req, srv.URL)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Empty(t, e.Requests())
	assert.Empty(t, obs.seen)
}

func TestDispatch_GraphQLWire(t *testing.T) {
	e := echo.New(nil)
	srv := httptest.NewServer(e)
	defer srv.Close()

	req := exchange.Request{
		RequestType:      exchange.RequestTypeGraphQL,
		Method:           exchange.MethodGet,
		Body:             "ignored",
		GraphQLQuery:     "{ me { id } }",
		GraphQLVariables: `{"x":1}`,
		AuthType:         exchange.AuthBearer,
		AuthToken:        "t0k",
	}
	_, err := New().Dispatch(context.Background(), req, srv.URL+"/graphql")
	require.NoError(t, err)

	got := e.Requests()
	require.Len(t, got, 1)
	assert.Equal(t, "POST", got[0].Method)
	assert.JSONEq(t, `{"query":"{ me { id } }","variables":{"x":1}}`, got[0].Body)
	assert.Equal(t, "application/json", got[0].Headers["content-type"])
	assert.Equal(t, "Bearer t0k", got[0].Headers["authorization"])
}

func TestDispatch_RESTWire(t *testing.T) {
	e := echo.New(nil)
	srv := httptest.NewServer(e)
	defer srv.Close()

	req := exchange.New(srv.URL)
	req.Method = exchange.MethodPut
	req.BodyType = exchange.BodyText
	req.Body = "payload"
	req.GraphQLQuery = "{ ignored }"
	req.Headers = []exchange.Header{{Key: "X-Req", Value: "1"}, {Key: "Host", Value: "api.internal"}}
	req.AuthType = exchange.AuthAPIKey
	req.AuthToken = "secret"

	d := New(WithAPIKeyHeader("X-Token"))
	_, err := d.Dispatch(context.Background(), req, srv.URL+"/things?id=3")
	require.NoError(t, err)

	got := e.Requests()
	require.Len(t, got, 1)
	assert.Equal(t, "PUT", got[0].Method)
	assert.Equal(t, "/things", got[0].Path)
	assert.Equal(t, "3", got[0].Query["id"])
	assert.Equal(t, "payload", got[0].Body)
	assert.Equal(t, "text/plain", got[0].Headers["content-type"])
	assert.Equal(t, "secret", got[0].Headers["x-token"])
	assert.Equal(t, "1", got[0].Headers["x-req"])
}

func TestDispatch_IdempotentRedispatch(t *testing.T) {
	srv := httptest.NewServer(echo.New(nil))
	defer srv.Close()

	req := exchange.New(srv.URL)
	req.Method = exchange.MethodPost
	req.Body = `{"n":1}`
	url, err := exchange.ComposeURL(srv.URL+"/e", []exchange.QueryParam{{Key: "a", Value: "1", Enabled: true}})
	require.NoError(t, err)

	d := New()
	first, err := d.Dispatch(context.Background(), req, url)
	require.NoError(t, err)
	second, err := d.Dispatch(context.Background(), req, url)
	require.NoError(t, err)

	assert.Equal(t, first.Response.Status, second.Response.Status)
	assert.Equal(t, first.Response.Data, second.Response.Data)
	assert.Equal(t, first.Response.Headers["content-type"], second.Response.Headers["content-type"])
	assert.Equal(t, first.Response.Headers["content-length"], second.Response.Headers["content-length"])
}

func TestDispatch_ObserverSeesHTTPResponsesOnly(t *testing.T) {
	srv := httptest.NewServer(echo.New(nil))
	url := srv.URL

	obs := &recordingObserver{}
	d := New(WithObserver(obs))

	_, err := d.Dispatch(context.Background(), exchange.New(url), url)
	require.NoError(t, err)
	srv.Close()
	_, err = d.Dispatch(context.Background(), exchange.New(url), url)
	require.NoError(t, err)

	require.Len(t, obs.seen, 1)
	assert.Equal(t, 200, obs.seen[0].Response.Status)
}

type stubClient struct {
	resp *http.Response
}

func (s stubClient) Do(*http.Request) (*http.Response, error) {
	return s.resp, nil
}

func TestDispatch_StatusTextFallback(t *testing.T) {
	resp := &http.Response{
		StatusCode: 404,
		Header:     http.Header{"Content-Type": {"text/plain"}},
		Body:       io.NopCloser(bytes.NewReader([]byte("gone"))),
	}
	out, err := New(WithClient(stubClient{resp: resp})).Dispatch(context.Background(), exchange.New("http://x"), "http://x")
	require.NoError(t, err)
	assert.Equal(t, "Not Found", out.Response.StatusText)
	assert.Equal(t, "gone", out.Response.Data)
}
