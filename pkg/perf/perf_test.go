package perf

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackcoderx/courier/pkg/dispatch"
	"github.com/blackcoderx/courier/pkg/exchange"
)

func TestParamsValidate(t *testing.T) {
	valid := Params{
		Request:           exchange.New("http://h"),
		Duration:          time.Second,
		RequestsPerSecond: 1,
		ConcurrentUsers:   1,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"zero duration", func(p *Params) { p.Duration = 0 }},
		{"zero rps", func(p *Params) { p.RequestsPerSecond = 0 }},
		{"zero users", func(p *Params) { p.ConcurrentUsers = 0 }},
		{"negative ramp-up", func(p *Params) { p.RampUp = -time.Second }},
		{"no url", func(p *Params) { p.Request.URL = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestPercentileIndex(t *testing.T) {
	assert.Equal(t, 0, percentileIndex(0, 50))
	assert.Equal(t, 49, percentileIndex(100, 50))
	assert.Equal(t, 94, percentileIndex(100, 95))
	assert.Equal(t, 0, percentileIndex(1, 99))
	assert.Equal(t, 9, percentileIndex(10, 100))
}

func TestBench(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1)%2 == 0 {
			w.WriteHeader(http.StatusAccepted)
		}
	}))
	defer srv.Close()

	res, err := Bench(context.Background(), dispatch.New(), Params{
		Request:           exchange.New(srv.URL),
		Duration:          300 * time.Millisecond,
		RequestsPerSecond: 50,
		ConcurrentUsers:   3,
		RampUp:            60 * time.Millisecond,
	})
	require.NoError(t, err)

	assert.Positive(t, res.TotalRequests)
	assert.Equal(t, res.TotalRequests, res.SuccessfulReqs+res.FailedReqs)
	assert.Equal(t, int64(0), res.FailedReqs)
	assert.Equal(t, res.SuccessfulReqs, res.StatusCodeCounts[200]+res.StatusCodeCounts[202])
	assert.LessOrEqual(t, res.MinLatency, res.LatencyP50)
	assert.LessOrEqual(t, res.LatencyP50, res.LatencyP99)
	assert.LessOrEqual(t, res.LatencyP99, res.MaxLatency)
	assert.Contains(t, res.Format(), "Status Code Distribution:")
}

func TestBench_CountsTransportFailures(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res, err := Bench(context.Background(), dispatch.New(), Params{
		Request:           exchange.New(url),
		Duration:          100 * time.Millisecond,
		RequestsPerSecond: 20,
		ConcurrentUsers:   1,
	})
	require.NoError(t, err)
	assert.Positive(t, res.FailedReqs)
	assert.Equal(t, int64(0), res.SuccessfulReqs)
	assert.InDelta(t, 100.0, res.ErrorRate, 0.001)
}

func TestBench_ValidationErrorStopsRun(t *testing.T) {
	req := exchange.Request{
		RequestType:      exchange.RequestTypeGraphQL,
		URL:              "http://127.0.0.1:1",
		GraphQLVariables: "{bad",
	}

	_, err := Bench(context.Background(), dispatch.New(), Params{
		Request:           req,
		Duration:          time.Second,
		RequestsPerSecond: 10,
		ConcurrentUsers:   2,
	})

	var verr *dispatch.ValidationError
	assert.True(t, errors.As(err, &verr))
}
