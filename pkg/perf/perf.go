// Package perf load-tests a single request: several workers dispatch it
// under a shared rate limit and the latencies are summarized.
package perf

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/blackcoderx/courier/pkg/dispatch"
	"github.com/blackcoderx/courier/pkg/exchange"
)

// Dispatcher performs one HTTP call for a request.
type Dispatcher interface {
	Dispatch(ctx context.Context, req exchange.Request, effectiveURL string) (dispatch.Outcome, error)
}

// Params defines a load test.
type Params struct {
	Request           exchange.Request
	Duration          time.Duration
	RequestsPerSecond int
	ConcurrentUsers   int
	RampUp            time.Duration
}

// Validate checks the parameters.
func (p Params) Validate() error {
	if p.Duration <= 0 {
		return errors.New("duration must be greater than 0")
	}
	if p.RequestsPerSecond <= 0 {
		return errors.New("requests per second must be greater than 0")
	}
	if p.ConcurrentUsers <= 0 {
		return errors.New("concurrent users must be greater than 0")
	}
	if p.RampUp < 0 {
		return errors.New("ramp-up cannot be negative")
	}
	if p.Request.URL == "" {
		return exchange.ErrNoURL
	}
	return nil
}

// Result holds the results of a load test
type Result struct {
	TotalRequests    int64         `json:"total_requests"`
	SuccessfulReqs   int64         `json:"successful_requests"`
	FailedReqs       int64         `json:"failed_requests"`
	Duration         time.Duration `json:"duration"`
	Throughput       float64       `json:"throughput_rps"`
	LatencyP50       time.Duration `json:"latency_p50"`
	LatencyP95       time.Duration `json:"latency_p95"`
	LatencyP99       time.Duration `json:"latency_p99"`
	MinLatency       time.Duration `json:"min_latency"`
	MaxLatency       time.Duration `json:"max_latency"`
	AvgLatency       time.Duration `json:"avg_latency"`
	ErrorRate        float64       `json:"error_rate_percent"`
	StatusCodeCounts map[int]int64 `json:"status_codes"`
}

// Bench runs the load test until p.Duration elapses or ctx ends. A request
// that fails validation stops the run and is returned as the error;
// transport failures are counted.
func Bench(ctx context.Context, d Dispatcher, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	url, err := exchange.ComposeURL(p.Request.URL, p.Request.QueryParams)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.Duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(p.RequestsPerSecond), p.RequestsPerSecond)

	var (
		mu          sync.Mutex
		latencies   []time.Duration
		statusCodes = make(map[int]int64)
		total       int64
		failed      int64
	)

	g, gctx := errgroup.WithContext(ctx)
	startTime := time.Now()

	for i := 0; i < p.ConcurrentUsers; i++ {
		// Linear ramp-up: worker i starts i/users of the way through RampUp.
		delay := time.Duration(int64(p.RampUp) * int64(i) / int64(p.ConcurrentUsers))
		req := p.Request.Clone()

		g.Go(func() error {
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-gctx.Done():
					return nil
				}
			}

			for {
				if err := limiter.Wait(gctx); err != nil {
					return nil
				}

				out, err := d.Dispatch(gctx, req, url)
				if err != nil {
					return err
				}
				if gctx.Err() != nil && out.Response.Failed() {
					// Cut off by the end of the run, not a real failure.
					return nil
				}

				mu.Lock()
				total++
				if out.Response.Failed() {
					failed++
				} else {
					latencies = append(latencies, out.Elapsed)
					statusCodes[out.Response.Status]++
				}
				mu.Unlock()
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	totalDuration := time.Since(startTime)

	result := &Result{
		TotalRequests:    total,
		SuccessfulReqs:   total - failed,
		FailedReqs:       failed,
		Duration:         totalDuration,
		StatusCodeCounts: statusCodes,
	}

	if total > 0 {
		result.Throughput = float64(total) / totalDuration.Seconds()
		result.ErrorRate = float64(failed) / float64(total) * 100
	}

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

		result.MinLatency = latencies[0]
		result.MaxLatency = latencies[len(latencies)-1]
		result.LatencyP50 = latencies[percentileIndex(len(latencies), 50)]
		result.LatencyP95 = latencies[percentileIndex(len(latencies), 95)]
		result.LatencyP99 = latencies[percentileIndex(len(latencies), 99)]

		var sum time.Duration
		for _, lat := range latencies {
			sum += lat
		}
		result.AvgLatency = sum / time.Duration(len(latencies))
	}

	return result, nil
}

// percentileIndex calculates the index for a given percentile
func percentileIndex(n int, percentile int) int {
	if n == 0 {
		return 0
	}
	index := int(math.Ceil(float64(n)*float64(percentile)/100.0)) - 1
	if index < 0 {
		index = 0
	}
	if index >= n {
		index = n - 1
	}
	return index
}

// Format renders the result for terminal output.
func (r *Result) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `Load Test Results
=================

Duration: %.2fs
Total Requests: %d
Successful: %d
Failed: %d
Error Rate: %.2f%%

Throughput: %.2f req/sec

Latency Statistics:
  Min:     %v
  Average: %v
  P50:     %v
  P95:     %v
  P99:     %v
  Max:     %v

Status Code Distribution:`,
		r.Duration.Seconds(),
		r.TotalRequests,
		r.SuccessfulReqs,
		r.FailedReqs,
		r.ErrorRate,
		r.Throughput,
		r.MinLatency,
		r.AvgLatency,
		r.LatencyP50,
		r.LatencyP95,
		r.LatencyP99,
		r.MaxLatency,
	)

	codes := make([]int, 0, len(r.StatusCodeCounts))
	for code := range r.StatusCodeCounts {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		count := r.StatusCodeCounts[code]
		fmt.Fprintf(&sb, "\n  %d: %d (%.1f%%)", code, count, float64(count)/float64(r.SuccessfulReqs)*100)
	}
	return sb.String()
}
