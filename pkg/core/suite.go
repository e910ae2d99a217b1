package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blackcoderx/courier/pkg/storage"
)

// Failure policies for RunSuite.
const (
	OnFailureStop     = "stop"
	OnFailureContinue = "continue"
)

// TestResult represents the result of a single request in a suite
type TestResult struct {
	Name       string        `json:"name"`
	Folder     string        `json:"folder,omitempty"`
	Passed     bool          `json:"passed"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
	StatusCode int           `json:"status_code,omitempty"`
}

// SuiteResult represents the result of an entire collection run
type SuiteResult struct {
	Name       string        `json:"name"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Duration   time.Duration `json:"duration"`
	TotalTests int           `json:"total_tests"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Tests      []TestResult  `json:"tests"`
}

// AllPassed reports whether every request in the collection ran and passed.
func (s SuiteResult) AllPassed() bool {
	return s.Failed == 0 && s.Passed == s.TotalTests
}

// RunSuite runs every request of collection in folder order. With
// OnFailureStop the run ends at the first failing request.
func (r *Runner) RunSuite(ctx context.Context, baseDir, collection string, env map[string]string, onFailure string) (SuiteResult, error) {
	if onFailure == "" {
		onFailure = OnFailureStop
	}
	if onFailure != OnFailureStop && onFailure != OnFailureContinue {
		return SuiteResult{}, fmt.Errorf("unknown failure policy %q (use 'stop' or 'continue')", onFailure)
	}

	members, err := storage.ListByCollection(baseDir, collection)
	if err != nil {
		return SuiteResult{}, err
	}
	if len(members) == 0 {
		return SuiteResult{}, fmt.Errorf("collection %q has no requests", collection)
	}

	result := SuiteResult{
		Name:       collection,
		StartTime:  time.Now(),
		TotalTests: len(members),
		Tests:      make([]TestResult, 0, len(members)),
	}

	for _, saved := range members {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		testResult := r.runTest(ctx, saved, env)
		result.Tests = append(result.Tests, testResult)

		if testResult.Passed {
			result.Passed++
		} else {
			result.Failed++
			if onFailure == OnFailureStop {
				break
			}
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	return result, nil
}

// runTest executes a single saved request
func (r *Runner) runTest(ctx context.Context, saved storage.SavedRequest, env map[string]string) TestResult {
	startTime := time.Now()
	result := TestResult{Name: saved.Name, Folder: saved.Folder}

	res, err := r.RunSaved(ctx, saved, env)
	result.Duration = time.Since(startTime)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.StatusCode = res.Outcome.Response.Status
	switch {
	case res.Outcome.Response.Failed():
		result.Error = fmt.Sprintf("Request failed: %s", res.Outcome.Response.Error)
	case res.ScriptFailed:
		result.Error = res.TestOutput
	case !res.Assertions.Passed():
		result.Error = res.Assertions.String()
	default:
		result.Passed = true
	}

	r.logger.Debug("suite request finished", "name", saved.Name, "passed", result.Passed, "status", result.StatusCode)
	return result
}

// Format formats the suite results for display
func (s SuiteResult) Format() string {
	var sb strings.Builder

	if s.AllPassed() {
		fmt.Fprintf(&sb, "✓ Collection: %s - ALL PASSED\n", s.Name)
	} else {
		fmt.Fprintf(&sb, "✗ Collection: %s - FAILURES DETECTED\n", s.Name)
	}
	sb.WriteString(strings.Repeat("=", 60) + "\n\n")

	pct := func(n int) float64 {
		if s.TotalTests == 0 {
			return 0
		}
		return float64(n) / float64(s.TotalTests) * 100
	}
	fmt.Fprintf(&sb, "Total: %d requests\n", s.TotalTests)
	fmt.Fprintf(&sb, "Passed: %d (%.1f%%)\n", s.Passed, pct(s.Passed))
	fmt.Fprintf(&sb, "Failed: %d (%.1f%%)\n", s.Failed, pct(s.Failed))
	if skipped := s.TotalTests - s.Passed - s.Failed; skipped > 0 {
		fmt.Fprintf(&sb, "Skipped: %d\n", skipped)
	}
	fmt.Fprintf(&sb, "Duration: %v\n\n", s.Duration.Round(time.Millisecond))

	sb.WriteString("Results:\n")
	sb.WriteString(strings.Repeat("-", 60) + "\n\n")

	for i, test := range s.Tests {
		name := test.Name
		if test.Folder != "" {
			name = test.Folder + "/" + test.Name
		}
		mark := "✓"
		if !test.Passed {
			mark = "✗"
		}
		fmt.Fprintf(&sb, "%d. %s %s\n", i+1, mark, name)
		fmt.Fprintf(&sb, "   Status: %d | Duration: %v\n", test.StatusCode, test.Duration.Round(time.Millisecond))
		if test.Error != "" {
			fmt.Fprintf(&sb, "   Error: %s\n", test.Error)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// SaveSuiteResult writes s as JSON under dir/test-results and returns the path.
func SaveSuiteResult(dir string, s SuiteResult) (string, error) {
	resultsDir := filepath.Join(dir, "test-results")
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results folder: %w", err)
	}

	filename := fmt.Sprintf("%s-%s.json", storage.Slug(s.Name), s.StartTime.Format("2006-01-02-15-04-05"))
	resultPath := filepath.Join(resultsDir, filename)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(resultPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write results: %w", err)
	}
	return resultPath, nil
}
