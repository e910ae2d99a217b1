// Package sandbox runs post-response test scripts in an embedded ECMAScript
// interpreter. Scripts see a copy of the response, the elapsed time and a
// console whose output is captured and returned as text.
//
// The interpreter has no filesystem, network or module loader. Scripts are
// bounded by the caller's context and by the sandbox timeout.
package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/blackcoderx/courier/pkg/exchange"
)

const (
	// NoOutput is returned when a script completes without logging anything.
	NoOutput = "Tests completed successfully (no console output)"

	// ErrorPrefix starts the single line returned when a script fails.
	ErrorPrefix = "Test error: "

	templateMarker = "// Test script"
)

// DefaultScript is the editor's initial content. ShouldRun treats it as
// "no script".
const DefaultScript = templateMarker + `
// Available: response, responseTime
// Example:
// if (response.status === 200) {
//   console.log('Success!');
// }`

// ShouldRun reports whether script holds user-written code.
func ShouldRun(script string) bool {
	return strings.TrimSpace(script) != "" && !strings.Contains(script, templateMarker)
}

// Sandbox executes test scripts. Each Run gets a fresh interpreter, so a
// Sandbox is safe for concurrent use.
type Sandbox struct {
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a new Sandbox. A zero timeout leaves scripts bounded only by
// the context passed to Run.
func New(timeout time.Duration, logger *slog.Logger) *Sandbox {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Sandbox{timeout: timeout, logger: logger}
}

// Result is the outcome of one script run.
type Result struct {
	// Output is the captured console output, NoOutput, or a single
	// ErrorPrefix line when the script failed.
	Output string
	// Failed is set when the script threw, did not parse or was
	// interrupted. Console output never sets it.
	Failed bool
}

func failed(msg string) Result {
	return Result{Output: ErrorPrefix + msg, Failed: true}
}

// Run executes script with response and responseTime bound. It never
// panics and never returns an error: script failures are reported in the
// Result.
func (s *Sandbox) Run(ctx context.Context, script string, resp exchange.Response, elapsedMS int64) (res Result) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	vm := goja.New()
	c := &console{vm: vm}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("test script panicked", "panic", r)
			res = failed(fmt.Sprint(r))
		}
	}()

	if err := c.install(); err != nil {
		return failed(err.Error())
	}
	if err := bindResponse(vm, resp); err != nil {
		return failed(err.Error())
	}
	if err := vm.Set("responseTime", elapsedMS); err != nil {
		return failed(err.Error())
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err().Error())
		case <-stop:
		}
	}()

	start := time.Now()
	_, err := vm.RunString(script)
	s.logger.Debug("test script finished", "duration", time.Since(start), "lines", len(c.lines), "failed", err != nil)

	if err != nil {
		return failed(describe(err))
	}
	if len(c.lines) == 0 {
		return Result{Output: NoOutput}
	}
	return Result{Output: strings.Join(c.lines, "\n")}
}

// bindResponse exposes a native JS copy of resp. The copy is built from
// JSON inside the interpreter so nothing the script does reaches Go values.
func bindResponse(vm *goja.Runtime, resp exchange.Response) error {
	raw, err := json.Marshal(resp.AsMap())
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	parse, ok := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("parse"))
	if !ok {
		return errors.New("JSON.parse unavailable")
	}
	v, err := parse(goja.Undefined(), vm.ToValue(string(raw)))
	if err != nil {
		return fmt.Errorf("failed to bind response: %w", err)
	}
	return vm.Set("response", v)
}

// describe turns a script failure into its message.
func describe(err error) string {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Sprintf("script interrupted: %v", interrupted.Value())
	}

	var exc *goja.Exception
	if errors.As(err, &exc) {
		thrown := exc.Value()
		if obj, ok := thrown.(*goja.Object); ok {
			if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
				return msg.String()
			}
		}
		if thrown != nil {
			return thrown.String()
		}
	}
	return err.Error()
}
