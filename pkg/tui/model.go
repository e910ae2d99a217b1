package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/harmonica"

	"github.com/blackcoderx/courier/pkg/core"
	"github.com/blackcoderx/courier/pkg/exchange"
)

// Runner runs one request through the pipeline.
type Runner interface {
	Run(ctx context.Context, req exchange.Request, opts core.RunOptions) (*core.Result, error)
}

// Options configures the request builder.
type Options struct {
	Runner  Runner
	Env     map[string]string
	EnvName string // shown in the footer
}

// logEntry represents a single block in the output viewport
type logEntry struct {
	Type    string // "request", "result", "error"
	Content string // rendered once on arrival
}

// Model is the Bubble Tea model for the request builder.
type Model struct {
	viewport  viewport.Model
	textinput textinput.Model
	spinner   spinner.Model
	logs      []logEntry
	width     int
	height    int
	ready     bool

	runner  Runner
	env     map[string]string
	envName string

	pending   bool
	sentAt    time.Time
	cancelRun context.CancelFunc
	lastBody  string

	inputHistory []string
	historyIdx   int    // -1 = new input
	savedInput   string // input saved when navigating history

	// Pulse of the pending indicator
	animSpring harmonica.Spring
	animPos    float64
	animVel    float64
	animTarget float64
}

// resultMsg carries the outcome of a run back to the model
type resultMsg struct {
	result *core.Result
	err    error
}

// animTickMsg drives the harmonica spring animation
type animTickMsg time.Time
