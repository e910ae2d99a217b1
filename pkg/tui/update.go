package tui

import (
	"context"
	"math"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/blackcoderx/courier/pkg/core"
	"github.com/blackcoderx/courier/pkg/exchange"
)

// sendRequest runs the request off the UI loop and reports back with a
// resultMsg.
func sendRequest(ctx context.Context, runner Runner, req exchange.Request, env map[string]string) tea.Cmd {
	return func() tea.Msg {
		res, err := runner.Run(ctx, req, core.RunOptions{Env: env})
		return resultMsg{result: res, err: err}
	}
}

// Update handles all messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		updatedModel, cmd := m.handleKeyMsg(msg)
		if cmd != nil {
			return updatedModel, cmd
		}
		// Regular characters fall through to the text input.
		m = updatedModel

	case tea.WindowSizeMsg:
		m = m.handleWindowResize(msg)

	case resultMsg:
		m = m.handleResult(msg)

	case animTickMsg:
		if m.pending {
			m = m.stepPulse()
			cmds = append(cmds, animTick())
		}

	case spinner.TickMsg:
		if m.pending {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.pending {
		var cmd tea.Cmd
		m.textinput, cmd = m.textinput.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleWindowResize adjusts the layout when the terminal is resized.
func (m Model) handleWindowResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height

	inputHeight := 1
	footerHeight := 1
	margins := 3

	viewportHeight := m.height - inputHeight - footerHeight - margins
	if viewportHeight < 5 {
		viewportHeight = 5
	}

	if !m.ready {
		m.viewport = viewport.New(m.width-2, viewportHeight)
		m.viewport.SetContent("")
		m.ready = true
	} else {
		m.viewport.Width = m.width - 2
		m.viewport.Height = viewportHeight
	}

	m.textinput.Width = m.width - 6
	return m
}

// handleResult records a finished run and re-enables sending.
func (m Model) handleResult(msg resultMsg) Model {
	m.pending = false
	if m.cancelRun != nil {
		m.cancelRun()
		m.cancelRun = nil
	}

	switch {
	case msg.err != nil:
		m.logs = append(m.logs, logEntry{Type: "error", Content: msg.err.Error()})
	case msg.result != nil:
		m.logs = append(m.logs, logEntry{Type: "result", Content: m.renderResult(msg.result)})
		if !msg.result.Outcome.Response.Failed() {
			m.lastBody = msg.result.PrettyBody()
		}
	}

	m.updateViewportContent()
	return m
}

// stepPulse advances the spring and bounces it between 0 and 1.
func (m Model) stepPulse() Model {
	m.animPos, m.animVel = m.animSpring.Update(m.animPos, m.animVel, m.animTarget)
	if math.Abs(m.animPos-m.animTarget) < 0.05 {
		m.animTarget = 1 - m.animTarget
	}
	return m
}
