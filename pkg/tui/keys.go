package tui

import (
	"context"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// handleKeyMsg processes keyboard input and returns the updated model and command.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		if m.pending {
			return m.handleCancel()
		}
		return m, tea.Quit

	case "ctrl+l":
		return m.handleClearScreen()

	case "ctrl+y":
		return m.handleCopyLastBody()

	case "ctrl+u":
		return m.handleClearInput()

	case "up":
		return m.handleHistoryUp()

	case "down":
		return m.handleHistoryDown()

	case "enter":
		return m.handleEnter()

	case "pgup", "pgdown", "home", "end":
		return m.handleViewportScroll(msg)

	default:
		return m, nil
	}
}

// handleCancel aborts the in-flight request; its failure arrives as a resultMsg.
func (m Model) handleCancel() (Model, tea.Cmd) {
	if m.cancelRun != nil {
		m.cancelRun()
	}
	return m, nil
}

// handleClearScreen clears all output.
func (m Model) handleClearScreen() (Model, tea.Cmd) {
	m.logs = []logEntry{}
	m.updateViewportContent()
	return m, nil
}

// handleCopyLastBody copies the last response body to the clipboard.
func (m Model) handleCopyLastBody() (Model, tea.Cmd) {
	if m.lastBody != "" {
		_ = clipboard.WriteAll(m.lastBody)
	}
	return m, nil
}

// handleClearInput clears the current input and resets history navigation.
func (m Model) handleClearInput() (Model, tea.Cmd) {
	m.textinput.SetValue("")
	m.historyIdx = -1
	return m, nil
}

// handleHistoryUp navigates backwards through input history.
func (m Model) handleHistoryUp() (Model, tea.Cmd) {
	if m.pending || len(m.inputHistory) == 0 {
		return m, nil
	}

	if m.historyIdx == -1 {
		m.savedInput = m.textinput.Value()
		m.historyIdx = len(m.inputHistory) - 1
	} else if m.historyIdx > 0 {
		m.historyIdx--
	}

	m.textinput.SetValue(m.inputHistory[m.historyIdx])
	m.textinput.CursorEnd()
	return m, nil
}

// handleHistoryDown navigates forwards through input history.
func (m Model) handleHistoryDown() (Model, tea.Cmd) {
	if m.pending || m.historyIdx == -1 {
		return m, nil
	}

	if m.historyIdx < len(m.inputHistory)-1 {
		m.historyIdx++
		m.textinput.SetValue(m.inputHistory[m.historyIdx])
	} else {
		m.historyIdx = -1
		m.textinput.SetValue(m.savedInput)
	}

	m.textinput.CursorEnd()
	return m, nil
}

// handleEnter parses the input line and sends the request. Sending is
// disabled while a request is pending.
func (m Model) handleEnter() (Model, tea.Cmd) {
	if m.pending || m.runner == nil {
		return m, nil
	}

	input := strings.TrimSpace(m.textinput.Value())
	if input == "" {
		return m, nil
	}

	m.inputHistory = append(m.inputHistory, input)
	m.historyIdx = -1
	m.savedInput = ""
	m.textinput.SetValue("")

	req, err := ParseInput(input)
	if err != nil {
		m.logs = append(m.logs, logEntry{Type: "error", Content: err.Error()})
		m.updateViewportContent()
		return m, nil
	}

	m.logs = append(m.logs, logEntry{Type: "request", Content: input})

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelRun = cancel
	m.pending = true
	m.sentAt = time.Now()
	m.updateViewportContent()

	return m, tea.Batch(
		m.spinner.Tick,
		animTick(),
		sendRequest(ctx, m.runner, req, m.env),
	)
}

// handleViewportScroll passes scroll events to the viewport.
func (m Model) handleViewportScroll(msg tea.KeyMsg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}
