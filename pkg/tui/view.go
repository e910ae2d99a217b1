package tui

import (
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/blackcoderx/courier/pkg/core"
)

// View renders the entire TUI to a string.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderInputArea())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// updateViewportContent updates the viewport with the current log entries.
// It preserves scroll position if the user has scrolled up.
func (m *Model) updateViewportContent() {
	var content strings.Builder
	for _, entry := range m.logs {
		content.WriteString(m.formatLogEntry(entry))
		content.WriteString("\n\n")
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(content.String())
	if atBottom || m.pending {
		m.viewport.GotoBottom()
	}
}

// formatLogEntry formats a single log entry for display.
func (m *Model) formatLogEntry(entry logEntry) string {
	switch entry.Type {
	case "request":
		return RequestStyle.Render(entry.Content)
	case "error":
		return ErrorStyle.Render("  Error: " + entry.Content)
	default:
		return entry.Content
	}
}

// renderResult renders status, headers, body, test output and assertions.
func (m Model) renderResult(res *core.Result) string {
	resp := res.Outcome.Response
	if resp.Failed() {
		return ErrorStyle.Render(res.StatusLine())
	}

	var b strings.Builder
	b.WriteString(statusStyle(resp.Status).Render(res.StatusLine()))
	b.WriteString("\n")

	keys := make([]string, 0, len(resp.Headers))
	for k := range resp.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(HeaderStyle.Render(k + ": " + resp.Headers[k]))
		b.WriteString("\n")
	}

	if body := resp.BodyString(); body != "" {
		b.WriteString("\n")
		if _, raw := resp.Data.(string); raw {
			b.WriteString(body)
		} else {
			b.WriteString(HighlightJSON(body, m.width-6))
		}
		b.WriteString("\n")
	}

	if res.TestOutput != "" {
		b.WriteString("\n")
		b.WriteString(TestOutputStyle.Render(res.TestOutput))
		b.WriteString("\n")
	}

	if len(res.Assertions.Results) > 0 {
		b.WriteString("\n")
		report := res.Assertions.String()
		if res.Assertions.Passed() {
			b.WriteString(Status2xxStyle.Render(report))
		} else {
			b.WriteString(ErrorStyle.Render(report))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// renderInputArea renders the input line.
func (m Model) renderInputArea() string {
	return InputAreaStyle.Width(m.width - 3).Render(m.textinput.View())
}

// renderPulse renders the pending indicator, brightness following the spring.
func (m Model) renderPulse() string {
	glyph := "○"
	if m.animPos > 0.5 {
		glyph = "●"
	}
	return lipgloss.NewStyle().Foreground(AccentColor).Render(glyph)
}

// renderFooter renders status on the left and shortcuts on the right.
func (m Model) renderFooter() string {
	var left string
	if m.pending {
		elapsed := time.Since(m.sentAt).Round(time.Millisecond)
		left = m.renderPulse() + " " + m.spinner.View() + " " + elapsed.String() + "  " +
			ShortcutKeyStyle.Render("esc") + ShortcutDescStyle.Render(" cancel")
	} else {
		left = FooterAppNameStyle.Render("Courier")
		if m.envName != "" {
			left += FooterEnvStyle.Render("env:" + m.envName)
		}
	}

	var parts []string
	if !m.pending {
		parts = append(parts, ShortcutKeyStyle.Render("↑↓")+ShortcutDescStyle.Render(" history"))
	}
	parts = append(parts, ShortcutKeyStyle.Render("ctrl+l")+ShortcutDescStyle.Render(" clear"))
	parts = append(parts, ShortcutKeyStyle.Render("ctrl+y")+ShortcutDescStyle.Render(" copy body"))
	right := strings.Join(parts, "    ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}

	return FooterStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}
