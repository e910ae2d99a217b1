package tui

import (
	"encoding/json"
	"strings"

	"github.com/charmbracelet/glamour"
)

// HighlightJSON pretty-prints and syntax-highlights a JSON string.
// If the input is not valid JSON, it returns the original string.
func HighlightJSON(input string, width int) string {
	var js any
	if json.Unmarshal([]byte(input), &js) != nil {
		return input
	}

	var sb strings.Builder
	sb.WriteString("```json\n")

	// Re-encode so minified bodies are indented.
	pretty, err := json.MarshalIndent(js, "", "  ")
	if err == nil {
		sb.Write(pretty)
	} else {
		sb.WriteString(input)
	}

	sb.WriteString("\n```")

	if width < 40 {
		width = 40
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return input
	}

	out, err := renderer.Render(sb.String())
	if err != nil {
		return input
	}

	return strings.TrimSpace(out)
}
