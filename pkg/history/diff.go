package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/aymanbagabas/go-udiff"
)

// Diff compares two recorded responses as a unified diff of their status,
// headers and body. JSON bodies are indented first so changes show per field.
// It returns the empty string when the responses match.
func Diff(a, b Entry) string {
	before, after := snapshot(a), snapshot(b)
	if before == after {
		return ""
	}

	edits := udiff.Strings(before, after)
	unified, err := udiff.ToUnified(a.ID, b.ID, before, edits, 3)
	if err != nil {
		return fmt.Sprintf("--- %s\n+++ %s\n(diff generation failed)\n", a.ID, b.ID)
	}
	return unified
}

// snapshot renders the comparable part of an entry.
func snapshot(e Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", e.Method, e.URL)
	fmt.Fprintf(&sb, "status: %d\n", e.StatusCode)

	keys := make([]string, 0, len(e.ResponseHeaders))
	for k := range e.ResponseHeaders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %s\n", k, e.ResponseHeaders[k])
	}

	sb.WriteString("\n")
	var buf bytes.Buffer
	if json.Indent(&buf, []byte(e.ResponseBody), "", "  ") == nil {
		sb.Write(buf.Bytes())
	} else {
		sb.WriteString(e.ResponseBody)
	}
	sb.WriteString("\n")
	return sb.String()
}
