package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// StatusLine summarizes the outcome in one line, e.g. "200 OK · 41 ms".
func (r *Result) StatusLine() string {
	resp := r.Outcome.Response
	if resp.Failed() {
		return fmt.Sprintf("Error: %s · %d ms", resp.Error, r.Outcome.ElapsedMillis())
	}
	return fmt.Sprintf("%d %s · %d ms", resp.Status, resp.StatusText, r.Outcome.ElapsedMillis())
}

// PrettyBody returns the response body, indented when it is structured.
func (r *Result) PrettyBody() string {
	data := r.Outcome.Response.Data
	if s, ok := data.(string); ok {
		return s
	}
	if data == nil {
		return ""
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return r.Outcome.Response.BodyString()
	}
	return string(b)
}

// Markdown renders the result for glamour.
func (r *Result) Markdown() string {
	var sb strings.Builder
	resp := r.Outcome.Response

	fmt.Fprintf(&sb, "## %s %s\n\n", r.Request.EffectiveMethod(), r.URL)
	fmt.Fprintf(&sb, "**%s**\n\n", r.StatusLine())

	if resp.Failed() {
		return sb.String()
	}

	if len(resp.Headers) > 0 {
		keys := make([]string, 0, len(resp.Headers))
		for k := range resp.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("| Header | Value |\n|---|---|\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "| %s | %s |\n", k, strings.ReplaceAll(resp.Headers[k], "|", `\|`))
		}
		sb.WriteString("\n")
	}

	if body := r.PrettyBody(); body != "" {
		lang := ""
		if _, ok := resp.Data.(string); !ok {
			lang = "json"
		}
		fmt.Fprintf(&sb, "```%s\n%s\n```\n\n", lang, body)
	}

	if r.TestOutput != "" {
		fmt.Fprintf(&sb, "### Test output\n\n```\n%s\n```\n\n", r.TestOutput)
	}

	if len(r.Assertions.Results) > 0 {
		sb.WriteString("### Assertions\n\n")
		for _, a := range r.Assertions.Results {
			mark := "✓"
			if !a.Passed {
				mark = "✗"
			}
			fmt.Fprintf(&sb, "- %s `%s`", mark, a.Name)
			if a.Detail != "" {
				fmt.Fprintf(&sb, " %s", a.Detail)
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
