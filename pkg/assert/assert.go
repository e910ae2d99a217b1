// Package assert evaluates the declarative checks stored with a saved request
// against a response: boolean expressions and an optional JSON Schema.
package assert

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/xeipuuv/gojsonschema"

	"github.com/blackcoderx/courier/pkg/exchange"
)

// Assertion is a boolean expression over the response, for example
// `status == 200 && data.items[0].id > 0`.
//
// Available names: status, statusText, headers, data, responseTime.
type Assertion struct {
	Expr    string `json:"expr" yaml:"expr"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// Result is the outcome of one check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Report collects the results of one evaluation.
type Report struct {
	Results []Result `json:"results"`
}

// Passed reports whether every check passed. An empty report passes.
func (r Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// Failed returns the failing results.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// String renders one line per result.
func (r Report) String() string {
	var sb strings.Builder
	for _, res := range r.Results {
		mark := "PASS"
		if !res.Passed {
			mark = "FAIL"
		}
		fmt.Fprintf(&sb, "%s %s", mark, res.Name)
		if res.Detail != "" {
			fmt.Fprintf(&sb, " (%s)", res.Detail)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Env builds the variable set assertions are evaluated against.
func Env(resp exchange.Response, elapsedMS int64) map[string]any {
	env := resp.AsMap()
	env["responseTime"] = elapsedMS
	for _, key := range []string{"status", "statusText", "headers", "data", "error"} {
		if _, ok := env[key]; !ok {
			env[key] = nil
		}
	}
	return env
}

// Evaluate runs the enabled assertions and, when schema is non-blank,
// validates the response data against it. Broken expressions and schemas
// produce failed results rather than errors.
func Evaluate(resp exchange.Response, elapsedMS int64, assertions []Assertion, schema string) Report {
	var report Report
	env := Env(resp, elapsedMS)

	for _, a := range assertions {
		if !a.Enabled || strings.TrimSpace(a.Expr) == "" {
			continue
		}
		report.Results = append(report.Results, evalExpr(a.Expr, env))
	}

	if strings.TrimSpace(schema) != "" {
		report.Results = append(report.Results, validateSchema(schema, resp.Data))
	}
	return report
}

func evalExpr(src string, env map[string]any) Result {
	res := Result{Name: src}

	program, err := expr.Compile(src, expr.Env(env), expr.AsBool())
	if err != nil {
		res.Detail = fmt.Sprintf("parsing: %v", err)
		return res
	}

	out, err := expr.Run(program, env)
	if err != nil {
		res.Detail = fmt.Sprintf("evaluating: %v", err)
		return res
	}

	passed, ok := out.(bool)
	if !ok {
		res.Detail = fmt.Sprintf("expected bool, got %T", out)
		return res
	}
	res.Passed = passed
	return res
}

func validateSchema(schema string, data any) Result {
	res := Result{Name: "schema"}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewGoLoader(data),
	)
	if err != nil {
		res.Detail = fmt.Sprintf("schema error: %v", err)
		return res
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		res.Detail = strings.Join(msgs, "; ")
		return res
	}

	res.Passed = true
	return res
}
