package assert

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackcoderx/courier/pkg/exchange"
)

func response() exchange.Response {
	return exchange.Response{
		Status:     200,
		StatusText: "OK",
		Headers:    map[string]string{"content-type": "application/json"},
		Data: map[string]any{
			"items": []any{map[string]any{"id": float64(7), "name": "widget"}},
		},
	}
}

func TestEvaluate_Expressions(t *testing.T) {
	tests := []struct {
		name       string
		expr       string
		wantPass   bool
		wantDetail string
	}{
		{name: "status", expr: "status == 200", wantPass: true},
		{name: "status mismatch", expr: "status == 201"},
		{name: "header", expr: `headers["content-type"] contains "json"`, wantPass: true},
		{name: "nested data", expr: `data.items[0].name == "widget" && data.items[0].id > 5`, wantPass: true},
		{name: "timing", expr: "responseTime < 100", wantPass: true},
		{name: "syntax error", expr: "status ==", wantDetail: "parsing"},
		{name: "not boolean", expr: "status + 1", wantDetail: "parsing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Evaluate(response(), 42, []Assertion{{Expr: tt.expr, Enabled: true}}, "")
			require.Len(t, report.Results, 1)

			got := report.Results[0]
			assert.Equal(t, tt.expr, got.Name)
			assert.Equal(t, tt.wantPass, got.Passed, got.Detail)
			if tt.wantDetail != "" {
				assert.True(t, strings.HasPrefix(got.Detail, tt.wantDetail), got.Detail)
			}
		})
	}
}

func TestEvaluate_SkipsDisabledAndBlank(t *testing.T) {
	report := Evaluate(response(), 0, []Assertion{
		{Expr: "status == 500", Enabled: false},
		{Expr: "   ", Enabled: true},
	}, "")

	assert.Empty(t, report.Results)
	assert.True(t, report.Passed())
}

func TestEvaluate_Schema(t *testing.T) {
	schema := `{
		"type": "object",
		"required": ["items"],
		"properties": {
			"items": {"type": "array", "items": {"type": "object", "required": ["id"]}}
		}
	}`

	report := Evaluate(response(), 0, nil, schema)
	require.Len(t, report.Results, 1)
	assert.True(t, report.Passed(), report.String())

	bad := response()
	bad.Data = map[string]any{"items": "nope"}
	report = Evaluate(bad, 0, nil, schema)
	assert.False(t, report.Passed())
	assert.Contains(t, report.Results[0].Detail, "items")

	report = Evaluate(response(), 0, nil, "{broken")
	assert.False(t, report.Passed())
	assert.Contains(t, report.Results[0].Detail, "schema error")
}

func TestReport_String(t *testing.T) {
	report := Report{Results: []Result{
		{Name: "status == 200", Passed: true},
		{Name: "schema", Detail: "items: Invalid type"},
	}}

	assert.Equal(t, "PASS status == 200\nFAIL schema (items: Invalid type)", report.String())
	assert.Len(t, report.Failed(), 1)
}

func TestEnv_FailedResponse(t *testing.T) {
	env := Env(exchange.Response{Error: "refused"}, 3)
	assert.Equal(t, "refused", env["error"])
	assert.Nil(t, env["status"])
	assert.Equal(t, int64(3), env["responseTime"])
}
