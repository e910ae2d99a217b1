package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAuthAndBodyType(t *testing.T) {
	a, err := ParseAuthType(" Bearer ")
	require.NoError(t, err)
	assert.Equal(t, AuthBearer, a)

	a, err = ParseAuthType("")
	require.NoError(t, err)
	assert.Equal(t, AuthNone, a)

	_, err = ParseAuthType("bearr")
	assert.ErrorIs(t, err, ErrInvalidAuthType)

	b, err := ParseBodyType("XML")
	require.NoError(t, err)
	assert.Equal(t, BodyXML, b)

	b, err = ParseBodyType("")
	require.NoError(t, err)
	assert.Equal(t, BodyJSON, b)

	_, err = ParseBodyType("yaml")
	assert.ErrorIs(t, err, ErrInvalidBodyType)
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod(" patch ")
	require.NoError(t, err)
	assert.Equal(t, MethodPatch, m)

	_, err = ParseMethod("TRACE")
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestEffectiveMethod(t *testing.T) {
	r := New("http://h")
	r.Method = MethodDelete
	assert.Equal(t, MethodDelete, r.EffectiveMethod())
	assert.Equal(t, "DELETE", r.HistoryMethod())

	r.RequestType = RequestTypeGraphQL
	assert.Equal(t, MethodPost, r.EffectiveMethod())
	assert.Equal(t, "GRAPHQL", r.HistoryMethod())

	assert.Equal(t, MethodGet, Request{}.EffectiveMethod())
}

func TestRequestClone(t *testing.T) {
	r := New("http://h")
	r.Headers = []Header{{Key: "A", Value: "1"}}
	r.QueryParams = []QueryParam{{Key: "q", Value: "1", Enabled: true}}

	c := r.Clone()
	c.Headers[0].Value = "2"
	c.QueryParams[0].Enabled = false

	assert.Equal(t, "1", r.Headers[0].Value)
	assert.True(t, r.QueryParams[0].Enabled)
}

func TestBodyTypeContentType(t *testing.T) {
	assert.Equal(t, "application/json", BodyJSON.ContentType())
	assert.Equal(t, "application/xml", BodyXML.ContentType())
	assert.Equal(t, "text/plain", BodyText.ContentType())
	assert.Equal(t, "application/x-www-form-urlencoded", BodyForm.ContentType())
}

func TestResponseClone(t *testing.T) {
	r := Response{
		Status:  200,
		Headers: map[string]string{"content-type": "application/json"},
		Data:    map[string]any{"items": []any{map[string]any{"id": float64(1)}}},
	}

	c := r.Clone()
	c.Headers["content-type"] = "text/plain"
	c.Data.(map[string]any)["items"].([]any)[0].(map[string]any)["id"] = float64(2)

	assert.Equal(t, "application/json", r.Headers["content-type"])
	assert.Equal(t, float64(1), r.Data.(map[string]any)["items"].([]any)[0].(map[string]any)["id"])
}

func TestResponseBodyString(t *testing.T) {
	assert.Equal(t, "hello", Response{Data: "hello"}.BodyString())
	assert.Equal(t, `{"a":1}`, Response{Data: map[string]any{"a": float64(1)}}.BodyString())
	assert.Equal(t, "", Response{}.BodyString())
}

func TestResponseAsMap(t *testing.T) {
	failed := Response{Error: "connection refused"}.AsMap()
	assert.Equal(t, map[string]any{"error": "connection refused"}, failed)

	ok := Response{Status: 201, StatusText: "Created", Data: "x"}.AsMap()
	assert.Equal(t, 201, ok["status"])
	assert.Equal(t, "x", ok["data"])
	assert.NotContains(t, ok, "error")
}
