package dispatch

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/blackcoderx/courier/pkg/exchange"
)

type graphqlPayload struct {
	Query     string          `json:"query"`
	Variables json.RawMessage `json:"variables"`
}

// payload is the body put on the wire together with its media type.
type payload struct {
	body        []byte
	contentType string
}

// buildPayload selects the body for req. GraphQL requests always carry a
// JSON envelope; REST requests carry the raw body only for POST, PUT and
// PATCH when it is non-empty.
func buildPayload(req exchange.Request) (payload, error) {
	if req.IsGraphQL() {
		return buildGraphQLPayload(req)
	}

	if !req.EffectiveMethod().HasBody() || req.Body == "" {
		return payload{}, nil
	}

	bodyType := req.BodyType
	if bodyType == "" {
		bodyType = exchange.BodyJSON
	}

	body := []byte(req.Body)
	if bodyType == exchange.BodyForm {
		body = []byte(encodeForm(req.Body))
	}

	return payload{body: body, contentType: bodyType.ContentType()}, nil
}

func buildGraphQLPayload(req exchange.Request) (payload, error) {
	raw := strings.TrimSpace(req.GraphQLVariables)
	if raw == "" {
		raw = "{}"
	}

	var vars any
	if err := json.Unmarshal([]byte(raw), &vars); err != nil {
		return payload{}, &ValidationError{Field: "graphqlVariables", Reason: err.Error(), Err: err}
	}
	if _, ok := vars.(map[string]any); !ok {
		return payload{}, &ValidationError{Field: "graphqlVariables", Reason: "must be a JSON object"}
	}

	body, err := json.Marshal(graphqlPayload{
		Query:     req.GraphQLQuery,
		Variables: json.RawMessage(raw),
	})
	if err != nil {
		return payload{}, &ValidationError{Field: "graphqlVariables", Reason: err.Error(), Err: err}
	}

	return payload{body: body, contentType: "application/json"}, nil
}

// encodeForm reinterprets a raw form body as k=v pairs separated by '&' or
// newlines and re-encodes them in order. Pairs that are already encoded are
// decoded first, so encoding twice is harmless.
func encodeForm(raw string) string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '&' || r == '\n'
	})

	var sb strings.Builder
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		key, value, _ := strings.Cut(field, "=")
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(unescape(strings.TrimSpace(key))))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(unescape(strings.TrimSpace(value))))
	}
	return sb.String()
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}

// buildHeader assembles the outbound header set: user headers first
// (duplicates kept), then the auth header, then Content-Type.
func buildHeader(req exchange.Request, apiKeyHeader, contentType string) http.Header {
	header := make(http.Header)
	for _, h := range req.Headers {
		if h.Key == "" || h.Value == "" {
			continue
		}
		header.Add(h.Key, h.Value)
	}

	if req.AuthToken != "" {
		switch req.AuthType {
		case exchange.AuthBearer:
			header.Set("Authorization", "Bearer "+req.AuthToken)
		case exchange.AuthBasic:
			header.Set("Authorization", "Basic "+req.AuthToken)
		case exchange.AuthAPIKey:
			header.Set(apiKeyHeader, req.AuthToken)
		}
	}

	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return header
}

func bodyReader(p payload) io.Reader {
	if p.body == nil {
		return nil
	}
	return bytes.NewReader(p.body)
}
