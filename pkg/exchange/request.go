// Package exchange holds the request and response models shared by the
// dispatcher, the test script sandbox and the storage layer.
package exchange

import (
	"errors"
	"fmt"
	"strings"
)

// Method is an HTTP method accepted by the request builder.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// Methods lists the selectable methods in display order.
var Methods = []Method{
	MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete, MethodHead, MethodOptions,
}

var (
	// ErrInvalidMethod is returned by ParseMethod for unknown methods.
	ErrInvalidMethod   = errors.New("invalid method")
	ErrInvalidAuthType = errors.New("invalid auth type")
	ErrInvalidBodyType = errors.New("invalid body type")
)

// ParseMethod normalizes s and checks it against Methods.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}

// HasBody reports whether a raw body is sent with this method.
func (m Method) HasBody() bool {
	return m == MethodPost || m == MethodPut || m == MethodPatch
}

// RequestType selects which field group of a Request is active.
type RequestType string

const (
	RequestTypeREST    RequestType = "rest"
	RequestTypeGraphQL RequestType = "graphql"
)

// AuthType selects how AuthToken is attached to the outbound request.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBearer AuthType = "bearer"
	AuthBasic  AuthType = "basic"
	AuthAPIKey AuthType = "apikey"
)

// ParseAuthType normalizes s and checks it against the known auth types.
// An empty s means AuthNone.
func ParseAuthType(s string) (AuthType, error) {
	a := AuthType(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case "":
		return AuthNone, nil
	case AuthNone, AuthBearer, AuthBasic, AuthAPIKey:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAuthType, s)
}

// BodyType selects the Content-Type announced for a raw body.
type BodyType string

const (
	BodyJSON BodyType = "json"
	BodyXML  BodyType = "xml"
	BodyText BodyType = "text"
	BodyForm BodyType = "form"
)

// ContentType returns the media type announced for b.
func (b BodyType) ContentType() string {
	switch b {
	case BodyXML:
		return "application/xml"
	case BodyText:
		return "text/plain"
	case BodyForm:
		return "application/x-www-form-urlencoded"
	default:
		return "application/json"
	}
}

// ParseBodyType normalizes s and checks it against the known body types.
// An empty s means BodyJSON.
func ParseBodyType(s string) (BodyType, error) {
	b := BodyType(strings.ToLower(strings.TrimSpace(s)))
	switch b {
	case "":
		return BodyJSON, nil
	case BodyJSON, BodyXML, BodyText, BodyForm:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidBodyType, s)
}

// QueryParam is one row of the query parameter table.
type QueryParam struct {
	Key     string `json:"key" yaml:"key"`
	Value   string `json:"value" yaml:"value"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// Header is one row of the header table. Duplicate keys are allowed.
type Header struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Request is the editable description of a call that has not been sent yet.
// Only the REST fields (Method, Body, BodyType) or the GraphQL fields
// (GraphQLQuery, GraphQLVariables) are used for a given dispatch,
// depending on RequestType.
type Request struct {
	Method           Method       `json:"method" yaml:"method"`
	RequestType      RequestType  `json:"requestType" yaml:"request_type"`
	URL              string       `json:"url" yaml:"url"`
	QueryParams      []QueryParam `json:"queryParams,omitempty" yaml:"query_params,omitempty"`
	Headers          []Header     `json:"headers,omitempty" yaml:"headers,omitempty"`
	AuthType         AuthType     `json:"authType,omitempty" yaml:"auth_type,omitempty"`
	AuthToken        string       `json:"authToken,omitempty" yaml:"auth_token,omitempty"`
	BodyType         BodyType     `json:"bodyType,omitempty" yaml:"body_type,omitempty"`
	Body             string       `json:"body,omitempty" yaml:"body,omitempty"`
	GraphQLQuery     string       `json:"graphqlQuery,omitempty" yaml:"graphql_query,omitempty"`
	GraphQLVariables string       `json:"graphqlVariables,omitempty" yaml:"graphql_variables,omitempty"`
	TestScript       string       `json:"testScript,omitempty" yaml:"test_script,omitempty"`
}

// New returns a REST GET request for url with the builder defaults.
func New(url string) Request {
	return Request{
		Method:      MethodGet,
		RequestType: RequestTypeREST,
		URL:         url,
		AuthType:    AuthNone,
		BodyType:    BodyJSON,
	}
}

// IsGraphQL reports whether the GraphQL field group is active.
func (r Request) IsGraphQL() bool {
	return r.RequestType == RequestTypeGraphQL
}

// EffectiveMethod is the method put on the wire: POST for GraphQL,
// otherwise Method (GET when unset).
func (r Request) EffectiveMethod() Method {
	if r.IsGraphQL() {
		return MethodPost
	}
	if r.Method == "" {
		return MethodGet
	}
	return r.Method
}

// HistoryMethod is the method label stored in history entries.
func (r Request) HistoryMethod() string {
	if r.IsGraphQL() {
		return "GRAPHQL"
	}
	return string(r.EffectiveMethod())
}

// Clone returns a copy that shares no slices with r.
func (r Request) Clone() Request {
	c := r
	if r.QueryParams != nil {
		c.QueryParams = make([]QueryParam, len(r.QueryParams))
		copy(c.QueryParams, r.QueryParams)
	}
	if r.Headers != nil {
		c.Headers = make([]Header, len(r.Headers))
		copy(c.Headers, r.Headers)
	}
	return c
}
