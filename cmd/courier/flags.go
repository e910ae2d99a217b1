package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackcoderx/courier/pkg/assert"
	"github.com/blackcoderx/courier/pkg/auth"
	"github.com/blackcoderx/courier/pkg/exchange"
)

// requestFlags are the request-building flags shared by send and save.
type requestFlags struct {
	headers    []string
	query      []string
	data       string
	bodyType   string
	authType   string
	token      string
	basicUser  string
	graphql    string
	vars       string
	scriptFile string
	asserts    []string
	schemaFile string
}

func (f *requestFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringArrayVarP(&f.headers, "header", "H", nil, "header 'Key: Value' (repeatable)")
	fl.StringArrayVarP(&f.query, "query", "q", nil, "query parameter 'key=value' (repeatable)")
	fl.StringVarP(&f.data, "data", "d", "", "request body ('@file' reads a file)")
	fl.StringVar(&f.bodyType, "body-type", string(exchange.BodyJSON), "body type: json, xml, text, form")
	fl.StringVar(&f.authType, "auth", string(exchange.AuthNone), "auth type: none, bearer, basic, apikey")
	fl.StringVar(&f.token, "token", "", "auth token")
	fl.StringVarP(&f.basicUser, "user", "u", "", "basic auth credentials 'user:password' (implies --auth basic)")
	fl.StringVar(&f.graphql, "graphql", "", "send a GraphQL query ('@file' reads a file)")
	fl.StringVar(&f.vars, "vars", "", "GraphQL variables as a JSON object")
	fl.StringVar(&f.scriptFile, "script", "", "test script file run against the response")
	fl.StringArrayVar(&f.asserts, "assert", nil, "assertion expression, e.g. 'status == 200' (repeatable)")
	fl.StringVar(&f.schemaFile, "schema", "", "JSON Schema file the response data must match")
}

// build assembles the request from method, url and the flags.
func (f *requestFlags) build(method, url string) (exchange.Request, error) {
	req := exchange.New(url)

	m, err := exchange.ParseMethod(method)
	if err != nil {
		return req, err
	}
	req.Method = m

	for _, h := range f.headers {
		key, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return req, fmt.Errorf("invalid header %q (expected 'Key: Value')", h)
		}
		req.Headers = append(req.Headers, exchange.Header{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}

	for _, q := range f.query {
		key, value, _ := strings.Cut(q, "=")
		req.QueryParams = append(req.QueryParams, exchange.QueryParam{Key: key, Value: value, Enabled: true})
	}

	if req.Body, err = readArg(f.data); err != nil {
		return req, err
	}
	if req.BodyType, err = exchange.ParseBodyType(f.bodyType); err != nil {
		return req, err
	}

	if req.AuthType, err = exchange.ParseAuthType(f.authType); err != nil {
		return req, err
	}
	req.AuthToken = f.token
	if f.basicUser != "" {
		user, pass, _ := strings.Cut(f.basicUser, ":")
		req.AuthType = exchange.AuthBasic
		req.AuthToken = auth.EncodeBasic(user, pass)
	}

	if f.graphql != "" {
		req.RequestType = exchange.RequestTypeGraphQL
		if req.GraphQLQuery, err = readArg(f.graphql); err != nil {
			return req, err
		}
		req.GraphQLVariables = f.vars
	}

	if f.scriptFile != "" {
		script, err := os.ReadFile(f.scriptFile)
		if err != nil {
			return req, fmt.Errorf("failed to read script: %w", err)
		}
		req.TestScript = string(script)
	}
	return req, nil
}

// assertions returns the --assert expressions, all enabled.
func (f *requestFlags) assertions() []assert.Assertion {
	out := make([]assert.Assertion, 0, len(f.asserts))
	for _, expr := range f.asserts {
		out = append(out, assert.Assertion{Expr: expr, Enabled: true})
	}
	return out
}

// schema returns the contents of --schema, if set.
func (f *requestFlags) schema() (string, error) {
	if f.schemaFile == "" {
		return "", nil
	}
	b, err := os.ReadFile(f.schemaFile)
	if err != nil {
		return "", fmt.Errorf("failed to read schema: %w", err)
	}
	return string(b), nil
}

// readArg returns s, or the contents of the file when s starts with '@'.
func readArg(s string) (string, error) {
	path, ok := strings.CutPrefix(s, "@")
	if !ok {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(b), nil
}
