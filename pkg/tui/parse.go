package tui

import (
	"errors"
	"strings"

	"github.com/blackcoderx/courier/pkg/exchange"
)

// ParseInput turns an input line of the form "[METHOD] URL" into a request.
// The method defaults to GET. A leading "GQL" or "GRAPHQL" builds a GraphQL
// request whose query is everything after the URL.
func ParseInput(line string) (exchange.Request, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return exchange.Request{}, exchange.ErrNoURL
	}

	switch strings.ToUpper(fields[0]) {
	case "GQL", "GRAPHQL":
		if len(fields) < 2 {
			return exchange.Request{}, exchange.ErrNoURL
		}
		req := exchange.New(fields[1])
		req.RequestType = exchange.RequestTypeGraphQL
		req.GraphQLQuery = strings.Join(fields[2:], " ")
		return req, nil
	}

	if len(fields) == 1 {
		return exchange.New(fields[0]), nil
	}

	method, err := exchange.ParseMethod(fields[0])
	if err != nil {
		return exchange.Request{}, err
	}
	req := exchange.New(fields[1])
	req.Method = method
	if len(fields) > 2 {
		if !method.HasBody() {
			return exchange.Request{}, errors.New(string(method) + " requests take no body")
		}
		req.Body = strings.Join(fields[2:], " ")
	}
	return req, nil
}
