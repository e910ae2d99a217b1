package exchange

import (
	"errors"
	"net/url"
	"strings"
)

// ErrNoURL is returned when the base URL is empty; nothing may be sent.
var ErrNoURL = errors.New("no URL")

// ComposeURL appends the qualifying query parameters to base.
//
// A parameter qualifies when it is enabled and both key and value are
// non-empty. Pairs are encoded in slice order. With no qualifying pairs
// base is returned unchanged.
func ComposeURL(base string, params []QueryParam) (string, error) {
	if base == "" {
		return "", ErrNoURL
	}

	var sb strings.Builder
	for _, p := range params {
		if !p.Enabled || p.Key == "" || p.Value == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}

	if sb.Len() == 0 {
		return base, nil
	}
	return base + "?" + sb.String(), nil
}
