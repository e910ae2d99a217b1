package exchange

import (
	"encoding/json"
	"fmt"
)

// Response is the normalized result of one dispatch.
//
// Either Status is set (an HTTP response was received, whatever its code)
// or Error is set (the call failed before any status was obtained).
type Response struct {
	Status     int               `json:"status,omitempty"`
	StatusText string            `json:"statusText,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Data       any               `json:"data,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Failed reports whether the dispatch ended without an HTTP response.
func (r Response) Failed() bool {
	return r.Error != ""
}

// BodyString renders Data as text: raw strings as-is, structured values as
// compact JSON.
func (r Response) BodyString() string {
	switch v := r.Data.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

// Clone returns a deep copy of r. Data is copied through a JSON round trip,
// which is exact for the values the dispatcher produces.
func (r Response) Clone() Response {
	c := r
	if r.Headers != nil {
		c.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			c.Headers[k] = v
		}
	}
	if r.Data != nil {
		if _, ok := r.Data.(string); !ok {
			c.Data = cloneJSON(r.Data)
		}
	}
	return c
}

// AsMap returns the response in the shape test scripts and assertions see.
func (r Response) AsMap() map[string]any {
	c := r.Clone()
	m := map[string]any{}
	if c.Failed() {
		m["error"] = c.Error
		return m
	}
	headers := make(map[string]any, len(c.Headers))
	for k, v := range c.Headers {
		headers[k] = v
	}
	m["status"] = c.Status
	m["statusText"] = c.StatusText
	m["headers"] = headers
	m["data"] = c.Data
	return m
}

func cloneJSON(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}
