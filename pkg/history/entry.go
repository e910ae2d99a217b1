// Package history records completed dispatches per user and reads them back
// newest first.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/blackcoderx/courier/pkg/dispatch"
	"github.com/blackcoderx/courier/pkg/exchange"
)

// ErrNotFound is returned by Get for unknown IDs.
var ErrNotFound = errors.New("history entry not found")

// Entry is one recorded dispatch.
type Entry struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	URL             string            `json:"url"`
	Method          string            `json:"method"`
	StatusCode      int               `json:"status_code"`
	ResponseTimeMS  int64             `json:"response_time"`
	ResponseBody    string            `json:"response_body"`
	ResponseHeaders map[string]string `json:"response_headers"`
	Timestamp       time.Time         `json:"timestamp"`
}

// NewEntry builds the entry for one dispatch. Method is GRAPHQL for GraphQL
// requests.
func NewEntry(userID string, req exchange.Request, url string, out dispatch.Outcome) Entry {
	return Entry{
		ID:              ulid.Make().String(),
		UserID:          userID,
		URL:             url,
		Method:          req.HistoryMethod(),
		StatusCode:      out.Response.Status,
		ResponseTimeMS:  out.ElapsedMillis(),
		ResponseBody:    out.Response.BodyString(),
		ResponseHeaders: out.Response.Clone().Headers,
		Timestamp:       time.Now().UTC(),
	}
}

// Store persists history entries. The dispatch pipeline only appends.
type Store interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context, userID string, limit int) ([]Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
	Close() error
}

// Identity supplies the user history entries are attributed to.
type Identity interface {
	CurrentUser(ctx context.Context) (string, bool)
}

// StaticIdentity is a fixed user name, typically from configuration. The
// empty string means nobody is signed in.
type StaticIdentity string

// CurrentUser returns the configured user.
func (s StaticIdentity) CurrentUser(context.Context) (string, bool) {
	return string(s), s != ""
}
