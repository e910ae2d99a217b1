package history

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackcoderx/courier/pkg/dispatch"
	"github.com/blackcoderx/courier/pkg/exchange"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func outcome(status int, data any) dispatch.Outcome {
	return dispatch.Outcome{
		Response: exchange.Response{
			Status:     status,
			StatusText: "OK",
			Headers:    map[string]string{"content-type": "application/json"},
			Data:       data,
		},
		Elapsed: 12 * time.Millisecond,
	}
}

func TestNewEntry(t *testing.T) {
	req := exchange.Request{RequestType: exchange.RequestTypeGraphQL, GraphQLQuery: "{ a }"}
	e := NewEntry("u1", req, "http://h/graphql", outcome(200, map[string]any{"a": float64(1)}))

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "u1", e.UserID)
	assert.Equal(t, "GRAPHQL", e.Method)
	assert.Equal(t, 200, e.StatusCode)
	assert.Equal(t, int64(12), e.ResponseTimeMS)
	assert.Equal(t, `{"a":1}`, e.ResponseBody)
	assert.Equal(t, "application/json", e.ResponseHeaders["content-type"])
}

func TestSQLiteStore_AppendListGet(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, url := range []string{"http://h/1", "http://h/2", "http://h/3"} {
		e := NewEntry("alice", exchange.New(url), url, outcome(200, "ok"))
		e.Timestamp = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, store.Append(ctx, e))
	}
	require.NoError(t, store.Append(ctx, NewEntry("bob", exchange.New("http://h/b"), "http://h/b", outcome(404, "no"))))

	all, err := store.List(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "http://h/3", all[0].URL, "newest first")
	assert.Equal(t, "http://h/1", all[2].URL)
	assert.True(t, base.Add(2*time.Second).Equal(all[0].Timestamp))

	limited, err := store.List(ctx, "alice", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	got, err := store.Get(ctx, all[1].ID)
	require.NoError(t, err)
	assert.Equal(t, all[1], got)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

type fakeStore struct {
	mu      sync.Mutex
	entries []Entry
	err     error
	block   chan struct{}
}

func (f *fakeStore) Append(_ context.Context, e Entry) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeStore) List(context.Context, string, int) ([]Entry, error) { return f.entries, nil }
func (f *fakeStore) Get(context.Context, string) (Entry, error)         { return Entry{}, ErrNotFound }
func (f *fakeStore) Close() error                                        { return nil }

func TestRecorder_DoesNotBlockDispatch(t *testing.T) {
	store := &fakeStore{block: make(chan struct{})}
	rec := NewRecorder(store, StaticIdentity("alice"), nil)

	done := make(chan struct{})
	go func() {
		rec.Observe(context.Background(), exchange.New("http://h"), "http://h", outcome(200, "ok"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Observe blocked on the store")
	}

	close(store.block)
	rec.Wait()
	require.Len(t, store.entries, 1)
	assert.Equal(t, "alice", store.entries[0].UserID)
}

func TestRecorder_SkipsWithoutIdentity(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store, StaticIdentity(""), nil)

	rec.Observe(context.Background(), exchange.New("http://h"), "http://h", outcome(200, "ok"))
	rec.Wait()

	assert.Empty(t, store.entries)
}

func TestRecorder_SwallowsStoreErrors(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	rec := NewRecorder(store, StaticIdentity("alice"), nil)

	assert.NotPanics(t, func() {
		rec.Observe(context.Background(), exchange.New("http://h"), "http://h", outcome(500, "x"))
		rec.Wait()
	})
}

func TestRecorder_OutlivesDispatchContext(t *testing.T) {
	store := openTestStore(t)
	rec := NewRecorder(store, StaticIdentity("alice"), nil)

	out := outcome(201, map[string]any{"id": "x"})
	ctx, cancel := context.WithCancel(context.Background())
	rec.Observe(ctx, exchange.New("http://h/items"), "http://h/items?a=1", out)
	cancel()
	rec.Wait()

	entries, err := store.List(context.Background(), "alice", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "http://h/items?a=1", entries[0].URL)
	assert.Equal(t, 201, entries[0].StatusCode)
}

func TestDiff(t *testing.T) {
	a := Entry{
		ID:              "A",
		Method:          "GET",
		URL:             "http://h/x",
		StatusCode:      200,
		ResponseHeaders: map[string]string{"content-type": "application/json"},
		ResponseBody:    `{"id":1,"name":"old"}`,
	}
	b := a
	b.ID = "B"
	b.ResponseBody = `{"id":1,"name":"new"}`

	out := Diff(a, b)
	assert.Contains(t, out, "--- A")
	assert.Contains(t, out, "+++ B")
	assert.Contains(t, out, `-  "name": "old"`)
	assert.Contains(t, out, `+  "name": "new"`)
	assert.NotContains(t, out, `-  "id": 1`)

	same := a
	same.ID = "C"
	assert.Empty(t, Diff(a, same))
}
