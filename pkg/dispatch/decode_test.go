package dispatch

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecompress(t *testing.T) {
	plain := []byte(`{"ok":true}`)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write(plain)
	require.NoError(t, gw.Close())

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, _ = bw.Write(plain)
	require.NoError(t, bw.Close())

	zw, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zs := zw.EncodeAll(plain, nil)
	require.NoError(t, zw.Close())

	tests := []struct {
		encoding string
		body     []byte
	}{
		{"", plain},
		{"identity", plain},
		{"gzip", gz.Bytes()},
		{"br", br.Bytes()},
		{"zstd", zs},
	}
	for _, tt := range tests {
		t.Run(tt.encoding, func(t *testing.T) {
			got, err := decompress(tt.body, tt.encoding)
			require.NoError(t, err)
			assert.Equal(t, plain, got)
		})
	}

	_, err = decompress(plain, "compress")
	assert.Error(t, err)
}

func TestToUTF8(t *testing.T) {
	latin1 := []byte{'c', 'a', 'f', 0xe9}
	assert.Equal(t, "café", string(toUTF8(latin1, "text/plain; charset=ISO-8859-1")))
	assert.Equal(t, latin1, toUTF8(latin1, "text/plain"))
	assert.Equal(t, []byte("x"), toUTF8([]byte("x"), "text/plain; charset=utf-8"))
}

func TestDecodeData(t *testing.T) {
	tests := []struct {
		name string
		ct   string
		body string
		want any
	}{
		{"json object", "application/json", `{"a":1}`, map[string]any{"a": float64(1)}},
		{"json with charset", "application/json; charset=utf-8", `[1,"x"]`, []any{float64(1), "x"}},
		{"problem json", "application/problem+json", `{"title":"t"}`, map[string]any{"title": "t"}},
		{"text", "text/plain", "hello", "hello"},
		{"json that does not parse", "application/json", "{oops", "{oops"},
		{"empty json body", "application/json", "", ""},
		{"json without content type", "", `{"a":1}`, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeData([]byte(tt.body), tt.ct))
		})
	}
}

func TestFlattenHeaders(t *testing.T) {
	h := http.Header{}
	h.Add("Set-Cookie", "a=1")
	h.Add("Set-Cookie", "b=2")
	h.Set("Content-Type", "text/plain")

	assert.Equal(t, map[string]string{
		"set-cookie":   "a=1, b=2",
		"content-type": "text/plain",
	}, flattenHeaders(h))
}
