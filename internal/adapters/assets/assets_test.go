package assets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateThumbnail(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"not a url", ""},
		{"/relative/koala.png", ""},
		{"ftp://cdn.example.com/koala.png", ""},
		{"https://cdn.example.com/koala.png", "https://cdn.example.com/koala.png"},
		{"https://cdn.example.com/KOALA.GIF", "https://cdn.example.com/KOALA.GIF"},
		{"https://cdn.example.com/koala.webp?ex=1&hm=2", "https://cdn.example.com/koala.webp?ex=1&hm=2"},
		{"https://cdn.example.com/koala.svg", ""},
		{"https://cdn.example.com/koala", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ValidateThumbnail(c.in), "input %q", c.in)
	}
}

func TestProbe(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, http.MethodHead, r.Method)
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
		case "/html.png":
			w.Header().Set("Content-Type", "text/html")
		case "/gone.png":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := New(WithHTTPClient(srv.Client()))
	ctx := context.Background()

	require.NoError(t, c.Probe(ctx, srv.URL+"/ok.png"))
	assert.True(t, errors.Is(c.Probe(ctx, srv.URL+"/html.png"), ErrNotImage))
	assert.True(t, errors.Is(c.Probe(ctx, srv.URL+"/gone.png"), ErrNotFound))

	var apiErr *APIError
	require.ErrorAs(t, c.Probe(ctx, srv.URL+"/boom.png"), &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)

	before := atomic.LoadInt32(&hits)
	assert.True(t, errors.Is(c.Probe(ctx, srv.URL+"/nope.txt"), ErrNotImage))
	assert.Equal(t, before, atomic.LoadInt32(&hits), "invalid urls are rejected before any request")
}
