package reasoning

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c := NewClient(strings.TrimPrefix(srv.URL, "http://"), time.Second)
	return c, srv.Close
}

func TestClient_Complete_Success(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, "mistral", req.Model)

		_ = json.NewEncoder(w).Encode(response{Response: "because volume is muted", Done: true})
	})
	defer closeFn()

	text, ok := c.Complete(t.Context(), "why grep", Params{Model: "mistral", MaxTokens: 64})
	assert.True(t, ok)
	assert.Equal(t, "because volume is muted", text)
}

func TestClient_Complete_NonOKStatusIsUnavailable(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer closeFn()

	text, ok := c.Complete(t.Context(), "why grep", Params{})
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestClient_Complete_NetworkErrorIsUnavailable(t *testing.T) {
	c := NewClient("127.0.0.1:1", 100*time.Millisecond)
	text, ok := c.Complete(t.Context(), "why grep", Params{})
	assert.False(t, ok)
	assert.Empty(t, text)
}
