package httpapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := requestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	t.Run("assigns a new id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

		id := rec.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, seen)
	})

	t.Run("reuses a valid incoming id", func(t *testing.T) {
		incoming := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.Header.Set(RequestIDHeader, incoming)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, incoming, rec.Header().Get(RequestIDHeader))
	})

	t.Run("replaces a malformed incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.Header.Set(RequestIDHeader, "not-a-uuid")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
	})
}

func TestRateLimit(t *testing.T) {
	server := newTestServer(t, &mockSearchService{}, &mockDocumentService{}, WithRateLimit(1))

	first, _ := do(t, server.Handler(), http.MethodGet, "/healthz", "")
	second, body := do(t, server.Handler(), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "rate limit exceeded", body["detail"])
}

func TestClientLimiter_PerClient(t *testing.T) {
	limiter := newClientLimiter(1)

	assert.True(t, limiter.allow("10.0.0.1"))
	assert.False(t, limiter.allow("10.0.0.1"))
	assert.True(t, limiter.allow("10.0.0.2"))
}

func TestClientLimiter_EvictsIdleClients(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	now := start
	limiter := newClientLimiter(1)
	limiter.now = func() time.Time { return now }
	limiter.lastSweep = start

	assert.True(t, limiter.allow("10.0.0.1"))
	now = start.Add(5 * time.Minute)
	assert.True(t, limiter.allow("10.0.0.2"))
	assert.Equal(t, 2, limiter.size())

	now = start.Add(12 * time.Minute)
	assert.True(t, limiter.allow("10.0.0.3"))
	assert.Equal(t, 2, limiter.size(), "10.0.0.1 was idle past the TTL")

	now = start.Add(40 * time.Minute)
	assert.True(t, limiter.allow("10.0.0.4"))
	assert.Equal(t, 1, limiter.size())
}

func TestClientLimiter_ManyClientsDoNotAccumulate(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	now := start
	limiter := newClientLimiter(5)
	limiter.idleTTL = time.Minute
	limiter.now = func() time.Time { return now }
	limiter.lastSweep = start

	for i := range 1000 {
		now = start.Add(time.Duration(i) * time.Second)
		limiter.allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}

	// One sweep per minute keeps at most two minutes of clients.
	assert.LessOrEqual(t, limiter.size(), 120)
}

func TestClientAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", clientAddr(req))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientAddr(req))
}
