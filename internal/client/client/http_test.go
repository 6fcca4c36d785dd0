package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/jobportal/internal/client/models"
	"github.com/dmitrijs2005/jobportal/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu          sync.Mutex
	access      string
	refresh     string
	invalidated int
	updates     []models.Credential
}

func (f *fakeStore) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.access
}

func (f *fakeStore) RefreshToken(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refresh, nil
}

func (f *fakeStore) UpdateTokens(ctx context.Context, cred models.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access = cred.AccessToken
	f.refresh = cred.RefreshToken
	f.updates = append(f.updates, cred)
	return nil
}

func (f *fakeStore) Invalidate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
	f.access = ""
	f.refresh = ""
	return nil
}

// tokenServer accepts only the "new" access token on /data and rotates
// "R1" into "new"/"R2" on /refresh.
type tokenServer struct {
	dataCalls    atomic.Int32
	refreshCalls atomic.Int32
	refreshDelay time.Duration
	rejectAll    bool
	failRefresh  bool
}

func (s *tokenServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /data", func(w http.ResponseWriter, r *http.Request) {
		s.dataCalls.Add(1)
		if s.rejectAll || r.Header.Get("Authorization") != "Bearer new" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"token expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	})
	mux.HandleFunc("POST /refresh", func(w http.ResponseWriter, r *http.Request) {
		s.refreshCalls.Add(1)
		time.Sleep(s.refreshDelay)

		var body refreshRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if s.failRefresh || body.RefreshToken != "R1" || r.Header.Get("Authorization") != "" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid refresh token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"new","refresh_token":"R2"}`))
	})
	return mux
}

func newTestClient(t *testing.T, h http.Handler, store CredentialStore, opts ...Option) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(srv.URL, store, opts...)
	require.NoError(t, err)
	return c
}

func TestNewHTTPClient_RejectsBadBaseURL(t *testing.T) {
	_, err := NewHTTPClient("ftp://example.com", &fakeStore{})
	require.Error(t, err)

	_, err = NewHTTPClient("://", &fakeStore{})
	require.Error(t, err)
}

func TestDo_InjectsBearerAndRequestID(t *testing.T) {
	var gotAuth, gotID, gotType string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotID = r.Header.Get(common.RequestIDHeaderName)
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
	})
	c := newTestClient(t, h, &fakeStore{access: "A1"})

	resp, err := c.Do(context.Background(), http.MethodPost, "/x", map[string]string{"k": "v"}, nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Bearer A1", gotAuth)
	assert.Len(t, gotID, 36)
	assert.Equal(t, "application/json", gotType)
}

func TestDo_NoCredentialNoAuthorizationHeader(t *testing.T) {
	var hasAuth bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
	})
	c := newTestClient(t, h, &fakeStore{})

	_, err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil)
	require.NoError(t, err)
	assert.False(t, hasAuth)
}

func TestDo_RefreshesOnceAndRetriesOnce(t *testing.T) {
	srv := &tokenServer{}
	store := &fakeStore{access: "old", refresh: "R1"}
	c := newTestClient(t, srv.handler(), store)

	resp, err := c.Do(context.Background(), http.MethodGet, "/data", nil, nil)
	require.NoError(t, err)

	var body struct{ Value string }
	require.NoError(t, resp.Decode(&body))
	assert.Equal(t, "ok", body.Value)

	assert.EqualValues(t, 1, srv.refreshCalls.Load())
	assert.EqualValues(t, 2, srv.dataCalls.Load())
	assert.Equal(t, []models.Credential{{AccessToken: "new", RefreshToken: "R2"}}, store.updates)
	assert.Zero(t, store.invalidated)
}

func TestDo_RefreshFailureInvalidatesSessionWithoutRetry(t *testing.T) {
	srv := &tokenServer{failRefresh: true}
	store := &fakeStore{access: "old", refresh: "R1"}

	var hooks atomic.Int32
	c := newTestClient(t, srv.handler(), store, WithOnInvalidate(func(ctx context.Context) { hooks.Add(1) }))

	_, err := c.Do(context.Background(), http.MethodGet, "/data", nil, nil)

	require.ErrorIs(t, err, ErrSessionInvalidated)
	assert.Equal(t, 1, store.invalidated)
	assert.EqualValues(t, 1, hooks.Load())
	assert.EqualValues(t, 1, srv.refreshCalls.Load())
	assert.EqualValues(t, 1, srv.dataCalls.Load())
	assert.Empty(t, store.AccessToken())
}

func TestDo_NoRefreshTokenReturnsOriginal401(t *testing.T) {
	srv := &tokenServer{}
	store := &fakeStore{access: "mock-token-abc123"}
	c := newTestClient(t, srv.handler(), store)

	_, err := c.Do(context.Background(), http.MethodGet, "/data", nil, nil)

	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.Equal(t, "token expired", Message(err))
	assert.Zero(t, srv.refreshCalls.Load())
	assert.Zero(t, store.invalidated)
}

func TestDo_SecondUnauthorizedIsNotRetriedAgain(t *testing.T) {
	srv := &tokenServer{rejectAll: true}
	store := &fakeStore{access: "old", refresh: "R1"}
	c := newTestClient(t, srv.handler(), store)

	_, err := c.Do(context.Background(), http.MethodGet, "/data", nil, nil)

	require.ErrorIs(t, err, ErrUnauthorized)
	assert.EqualValues(t, 1, srv.refreshCalls.Load())
	assert.EqualValues(t, 2, srv.dataCalls.Load())
	assert.Zero(t, store.invalidated)
}

func TestDo_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	srv := &tokenServer{refreshDelay: 50 * time.Millisecond}
	store := &fakeStore{access: "old", refresh: "R1"}
	c := newTestClient(t, srv.handler(), store)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Do(context.Background(), http.MethodGet, "/data", nil, nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, srv.refreshCalls.Load())
	assert.Zero(t, store.invalidated)
}

func TestDo_NoRetryOnServerOrClientErrors(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var calls atomic.Int32
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			})
			c := newTestClient(t, h, &fakeStore{access: "A1", refresh: "R1"})

			_, err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil)

			require.Error(t, err)
			assert.Equal(t, status, StatusCode(err))
			assert.Equal(t, "nope", Message(err))
			assert.EqualValues(t, 1, calls.Load())
		})
	}
}

func TestDo_PlainTextAndEmptyErrorBodies(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/text" {
			http.Error(w, "bad things", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusConflict)
	})
	c := newTestClient(t, h, &fakeStore{})

	_, err := c.Do(context.Background(), http.MethodGet, "/text", nil, nil)
	assert.Equal(t, "bad things", Message(err))

	_, err = c.Do(context.Background(), http.MethodGet, "/empty", nil, nil)
	assert.Equal(t, "Conflict", Message(err))
}

func TestDo_NetworkErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(url, &fakeStore{})
	require.NoError(t, err)

	_, err = c.Do(context.Background(), http.MethodGet, "/x", nil, nil)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Zero(t, StatusCode(err))
}

func TestDo_TimeoutCancelsRequest(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	c := newTestClient(t, h, &fakeStore{}, WithTimeout(20*time.Millisecond))

	_, err := c.Do(context.Background(), http.MethodGet, "/slow", nil, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDo_CancelledContextBeforeSend(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler(), &fakeStore{}, WithRateLimit(1, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Do(ctx, http.MethodGet, "/x", nil, nil)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestDo_RateLimitSpacesRequests(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	c := newTestClient(t, h, &fakeStore{}, WithRateLimit(20, 1))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}
