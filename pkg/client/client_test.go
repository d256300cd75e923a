package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAPI struct {
	hits    sync.Map // path?query -> *int64
	handler http.HandlerFunc
}

func (s *stubAPI) count(key string) int64 {
	v, ok := s.hits.Load(key)
	if !ok {
		return 0
	}
	return atomic.LoadInt64(v.(*int64))
}

func newStub(t *testing.T, handler http.HandlerFunc) (*stubAPI, *Client) {
	t.Helper()
	stub := &stubAPI{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := QueryKey(r.URL.Path, r.URL.Query())
		v, _ := stub.hits.LoadOrStore(key, new(int64))
		atomic.AddInt64(v.(*int64), 1)
		stub.handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return stub, New(Config{BaseURL: srv.URL + "/"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestQueryKey(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		params url.Values
		want   string
	}{
		{name: "No Params", path: "/api/messages", want: "/api/messages"},
		{name: "Empty Params", path: "/api/messages", params: url.Values{}, want: "/api/messages"},
		{name: "Sorted", path: "/api/food-listings", params: url.Values{"lng": {"2"}, "lat": {"1"}}, want: "/api/food-listings?lat=1&lng=2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QueryKey(tt.path, tt.params))
		})
	}
}

func TestQuery_CachesUntilInvalidated(t *testing.T) {
	stub, c := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1}})
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.Messages(ctx)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, stub.count("/api/messages"))
	assert.True(t, c.Cached("/api/messages", nil))

	c.Invalidate("/api/messages")
	assert.False(t, c.Cached("/api/messages", nil))
	_, err := c.Messages(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stub.count("/api/messages"))
}

func TestInvalidate_PrefixBoundaries(t *testing.T) {
	_, c := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	ctx := context.Background()

	keys := []struct {
		path   string
		params url.Values
	}{
		{"/api/food-listings", nil},
		{"/api/food-listings", url.Values{"category": {"bakery"}}},
		{"/api/food-listings/3", nil},
		{"/api/food-listings-archive", nil},
		{"/api/users/3", nil},
	}
	for _, k := range keys {
		require.NoError(t, c.Query(ctx, k.path, k.params, nil))
	}

	c.Invalidate("/api/food-listings")

	assert.False(t, c.Cached("/api/food-listings", nil))
	assert.False(t, c.Cached("/api/food-listings", url.Values{"category": {"bakery"}}))
	assert.False(t, c.Cached("/api/food-listings/3", nil))
	assert.True(t, c.Cached("/api/food-listings-archive", nil), "sibling paths are not nested")
	assert.True(t, c.Cached("/api/users/3", nil))
}

func TestQuery_ConcurrentMissesShareOneRequest(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	stub, c := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(arrived) })
		<-release
		writeJSON(w, http.StatusOK, []any{})
	})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Transactions(context.Background())
			errs <- err
		}()
	}
	<-arrived
	// let the other callers queue up behind the in-flight request
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, stub.count("/api/transactions"))
}

func TestQuery_CancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	stub, c := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(arrived) })
		<-release
		writeJSON(w, http.StatusOK, []any{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.Transactions(ctx)
		first <- err
	}()
	<-arrived

	second := make(chan error, 1)
	go func() {
		_, err := c.Transactions(context.Background())
		second <- err
	}()
	// let the second caller join the in-flight request
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(release)
	assert.NoError(t, <-second)
	assert.EqualValues(t, 1, stub.count("/api/transactions"))
	assert.True(t, c.Cached("/api/transactions", nil))
}

func TestQuery_WriteDuringFetchIsNotCached(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	_, c := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(arrived) })
		<-release
		writeJSON(w, http.StatusOK, []any{})
	})

	done := make(chan error, 1)
	go func() {
		_, err := c.Messages(context.Background())
		done <- err
	}()

	<-arrived
	c.Invalidate("/api/messages")
	close(release)
	require.NoError(t, <-done)

	assert.False(t, c.Cached("/api/messages", nil))
}

func TestAPIError(t *testing.T) {
	_, c := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/food-listings/1":
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Food listing not found"})
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	})
	ctx := context.Background()

	_, err := c.GetFoodListing(ctx, 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Food listing not found", apiErr.Message)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.False(t, c.Cached("/api/food-listings/1", nil), "errors are not cached")

	_, err = c.Messages(ctx)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestSetSession(t *testing.T) {
	var gotAuth atomic.Value
	_, c := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []any{})
	})
	ctx := context.Background()

	c.SetSession("tok-1", 4)
	_, err := c.Messages(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth.Load())
	assert.EqualValues(t, 4, c.UserID())

	c.SetSession("tok-2", 5)
	assert.False(t, c.Cached("/api/messages", nil), "another caller never sees the previous cache")
}
