package dataset

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rpggio/datapad/internal/domain/character"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpstream(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestClient_Fetch(t *testing.T) {
	var userAgent string
	server := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/id/1.json":
			_, _ = fmt.Fprint(w, `{"id":1,"name":"Luke Skywalker","species":"human"}`)
		default:
			http.NotFound(w, r)
		}
	})

	client := New(Config{BaseURL: server.URL + "/"})
	rec, err := client.Fetch(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, rec.ID)
	require.Equal(t, "Luke Skywalker", rec.Name)
	require.Equal(t, "human", rec.Species)
	require.Equal(t, defaultUserAgent, userAgent)
}

func TestClient_FetchTagsFailures(t *testing.T) {
	server := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/id/2.json":
			http.NotFound(w, r)
		case "/id/3.json":
			http.Error(w, "boom", http.StatusBadGateway)
		case "/id/4.json":
			_, _ = fmt.Fprint(w, `<html>not json</html>`)
		case "/id/5.json":
			_, _ = fmt.Fprint(w, `{"id":"five"}`)
		}
	})
	client := New(Config{BaseURL: server.URL})
	ctx := context.Background()

	_, err := client.Fetch(ctx, 2)
	require.ErrorIs(t, err, character.ErrNotFound)

	_, err = client.Fetch(ctx, 3)
	require.ErrorIs(t, err, character.ErrTransport)

	_, err = client.Fetch(ctx, 4)
	require.ErrorIs(t, err, character.ErrParse)

	_, err = client.Fetch(ctx, 5)
	require.ErrorIs(t, err, character.ErrParse)

	var fetchErr *character.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, 5, fetchErr.ID)
}

func TestClient_FetchTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := New(Config{BaseURL: url})
	_, err := client.Fetch(context.Background(), 1)
	require.ErrorIs(t, err, character.ErrTransport)
}

func TestClient_FetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	client := New(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := client.Fetch(context.Background(), 1)
	require.ErrorIs(t, err, character.ErrTransport)
}

func TestClient_FetchAll(t *testing.T) {
	server := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/all.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = fmt.Fprint(w, `[{"id":1,"name":"Luke Skywalker"},{"id":2,"name":"C-3PO"}]`)
	})

	client := New(Config{BaseURL: server.URL})
	all, err := client.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "C-3PO", all[1].Name)
}

func TestClient_FetchAllSharesInflightRequest(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	server := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = fmt.Fprint(w, `[{"id":1,"name":"Luke Skywalker"}]`)
	})

	client := New(Config{BaseURL: server.URL})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			all, err := client.FetchAll(context.Background())
			assert.NoError(t, err)
			assert.Len(t, all, 1)
		}()
	}

	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	// The upstream is blocked, so every caller joins the request in flight.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), hits.Load())
}

func TestClient_FetchAllCancelledCallerDoesNotFailOthers(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	server := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = fmt.Fprint(w, `[{"id":1,"name":"Luke Skywalker"}]`)
	})

	client := New(Config{BaseURL: server.URL, Timeout: 5 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := client.FetchAll(ctx)
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			all, err := client.FetchAll(context.Background())
			assert.NoError(t, err)
			assert.Len(t, all, 1)
		}()
	}
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-leaderErr:
		require.ErrorIs(t, err, character.ErrTransport)
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting for the shared fetch")
	}

	close(release)
	wg.Wait()
	require.Equal(t, int32(1), hits.Load())
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	server := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"id":1,"name":"Luke Skywalker"}`)
	})

	client := New(Config{BaseURL: server.URL, RatePerSecond: 0.001, Burst: 1})
	_, err := client.Fetch(context.Background(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Fetch(ctx, 1)
	require.ErrorIs(t, err, character.ErrTransport)
}
