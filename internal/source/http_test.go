package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPResolve(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"users":[
			{"login":"jordan","name":"Jordan Humphreys","email":"getstarted@zurb.com"},
			{"login":"riley","name":"Sir Walter Riley","banned":true},
			{"login":"jordan","name":"duplicate"},
			{"name":"no login"}
		]}}`))
	}))
	defer srv.Close()

	src, err := NewHTTP(srv.URL + "/users?q={{query .}}")
	require.NoError(t, err)
	src.Items = "data.users"
	src.Key = "login"
	src.Value = "name"
	src.Disabled = "banned"

	got, err := src.Resolve(context.Background(), "jo r")
	require.NoError(t, err)
	assert.Equal(t, "jo r", gotQuery)
	require.Len(t, got, 2)
	assert.Equal(t, "jordan", got[0].Key)
	assert.Equal(t, "Jordan Humphreys", got[0].Value)
	assert.Equal(t, "getstarted@zurb.com", got[0].Field("email"))
	assert.True(t, got[1].Disabled)
	assert.True(t, src.Deferred())
}

func TestHTTPStringArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`["Alabama","Alaska"]`))
	}))
	defer srv.Close()

	src, err := NewHTTP(srv.URL)
	require.NoError(t, err)
	got, err := src.Resolve(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Alaska", got[1].Value)
}

func TestHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fail":
			http.Error(w, "nope", http.StatusBadGateway)
		case "/object":
			_, _ = w.Write([]byte(`{"users":{}}`))
		default:
			_, _ = w.Write([]byte(`not json`))
		}
	}))
	defer srv.Close()

	for _, path := range []string{"/fail", "/object", "/garbage"} {
		src, err := NewHTTP(srv.URL + path)
		require.NoError(t, err)
		src.Items = "users"
		_, err = src.Resolve(context.Background(), "x")
		assert.Error(t, err, path)
	}

	_, err := NewHTTP("{{")
	assert.Error(t, err)
}

func TestHTTPSharesInFlightRequests(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(`["one"]`))
	}))
	defer srv.Close()

	src, err := NewHTTP(srv.URL + "/?q={{query .}}")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]int, 3)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := src.Resolve(context.Background(), "same")
			if err == nil {
				results[i] = len(got)
			}
		}()
	}
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, []int{1, 1, 1}, results)
}

func TestHTTPCancelledCallerReturnsEarly(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	defer close(release)

	src, err := NewHTTP(srv.URL)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = src.Resolve(ctx, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
