package sheet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/studyjams-leaderboard/internal/domain/repository"
	"github.com/yourusername/studyjams-leaderboard/internal/ingest"
)

func newTestFetcher(t *testing.T, url string, attempts int) (*Fetcher, *[]time.Duration) {
	t.Helper()
	f, err := NewFetcher(Options{
		URL:            url,
		MaxAttempts:    attempts,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     150 * time.Millisecond,
	}, nil, nil)
	require.NoError(t, err)

	var sleeps []time.Duration
	f.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return f, &sleeps
}

func TestFetcher_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte("Student Name\nAlice\n"))
	}))
	defer srv.Close()

	f, _ := newTestFetcher(t, srv.URL, 3)

	doc, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Student Name\nAlice\n", string(doc.Body))
	assert.Equal(t, repository.FormatCSV, doc.Format)
	assert.Equal(t, srv.URL, doc.Source)
	assert.Equal(t, srv.URL, f.Name())
}

func TestFetcher_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f, sleeps := newTestFetcher(t, srv.URL, 3)

	doc, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", string(doc.Body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 150 * time.Millisecond}, *sleeps)
}

func TestFetcher_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f, _ := newTestFetcher(t, srv.URL, 2)

	_, err := f.Fetch(context.Background())
	var fetchErr *ingest.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusTooManyRequests, fetchErr.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetcher_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f, sleeps := newTestFetcher(t, srv.URL, 5)

	_, err := f.Fetch(context.Background())
	var fetchErr *ingest.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.False(t, fetchErr.Retryable())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, *sleeps)
}

func TestFetcher_DoesNotRetryOversizedBody(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte("Student Name\nAlice\nBob\n"))
	}))
	defer srv.Close()

	f, sleeps := newTestFetcher(t, srv.URL, 3)
	f.opts.MaxBodySize = 8

	_, err := f.Fetch(context.Background())
	var fetchErr *ingest.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
	assert.False(t, fetchErr.Retryable())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, *sleeps)
}

func TestFetcher_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f, sleeps := newTestFetcher(t, srv.URL, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx)
	var fetchErr *ingest.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *sleeps)
}

func TestNewFetcher_RequiresURL(t *testing.T) {
	_, err := NewFetcher(Options{}, nil, nil)
	assert.Error(t, err)
}
