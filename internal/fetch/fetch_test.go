package fetch

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
)

func newTestClient(opts Options) *Client {
	log, _ := test.NewNullLogger()
	return NewClient(opts, log)
}

func TestFetch_Success(t *testing.T) {
	payload := []byte("fake image bytes")
	var userAgent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer server.Close()

	data, err := newTestClient(Options{}).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("expected %q, got %q", payload, data)
	}
	if !strings.HasPrefix(userAgent, "Mozilla/5.0") {
		t.Errorf("expected identifying User-Agent, got %q", userAgent)
	}
}

func TestFetch_CustomUserAgent(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	_, err := newTestClient(Options{UserAgent: "image-compare-test/1.0"}).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if userAgent != "image-compare-test/1.0" {
		t.Errorf("expected custom User-Agent, got %q", userAgent)
	}
}

func TestFetch_StatusCodes(t *testing.T) {
	tests := []struct {
		name          string
		responses     []int // Status codes to return in sequence
		retries       int
		expectCalls   int32
		expectStatus  int // 0 means success
	}{
		{"success on first attempt", []int{200}, 0, 1, 0},
		{"404 is reported without retry", []int{404}, 2, 1, 404},
		{"500 without retries", []int{500}, 0, 1, 500},
		{"500 then success with one retry", []int{500, 200}, 1, 2, 0},
		{"all 5xx exhaust retries", []int{500, 502, 503}, 2, 3, 503},
		{"5xx then 4xx stops", []int{502, 403}, 3, 2, 403},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(calls.Add(1)) - 1
				status := tc.responses[min(n, len(tc.responses)-1)]
				w.WriteHeader(status)
				w.Write([]byte("body"))
			}))
			defer server.Close()

			client := newTestClient(Options{Retries: tc.retries, RetryBackoff: time.Millisecond})
			_, err := client.Fetch(context.Background(), server.URL)

			if calls.Load() != tc.expectCalls {
				t.Errorf("expected %d requests, got %d", tc.expectCalls, calls.Load())
			}

			if tc.expectStatus == 0 {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}

			var httpErr *HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected *HTTPError, got %T: %v", err, err)
			}
			if httpErr.Status != tc.expectStatus {
				t.Errorf("expected status %d, got %d", tc.expectStatus, httpErr.Status)
			}
			if !strings.Contains(err.Error(), "status") {
				t.Errorf("error should mention the status: %v", err)
			}
		})
	}
}

func TestFetch_TimeoutCancelsRequest(t *testing.T) {
	cancelled := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			close(cancelled)
		case <-time.After(5 * time.Second):
			w.Write([]byte("too late"))
		}
	}))
	defer server.Close()

	client := newTestClient(Options{Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := client.Fetch(context.Background(), server.URL)
	elapsed := time.Since(start)

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected *TimeoutError, got %T: %v", err, err)
	}
	if timeoutErr.Timeout != 50*time.Millisecond {
		t.Errorf("expected timeout 50ms in error, got %s", timeoutErr.Timeout)
	}
	if elapsed > 2*time.Second {
		t.Errorf("fetch should give up near its timeout, took %s", elapsed)
	}

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Error("server never observed the request being cancelled")
	}
}

func TestFetch_TimeoutIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newTestClient(Options{Timeout: 30 * time.Millisecond, Retries: 3, RetryBackoff: time.Millisecond})
	_, err := client.Fetch(context.Background(), server.URL)

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected *TimeoutError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 request, got %d", calls.Load())
	}
}

func TestFetch_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(Options{Timeout: time.Second}).Fetch(context.Background(), url)

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *NetworkError, got %T: %v", err, err)
	}
	if netErr.URL != url {
		t.Errorf("expected URL %s in error, got %s", url, netErr.URL)
	}
}

func TestFetch_NetworkErrorRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			// Simulate network error by closing connection
			hj, ok := w.(http.Hijacker)
			if ok {
				conn, _, _ := hj.Hijack()
				conn.Close()
			}
			return
		}
		w.Write([]byte("image"))
	}))
	defer server.Close()

	client := newTestClient(Options{Retries: 2, RetryBackoff: time.Millisecond})
	data, err := client.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if string(data) != "image" {
		t.Errorf("unexpected body %q", data)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 requests, got %d", calls.Load())
	}
}

func TestFetch_InvalidURL(t *testing.T) {
	_, err := newTestClient(Options{}).Fetch(context.Background(), "://missing-scheme")

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *NetworkError, got %T: %v", err, err)
	}
}

func TestFetch_BodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("x"), 100))
	}))
	defer server.Close()

	_, err := newTestClient(Options{MaxBodyBytes: 10}).Fetch(context.Background(), server.URL)

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *NetworkError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "exceeds 10 bytes") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestFetch_BodyAtLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("x"), 10))
	}))
	defer server.Close()

	data, err := newTestClient(Options{MaxBodyBytes: 10}).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(data) != 10 {
		t.Errorf("expected 10 bytes, got %d", len(data))
	}
}

func TestFetch_ParentContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(Options{Retries: 2}).Fetch(ctx, server.URL)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected error to wrap context.Canceled, got %v", err)
	}
}

func TestFetch_ParentDeadlineIsNotFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(Options{Timeout: 5 * time.Second}).Fetch(ctx, server.URL)

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		t.Fatalf("caller deadline reported as fetch timeout: %v", err)
	}
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected error to wrap context.DeadlineExceeded, got %v", err)
	}
	if !strings.Contains(err.Error(), "aborted by caller") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client := newTestClient(Options{})
	if client.Timeout() != DefaultTimeout {
		t.Errorf("expected default timeout %s, got %s", DefaultTimeout, client.Timeout())
	}
	if client.opts.MaxBodyBytes != DefaultMaxBodyBytes {
		t.Errorf("expected default body limit, got %d", client.opts.MaxBodyBytes)
	}
	if client.opts.UserAgent != DefaultUserAgent {
		t.Errorf("expected default User-Agent, got %q", client.opts.UserAgent)
	}
}
