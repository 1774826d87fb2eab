package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/paged-grid/internal/testutil"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := DefaultConfig(baseURL)
	cfg.Retry = fastRetry()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "valid http", baseURL: "http://localhost:8080/rows"},
		{name: "valid https", baseURL: "https://example.com/rows"},
		{name: "empty", baseURL: "", wantErr: true},
		{name: "no scheme", baseURL: "localhost/rows", wantErr: true},
		{name: "unsupported scheme", baseURL: "ftp://example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(DefaultConfig(tt.baseURL))
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%q) error = %v, wantErr %v", tt.baseURL, err, tt.wantErr)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(Config{BaseURL: "http://localhost/rows"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.config.UserAgent == "" {
		t.Error("UserAgent should default")
	}
	if c.config.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", c.config.Timeout)
	}
	if c.config.Retry.MaxAttempts != 3 {
		t.Errorf("Retry.MaxAttempts = %d, want 3", c.config.Retry.MaxAttempts)
	}
}

func TestFetchPage_Success(t *testing.T) {
	mock := testutil.NewMockPageServer(250, 3)
	defer mock.Close()

	c := newTestClient(t, mock.URL())
	rows, err := c.FetchPage(context.Background(), 1, 100)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if len(rows) != 100 {
		t.Fatalf("got %d rows, want 100", len(rows))
	}
	if string(rows[0]) != `["r100c0","r100c1","r100c2"]` {
		t.Errorf("first row = %s", rows[0])
	}
	if ua := mock.LastRequestHeader().Get("User-Agent"); ua != "paged-grid/1.0" {
		t.Errorf("User-Agent = %q", ua)
	}
}

func TestFetchPage_PartialLastPage(t *testing.T) {
	mock := testutil.NewMockPageServer(250, 1)
	defer mock.Close()

	rows, err := newTestClient(t, mock.URL()).FetchPage(context.Background(), 2, 100)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if len(rows) != 50 {
		t.Errorf("got %d rows, want 50", len(rows))
	}
}

func TestFetchPage_NoData(t *testing.T) {
	tests := []struct {
		name  string
		page  int
		setup func(m *testutil.MockPageServer)
	}{
		{name: "past the end", page: 5},
		{name: "empty rows", page: 0, setup: func(m *testutil.MockPageServer) {
			m.SetResponses(0, testutil.NewEmptyPageResponse())
		}},
		{name: "not found", page: 0, setup: func(m *testutil.MockPageServer) {
			m.SetResponses(0, testutil.MockResponse{StatusCode: http.StatusNotFound})
		}},
		{name: "empty body", page: 0, setup: func(m *testutil.MockPageServer) {
			m.SetResponses(0, testutil.MockResponse{StatusCode: http.StatusOK})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockPageServer(100, 2)
			defer mock.Close()
			if tt.setup != nil {
				tt.setup(mock)
			}

			rows, err := newTestClient(t, mock.URL()).FetchPage(context.Background(), tt.page, 100)
			if err != nil {
				t.Fatalf("FetchPage failed: %v", err)
			}
			if rows != nil {
				t.Errorf("expected nil rows, got %d", len(rows))
			}
			if mock.PageCount(tt.page) != 1 {
				t.Errorf("no-data page requested %d times, want 1", mock.PageCount(tt.page))
			}
		})
	}
}

func TestFetchPage_RetriesServerErrors(t *testing.T) {
	mock := testutil.NewMockPageServer(100, 2)
	defer mock.Close()
	mock.SetResponses(0, testutil.NewServerErrorResponse(), testutil.NewRateLimitResponse())

	rows, err := newTestClient(t, mock.URL()).FetchPage(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if len(rows) != 10 {
		t.Errorf("got %d rows, want 10", len(rows))
	}
	if mock.PageCount(0) != 3 {
		t.Errorf("page requested %d times, want 3", mock.PageCount(0))
	}
}

func TestFetchPage_RetryExhausted(t *testing.T) {
	mock := testutil.NewMockPageServer(100, 2)
	defer mock.Close()
	for i := 0; i < 3; i++ {
		mock.SetResponses(0, testutil.NewServerErrorResponse())
	}

	_, err := newTestClient(t, mock.URL()).FetchPage(context.Background(), 0, 10)
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}

	var pe *PageError
	if !errors.As(err, &pe) || pe.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected wrapped 500 PageError, got %v", err)
	}
}

func TestFetchPage_ClientErrorNotRetried(t *testing.T) {
	mock := testutil.NewMockPageServer(100, 2)
	defer mock.Close()
	mock.SetResponses(0, testutil.NewBadRequestResponse())

	_, err := newTestClient(t, mock.URL()).FetchPage(context.Background(), 0, 10)

	var pe *PageError
	if !errors.As(err, &pe) || pe.ErrorClass != ErrorClassClient {
		t.Fatalf("expected client PageError, got %v", err)
	}
	if mock.PageCount(0) != 1 {
		t.Errorf("page requested %d times, want 1", mock.PageCount(0))
	}
}

func TestFetchPage_MalformedBody(t *testing.T) {
	mock := testutil.NewMockPageServer(100, 2)
	defer mock.Close()
	mock.SetResponses(0, testutil.MockResponse{StatusCode: http.StatusOK, Body: `{"rows": [`})

	_, err := newTestClient(t, mock.URL()).FetchPage(context.Background(), 0, 10)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if mock.PageCount(0) != 1 {
		t.Errorf("decode errors should not be retried, got %d requests", mock.PageCount(0))
	}
}

func TestFetchPage_ContextCancelled(t *testing.T) {
	mock := testutil.NewMockPageServer(100, 2)
	defer mock.Close()
	mock.SetDelay(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := newTestClient(t, mock.URL()).FetchPage(ctx, 0, 10)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("FetchPage ignored cancellation for %v", elapsed)
	}
}

func TestSetHTTPClient(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"rows":[{"id":1}]}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	c.SetHTTPClient(server.Client())

	if _, err := c.FetchPage(context.Background(), 0, 1); err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("hits = %d, want 1", got)
	}
}

func TestRows_Decodes(t *testing.T) {
	mock := testutil.NewMockPageServer(30, 2)
	defer mock.Close()

	fetch := Rows[[]string](newTestClient(t, mock.URL()))

	rows, err := fetch(context.Background(), 2, 10)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(rows) != 10 {
		t.Fatalf("got %d rows, want 10", len(rows))
	}
	if rows[0][1] != "r20c1" {
		t.Errorf("rows[0][1] = %q, want r20c1", rows[0][1])
	}

	rows, err = fetch(context.Background(), 3, 10)
	if err != nil || rows != nil {
		t.Errorf("page past the end = %v, %v; want nil, nil", rows, err)
	}
}

func TestRows_DecodeError(t *testing.T) {
	mock := testutil.NewMockPageServer(30, 2)
	defer mock.Close()

	type record struct {
		ID int `json:"id"`
	}
	fetch := Rows[record](newTestClient(t, mock.URL()))

	if _, err := fetch(context.Background(), 0, 10); err == nil {
		t.Error("decoding string rows into a struct should fail")
	}
}
