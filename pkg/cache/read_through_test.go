package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type order struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type countingUpstream struct {
	mu    sync.Mutex
	calls int
	empty bool
	err   error
}

func (u *countingUpstream) fetch(_ context.Context, page, size int) ([]order, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.err != nil {
		return nil, u.err
	}
	if u.empty {
		return nil, nil
	}
	rows := make([]order, size)
	for i := range rows {
		id := page*size + i
		rows[i] = order{ID: id, Name: "order"}
	}
	return rows, nil
}

func (u *countingUpstream) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

func TestReadThrough_StoreUnavailableFallsBack(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	upstream := &countingUpstream{}
	fetch := ReadThrough(NewManager(client), "orders", time.Minute, upstream.fetch)

	for i := 0; i < 2; i++ {
		rows, err := fetch(context.Background(), 2, 3)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if len(rows) != 3 || rows[0].ID != 6 {
			t.Fatalf("unexpected rows %+v", rows)
		}
	}
	if got := upstream.count(); got != 2 {
		t.Errorf("upstream called %d times, want 2", got)
	}
}

func TestReadThrough_UpstreamErrorPassedThrough(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	boom := errors.New("boom")
	fetch := ReadThrough(NewManager(client), "orders", time.Minute, (&countingUpstream{err: boom}).fetch)

	if _, err := fetch(context.Background(), 0, 10); !errors.Is(err, boom) {
		t.Errorf("expected upstream error, got %v", err)
	}
}

func TestReadThrough_ServesStoredPages(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	upstream := &countingUpstream{}
	fetch := ReadThrough(manager, "orders", time.Minute, upstream.fetch)
	ctx := context.Background()

	first, err := fetch(ctx, 1, 4)
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	second, err := fetch(ctx, 1, 4)
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}

	if upstream.count() != 1 {
		t.Errorf("upstream called %d times, want 1", upstream.count())
	}
	if len(second) != len(first) || second[3] != first[3] {
		t.Errorf("stored page differs: %+v vs %+v", second, first)
	}

	if _, err := manager.Get(ctx, PageKey{Dataset: "orders", Page: 1, PageSize: 4}); err != nil {
		t.Errorf("page not in store: %v", err)
	}
}

func TestReadThrough_EmptyPagesNotStored(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	upstream := &countingUpstream{empty: true}
	fetch := ReadThrough(manager, "orders", time.Minute, upstream.fetch)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		rows, err := fetch(ctx, 9, 10)
		if err != nil || rows != nil {
			t.Fatalf("fetch = %v, %v; want nil, nil", rows, err)
		}
	}
	if upstream.count() != 2 {
		t.Errorf("upstream called %d times, want 2", upstream.count())
	}
}
