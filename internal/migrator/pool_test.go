package migrator

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRunPoolRunsEveryTable(t *testing.T) {
	tables := []string{"a", "b", "c", "d"}
	var mu sync.Mutex
	seen := make(map[string]bool)

	err := RunPool(context.Background(), tables, 2, func(ctx context.Context, table string) error {
		mu.Lock()
		seen[table] = true
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("RunPool returned error: %v", err)
	}
	for _, tbl := range tables {
		if !seen[tbl] {
			t.Errorf("table %s was never processed", tbl)
		}
	}
}

func TestRunPoolRespectsConcurrencyLimit(t *testing.T) {
	var inFlight, maxSeen int32
	tables := []string{"a", "b", "c", "d", "e", "f"}

	err := RunPool(context.Background(), tables, 2, func(ctx context.Context, table string) error {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			max := atomic.LoadInt32(&maxSeen)
			if n <= max || atomic.CompareAndSwapInt32(&maxSeen, max, n) {
				break
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunPool returned error: %v", err)
	}
	if maxSeen > 2 {
		t.Errorf("expected at most 2 concurrent tables, saw %d", maxSeen)
	}
}

func TestRunPoolPropagatesFirstError(t *testing.T) {
	tables := []string{"a", "b"}
	boom := errTest("boom")

	err := RunPool(context.Background(), tables, 2, func(ctx context.Context, table string) error {
		if table == "b" {
			return boom
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected RunPool to return an error")
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
