package stream

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestFanPreservesOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	results, err := Fan(context.Background(), 2, items, func(ctx context.Context, item int) (int, error) {
		return item * item, nil
	})
	if err != nil {
		t.Fatalf("fan: %v", err)
	}
	want := []int{1, 4, 9, 16, 25}
	for i := range want {
		if results[i] != want[i] {
			t.Fatalf("index %d: got %d want %d", i, results[i], want[i])
		}
	}
}

func TestFanBoundsParallelism(t *testing.T) {
	var inFlight, maxInFlight int32
	items := make([]int, 20)
	_, err := Fan(context.Background(), 3, items, func(ctx context.Context, item int) (struct{}, error) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("fan: %v", err)
	}
	if maxInFlight > 3 {
		t.Fatalf("expected at most 3 in flight, saw %d", maxInFlight)
	}
}

func TestFanPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Fan(context.Background(), 2, []int{1, 2, 3}, func(ctx context.Context, item int) (int, error) {
		if item == 2 {
			return 0, boom
		}
		return item, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom error, got %v", err)
	}
}

func TestChunk(t *testing.T) {
	chunks := Chunk([]int{1, 2, 3, 4, 5}, 2)
	if len(chunks) != 3 || len(chunks[0]) != 2 || len(chunks[2]) != 1 {
		t.Fatalf("unexpected chunking: %v", chunks)
	}
}
