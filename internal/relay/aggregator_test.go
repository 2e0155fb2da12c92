package relay

import (
	"sync"
	"testing"
	"time"

	"github.com/thewages75-crypto/idnon/internal/transport"
)

type flushRecorder struct {
	mu      sync.Mutex
	batches [][]transport.Message
}

func (r *flushRecorder) flush(groupID string, msgs []transport.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, msgs)
}

func (r *flushRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func (r *flushRecorder) batch(i int) []transport.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[i]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

func TestAggregatorBatchesGroupInOrder(t *testing.T) {
	rec := &flushRecorder{}
	agg := NewAggregator(30*time.Millisecond, 50, rec.flush)
	defer agg.Stop()

	agg.Add("g1", transport.Message{ID: 1, From: 7, Media: "a"})
	agg.Add("g1", transport.Message{ID: 2, From: 7, Media: "b"})
	agg.Add("g1", transport.Message{ID: 3, From: 7, Media: "c"})

	waitFor(t, func() bool { return rec.count() == 1 })

	got := rec.batch(0)
	if len(got) != 3 {
		t.Fatalf("expected 3 messages in the batch, got %d", len(got))
	}
	for i, want := range []int64{1, 2, 3} {
		if got[i].ID != want {
			t.Fatalf("batch out of order: position %d has id %d, want %d", i, got[i].ID, want)
		}
	}
	if agg.Pending() != 0 {
		t.Fatalf("expected no pending batches after flush, got %d", agg.Pending())
	}
}

func TestAggregatorSeparatesGroups(t *testing.T) {
	rec := &flushRecorder{}
	agg := NewAggregator(30*time.Millisecond, 50, rec.flush)
	defer agg.Stop()

	agg.Add("g1", transport.Message{ID: 1, From: 7})
	agg.Add("g2", transport.Message{ID: 2, From: 8})

	waitFor(t, func() bool { return rec.count() == 2 })

	if len(rec.batch(0)) != 1 || len(rec.batch(1)) != 1 {
		t.Fatalf("groups must not be merged")
	}
}

func TestAggregatorCapFlushesEarlyExactlyOnce(t *testing.T) {
	rec := &flushRecorder{}
	agg := NewAggregator(50*time.Millisecond, 3, rec.flush)
	defer agg.Stop()

	agg.Add("g1", transport.Message{ID: 1})
	agg.Add("g1", transport.Message{ID: 2})
	agg.Add("g1", transport.Message{ID: 3})

	// Cap flush fires before the debounce elapses.
	waitFor(t, func() bool { return rec.count() == 1 })
	if len(rec.batch(0)) != 3 {
		t.Fatalf("expected full batch at the cap, got %d", len(rec.batch(0)))
	}

	// The armed timer firing later must not flush again.
	time.Sleep(80 * time.Millisecond)
	if rec.count() != 1 {
		t.Fatalf("batch flushed more than once: %d flushes", rec.count())
	}
}

func TestAggregatorStopCancelsPending(t *testing.T) {
	rec := &flushRecorder{}
	agg := NewAggregator(30*time.Millisecond, 50, rec.flush)

	agg.Add("g1", transport.Message{ID: 1})
	agg.Stop()

	time.Sleep(60 * time.Millisecond)
	if rec.count() != 0 {
		t.Fatalf("stopped aggregator must not flush, got %d flushes", rec.count())
	}
	if agg.Pending() != 0 {
		t.Fatalf("expected pending map cleared, got %d", agg.Pending())
	}
}
