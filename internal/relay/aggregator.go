package relay

import (
	"sync"
	"time"

	"github.com/thewages75-crypto/idnon/internal/transport"
)

// FlushFunc receives a completed batch, in arrival order.
type FlushFunc func(groupID string, msgs []transport.Message)

// Aggregator collects messages sharing a correlation id into one batch. The
// transport delivers each album item as a separate event with no end-of-group
// marker, so the first item arms a debounce timer and the batch flushes when
// the burst goes quiet.
type Aggregator struct {
	debounce time.Duration
	maxItems int
	flush    FlushFunc

	mu      sync.Mutex
	pending map[string]*batch
}

type batch struct {
	msgs  []transport.Message
	timer *time.Timer
}

// NewAggregator creates an aggregator. maxItems caps a single batch; a batch
// reaching the cap flushes immediately instead of waiting out the debounce.
func NewAggregator(debounce time.Duration, maxItems int, flush FlushFunc) *Aggregator {
	return &Aggregator{
		debounce: debounce,
		maxItems: maxItems,
		flush:    flush,
		pending:  make(map[string]*batch),
	}
}

// Add buffers one message under its correlation id. The first message for an
// id arms exactly one flush; later arrivals append and return immediately.
func (a *Aggregator) Add(groupID string, msg transport.Message) {
	a.mu.Lock()
	b, ok := a.pending[groupID]
	if !ok {
		b = &batch{}
		a.pending[groupID] = b
		b.timer = time.AfterFunc(a.debounce, func() {
			a.flushGroup(groupID)
		})
	}
	b.msgs = append(b.msgs, msg)
	full := len(b.msgs) >= a.maxItems
	a.mu.Unlock()

	if full {
		a.flushGroup(groupID)
	}
}

// Pending returns the number of batches still waiting on their debounce.
func (a *Aggregator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Stop cancels all armed timers without flushing. Buffered batches are
// dropped; shutdown is best-effort.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, b := range a.pending {
		b.timer.Stop()
		delete(a.pending, id)
	}
}

// flushGroup hands the batch to the sink. Removal from the pending map under
// the lock makes the flush run at most once per correlation id, whether it
// was triggered by the timer or by the batch cap.
func (a *Aggregator) flushGroup(groupID string) {
	a.mu.Lock()
	b, ok := a.pending[groupID]
	if ok {
		delete(a.pending, groupID)
	}
	a.mu.Unlock()

	if !ok {
		return
	}
	b.timer.Stop()
	a.flush(groupID, b.msgs)
}
