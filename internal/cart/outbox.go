package cart

import "sync"

type intentKind int

const (
	intentUpsert intentKind = iota
	intentDelete
	intentClear
)

// intent is one pending remote reconciliation. Upsert intents carry the
// absolute local quantity, so replaying only the latest intent converges
// the mirror on the last local state.
type intent struct {
	kind intentKind
	item Item
}

// outbox serializes remote reconciliation per key. At most one intent per
// key waits behind the in-flight one; a newer intent replaces the waiting
// one, so rapid mutations of the same product never race on the wire.
type outbox struct {
	exec func(intent)

	mu       sync.Mutex
	wg       sync.WaitGroup
	pending  map[string]intent
	inflight map[string]bool
}

func newOutbox(exec func(intent)) *outbox {
	return &outbox{
		exec:     exec,
		pending:  make(map[string]intent),
		inflight: make(map[string]bool),
	}
}

func (o *outbox) enqueue(key string, it intent) {
	o.mu.Lock()
	if o.inflight[key] {
		// supersede whatever was waiting for this key
		o.pending[key] = it
		o.mu.Unlock()
		return
	}
	o.inflight[key] = true
	o.wg.Add(1)
	o.mu.Unlock()

	go o.run(key, it)
}

func (o *outbox) run(key string, it intent) {
	defer o.wg.Done()
	for {
		o.exec(it)

		o.mu.Lock()
		next, ok := o.pending[key]
		if !ok {
			delete(o.inflight, key)
			o.mu.Unlock()
			return
		}
		delete(o.pending, key)
		o.mu.Unlock()
		it = next
	}
}

// dropPending discards every waiting intent. A cart clear makes per-item
// reconciliation moot.
func (o *outbox) dropPending() {
	o.mu.Lock()
	o.pending = make(map[string]intent)
	o.mu.Unlock()
}

// wait blocks until all in-flight reconciliation has drained.
func (o *outbox) wait() {
	o.wg.Wait()
}
