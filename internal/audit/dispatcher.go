package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering. By default Emit waits for room in the
// buffer, so a slow sink slows callers down instead of losing events.
type Config struct {
	Enabled    bool
	BufferSize int

	// DropIfFull makes Emit discard the event when the buffer is full instead
	// of waiting.
	DropIfFull bool

	// OnDrop is called synchronously with the running drop total each time an
	// event is discarded. It must not block.
	OnDrop func(event Event, total uint64)
}

// Dispatcher hands events to a sink from a single worker goroutine, so the
// sink observes them in Emit order.
type Dispatcher struct {
	sink   Sink
	queue  chan Event
	drop   bool
	onDrop func(Event, uint64)

	// mu orders Emit against Close: senders hold it shared, Close exclusively
	// while it closes the queue.
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
	stopped chan struct{}
}

// NewDispatcher starts the worker. It returns nil when cfg is disabled; a nil
// Dispatcher accepts and ignores every call.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:    sink,
		queue:   make(chan Event, max(cfg.BufferSize, 1)),
		drop:    cfg.DropIfFull,
		onDrop:  cfg.OnDrop,
		stopped: make(chan struct{}),
	}
	go d.drain()
	return d
}

func (d *Dispatcher) drain() {
	defer close(d.stopped)

	ctx := context.Background()
	for event := range d.queue {
		d.sink.Emit(ctx, event)
	}
}

// Emit queues event. With DropIfFull a full buffer discards the event at once.
// Otherwise Emit waits for room until ctx ends, and an event abandoned that way
// counts as dropped. Events emitted after Close are ignored.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	select {
	case d.queue <- event:
		return
	default:
	}
	if d.drop {
		d.discard(event)
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.discard(event)
	}
}

func (d *Dispatcher) discard(event Event) {
	total := d.dropped.Add(1)
	if d.onDrop != nil {
		d.onDrop(event, total)
	}
}

// Close refuses further events and returns once every queued event has reached
// the sink. It is idempotent.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}

	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	<-d.stopped
}

// Dropped returns how many events were discarded.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
