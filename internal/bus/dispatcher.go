package bus

import (
	"context"
	"sync"
	"time"

	"venuebridge/internal/obs"
	"venuebridge/internal/schema"
	"venuebridge/pkg/exception"

	"github.com/yanun0323/logs"
)

// Handler receives one venue event.
type Handler func(schema.Event)

type envelope struct {
	event    schema.Event
	queuedAt time.Time
	barrier  chan struct{}
}

// Dispatcher delivers venue events to registered handlers one at a time on a
// single goroutine. Intake never blocks the producer; the backlog is unbounded
// so order and trade reports are never dropped.
type Dispatcher struct {
	metrics *obs.Metrics

	mu       sync.Mutex
	pending  []envelope
	handlers map[schema.EventType][]Handler
	closed   bool

	running bool

	wake chan struct{}
	done chan struct{}
}

// NewDispatcher creates a stopped dispatcher.
func NewDispatcher(metrics *obs.Metrics) *Dispatcher {
	return &Dispatcher{
		metrics:  metrics,
		handlers: make(map[schema.EventType][]Handler),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Register adds a handler for an event type. Handlers run in registration order.
func (d *Dispatcher) Register(t schema.EventType, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[t] = append(d.handlers[t], h)
}

// On registers a typed handler for the variant T.
func On[T schema.Event](d *Dispatcher, fn func(T)) {
	var zero T
	d.Register(zero.Type(), func(e schema.Event) {
		if v, ok := e.(T); ok {
			fn(v)
		}
	})
}

// Publish enqueues an event. It fails only after Stop.
func (d *Dispatcher) Publish(e schema.Event) error {
	return d.enqueue(envelope{event: e, queuedAt: time.Now()})
}

func (d *Dispatcher) enqueue(env envelope) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return exception.ErrQueueClosed
	}
	d.pending = append(d.pending, env)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return nil
}

// Start runs the delivery loop until Stop or ctx is done.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running || d.closed {
		return
	}
	d.running = true
	go d.run(ctx)
}

// Sync blocks until every event published before the call has been handled.
func (d *Dispatcher) Sync(ctx context.Context) error {
	barrier := make(chan struct{})
	if err := d.enqueue(envelope{barrier: barrier}); err != nil {
		return err
	}
	select {
	case <-barrier:
		return nil
	case <-d.done:
		return exception.ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop rejects new events, delivers what is already queued and returns once
// the loop has exited.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	already := d.closed
	running := d.running
	d.closed = true
	d.mu.Unlock()

	if !running {
		if !already {
			close(d.done)
		}
		return
	}

	select {
	case d.wake <- struct{}{}:
	default:
	}
	<-d.done
}

// Pending returns the number of queued events.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for {
		d.mu.Lock()
		batch := d.pending
		d.pending = nil
		closed := d.closed
		d.mu.Unlock()

		for _, env := range batch {
			d.deliver(env)
		}

		if len(batch) != 0 {
			continue
		}
		if closed {
			return
		}

		select {
		case <-d.wake:
		case <-ctx.Done():
			d.mu.Lock()
			d.closed = true
			d.mu.Unlock()
			return
		}
	}
}

func (d *Dispatcher) deliver(env envelope) {
	if env.barrier != nil {
		close(env.barrier)
		return
	}

	t := env.event.Type()
	d.metrics.ObserveEvent(t, time.Since(env.queuedAt))

	d.mu.Lock()
	handlers := d.handlers[t]
	d.mu.Unlock()

	if len(handlers) == 0 {
		logs.Debugf("no handler for venue event %s", t)
		return
	}
	for _, h := range handlers {
		d.call(h, env.event)
	}
}

func (d *Dispatcher) call(h Handler, e schema.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.metrics.IncHandlerPanic()
			logs.Errorf("venue event handler panic, type: %s, err: %+v", e.Type(), r)
		}
	}()
	h(e)
}
