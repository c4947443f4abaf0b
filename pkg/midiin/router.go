package midiin

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// DefaultQueueLength is the number of pending events buffered between the
// MIDI driver and the dispatch loop.
const DefaultQueueLength = 256

// Handler receives dispatched note events.
type Handler interface {
	Play(note, velocity int) error
	Stop(note int) error
}

// Router decouples the MIDI driver's callback from the handler. The
// driver only enqueues; a single Run loop dispatches in arrival order.
type Router struct {
	handler  Handler
	log      zerolog.Logger
	events   chan Event
	dropped  atomic.Uint64
	stopOnce sync.Once
	stopChan chan struct{}

	// Rejected, when set, is called with every event the handler refused.
	Rejected func(ev Event, err error)
}

// NewRouter creates a router with a bounded queue of queueLength events.
func NewRouter(h Handler, queueLength int, log zerolog.Logger) *Router {
	if queueLength <= 0 {
		queueLength = DefaultQueueLength
	}
	return &Router{
		handler:  h,
		log:      log.With().Str("component", "router").Logger(),
		events:   make(chan Event, queueLength),
		stopChan: make(chan struct{}),
	}
}

// Handle decodes msg and enqueues it. It has the signature expected by
// gomidi.ListenTo and never blocks.
func (r *Router) Handle(msg gomidi.Message, timestampms int32) {
	ev, ok := Decode(msg)
	if !ok {
		r.log.Trace().Hex("msg", msg).Msg("Ignoring message")
		return
	}
	r.Submit(ev)
}

// Submit attempts to queue ev for dispatch and reports whether it fit.
func (r *Router) Submit(ev Event) bool {
	select {
	case <-r.stopChan:
		return false
	default:
	}
	select {
	case r.events <- ev:
		r.log.Trace().Stringer("event", ev).Msg("Event added to queue")
		return true
	default:
		r.dropped.Add(1)
		r.log.Debug().Stringer("event", ev).Msg("Queue full, dropping event")
		return false
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (r *Router) Dropped() uint64 {
	return r.dropped.Load()
}

// Pending returns the number of queued events.
func (r *Router) Pending() int {
	return len(r.events)
}

// Run dispatches queued events until ctx is done or Stop is called.
func (r *Router) Run(ctx context.Context) {
	r.log.Debug().Msg("Router started")
	defer r.log.Debug().Msg("Router stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case ev := <-r.events:
			r.Dispatch(ev)
		}
	}
}

// Dispatch delivers ev to the handler synchronously.
func (r *Router) Dispatch(ev Event) {
	r.log.Info().Msg(ev.String())

	var err error
	switch ev.Kind {
	case NoteOn:
		err = r.handler.Play(ev.Note, ev.Velocity)
	case NoteOff:
		err = r.handler.Stop(ev.Note)
	}
	if err == nil {
		return
	}

	r.log.Warn().Err(err).Stringer("event", ev).Msg("Dropping event")
	if r.Rejected != nil {
		r.Rejected(ev, err)
	}
}

// Stop signals the router to stop processing events.
func (r *Router) Stop() {
	r.stopOnce.Do(func() {
		r.log.Debug().Msg("Stopping router")
		close(r.stopChan)
	})
}
