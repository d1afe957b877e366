package progress

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const defaultBufferSize = 4096

// Hub aggregates the Event stream and fans it out to registered sinks.
// Emit is safe for concurrent use by multiple goroutines and never blocks
// callers; if the buffer fills, events are dropped and counted.
type Hub struct {
	sinks   []Sink
	events  chan Event
	stopCh  chan struct{}
	doneCh  chan struct{}
	logger  *zap.Logger
	dropped atomic.Int64
	closed  atomic.Bool

	closeOnce sync.Once
}

// NewHub starts the fan-out goroutine and returns a Hub ready to accept
// events. bufferSize <= 0 selects the default.
func NewHub(bufferSize int, logger *zap.Logger, sinks ...Sink) *Hub {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		sinks:  append([]Sink(nil), sinks...),
		events: make(chan Event, bufferSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		logger: logger,
	}
	go h.run()
	return h
}

// Emit enqueues an event for fan-out. Events emitted after Close, or while
// the buffer is full, are dropped.
func (h *Hub) Emit(evt Event) {
	if h == nil || h.closed.Load() {
		return
	}
	select {
	case h.events <- evt:
	default:
		h.dropped.Add(1)
	}
}

// Close stops accepting events, drains the buffer into the sinks, and
// waits for the fan-out goroutine to finish.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		close(h.stopCh)
		<-h.doneCh
		if n := h.dropped.Load(); n > 0 {
			h.logger.Warn("progress events dropped", zap.Int64("count", n))
		}
	})
}

func (h *Hub) run() {
	defer close(h.doneCh)
	for {
		select {
		case evt := <-h.events:
			h.fanOut(evt)
		case <-h.stopCh:
			// Drain whatever was buffered before the stop signal.
			for {
				select {
				case evt := <-h.events:
					h.fanOut(evt)
				default:
					return
				}
			}
		}
	}
}

func (h *Hub) fanOut(evt Event) {
	for _, s := range h.sinks {
		s.Record(evt)
	}
}
