package ecs

import "sync"

// Event is the interface event payload types implement. Like components, events are keyed by a
// stable name rather than by Go type identity.
type Event interface {
	Name() string
}

// abstractEventQueue is the type-erased view the registry holds for end-of-tick maintenance.
type abstractEventQueue interface {
	swap()
	clear()
	pending() int
}

// eventQueue is a double-buffered queue of one event type. Events written during tick N stay
// readable through tick N+1 and are discarded at the following swap, so a reader that runs once
// per tick never misses events regardless of whether it runs before or after the writer.
//
// Cursors are absolute: total counts the events ever pushed, and the readable window is
// [total-len(prev)-len(cur), total). A reader's cursor therefore stays meaningful across swaps.
type eventQueue[T Event] struct {
	mu    sync.Mutex
	prev  []T
	cur   []T
	total uint64
}

// push appends an event to the current buffer.
func (q *eventQueue[T]) push(ev T) {
	q.mu.Lock()
	q.cur = append(q.cur, ev)
	q.total++
	q.mu.Unlock()
}

// readFrom copies the events at absolute positions [cursor, total) and returns the new cursor.
// Cursors older than the window start are clamped: those events are gone.
func (q *eventQueue[T]) readFrom(cursor uint64) ([]T, uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	start := q.total - uint64(len(q.prev)) - uint64(len(q.cur))
	if cursor < start {
		cursor = start
	}
	if cursor >= q.total {
		return nil, q.total
	}

	out := make([]T, 0, q.total-cursor)
	for abs := cursor; abs < q.total; abs++ {
		rel := int(abs - start)
		if rel < len(q.prev) {
			out = append(out, q.prev[rel])
		} else {
			out = append(out, q.cur[rel-len(q.prev)])
		}
	}
	return out, q.total
}

// windowStart returns the absolute position of the oldest event still in the window.
func (q *eventQueue[T]) windowStart() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.total - uint64(len(q.prev)) - uint64(len(q.cur))
}

// pushed returns the absolute position one past the newest event.
func (q *eventQueue[T]) pushed() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.total
}

// unread returns the number of events at or past the cursor.
func (q *eventQueue[T]) unread(cursor uint64) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	start := q.total - uint64(len(q.prev)) - uint64(len(q.cur))
	if cursor < start {
		cursor = start
	}
	return int(q.total - cursor)
}

// swap retires the previous buffer and starts a fresh current one, recycling the retired
// buffer's backing array.
func (q *eventQueue[T]) swap() {
	q.mu.Lock()
	var zero T
	for i := range q.prev {
		q.prev[i] = zero
	}
	q.prev, q.cur = q.cur, q.prev[:0]
	q.mu.Unlock()
}

// clear drops both buffers. Cursors past the old total stay valid; nothing remains to read.
func (q *eventQueue[T]) clear() {
	q.mu.Lock()
	q.prev = q.prev[:0]
	q.cur = q.cur[:0]
	q.mu.Unlock()
}

func (q *eventQueue[T]) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.prev) + len(q.cur)
}

// eventRegistry holds one queue per event type, created lazily on first writer or reader.
type eventRegistry struct {
	mu     sync.Mutex
	queues map[string]abstractEventQueue
}

func newEventRegistry() eventRegistry {
	return eventRegistry{queues: make(map[string]abstractEventQueue)}
}

// swapAll advances every queue's double buffer. Called once per tick, after all systems ran.
func (er *eventRegistry) swapAll() {
	er.mu.Lock()
	defer er.mu.Unlock()
	for _, q := range er.queues {
		q.swap()
	}
}

// clearAll drops every queued event.
func (er *eventRegistry) clearAll() {
	er.mu.Lock()
	defer er.mu.Unlock()
	for _, q := range er.queues {
		q.clear()
	}
}

// queueFor returns the queue of event type T, creating it on first use.
func queueFor[T Event](er *eventRegistry) *eventQueue[T] {
	var zero T
	name := zero.Name()

	er.mu.Lock()
	defer er.mu.Unlock()
	if q, ok := er.queues[name]; ok {
		return q.(*eventQueue[T])
	}
	q := &eventQueue[T]{}
	er.queues[name] = q
	return q
}

// EventWriter sends events of one type. Safe for concurrent use.
type EventWriter[T Event] struct {
	q *eventQueue[T]
}

// Send queues an event for delivery this tick and the next.
func (w EventWriter[T]) Send(ev T) {
	w.q.push(ev)
}

// EventReader reads events of one type. Each reader carries its own cursor, so independent
// readers each see every event exactly once. A reader is owned by a single system and must not
// be shared across goroutines.
type EventReader[T Event] struct {
	q      *eventQueue[T]
	cursor uint64
}

// Read returns all events the reader hasn't seen yet, oldest first, and advances the cursor.
func (r *EventReader[T]) Read() []T {
	out, cursor := r.q.readFrom(r.cursor)
	r.cursor = cursor
	return out
}

// Len returns the number of unread events without consuming them.
func (r *EventReader[T]) Len() int {
	return r.q.unread(r.cursor)
}

// MarkRead advances the cursor past every event currently readable without delivering them.
// A later Read only returns events sent afterwards.
func (r *EventReader[T]) MarkRead() {
	r.cursor = r.q.pushed()
}

// NewEventWriter returns a writer for event type T on this world.
func NewEventWriter[T Event](w *World) EventWriter[T] {
	return EventWriter[T]{q: queueFor[T](&w.events)}
}

// NewEventReader returns a reader for event type T on this world. The cursor starts at the
// window start, so events still inside the two-tick window are delivered even when they were
// sent before the reader existed. Call MarkRead to skip the backlog.
func NewEventReader[T Event](w *World) *EventReader[T] {
	q := queueFor[T](&w.events)
	return &EventReader[T]{q: q, cursor: q.windowStart()}
}
