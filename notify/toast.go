// Package notify holds transient toasts and modal dialog state for the UI.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

const DefaultDuration = 4 * time.Second

type Toast struct {
	ID        string
	Message   string
	Kind      Kind
	Duration  time.Duration
	CreatedAt time.Time
}

// Queue is the ordered set of visible toasts. Each toast removes itself
// after its duration on its own timer.
type Queue struct {
	mu       sync.Mutex
	toasts   []Toast
	timers   map[string]*time.Timer
	duration time.Duration
	onChange []func()
	closed   bool
}

func NewQueue(defaultDuration time.Duration) *Queue {
	if defaultDuration <= 0 {
		defaultDuration = DefaultDuration
	}
	return &Queue{
		timers:   make(map[string]*time.Timer),
		duration: defaultDuration,
	}
}

// OnChange registers fn to run after every add and removal.
func (q *Queue) OnChange(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onChange = append(q.onChange, fn)
}

func (q *Queue) changed() {
	q.mu.Lock()
	fns := append([]func(){}, q.onChange...)
	q.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Add appends a toast. A non-positive duration means the queue default.
func (q *Queue) Add(kind Kind, message string, d time.Duration) Toast {
	if d <= 0 {
		d = q.duration
	}
	t := Toast{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      kind,
		Duration:  d,
		CreatedAt: time.Now(),
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return t
	}
	q.toasts = append(q.toasts, t)
	q.timers[t.ID] = time.AfterFunc(d, func() { q.Remove(t.ID) })
	q.mu.Unlock()

	q.changed()
	return t
}

// Remove drops the toast with id. Unknown ids are ignored.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	idx := -1
	for i, t := range q.toasts {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		q.mu.Unlock()
		return false
	}
	q.toasts = append(q.toasts[:idx], q.toasts[idx+1:]...)
	if tm, ok := q.timers[id]; ok {
		tm.Stop()
		delete(q.timers, id)
	}
	q.mu.Unlock()

	q.changed()
	return true
}

// List is a snapshot in insertion order.
func (q *Queue) List() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Toast(nil), q.toasts...)
}

func (q *Queue) Success(msg string) Toast { return q.Add(KindSuccess, msg, 0) }
func (q *Queue) Error(msg string) Toast   { return q.Add(KindError, msg, 0) }
func (q *Queue) Warning(msg string) Toast { return q.Add(KindWarning, msg, 0) }
func (q *Queue) Info(msg string) Toast    { return q.Add(KindInfo, msg, 0) }

// Close stops every pending timer and empties the queue.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, tm := range q.timers {
		tm.Stop()
		delete(q.timers, id)
	}
	q.toasts = nil
	q.onChange = nil
	q.closed = true
}
