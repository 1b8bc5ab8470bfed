package mutation

import (
	"sync"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Kind classifies a notification.
type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
	KindMoved   Kind = "moved"
	KindReset   Kind = "reset"
	KindFailed  Kind = "failed"
)

// GenericFailure is the user-facing text of a failed notification.
const GenericFailure = "Something went wrong. Please try again."

// Notification is the transient confirmation shown after a mutation.
type Notification struct {
	Entity  types.Entity `json:"entity"`
	Kind    Kind         `json:"kind"`
	IDs     []string     `json:"ids,omitempty"`
	Message string       `json:"message"`
	Err     error        `json:"-"`
}

// Notifier receives notifications.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

// Inbox keeps the notifications it receives, newest last.
type Inbox struct {
	mu      sync.Mutex
	entries []Notification
}

// Notify appends n.
func (b *Inbox) Notify(n Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, n)
}

// All returns a copy of every notification received.
func (b *Inbox) All() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Notification(nil), b.entries...)
}

// Last returns the newest notification.
func (b *Inbox) Last() (Notification, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) == 0 {
		return Notification{}, false
	}
	return b.entries[len(b.entries)-1], true
}

// Drain returns and forgets every notification.
func (b *Inbox) Drain() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.entries
	b.entries = nil
	return out
}

// fanout delivers to several notifiers in order.
type fanout []Notifier

func (f fanout) Notify(n Notification) {
	for _, x := range f {
		x.Notify(n)
	}
}
