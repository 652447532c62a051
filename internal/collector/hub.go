package collector

import "sync"

// Attachment references a file attached to a chat message.
type Attachment struct {
	ID          string
	Filename    string
	URL         string
	ContentType string
	Size        int
}

// Message is an inbound chat message as seen by the collector.
type Message struct {
	ID          string
	AuthorID    string
	ChannelID   string
	Attachments []Attachment
}

// Source delivers inbound messages to subscribers. The returned function
// removes the subscription and is safe to call more than once.
type Source interface {
	Subscribe(fn func(Message)) (unsubscribe func())
}

// Hub fans inbound messages out to the currently registered listeners.
type Hub struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]func(Message)
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{listeners: make(map[uint64]func(Message))}
}

// Subscribe registers fn for every published message until unsubscribed.
func (h *Hub) Subscribe(fn func(Message)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

// Publish hands msg to every listener. Listeners run on the caller's
// goroutine and must not block.
func (h *Hub) Publish(msg Message) {
	h.mu.Lock()
	fns := make([]func(Message), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(msg)
	}
}

// Len returns the number of registered listeners
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}
