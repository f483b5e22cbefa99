package debugapi

import "sync"

// Message is one frame pushed to WebSocket subscribers.
type Message struct {
	Type string `json:"type"`
	Tick int32  `json:"tick"`
	Data any    `json:"data,omitempty"`
}

// Broadcaster fans messages out to subscriber channels. A subscriber
// whose channel is full misses the message.
type Broadcaster struct {
	mu          sync.RWMutex
	nextID      uint64
	subscribers map[uint64]chan Message
}

// NewBroadcaster creates an empty hub.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan Message),
	}
}

// Register creates a channel for a new subscriber.
func (b *Broadcaster) Register() (uint64, <-chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	ch := make(chan Message, 16)
	b.subscribers[b.nextID] = ch
	return b.nextID, ch
}

// Unregister closes and removes a subscriber.
func (b *Broadcaster) Unregister(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Broadcast sends msg to every subscriber without blocking.
func (b *Broadcaster) Broadcast(msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close unregisters every subscriber.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
