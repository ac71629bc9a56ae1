package assigner

import "sync"

// Bus is an in-process Broadcaster. Listeners run synchronously on the
// broadcasting goroutine, in subscription order.
type Bus struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[string][]listener
}

type listener struct {
	id int
	fn func(EditsTriggered)
}

func NewBus() *Bus {
	return &Bus{listeners: make(map[string][]listener)}
}

// Subscribe registers fn for the named signal and returns a function that
// removes it.
func (b *Bus) Subscribe(name string, fn func(EditsTriggered)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners[name] = append(b.listeners[name], listener{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		ls := b.listeners[name]
		for i, l := range ls {
			if l.id == id {
				b.listeners[name] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) Broadcast(name string, payload EditsTriggered) {
	b.mu.RLock()
	ls := append([]listener(nil), b.listeners[name]...)
	b.mu.RUnlock()

	for _, l := range ls {
		l.fn(payload)
	}
}
