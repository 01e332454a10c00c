package sqlite

import (
	"sync"
)

// ChangeFeed notifies observers after a committed write touched a table.
// Notifications coalesce: a slow observer sees at most one pending signal.
type ChangeFeed struct {
	mu          sync.RWMutex
	subscribers map[int]chan struct{}
	nextID      int
}

func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{
		subscribers: make(map[int]chan struct{}),
	}
}

// Subscribe returns a signal channel and a function releasing it.
func (f *ChangeFeed) Subscribe() (<-chan struct{}, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++

	ch := make(chan struct{}, 1)
	f.subscribers[id] = ch

	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()

		if sub, ok := f.subscribers[id]; ok {
			delete(f.subscribers, id)
			close(sub)
		}
	}
}

func (f *ChangeFeed) Publish() {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, ch := range f.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (f *ChangeFeed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.subscribers)
}
