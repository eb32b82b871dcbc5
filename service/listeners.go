package service

import (
	"sync"

	"github.com/qitt/qitt-backend/models"
)

// listenerSet fans auth state transitions out to registered callbacks.
type listenerSet struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(*models.User)
}

func newListenerSet() *listenerSet {
	return &listenerSet{fns: make(map[int]func(*models.User))}
}

func (l *listenerSet) add(fn func(*models.User)) (remove func()) {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.fns[id] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

func (l *listenerSet) notify(user *models.User) {
	l.mu.Lock()
	fns := make([]func(*models.User), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()
	for _, fn := range fns {
		fn(user)
	}
}
