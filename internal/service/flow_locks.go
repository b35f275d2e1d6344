package service

import "sync"

// flowLocks hands out one mutex per flow id. An entry is dropped once nobody
// holds or waits on it.
type flowLocks struct {
	mu    sync.Mutex
	locks map[string]*flowLock
}

type flowLock struct {
	mu   sync.Mutex
	refs int
}

// lock blocks until the flow is free and returns its unlock func.
func (l *flowLocks) lock(flowID string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*flowLock)
	}
	fl, ok := l.locks[flowID]
	if !ok {
		fl = &flowLock{}
		l.locks[flowID] = fl
	}
	fl.refs++
	l.mu.Unlock()

	fl.mu.Lock()
	return func() {
		fl.mu.Unlock()

		l.mu.Lock()
		fl.refs--
		if fl.refs == 0 {
			delete(l.locks, flowID)
		}
		l.mu.Unlock()
	}
}
