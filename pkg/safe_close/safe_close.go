// Package safe_close coordinates graceful shutdown of long-running components.
// Components attach themselves with a callback that receives a close signal
// channel and a done function; WaitClosed blocks until every attached
// component has called done.
package safe_close

import (
	"sync"
)

type SafeClose struct {
	mu          sync.Mutex
	closeSignal chan struct{}
	closed      bool
	err         error
	wg          sync.WaitGroup
}

func NewSafeClose() *SafeClose {
	return &SafeClose{
		closeSignal: make(chan struct{}),
	}
}

// Attach registers a component. f runs in its own goroutine and must call
// done exactly once when it has finished shutting down after closeSignal
// fires.
func (s *SafeClose) Attach(f func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	done := func() {
		once.Do(s.wg.Done)
	}
	go f(done, s.closeSignal)
}

// SendCloseSignal asks every attached component to shut down. The first
// non-nil error wins; subsequent calls are no-ops.
func (s *SafeClose) SendCloseSignal(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	close(s.closeSignal)
}

// ReceiveCloseSignal exposes the close signal channel for components that
// cannot use Attach.
func (s *SafeClose) ReceiveCloseSignal() <-chan struct{} {
	return s.closeSignal
}

// WaitClosed blocks until all attached components have completed shutdown
// and returns the error passed to SendCloseSignal, if any.
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
