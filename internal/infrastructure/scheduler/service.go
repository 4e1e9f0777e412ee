package scheduler

import (
	"context"
	"sync"
)

// service is the start and stop bookkeeping of a set of goroutines
type service struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// launch runs n copies of fn under a context cancelled by halt. It reports
// false when the service already runs.
func (s *service) launch(parent context.Context, n int, fn func(ctx context.Context, i int)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	for i := range n {
		s.wg.Go(func() { fn(ctx, i) })
	}
	return true
}

func (s *service) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// halt cancels the goroutines and waits for them until ctx expires
func (s *service) halt(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
