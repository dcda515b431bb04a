package client

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Join runs independent calls concurrently and waits for all of them.
// It returns the first error; callers must then ignore every partial result.
// Tasks are not cancelled when a sibling fails.
func Join(ctx context.Context, tasks ...func(ctx context.Context) error) error {
	var g errgroup.Group
	for _, task := range tasks {
		g.Go(func() error {
			return task(ctx)
		})
	}
	return g.Wait()
}

// Superseder cancels the previous call when a newer one starts, e.g. search-as-you-type.
// The superseded call fails with an error matching ErrAborted and its result is never returned.
type Superseder struct {
	mu         sync.Mutex
	cancel     context.CancelFunc
	generation uint64
}

// Begin cancels the call started by the previous Begin and returns the context for the new one.
// Call done when the new call has finished.
func (s *Superseder) Begin(ctx context.Context) (context.Context, context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	callCtx, cancel := context.WithCancel(ctx)
	s.generation++
	generation := s.generation
	s.cancel = cancel

	done := func() {
		s.mu.Lock()
		if s.generation == generation {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}
	return callCtx, done
}
