package core

import "context"

// future holds a retrieval started ahead of the point where its value is used.
type future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// prefetch starts fetch in its own goroutine and returns immediately.
func prefetch[T any](ctx context.Context, fetch func(context.Context) (T, error)) *future[T] {
	f := &future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.value, f.err = fetch(ctx)
	}()
	return f
}

// await blocks until the retrieval finishes or ctx is done.
func (f *future[T]) await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
