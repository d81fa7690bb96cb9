package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestContextConcurrentAccess tests that context values can be safely accessed concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	ctx = withRunUUID(ctx, "run-1")

	const numGoroutines = 50
	var wg sync.WaitGroup
	for i := range numGoroutines {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			assert.True(t, shouldSuppressHeader(ctx), "Goroutine %d: shouldSuppressHeader should be true", id)
			runUUID, ok := getRunUUID(ctx)
			assert.True(t, ok, "Goroutine %d: getRunUUID should return true", id)
			assert.Equal(t, "run-1", runUUID)
		}(i)
	}
	wg.Wait()
}

func TestContextDefaults(t *testing.T) {
	ctx := context.Background()
	assert.False(t, shouldSuppressHeader(ctx))

	_, ok := getRunUUID(ctx)
	assert.False(t, ok)

	_, ok = getRunUUID(withRunUUID(ctx, ""))
	assert.False(t, ok, "empty run UUID should not count")
}

func TestShouldSuppressHeaderWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), suppressHeaderKey, "yes")
	assert.False(t, shouldSuppressHeader(ctx))
}
