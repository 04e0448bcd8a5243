package crawl_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/fwojciec/lectern/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool(t *testing.T) {
	t.Parallel()

	t.Run("defaults to twice GOMAXPROCS", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 2*runtime.GOMAXPROCS(0), crawl.NewPool(0).Size())
		assert.Equal(t, runtime.GOMAXPROCS(0), crawl.NewCPUPool().Size())
	})

	t.Run("runs work while holding a slot", func(t *testing.T) {
		t.Parallel()

		p := crawl.NewPool(1)
		ran := false
		err := p.Do(context.Background(), func() error {
			ran = true
			return nil
		})

		require.NoError(t, err)
		assert.True(t, ran)
	})

	t.Run("gives up when the context ends while full", func(t *testing.T) {
		t.Parallel()

		// Given a pool whose only slot is taken
		p := crawl.NewPool(1)
		require.NoError(t, p.Acquire(context.Background()))
		defer p.Release()

		// When another caller waits with a short deadline
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := p.Do(ctx, func() error { return nil })

		// Then the wait fails with the context error
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
