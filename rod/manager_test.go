//go:build integration

package rod_test

import (
	"testing"

	"github.com/fwojciec/lectern"
	"github.com/fwojciec/lectern/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserManager_RecyclesBrowserAfterMaxPages(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(rod.WithMaxPages(3))
	require.NoError(t, err)
	defer manager.Close()

	first, err := manager.Browser()
	require.NoError(t, err)

	manager.IncrementPageCount()
	manager.IncrementPageCount()
	manager.IncrementPageCount()

	second, err := manager.Browser()
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, int64(1), manager.Recycles())
}

func TestBrowserManager_DoesNotRecycleBeforeMaxPages(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(rod.WithMaxPages(5))
	require.NoError(t, err)
	defer manager.Close()

	first, err := manager.Browser()
	require.NoError(t, err)

	manager.IncrementPageCount()
	manager.IncrementPageCount()

	same, err := manager.Browser()
	require.NoError(t, err)
	assert.Same(t, first, same)
	assert.Zero(t, manager.Recycles())
}

func TestBrowserManager_BrowserAfterClose(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager()
	require.NoError(t, err)
	require.NoError(t, manager.Close())

	_, err = manager.Browser()

	assert.Equal(t, lectern.EINVALID, lectern.ErrorCode(err))
}
