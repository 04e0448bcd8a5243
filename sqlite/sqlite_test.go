package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/lectern/sqlite"
	"github.com/stretchr/testify/require"
)

func TestDB_Open(t *testing.T) {
	t.Parallel()

	t.Run("creates schema on first open", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB(":memory:")
		err := db.Open()
		require.NoError(t, err)
		defer db.Close()

		ctx := context.Background()

		var books int
		err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&books)
		require.NoError(t, err)

		var chapters int
		err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chapters").Scan(&chapters)
		require.NoError(t, err)

		var version int
		err = db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version)
		require.NoError(t, err)
		require.Equal(t, 2, version)
	})

	t.Run("returns error for invalid path", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB("/nonexistent/path/db.sqlite")
		err := db.Open()
		require.Error(t, err)
	})

	t.Run("enables WAL mode for file-based databases", func(t *testing.T) {
		t.Parallel()

		dbPath := t.TempDir() + "/test.db"
		db := sqlite.NewDB(dbPath)
		err := db.Open()
		require.NoError(t, err)
		defer db.Close()

		ctx := context.Background()
		var journalMode string
		err = db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode)
		require.NoError(t, err)
		require.Equal(t, "wal", journalMode)
	})

	t.Run("refuses a schema newer than the build", func(t *testing.T) {
		t.Parallel()

		// Given a database written by a later version
		dbPath := t.TempDir() + "/future.db"
		db := sqlite.NewDB(dbPath)
		require.NoError(t, db.Open())
		_, err := db.ExecContext(context.Background(), "PRAGMA user_version = 99")
		require.NoError(t, err)
		require.NoError(t, db.Close())

		// When it is reopened
		err = sqlite.NewDB(dbPath).Open()

		// Then migration fails instead of guessing
		require.ErrorContains(t, err, "schema version 99")
	})

	t.Run("keeps data across reopen", func(t *testing.T) {
		t.Parallel()

		dbPath := t.TempDir() + "/library.db"
		ctx := context.Background()

		db := sqlite.NewDB(dbPath)
		require.NoError(t, db.Open())
		_, err := db.ExecContext(ctx, `INSERT INTO books (id, url, created_at, updated_at)
			VALUES ('b1', 'https://www.biquge.example/book/1/', '2026-03-01T00:00:00Z', '2026-03-01T00:00:00Z')`)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		db = sqlite.NewDB(dbPath)
		require.NoError(t, db.Open())
		defer db.Close()

		var n int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&n))
		require.Equal(t, 1, n)
	})
}
