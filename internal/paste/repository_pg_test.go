package paste_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dustebin/internal/paste"
)

type noRow struct{}

func (noRow) Scan(...any) error { return pgx.ErrNoRows }

// recordingDB answers every query with no rows and records the SQL along
// with whether it ran on the pool or on a transaction.
type recordingDB struct {
	mu      sync.Mutex
	queries []string
	commits int
}

func (db *recordingDB) add(where, sql string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.queries = append(db.queries, where+": "+strings.Join(strings.Fields(sql), " "))
}

func (db *recordingDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	db.add("pool", sql)
	return pgconn.NewCommandTag("DELETE 0"), nil
}

func (db *recordingDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (db *recordingDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	db.add("pool", sql)
	return noRow{}
}

func (db *recordingDB) Begin(context.Context) (pgx.Tx, error) {
	return &recordingTx{db: db}, nil
}

type recordingTx struct {
	pgx.Tx
	db *recordingDB
}

func (tx *recordingTx) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	tx.db.add("tx", sql)
	return noRow{}
}

func (tx *recordingTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	tx.db.add("tx", sql)
	return pgconn.NewCommandTag("DELETE 1"), nil
}

func (tx *recordingTx) Commit(context.Context) error {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	tx.db.commits++
	return nil
}

func (tx *recordingTx) Rollback(context.Context) error { return nil }

func TestPGRepository_InTx(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("get outside a transaction does not lock", func(t *testing.T) {
		db := &recordingDB{}
		repo := paste.NewPGRepository(db)

		_, err := repo.Get(ctx, "abc.txt")
		assert.ErrorIs(t, err, paste.ErrNotFound)
		require.Len(t, db.queries, 1)
		assert.True(t, strings.HasPrefix(db.queries[0], "pool: SELECT"))
		assert.NotContains(t, db.queries[0], "FOR UPDATE")
	})

	t.Run("get and delete run on one locked transaction", func(t *testing.T) {
		db := &recordingDB{}
		repo := paste.NewPGRepository(db)

		err := repo.InTx(ctx, func(ctx context.Context) error {
			if _, err := repo.Get(ctx, "abc.txt"); err != paste.ErrNotFound {
				return err
			}
			return repo.Delete(ctx, "abc.txt")
		})
		require.NoError(t, err)

		require.Len(t, db.queries, 2)
		assert.True(t, strings.HasPrefix(db.queries[0], "tx: SELECT"))
		assert.True(t, strings.HasSuffix(db.queries[0], "FOR UPDATE"))
		assert.Equal(t, "tx: DELETE FROM pastes WHERE id = $1", db.queries[1])
		assert.Equal(t, 1, db.commits)
	})
}
