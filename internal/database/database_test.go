package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMigratesAndSeeds(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "s13.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM question_answer_pairs`).Scan(&n))
	assert.Equal(t, 2, n)

	// Migrate is idempotent and does not seed twice.
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM question_answer_pairs`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestForeignKeysEnforced(t *testing.T) {
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "s13.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO article_media (article_id, asset_id) VALUES (99, 99)`)
	assert.Error(t, err)
}

func TestLabelsAreCaseInsensitive(t *testing.T) {
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "s13.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO api_keys (label, apikey) VALUES ('Twitter', 'a')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO api_keys (label, apikey) VALUES ('twitter', 'b')`)
	assert.Error(t, err)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "s13.db"))
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("boom")
	err = WithTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO disclaimers (title) VALUES ('x')`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM disclaimers`).Scan(&n))
	assert.Zero(t, n)
}

func TestHelpers(t *testing.T) {
	id := int64(7)
	assert.Equal(t, sql.NullInt64{Int64: 7, Valid: true}, NullInt64(&id))
	assert.False(t, NullInt64(nil).Valid)
	assert.Equal(t, &id, Int64Ptr(sql.NullInt64{Int64: 7, Valid: true}))
	assert.Nil(t, Int64Ptr(sql.NullInt64{}))
	assert.Equal(t, `%50\%\_off%`, Like("50%_off"))
}
