package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionsDDL = `CREATE TABLE conversation_sessions (
	conversation_id INTEGER PRIMARY KEY,
	payload TEXT NOT NULL,
	version INTEGER NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(sessionsDDL)
	require.NoError(t, err)
	return NewSQLStore(db)
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store { return newSQLiteStore(t) },
	}
	for name, mk := range stores {
		t.Run(name, func(t *testing.T) {
			t.Run("missing session is fresh", func(t *testing.T) {
				s, err := mk(t).Load(context.Background(), 1)
				require.NoError(t, err)
				assert.Equal(t, 0, s.Depth())
				assert.Equal(t, int64(0), s.Version)
			})
			t.Run("save and load", func(t *testing.T) { testSaveLoad(t, mk(t)) })
			t.Run("version conflict", func(t *testing.T) { testConflict(t, mk(t)) })
			t.Run("delete", func(t *testing.T) { testDelete(t, mk(t)) })
		})
	}
}

func testSaveLoad(t *testing.T, st Store) {
	ctx := context.Background()
	s, err := st.Load(ctx, 42)
	require.NoError(t, err)
	push(s, menu)
	push(s, pcList)
	push(s, enterPr)
	s.SetLocal("pending_item_id", int64(9007199254740993))
	require.NoError(t, st.Save(ctx, 42, s))
	assert.Equal(t, int64(1), s.Version)
	assert.False(t, s.Dirty())

	got, err := st.Load(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, 3, got.Depth())
	assert.True(t, got.Stack[1].Equal(pcList))
	assert.Equal(t, waitingForPrice, got.CurrentState())
	id, ok := got.GetTempInt64("pending_item_id")
	assert.True(t, ok)
	assert.Equal(t, int64(9007199254740993), id)
	assert.Equal(t, []string{"pending_item_id"}, got.Local)

	got.PopAndRestore()
	require.NoError(t, st.Save(ctx, 42, got))
	assert.Equal(t, int64(2), got.Version)
}

func testConflict(t *testing.T, st Store) {
	ctx := context.Background()
	first, err := st.Load(ctx, 7)
	require.NoError(t, err)
	second, err := st.Load(ctx, 7)
	require.NoError(t, err)

	push(first, menu)
	require.NoError(t, st.Save(ctx, 7, first))

	push(second, pcList)
	assert.ErrorIs(t, st.Save(ctx, 7, second), ErrConflict)

	push(first, pcList)
	assert.NoError(t, st.Save(ctx, 7, first))
}

func testDelete(t *testing.T, st Store) {
	ctx := context.Background()
	s, err := st.Load(ctx, 3)
	require.NoError(t, err)
	push(s, menu)
	require.NoError(t, st.Save(ctx, 3, s))
	require.NoError(t, st.Delete(ctx, 3))

	got, err := st.Load(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Depth())
}

func TestDecodeCorrupt(t *testing.T) {
	s, err := Decode([]byte(`{"stack":[{"text":"x","keyboard":"oops"}]}`), 4)
	assert.ErrorIs(t, err, ErrCorrupt)
	require.NotNil(t, s)
	assert.Equal(t, int64(4), s.Version)
	assert.Equal(t, 0, s.Depth())
}

func TestDecodeEmptyPayload(t *testing.T) {
	s, err := Decode(nil, 0)
	require.NoError(t, err)
	assert.NotNil(t, s.Scratch)
}
