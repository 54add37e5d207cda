package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPersister struct {
	saved   map[string]TableSnapshot
	saves   int
	loadErr error
}

func (m *memPersister) Load() (map[string]TableSnapshot, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.saved, nil
}

func (m *memPersister) Save(tables map[string]TableSnapshot) error {
	m.saved = tables
	m.saves++
	return nil
}

func TestDB_Collection(t *testing.T) {
	db := New()
	for _, name := range []string{"users", "tasks", "products"} {
		tbl, err := db.Collection(name)
		require.NoError(t, err)
		assert.Equal(t, name, tbl.Name())
	}

	_, err := db.Collection("orders")
	assert.ErrorIs(t, err, ErrUnknownCollection)

	tasks, _ := db.Collection("tasks")
	assert.Equal(t, []string{"assigned_to", "status"}, tasks.Indexes())
}

func TestDB_SaveAndReopen(t *testing.T) {
	p := &memPersister{}
	db, err := Open(p)
	require.NoError(t, err)

	users, _ := db.Collection("users")
	users.Insert(Record{"name": "Alice", "email": "alice@example.com"})
	require.NoError(t, db.Save())
	require.NoError(t, db.Close())
	assert.Equal(t, 2, p.saves)

	reopened, err := Open(p)
	require.NoError(t, err)
	users, _ = reopened.Collection("users")
	rec, ok := users.Get(1)
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", rec["email"])
}

func TestDB_OpenFailsOnLoadError(t *testing.T) {
	_, err := Open(&memPersister{loadErr: errors.New("disk gone")})
	assert.Error(t, err)
}

func TestDB_SaveWithoutPersister(t *testing.T) {
	assert.NoError(t, New().Save())
}

func TestDecodeRecord(t *testing.T) {
	rec, err := DecodeRecord([]byte(`{"age": 30, "price": 9.5, "big": 1e3, "tags": [1, "a"], "nested": {"n": 2}}`))
	require.NoError(t, err)
	assert.Equal(t, int64(30), rec["age"])
	assert.Equal(t, 9.5, rec["price"])
	assert.Equal(t, float64(1000), rec["big"])
	assert.Equal(t, []any{int64(1), "a"}, rec["tags"])
	assert.Equal(t, map[string]any{"n": int64(2)}, rec["nested"])

	_, err = DecodeRecord([]byte(`[1,2]`))
	assert.Error(t, err)
}
