package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/chandan1819/nosql-mcp-server/internal/persistence"
	"github.com/chandan1819/nosql-mcp-server/internal/query"
	"github.com/chandan1819/nosql-mcp-server/internal/schema"
	"github.com/chandan1819/nosql-mcp-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	m := NewManager(store.New(), schema.MustNew(), opts...)
	m.now = func() time.Time { return time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC) }
	counts, err := m.SeedSampleData(false)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"users": 4, "tasks": 6, "products": 5}, counts)
	return m
}

func ids(recs []store.Record) []int64 {
	out := make([]int64, len(recs))
	for i, r := range recs {
		out[i], _ = r["id"].(int64)
	}
	return out
}

func TestSeedSampleData(t *testing.T) {
	m := newSeededManager(t)

	counts, err := m.SeedSampleData(false)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"users": 0, "tasks": 0, "products": 0}, counts, "non-empty collections are left alone")

	_, err = m.Create("users", store.Record{"name": "Eve", "email": "eve@example.com"})
	require.NoError(t, err)

	counts, err = m.SeedSampleData(true)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"users": 4, "tasks": 6, "products": 5}, counts)

	users, err := m.Read("users", nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(users))
}

func TestSeedSampleData_DoesNotReuseIDs(t *testing.T) {
	m := newSeededManager(t)
	everything := map[string]any{"and": []any{}}

	_, err := m.Delete("users", everything, false)
	require.NoError(t, err)
	_, err = m.Delete("tasks", everything, false)
	require.NoError(t, err)

	counts, err := m.SeedSampleData(false)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"users": 4, "tasks": 6, "products": 0}, counts)

	users, err := m.Read("users", nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6, 7, 8}, ids(users))
	assert.Equal(t, "Alice Johnson", users[0]["name"])

	// Alice's sample tasks follow her to the new id.
	tasks, exists, err := m.TasksByUser(5, "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, []int64{8, 11}, ids(tasks))
}

func TestCreate(t *testing.T) {
	m := newSeededManager(t)

	rec, err := m.Create("users", store.Record{"name": "Eve", "email": "eve@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), rec["id"])
	assert.Equal(t, "User", rec["role"])
	assert.NotEmpty(t, rec["created_at"])

	_, err = m.Create("users", store.Record{"name": "No Email"})
	assert.ErrorIs(t, err, schema.ErrValidation)

	_, err = m.Create("orders", store.Record{"name": "x"})
	assert.ErrorIs(t, err, store.ErrUnknownCollection)
}

func TestCreate_IDsAreNotReused(t *testing.T) {
	m := newSeededManager(t)

	_, err := m.Delete("products", map[string]any{"id": 5}, false)
	require.NoError(t, err)

	rec, err := m.Create("products", store.Record{"name": "Lamp", "price": 20})
	require.NoError(t, err)
	assert.Equal(t, int64(6), rec["id"])
	assert.Equal(t, float64(20), rec["price"])
}

func TestRead(t *testing.T) {
	m := newSeededManager(t)

	all, err := m.Read("products", nil)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	electronics, err := m.Read("products", map[string]any{"category": "Electronics"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 5}, ids(electronics))

	none, err := m.Read("products", map[string]any{"category": "Toys"})
	require.NoError(t, err)
	assert.Empty(t, none)

	cheap, err := m.Read("products", map[string]any{"price": map[string]any{"lt": 150}})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5}, ids(cheap))

	either, err := m.Read("products", map[string]any{"or": []any{
		map[string]any{"id": 1},
		map[string]any{"id": 2},
	}})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids(either))

	_, err = m.Read("products", map[string]any{"price": map[string]any{"bogus_op": 1}})
	assert.ErrorIs(t, err, query.ErrMalformedExpression)

	_, err = m.Read("orders", nil)
	assert.ErrorIs(t, err, store.ErrUnknownCollection)
}

func TestRead_FilterAndQueryAgree(t *testing.T) {
	m := newSeededManager(t)

	created, err := m.Create("tasks", store.Record{"title": "Unsigned", "assigned_to": uint64(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created["assigned_to"])

	byFilter, err := m.Read("tasks", map[string]any{"assigned_to": 1})
	require.NoError(t, err)
	byQuery, err := m.Search("tasks", map[string]any{"or": []any{map[string]any{"assigned_to": 1}}})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 5, 7}, ids(byFilter))
	assert.Equal(t, ids(byQuery), ids(byFilter))

	byFilter, err = m.Read("tasks", map[string]any{"assigned_to": uint64(2), "status": "pending"})
	require.NoError(t, err)
	assert.Equal(t, []int64{6}, ids(byFilter))
}

func TestCount(t *testing.T) {
	m := newSeededManager(t)

	n, err := m.Count("tasks", map[string]any{"status": "pending"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = m.Count("products", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = m.Count("products", map[string]any{"in_stock": map[string]any{"lt": 1}})
	assert.ErrorIs(t, err, query.ErrUnorderableComparison)

	_, err = m.Count("orders", nil)
	assert.ErrorIs(t, err, store.ErrUnknownCollection)
}

func TestSearch(t *testing.T) {
	m := newSeededManager(t)

	tests := []struct {
		name string
		expr map[string]any
		want []int64
	}{
		{"price and category", map[string]any{"and": []any{
			map[string]any{"price": map[string]any{"gte": 100}},
			map[string]any{"category": "Electronics"},
		}}, []int64{1, 3}},
		{"substring", map[string]any{"name": map[string]any{"contains": "key"}}, []int64{3}},
		{"or", map[string]any{"or": []any{
			map[string]any{"in_stock": false},
			map[string]any{"price": map[string]any{"lt": 100}},
		}}, []int64{3, 5}},
		{"not", map[string]any{"not": map[string]any{"category": "Electronics"}}, []int64{2, 4}},
		{"in", map[string]any{"id": map[string]any{"in": []any{2, 4, 9}}}, []int64{2, 4}},
		{"empty query", map[string]any{}, []int64{1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := m.Search("products", tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(recs))
		})
	}
}

func TestSearch_Errors(t *testing.T) {
	m := newSeededManager(t)

	_, err := m.Search("products", map[string]any{"price": map[string]any{"bogus_op": 1}})
	assert.ErrorIs(t, err, query.ErrMalformedExpression)

	_, err = m.Search("products", map[string]any{"in_stock": map[string]any{"gt": 1}})
	assert.ErrorIs(t, err, query.ErrUnorderableComparison)
}

func TestUpdate(t *testing.T) {
	m := newSeededManager(t)

	updated, err := m.Update("tasks", map[string]any{"assigned_to": 2}, store.Record{"status": "completed"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 6}, ids(updated))
	for _, rec := range updated {
		assert.Equal(t, "completed", rec["status"])
	}

	// The status index follows the change.
	completed, err := m.Read("tasks", map[string]any{"status": "completed"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 6}, ids(completed))

	none, err := m.Update("tasks", map[string]any{"assigned_to": 99}, store.Record{"status": "completed"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdate_Rejects(t *testing.T) {
	m := newSeededManager(t)

	_, err := m.Update("tasks", nil, store.Record{"status": "completed"})
	assert.ErrorIs(t, err, ErrEmptyFilter)

	_, err = m.Update("tasks", map[string]any{"id": 1}, store.Record{"id": 10})
	assert.ErrorIs(t, err, store.ErrImmutableField)

	_, err = m.Update("tasks", map[string]any{"id": 1}, store.Record{"created_at": "2020-01-01T00:00:00Z"})
	assert.ErrorIs(t, err, store.ErrImmutableField)

	_, err = m.Update("tasks", map[string]any{"id": 1}, store.Record{"status": "done"})
	assert.ErrorIs(t, err, schema.ErrValidation)

	_, err = m.Update("tasks", map[string]any{"id": map[string]any{"nope": 1}}, store.Record{"status": "pending"})
	assert.ErrorIs(t, err, query.ErrMalformedExpression)
}

func TestDelete(t *testing.T) {
	m := newSeededManager(t)

	_, err := m.Delete("products", map[string]any{}, false)
	assert.ErrorIs(t, err, ErrEmptyFilter)

	removed, err := m.Delete("products", map[string]any{"category": "Furniture"}, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4}, ids(removed))
	assert.Equal(t, "Ergonomic Office Chair", removed[0]["name"])

	left, err := m.Read("products", nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 5}, ids(left))

	removed, err = m.Delete("products", map[string]any{"category": "Furniture"}, false)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestDelete_Soft(t *testing.T) {
	m := newSeededManager(t)

	marked, err := m.Delete("users", map[string]any{"id": 3}, true)
	require.NoError(t, err)
	require.Len(t, marked, 1)

	users, err := m.Read("users", map[string]any{"deleted": true})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(3), users[0]["id"])
	assert.Equal(t, "2024-03-01T08:00:00Z", users[0]["deleted_at"])

	all, err := m.Read("users", nil)
	require.NoError(t, err)
	assert.Len(t, all, 4, "soft delete keeps the record")
}

func TestCapabilities(t *testing.T) {
	caps := NewManager(store.New(), schema.MustNew()).Capabilities()
	assert.Len(t, caps.Operators, 13)
	assert.Equal(t, []string{"and", "or", "not"}, caps.LogicalOperators)
	assert.Equal(t, []string{"users", "tasks", "products"}, caps.Collections)
	assert.Equal(t, []string{"assigned_to", "status"}, caps.Indexes["tasks"])

	// Every example must be a valid query.
	for name, example := range caps.SyntaxExamples {
		_, err := query.Parse(example.(map[string]any))
		assert.NoError(t, err, name)
	}
	for _, info := range caps.Operators {
		assert.Contains(t, caps.OperatorExamples, info.Name)
	}
	for name, example := range caps.OperatorExamples {
		_, err := query.Parse(example.(map[string]any))
		assert.NoError(t, err, name)
	}
}

func TestPersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcp_server.json")

	db, err := store.Open(persistence.NewFileStorage(path))
	require.NoError(t, err)
	m := NewManager(db, schema.MustNew())
	_, err = m.SeedSampleData(false)
	require.NoError(t, err)
	_, err = m.Create("tasks", store.Record{"title": "Ship it", "assigned_to": 3})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := store.Open(persistence.NewFileStorage(path))
	require.NoError(t, err)
	m = NewManager(reopened, schema.MustNew())

	tasks, _, err := m.TasksByUser(3, "")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 7}, ids(tasks))
}

func TestBackupAndRestore(t *testing.T) {
	_, err := NewManager(store.New(), schema.MustNew()).Backup()
	assert.ErrorIs(t, err, ErrBackupsDisabled)

	db := store.New()
	bm := persistence.NewBackupManager(db, t.TempDir(), 0, 0)
	m := NewManager(db, schema.MustNew(), WithBackups(bm))
	_, err = m.SeedSampleData(false)
	require.NoError(t, err)

	name, err := m.Backup()
	require.NoError(t, err)

	_, err = m.Delete("tasks", map[string]any{"status": "pending"}, false)
	require.NoError(t, err)
	_, err = m.Create("tasks", store.Record{"title": "After backup"})
	require.NoError(t, err)

	require.NoError(t, m.RestoreBackup(name))
	tasks, err := m.Read("tasks", nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, ids(tasks))

	names, err := m.ListBackups()
	require.NoError(t, err)
	assert.Contains(t, names, name)
}

func TestBackupStatus(t *testing.T) {
	_, err := NewManager(store.New(), schema.MustNew()).BackupStatus()
	assert.ErrorIs(t, err, ErrBackupsDisabled)

	db := store.New()
	dir := t.TempDir()
	m := NewManager(db, schema.MustNew(), WithBackups(persistence.NewBackupManager(db, dir, 0, 0)))

	status, err := m.BackupStatus()
	require.NoError(t, err)
	assert.Contains(t, status, "never been performed")
	assert.Contains(t, status, dir)

	_, err = m.Backup()
	require.NoError(t, err)
	status, err = m.BackupStatus()
	require.NoError(t, err)
	assert.Contains(t, status, "Last successful backup")
}

func TestSeedForceTakesBackup(t *testing.T) {
	db := store.New()
	bm := persistence.NewBackupManager(db, t.TempDir(), 0, 0)
	m := NewManager(db, schema.MustNew(), WithBackups(bm))

	_, err := m.SeedSampleData(true)
	require.NoError(t, err)
	names, err := bm.List()
	require.NoError(t, err)
	assert.Len(t, names, 1)
}
