package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chandan1819/nosql-mcp-server/internal/globalconst"
)

var ErrUnknownCollection = errors.New("unknown collection")

// Persister loads and saves table snapshots. Load returns an empty map when nothing
// has been saved yet.
type Persister interface {
	Load() (map[string]TableSnapshot, error)
	Save(tables map[string]TableSnapshot) error
}

// DefaultIndexes are the equality indexes created for each collection.
var DefaultIndexes = map[string][]string{
	globalconst.CollectionUsers:    {"email"},
	globalconst.CollectionTasks:    {"assigned_to", "status"},
	globalconst.CollectionProducts: {"category"},
}

// DB is the handle over the fixed collection set.
type DB struct {
	tables    map[string]*Table
	persister Persister
	saveMu    sync.Mutex
}

// New creates an in-memory database with no persistence.
func New() *DB {
	db := &DB{tables: make(map[string]*Table, len(globalconst.Collections))}
	for _, name := range globalconst.Collections {
		db.tables[name] = NewTable(name, DefaultIndexes[name]...)
	}
	return db
}

// Open creates a database backed by p and loads whatever p has saved.
func Open(p Persister) (*DB, error) {
	db := New()
	db.persister = p
	if p == nil {
		return db, nil
	}

	snaps, err := p.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	total := 0
	for name, snap := range snaps {
		t, ok := db.tables[name]
		if !ok {
			slog.Warn("Ignoring unknown collection in data file", "collection", name)
			continue
		}
		if err := t.Load(snap); err != nil {
			return nil, fmt.Errorf("failed to load collection %s: %w", name, err)
		}
		total += t.Len()
	}
	slog.Info("Database opened", "records", total)
	return db, nil
}

// Collection returns the table for name.
func (db *DB) Collection(name string) (*Table, error) {
	t, ok := db.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid: users, tasks, products)", ErrUnknownCollection, name)
	}
	return t, nil
}

// Tables returns the tables in the fixed collection order.
func (db *DB) Tables() []*Table {
	out := make([]*Table, 0, len(globalconst.Collections))
	for _, name := range globalconst.Collections {
		out = append(out, db.tables[name])
	}
	return out
}

// Snapshot captures every table.
func (db *DB) Snapshot() map[string]TableSnapshot {
	snaps := make(map[string]TableSnapshot, len(db.tables))
	for name, t := range db.tables {
		snaps[name] = t.Snapshot()
	}
	return snaps
}

// Save writes all tables through the persister. Without one it is a no-op.
func (db *DB) Save() error {
	if db.persister == nil {
		return nil
	}
	db.saveMu.Lock()
	defer db.saveMu.Unlock()
	if err := db.persister.Save(db.Snapshot()); err != nil {
		return fmt.Errorf("failed to save data: %w", err)
	}
	return nil
}

// Close flushes the data to disk.
func (db *DB) Close() error {
	return db.Save()
}
