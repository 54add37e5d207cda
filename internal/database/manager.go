// Package database implements the record operations exposed to clients on top of
// the store: validated creation, filtered reads, updates, deletes and searches,
// plus the task/user relationship queries and the sample data set.
package database

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chandan1819/nosql-mcp-server/internal/globalconst"
	"github.com/chandan1819/nosql-mcp-server/internal/persistence"
	"github.com/chandan1819/nosql-mcp-server/internal/query"
	"github.com/chandan1819/nosql-mcp-server/internal/schema"
	"github.com/chandan1819/nosql-mcp-server/internal/store"
)

var (
	// ErrEmptyFilter is returned by Update and Delete when no filter is given; an
	// operation on every record must be asked for with an explicit expression.
	ErrEmptyFilter = errors.New("filters are required for this operation")
	// ErrInvalidArgument marks a bad scalar argument such as a non-positive user id.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrBackupsDisabled is returned by backup operations when no backup manager is set.
	ErrBackupsDisabled = errors.New("backups are not configured")
)

// DefaultBulkDeleteWarning is the number of records above which a delete is logged
// as a warning.
const DefaultBulkDeleteWarning = 10

// Manager runs record operations against a store.DB and saves after each change.
type Manager struct {
	db                *store.DB
	validator         *schema.Validator
	backups           *persistence.BackupManager
	bulkDeleteWarning int
	now               func() time.Time
}

// Option customises a Manager.
type Option func(*Manager)

// WithBackups enables Backup, RestoreBackup and the safety backup taken before a
// forced re-seed.
func WithBackups(bm *persistence.BackupManager) Option {
	return func(m *Manager) { m.backups = bm }
}

// WithBulkDeleteWarning sets the delete count above which a warning is logged.
func WithBulkDeleteWarning(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.bulkDeleteWarning = n
		}
	}
}

// NewManager creates a manager over db.
func NewManager(db *store.DB, validator *schema.Validator, opts ...Option) *Manager {
	m := &Manager{
		db:                db,
		validator:         validator,
		bulkDeleteWarning: DefaultBulkDeleteWarning,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DB returns the underlying database handle.
func (m *Manager) DB() *store.DB {
	return m.db
}

// Create validates data, applies defaults and inserts it with a fresh id.
func (m *Manager) Create(collection string, data store.Record) (store.Record, error) {
	t, err := m.db.Collection(collection)
	if err != nil {
		return nil, err
	}
	rec, err := m.validator.ValidateCreate(collection, data)
	if err != nil {
		return nil, err
	}
	created := t.Insert(rec)
	if err := m.db.Save(); err != nil {
		return nil, err
	}
	slog.Info("Record created", "collection", collection, "id", created[globalconst.ID])
	return created, nil
}

// Read returns the records matching filters, or every record when filters is empty.
// Plain field/value pairs run through the equality filter matcher; anything else
// (operators, logical keys) is evaluated as a query.
func (m *Manager) Read(collection string, filters map[string]any) ([]store.Record, error) {
	t, err := m.db.Collection(collection)
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return t.All(), nil
	}
	if f, err := query.ParseFilter(filters); err == nil {
		return t.SelectEq(f, f)
	}
	return m.selectMatching(t, filters)
}

// Search evaluates a query expression over a collection. An empty query matches
// every record.
func (m *Manager) Search(collection string, expr map[string]any) ([]store.Record, error) {
	t, err := m.db.Collection(collection)
	if err != nil {
		return nil, err
	}
	recs, err := m.selectMatching(t, expr)
	if err != nil {
		return nil, err
	}
	slog.Info("Search completed", "collection", collection, "count", len(recs))
	return recs, nil
}

// Update applies updates to every record matching filters and returns the updated
// records.
func (m *Manager) Update(collection string, filters map[string]any, updates store.Record) ([]store.Record, error) {
	t, err := m.db.Collection(collection)
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return nil, ErrEmptyFilter
	}
	for _, f := range []string{globalconst.ID, globalconst.CREATED_AT} {
		if _, ok := updates[f]; ok {
			return nil, fmt.Errorf("%w: %s", store.ErrImmutableField, f)
		}
	}
	validated, err := m.validator.ValidateUpdate(collection, updates)
	if err != nil {
		return nil, err
	}

	matched, err := m.selectMatching(t, filters)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return []store.Record{}, nil
	}

	ids := idSet(matched)
	n, err := t.UpdateSelected(byID(ids), validated)
	if err != nil {
		return nil, err
	}
	if err := m.db.Save(); err != nil {
		return nil, err
	}

	updated := make([]store.Record, 0, n)
	for _, rec := range matched {
		id, _ := rec[globalconst.ID].(int64)
		if fresh, ok := t.Get(id); ok {
			updated = append(updated, fresh)
		}
	}
	slog.Info("Records updated", "collection", collection, "count", n)
	return updated, nil
}

// Delete removes the records matching filters and returns them as they were before
// removal. With soft set, records are kept and marked deleted instead.
func (m *Manager) Delete(collection string, filters map[string]any, soft bool) ([]store.Record, error) {
	t, err := m.db.Collection(collection)
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return nil, ErrEmptyFilter
	}

	matched, err := m.selectMatching(t, filters)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return []store.Record{}, nil
	}
	if len(matched) > m.bulkDeleteWarning {
		slog.Warn("Bulk delete", "collection", collection, "count", len(matched), "soft", soft)
	}

	pred := byID(idSet(matched))
	if soft {
		marks := store.Record{
			globalconst.DELETED_FLAG: true,
			globalconst.DELETED_AT:   m.now().UTC().Format(globalconst.TimestampLayout),
		}
		_, err = t.UpdateSelected(pred, marks)
	} else {
		_, err = t.DeleteSelected(pred)
	}
	if err != nil {
		return nil, err
	}
	if err := m.db.Save(); err != nil {
		return nil, err
	}
	slog.Info("Records deleted", "collection", collection, "count", len(matched), "soft", soft)
	return matched, nil
}

// Count returns how many records in collection match expr without copying them.
func (m *Manager) Count(collection string, expr map[string]any) (int, error) {
	t, err := m.db.Collection(collection)
	if err != nil {
		return 0, err
	}
	q, err := query.Parse(expr)
	if err != nil {
		return 0, err
	}
	return t.Count(q.EqualityTerms(), q)
}

func (m *Manager) selectMatching(t *store.Table, expr map[string]any) ([]store.Record, error) {
	q, err := query.Parse(expr)
	if err != nil {
		return nil, err
	}
	if terms := q.EqualityTerms(); len(terms) > 0 {
		return t.SelectEq(terms, q)
	}
	return t.Select(q)
}

func idSet(recs []store.Record) map[int64]struct{} {
	ids := make(map[int64]struct{}, len(recs))
	for _, rec := range recs {
		if id, ok := rec[globalconst.ID].(int64); ok {
			ids[id] = struct{}{}
		}
	}
	return ids
}

func byID(ids map[int64]struct{}) store.Predicate {
	return store.PredicateFunc(func(rec store.Record) (bool, error) {
		id, ok := rec[globalconst.ID].(int64)
		if !ok {
			return false, nil
		}
		_, hit := ids[id]
		return hit, nil
	})
}

// Backup writes a backup of all collections and returns its name.
func (m *Manager) Backup() (string, error) {
	if m.backups == nil {
		return "", ErrBackupsDisabled
	}
	return m.backups.PerformBackup()
}

// ListBackups returns the available backup names, oldest first.
func (m *Manager) ListBackups() ([]string, error) {
	if m.backups == nil {
		return nil, ErrBackupsDisabled
	}
	return m.backups.List()
}

// BackupStatus describes the backup directory and the last backup taken by this
// process.
func (m *Manager) BackupStatus() (string, error) {
	if m.backups == nil {
		return "", ErrBackupsDisabled
	}
	return fmt.Sprintf("%s (%s)", m.backups.GetBackupStatus(), m.backups.Dir()), nil
}

// RestoreBackup replaces every collection with the contents of the named backup.
func (m *Manager) RestoreBackup(name string) error {
	if m.backups == nil {
		return ErrBackupsDisabled
	}
	snaps, err := m.backups.Load(name)
	if err != nil {
		return err
	}
	for _, t := range m.db.Tables() {
		if err := t.Load(snaps[t.Name()]); err != nil {
			return fmt.Errorf("failed to restore %s: %w", t.Name(), err)
		}
	}
	if err := m.db.Save(); err != nil {
		return err
	}
	slog.Info("Backup restored", "name", name)
	return nil
}
