package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/chandan1819/nosql-mcp-server/internal/globalconst"
	"github.com/google/btree"
)

var (
	ErrImmutableField = errors.New("field is immutable")
	ErrDuplicateID    = errors.New("duplicate record id")
	ErrMissingID      = errors.New("record has no integer id")
)

// Predicate decides whether a record is selected. query.Filter and *query.Query
// both satisfy it.
type Predicate interface {
	Match(rec Record) (bool, error)
}

// PredicateFunc adapts a plain function to Predicate.
type PredicateFunc func(rec Record) (bool, error)

func (f PredicateFunc) Match(rec Record) (bool, error) { return f(rec) }

// MatchAll selects every record.
var MatchAll Predicate = PredicateFunc(func(Record) (bool, error) { return true, nil })

type row struct {
	id  int64
	rec Record
}

func rowLess(a, b row) bool {
	return a.id < b.id
}

// Table is one collection: records ordered by id in a B-Tree, a monotonic id counter
// and secondary equality indexes. Records handed out are always copies.
type Table struct {
	name    string
	mu      sync.RWMutex
	rows    *btree.BTreeG[row]
	lastID  int64
	indexes *IndexManager
	now     func() time.Time
}

// TableSnapshot is the persisted form of a table.
type TableSnapshot struct {
	LastID  int64    `json:"last_id"`
	Records []Record `json:"records"`
}

// NewTable creates an empty table with equality indexes on the given fields.
func NewTable(name string, indexedFields ...string) *Table {
	t := &Table{
		name:    name,
		rows:    btree.NewG[row](btreeDegree, rowLess),
		indexes: NewIndexManager(),
		now:     time.Now,
	}
	for _, f := range indexedFields {
		t.indexes.CreateIndex(f)
	}
	return t
}

// Name returns the collection name.
func (t *Table) Name() string {
	return t.name
}

// Len returns the number of records.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rows.Len()
}

// LastID returns the highest id ever assigned in this table.
func (t *Table) LastID() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastID
}

// Indexes lists the indexed fields.
func (t *Table) Indexes() []string {
	return t.indexes.ListIndexes()
}

// CreateIndex indexes field and backfills it from the existing records.
func (t *Table) CreateIndex(field string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.indexes.CreateIndex(field) {
		return
	}
	t.rows.Ascend(func(r row) bool {
		if v, ok := r.rec[field]; ok {
			t.indexes.Update(r.id, nil, Record{field: v})
		}
		return true
	})
	slog.Info("Index created", "collection", t.name, "field", field)
}

// Insert stores a copy of fields under the next id and stamps created_at.
// Caller-supplied id or created_at values are replaced.
func (t *Table) Insert(fields Record) Record {
	rec, _ := Normalize(CloneRecord(fields)).(map[string]any)
	if rec == nil {
		rec = Record{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastID++
	rec[globalconst.ID] = t.lastID
	rec[globalconst.CREATED_AT] = t.now().UTC().Format(globalconst.TimestampLayout)
	t.rows.ReplaceOrInsert(row{id: t.lastID, rec: rec})
	t.indexes.Update(t.lastID, nil, rec)

	slog.Debug("Record inserted", "collection", t.name, "id", t.lastID)
	return CloneRecord(rec)
}

// Restore puts a previously persisted record back as-is. The id counter is raised
// to cover it.
func (t *Table) Restore(rec Record) error {
	rec, _ = Normalize(CloneRecord(rec)).(map[string]any)
	id, ok := recordID(rec, globalconst.ID)
	if !ok {
		return ErrMissingID
	}
	rec[globalconst.ID] = id

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.rows.Get(row{id: id}); exists {
		return fmt.Errorf("%w: %s/%d", ErrDuplicateID, t.name, id)
	}
	t.rows.ReplaceOrInsert(row{id: id, rec: rec})
	t.indexes.Update(id, nil, rec)
	if id > t.lastID {
		t.lastID = id
	}
	return nil
}

// Get returns a copy of the record with the given id.
func (t *Table) Get(id int64) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.rows.Get(row{id: id})
	if !ok {
		return nil, false
	}
	return CloneRecord(r.rec), true
}

// All returns copies of every record in id order.
func (t *Table) All() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Record, 0, t.rows.Len())
	t.rows.Ascend(func(r row) bool {
		out = append(out, CloneRecord(r.rec))
		return true
	})
	return out
}

// Select returns copies of the records satisfying pred, in id order. The first
// predicate error aborts the scan.
func (t *Table) Select(pred Predicate) ([]Record, error) {
	return t.SelectEq(nil, pred)
}

// SelectEq is Select with equality hints: every selected record must hold these
// field values. Indexed hints narrow the candidate set; pred is still applied to
// each candidate, so hints never change the result, only the cost.
func (t *Table) SelectEq(hints map[string]any, pred Predicate) ([]Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rows, err := t.matchLocked(hints, pred)
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = CloneRecord(r.rec)
	}
	return out, nil
}

// Count returns how many records satisfy pred. Hints work as in SelectEq.
func (t *Table) Count(hints map[string]any, pred Predicate) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rows, err := t.matchLocked(hints, pred)
	return len(rows), err
}

// UpdateSelected overwrites the given fields on every record satisfying pred and
// returns how many were changed. Fields not named in changes are preserved.
// The predicate runs over all records before anything is written, so an error
// leaves the table unchanged.
func (t *Table) UpdateSelected(pred Predicate, changes Record) (int, error) {
	for _, f := range []string{globalconst.ID, globalconst.CREATED_AT} {
		if _, ok := changes[f]; ok {
			return 0, fmt.Errorf("%w: %s", ErrImmutableField, f)
		}
	}
	normalized, _ := Normalize(CloneRecord(changes)).(map[string]any)

	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.matchLocked(nil, pred)
	if err != nil {
		return 0, err
	}
	for _, r := range rows {
		updated := CloneRecord(r.rec)
		for k, v := range normalized {
			updated[k] = cloneValue(v)
		}
		t.rows.ReplaceOrInsert(row{id: r.id, rec: updated})
		t.indexes.Update(r.id, r.rec, updated)
	}
	if len(rows) > 0 {
		slog.Debug("Records updated", "collection", t.name, "count", len(rows))
	}
	return len(rows), nil
}

// DeleteSelected removes every record satisfying pred and returns how many were
// removed. Like UpdateSelected it evaluates everything first.
func (t *Table) DeleteSelected(pred Predicate) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.matchLocked(nil, pred)
	if err != nil {
		return 0, err
	}
	for _, r := range rows {
		t.rows.Delete(r)
		t.indexes.Remove(r.id, r.rec)
	}
	if len(rows) > 0 {
		slog.Debug("Records deleted", "collection", t.name, "count", len(rows))
	}
	return len(rows), nil
}

// Truncate removes all records and resets the id counter.
func (t *Table) Truncate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows.Clear(false)
	t.indexes.Reset()
	t.lastID = 0
	slog.Debug("Collection truncated", "collection", t.name)
}

// Snapshot captures the table for persistence.
func (t *Table) Snapshot() TableSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap := TableSnapshot{LastID: t.lastID, Records: make([]Record, 0, t.rows.Len())}
	t.rows.Ascend(func(r row) bool {
		snap.Records = append(snap.Records, CloneRecord(r.rec))
		return true
	})
	return snap
}

// Load replaces the table contents with a snapshot.
func (t *Table) Load(snap TableSnapshot) error {
	t.Truncate()
	for _, rec := range snap.Records {
		if err := t.Restore(rec); err != nil {
			return err
		}
	}
	t.mu.Lock()
	if snap.LastID > t.lastID {
		t.lastID = snap.LastID
	}
	t.mu.Unlock()
	return nil
}

// matchLocked returns the matching rows in id order. Caller holds t.mu.
func (t *Table) matchLocked(hints map[string]any, pred Predicate) ([]row, error) {
	if pred == nil {
		pred = MatchAll
	}
	var matched []row
	visit := func(r row) error {
		ok, err := pred.Match(r.rec)
		if err != nil {
			return err
		}
		if ok {
			matched = append(matched, r)
		}
		return nil
	}

	if ids, ok := t.candidatesLocked(hints); ok {
		for _, id := range ids {
			r, found := t.rows.Get(row{id: id})
			if !found {
				continue
			}
			if err := visit(r); err != nil {
				return nil, err
			}
		}
		return matched, nil
	}

	var scanErr error
	t.rows.Ascend(func(r row) bool {
		scanErr = visit(r)
		return scanErr == nil
	})
	if scanErr != nil {
		return nil, scanErr
	}
	return matched, nil
}

// candidatesLocked intersects the index lookups of all indexable hints. The second
// result is false when no hint could use an index.
func (t *Table) candidatesLocked(hints map[string]any) ([]int64, bool) {
	var result map[int64]struct{}
	used := false
	for field, value := range hints {
		ids, ok := t.indexes.Lookup(field, value)
		if !ok {
			continue
		}
		set := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			if !used {
				set[id] = struct{}{}
			} else if _, keep := result[id]; keep {
				set[id] = struct{}{}
			}
		}
		result = set
		used = true
	}
	if !used {
		return nil, false
	}
	ids := make([]int64, 0, len(result))
	for id := range result {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, true
}
