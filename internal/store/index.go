package store

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/btree"
	jsoniter "github.com/json-iterator/go"
)

const btreeDegree = 32 // Degree of the B-Trees, can be tuned for performance.

// NumericKey is one value of the numeric tree and the ids of the records holding it.
type NumericKey struct {
	Value float64
	IDs   map[int64]struct{}
}

// StringKey is one value of the string tree and the ids of the records holding it.
type StringKey struct {
	Value string
	IDs   map[int64]struct{}
}

func numericLess(a, b NumericKey) bool {
	return a.Value < b.Value
}

func stringLess(a, b StringKey) bool {
	return a.Value < b.Value
}

// Index holds two B-Trees, one for each indexable value kind. Values of any other
// kind (booleans, null, nested data) are not indexed.
type Index struct {
	numericTree *btree.BTreeG[NumericKey]
	stringTree  *btree.BTreeG[StringKey]
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		numericTree: btree.NewG[NumericKey](btreeDegree, numericLess),
		stringTree:  btree.NewG[StringKey](btreeDegree, stringLess),
	}
}

// IndexManager maintains equality indexes for the fields of one table.
type IndexManager struct {
	mu      sync.RWMutex
	indexes map[string]*Index // map[fieldName] -> *Index
}

// NewIndexManager creates a new index manager.
func NewIndexManager() *IndexManager {
	return &IndexManager{
		indexes: make(map[string]*Index),
	}
}

// CreateIndex registers an empty index for field. It reports whether the index is new;
// the caller is responsible for backfilling existing records.
func (im *IndexManager) CreateIndex(field string) bool {
	im.mu.Lock()
	defer im.mu.Unlock()
	if _, exists := im.indexes[field]; exists {
		return false
	}
	im.indexes[field] = NewIndex()
	slog.Debug("B-Tree index created", "field", field)
	return true
}

// ListIndexes returns the indexed fields, sorted.
func (im *IndexManager) ListIndexes() []string {
	im.mu.RLock()
	defer im.mu.RUnlock()
	fields := make([]string, 0, len(im.indexes))
	for field := range im.indexes {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Reset empties every index but keeps the indexed field set.
func (im *IndexManager) Reset() {
	im.mu.Lock()
	defer im.mu.Unlock()
	for field := range im.indexes {
		im.indexes[field] = NewIndex()
	}
}

func (im *IndexManager) addToIndex(index *Index, id int64, value any) {
	if fVal, ok := indexFloat(value); ok {
		item, found := index.numericTree.Get(NumericKey{Value: fVal})
		if !found {
			item = NumericKey{Value: fVal, IDs: make(map[int64]struct{})}
		}
		item.IDs[id] = struct{}{}
		index.numericTree.ReplaceOrInsert(item)
	} else if sVal, ok := value.(string); ok {
		item, found := index.stringTree.Get(StringKey{Value: sVal})
		if !found {
			item = StringKey{Value: sVal, IDs: make(map[int64]struct{})}
		}
		item.IDs[id] = struct{}{}
		index.stringTree.ReplaceOrInsert(item)
	}
}

func (im *IndexManager) removeFromIndex(index *Index, id int64, value any) {
	if fVal, ok := indexFloat(value); ok {
		if item, found := index.numericTree.Get(NumericKey{Value: fVal}); found {
			delete(item.IDs, id)
			if len(item.IDs) == 0 {
				// No record holds this value any more.
				index.numericTree.Delete(item)
			} else {
				index.numericTree.ReplaceOrInsert(item)
			}
		}
	} else if sVal, ok := value.(string); ok {
		if item, found := index.stringTree.Get(StringKey{Value: sVal}); found {
			delete(item.IDs, id)
			if len(item.IDs) == 0 {
				index.stringTree.Delete(item)
			} else {
				index.stringTree.ReplaceOrInsert(item)
			}
		}
	}
}

// Update moves a record's entries from its old field values to its new ones.
// Either map may be nil (insert or delete).
func (im *IndexManager) Update(id int64, oldData, newData Record) {
	im.mu.Lock()
	defer im.mu.Unlock()

	for field, index := range im.indexes {
		oldVal, oldOk := oldData[field]
		newVal, newOk := newData[field]

		if oldOk && newOk && sameIndexValue(oldVal, newVal) {
			continue
		}
		if oldOk {
			im.removeFromIndex(index, id, oldVal)
		}
		if newOk {
			im.addToIndex(index, id, newVal)
		}
	}
}

// Remove removes a record from all indexes.
func (im *IndexManager) Remove(id int64, data Record) {
	im.Update(id, data, nil)
}

// Lookup returns the ids whose field equals value. The second result is false when
// the field is not indexed or the value kind is not indexable; the caller must then
// fall back to a scan.
func (im *IndexManager) Lookup(field string, value any) ([]int64, bool) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	index, exists := im.indexes[field]
	if !exists {
		return nil, false
	}

	var found map[int64]struct{}
	if fVal, ok := indexFloat(value); ok {
		if item, ok := index.numericTree.Get(NumericKey{Value: fVal}); ok {
			found = item.IDs
		}
	} else if sVal, ok := value.(string); ok {
		if item, ok := index.stringTree.Get(StringKey{Value: sVal}); ok {
			found = item.IDs
		}
	} else {
		return nil, false
	}

	ids := make([]int64, 0, len(found))
	for id := range found {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, true
}

// indexFloat converts numeric kinds only; numeric-looking strings stay strings so
// that "30" and 30 never collide.
func indexFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint64:
		return float64(val), true
	case jsoniter.Number:
		f, err := val.Float64()
		return f, err == nil
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func sameIndexValue(a, b any) bool {
	if fa, ok := indexFloat(a); ok {
		fb, ok := indexFloat(b)
		return ok && fa == fb
	}
	sa, ok := a.(string)
	if !ok {
		_, bIndexable := indexFloat(b)
		_, bString := b.(string)
		return !bIndexable && !bString
	}
	sb, ok := b.(string)
	return ok && sa == sb
}
