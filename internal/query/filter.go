package query

import "strings"

// Filter is a conjunction of field equalities. A record matches when every field is
// present and equal to its literal. The empty filter matches everything.
type Filter map[string]any

// ParseFilter checks that raw only holds field names with literal values. Logical
// keys, operator objects and arrays belong to queries, not filters.
func ParseFilter(raw map[string]any) (Filter, error) {
	f := make(Filter, len(raw))
	for _, key := range sortedKeys(raw) {
		v := raw[key]
		if strings.TrimSpace(key) == "" {
			return nil, malformed(childPath("$", key), "field name is empty")
		}
		if _, logical := logicalName(key); logical {
			return nil, malformed(childPath("$", key), "filters cannot use logical key %q; use search", key)
		}
		if !isLiteral(v) {
			return nil, malformed(childPath("$", key), "filters accept literal values only, got %s; use search for operators", kindOf(v))
		}
		f[key] = v
	}
	return f, nil
}

// Matches reports whether rec satisfies every field of the filter.
func (f Filter) Matches(rec map[string]any) bool {
	for _, key := range sortedKeys(f) {
		stored, ok := rec[key]
		if !ok || !Equal(stored, f[key]) {
			return false
		}
	}
	return true
}

// Match makes a Filter usable as a store predicate. It never fails.
func (f Filter) Match(rec map[string]any) (bool, error) {
	return f.Matches(rec), nil
}
