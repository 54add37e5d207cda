package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chandan1819/nosql-mcp-server/internal/globalconst"
)

// Parse validates a query mapping and builds its expression tree. Every structural
// problem is reported here, before any record is touched.
//
// Grammar:
//
//	expr      := {"and": [expr...]} | {"or": [expr...]} | {"not": expr} | {field: leaf, ...}
//	leaf      := literal | {operator: operand, ...}
//
// Logical keys may carry a "$" prefix. Several keys in one mapping are AND-ed.
func Parse(raw map[string]any) (*Query, error) {
	root, err := parseObject(raw, "$")
	if err != nil {
		return nil, err
	}
	return &Query{root: root}, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func childPath(path, key string) string {
	return path + "." + key
}

func parseObject(obj map[string]any, path string) (Expr, error) {
	if len(obj) == 0 {
		return &AndExpr{}, nil
	}
	keys := sortedKeys(obj)
	parts := make([]Expr, 0, len(keys))
	for _, key := range keys {
		e, err := parseEntry(key, obj[key], path)
		if err != nil {
			return nil, err
		}
		parts = append(parts, e)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return &AndExpr{Exprs: parts}, nil
}

// logicalName returns the logical operator a key names, if any. A "$"-prefixed key
// is always logical; unknown ones are reported by parseEntry.
func logicalName(key string) (string, bool) {
	if strings.HasPrefix(key, globalconst.LogicalPrefix) {
		return strings.ToLower(strings.TrimPrefix(key, globalconst.LogicalPrefix)), true
	}
	switch key {
	case globalconst.OpAnd, globalconst.OpOr, globalconst.OpNot:
		return key, true
	}
	return key, false
}

func parseEntry(key string, val any, path string) (Expr, error) {
	p := childPath(path, key)
	name, logical := logicalName(key)
	if logical {
		switch name {
		case globalconst.OpAnd, globalconst.OpOr, globalconst.OpNot:
		default:
			return nil, malformed(p, "unknown logical operator %q", key)
		}
	}

	switch name {
	case globalconst.OpAnd:
		children, err := parseList(val, p)
		if err != nil {
			return nil, err
		}
		return &AndExpr{Exprs: children}, nil
	case globalconst.OpOr:
		children, err := parseList(val, p)
		if err != nil {
			return nil, err
		}
		return &OrExpr{Exprs: children}, nil
	case globalconst.OpNot:
		child, err := parseNot(val, p)
		if err != nil {
			return nil, err
		}
		return &NotExpr{Expr: child}, nil
	}

	if strings.TrimSpace(key) == "" {
		return nil, malformed(p, "field name is empty")
	}
	return parseCondition(key, val, p)
}

func parseList(val any, path string) ([]Expr, error) {
	items, ok := toList(val)
	if !ok {
		return nil, malformed(path, "expected an array of expressions, got %s", kindOf(val))
	}
	out := make([]Expr, 0, len(items))
	for i, item := range items {
		ip := fmt.Sprintf("%s[%d]", path, i)
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, malformed(ip, "expected an object, got %s", kindOf(item))
		}
		e, err := parseObject(obj, ip)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func parseNot(val any, path string) (Expr, error) {
	if obj, ok := val.(map[string]any); ok {
		return parseObject(obj, path)
	}
	if items, ok := toList(val); ok {
		if len(items) != 1 {
			return nil, malformed(path, "not takes exactly one expression, got %d", len(items))
		}
		obj, ok := items[0].(map[string]any)
		if !ok {
			return nil, malformed(path+"[0]", "expected an object, got %s", kindOf(items[0]))
		}
		return parseObject(obj, path+"[0]")
	}
	return nil, malformed(path, "not takes one expression object, got %s", kindOf(val))
}

func parseCondition(field string, val any, path string) (Expr, error) {
	ops, isOps := val.(map[string]any)
	if !isOps {
		switch kindOf(val) {
		case kindArray:
			return nil, malformed(path, "an array is not a valid literal; use the in operator")
		case kindNil, kindBool, kindNumber, kindString:
			return &Condition{Field: field, Clauses: []Clause{{Op: OpEq, Operand: val, path: path}}}, nil
		default:
			return nil, malformed(path, "unsupported literal of type %T", val)
		}
	}
	if len(ops) == 0 {
		return nil, malformed(path, "operator object is empty")
	}

	cond := &Condition{Field: field, Clauses: make([]Clause, 0, len(ops))}
	for _, name := range sortedKeys(ops) {
		op, ok := LookupOperator(name)
		if !ok {
			return nil, malformed(childPath(path, name), "unknown operator %q", name)
		}
		clause, err := parseClause(op, ops[name], childPath(path, name))
		if err != nil {
			return nil, err
		}
		cond.Clauses = append(cond.Clauses, clause)
	}
	return cond, nil
}

func parseClause(op Operator, operand any, path string) (Clause, error) {
	switch op {
	case OpEq, OpNe:
		if k := kindOf(operand); k == kindOther {
			return Clause{}, malformed(path, "unsupported operand of type %T", operand)
		}
	case OpGt, OpGte, OpLt, OpLte:
		if !isOrderable(operand) {
			return Clause{}, malformed(path, "%s needs a number or string operand, got %s", op, kindOf(operand))
		}
	case OpContains, OpStartsWith, OpEndsWith:
		if _, ok := operand.(string); !ok {
			return Clause{}, malformed(path, "%s needs a string operand, got %s", op, kindOf(operand))
		}
	case OpIn, OpNotIn:
		list, ok := toList(operand)
		if !ok {
			return Clause{}, malformed(path, "%s needs an array operand, got %s", op, kindOf(operand))
		}
		operand = list
	case OpExists:
		if _, ok := operand.(bool); !ok {
			return Clause{}, malformed(path, "exists needs a boolean operand, got %s", kindOf(operand))
		}
	case OpBetween:
		list, ok := toList(operand)
		if !ok || len(list) != 2 {
			return Clause{}, malformed(path, "between needs a [low, high] array")
		}
		if _, ok := compareOrdered(list[0], list[1]); !ok {
			return Clause{}, malformed(path, "between bounds must both be numbers or both be strings")
		}
		operand = list
	}
	return Clause{Op: op, Operand: operand, path: path}, nil
}
