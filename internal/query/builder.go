package query

import "github.com/chandan1819/nosql-mcp-server/internal/globalconst"

// And combines expression maps. Zero expressions give the empty (always true)
// mapping and a single one is returned unchanged.
func And(exprs ...map[string]any) map[string]any {
	switch len(exprs) {
	case 0:
		return map[string]any{}
	case 1:
		return exprs[0]
	}
	return map[string]any{globalconst.OpAnd: toAnySlice(exprs)}
}

// Or combines expression maps. A single expression is returned unchanged.
func Or(exprs ...map[string]any) map[string]any {
	if len(exprs) == 1 {
		return exprs[0]
	}
	return map[string]any{globalconst.OpOr: toAnySlice(exprs)}
}

// Not negates an expression map.
func Not(expr map[string]any) map[string]any {
	return map[string]any{globalconst.OpNot: expr}
}

func toAnySlice(exprs []map[string]any) []any {
	out := make([]any, len(exprs))
	for i, e := range exprs {
		out[i] = e
	}
	return out
}

// FieldBuilder builds single-field conditions.
type FieldBuilder struct {
	name string
}

// Field starts a condition on name.
func Field(name string) FieldBuilder {
	return FieldBuilder{name: name}
}

func (f FieldBuilder) op(name string, operand any) map[string]any {
	return map[string]any{f.name: map[string]any{name: operand}}
}

func (f FieldBuilder) Eq(v any) map[string]any          { return f.op(globalconst.OpEqual, v) }
func (f FieldBuilder) Ne(v any) map[string]any          { return f.op(globalconst.OpNotEqual, v) }
func (f FieldBuilder) Gt(v any) map[string]any          { return f.op(globalconst.OpGreaterThan, v) }
func (f FieldBuilder) Gte(v any) map[string]any         { return f.op(globalconst.OpGreaterThanOrEqual, v) }
func (f FieldBuilder) Lt(v any) map[string]any          { return f.op(globalconst.OpLessThan, v) }
func (f FieldBuilder) Lte(v any) map[string]any         { return f.op(globalconst.OpLessThanOrEqual, v) }
func (f FieldBuilder) Contains(s string) map[string]any { return f.op(globalconst.OpContains, s) }
func (f FieldBuilder) StartsWith(s string) map[string]any {
	return f.op(globalconst.OpStartsWith, s)
}
func (f FieldBuilder) EndsWith(s string) map[string]any { return f.op(globalconst.OpEndsWith, s) }
func (f FieldBuilder) In(vs ...any) map[string]any      { return f.op(globalconst.OpIn, vs) }
func (f FieldBuilder) NotIn(vs ...any) map[string]any   { return f.op(globalconst.OpNotIn, vs) }
func (f FieldBuilder) Exists(b bool) map[string]any     { return f.op(globalconst.OpExists, b) }

// Between matches lo <= value <= hi.
func (f FieldBuilder) Between(lo, hi any) map[string]any {
	return f.op(globalconst.OpBetween, []any{lo, hi})
}
