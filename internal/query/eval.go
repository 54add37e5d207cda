package query

import "strings"

// Evaluate decides whether rec satisfies e. It never mutates rec.
func Evaluate(rec map[string]any, e Expr) (bool, error) {
	switch n := e.(type) {
	case *AndExpr:
		for _, child := range n.Exprs {
			ok, err := Evaluate(rec, child)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case *OrExpr:
		for _, child := range n.Exprs {
			ok, err := Evaluate(rec, child)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case *NotExpr:
		ok, err := Evaluate(rec, n.Expr)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case *Condition:
		stored, present := rec[n.Field]
		for _, c := range n.Clauses {
			ok, err := evalClause(n.Field, stored, present, c)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case nil:
		return true, nil
	default:
		return false, malformed("$", "unsupported expression node %T", e)
	}
}

func evalClause(field string, stored any, present bool, c Clause) (bool, error) {
	if c.Op == OpExists {
		return present == c.Operand.(bool), nil
	}
	if !present {
		return false, nil
	}

	switch c.Op {
	case OpEq:
		return Equal(stored, c.Operand), nil
	case OpNe:
		return !Equal(stored, c.Operand), nil
	case OpGt, OpGte, OpLt, OpLte:
		cmp, err := ordered(field, stored, c.Operand, c.path)
		if err != nil {
			return false, err
		}
		switch c.Op {
		case OpGt:
			return cmp > 0, nil
		case OpGte:
			return cmp >= 0, nil
		case OpLt:
			return cmp < 0, nil
		default:
			return cmp <= 0, nil
		}
	case OpBetween:
		bounds := c.Operand.([]any)
		lo, err := ordered(field, stored, bounds[0], c.path)
		if err != nil {
			return false, err
		}
		hi, err := ordered(field, stored, bounds[1], c.path)
		if err != nil {
			return false, err
		}
		return lo >= 0 && hi <= 0, nil
	case OpContains, OpStartsWith, OpEndsWith:
		s, ok := stored.(string)
		if !ok {
			return false, nil
		}
		s = strings.ToLower(s)
		sub := strings.ToLower(c.Operand.(string))
		switch c.Op {
		case OpContains:
			return strings.Contains(s, sub), nil
		case OpStartsWith:
			return strings.HasPrefix(s, sub), nil
		default:
			return strings.HasSuffix(s, sub), nil
		}
	case OpIn, OpNotIn:
		found := false
		for _, candidate := range c.Operand.([]any) {
			if Equal(stored, candidate) {
				found = true
				break
			}
		}
		if c.Op == OpIn {
			return found, nil
		}
		return !found, nil
	}
	return false, malformed(c.path, "unsupported operator %s", c.Op)
}

// ordered compares a stored value with an operand for the ordered operators.
func ordered(field string, stored, operand any, path string) (int, error) {
	if !isOrderable(stored) {
		return 0, unorderable(path, "field %q holds a %s value %s, which has no order", field, kindOf(stored), describe(stored))
	}
	cmp, ok := compareOrdered(stored, operand)
	if !ok {
		return 0, unorderable(path, "cannot compare %s field %q with %s operand %s",
			kindOf(stored), field, kindOf(operand), describe(operand))
	}
	return cmp, nil
}
