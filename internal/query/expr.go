package query

// Expr is a parsed query expression. The set of implementations is closed:
// *Condition, *AndExpr, *OrExpr and *NotExpr.
type Expr interface {
	exprNode()
}

// Clause is one operator applied to a field.
type Clause struct {
	Op      Operator
	Operand any
	path    string
}

// Condition holds every clause for one field; all of them must hold.
type Condition struct {
	Field   string
	Clauses []Clause
}

// AndExpr is true when all children are true. An empty AndExpr is true.
type AndExpr struct {
	Exprs []Expr
}

// OrExpr is true when any child is true. An empty OrExpr is false.
type OrExpr struct {
	Exprs []Expr
}

// NotExpr negates its child.
type NotExpr struct {
	Expr Expr
}

func (*Condition) exprNode() {}
func (*AndExpr) exprNode()   {}
func (*OrExpr) exprNode()    {}
func (*NotExpr) exprNode()   {}

// Query is a parsed, reusable expression.
type Query struct {
	root Expr
}

// Match evaluates the query against one record. It makes a Query usable as a
// store predicate.
func (q *Query) Match(rec map[string]any) (bool, error) {
	return Evaluate(rec, q.root)
}

// EqualityTerms returns the top-level equality constraints of the query: those that
// every matching record must satisfy. Callers use them to narrow candidates through
// an index before running the full predicate.
func (q *Query) EqualityTerms() map[string]any {
	terms := make(map[string]any)
	var collect func(e Expr)
	collect = func(e Expr) {
		switch n := e.(type) {
		case *Condition:
			for _, c := range n.Clauses {
				if c.Op == OpEq && isLiteral(c.Operand) && c.Operand != nil {
					terms[n.Field] = c.Operand
				}
			}
		case *AndExpr:
			for _, child := range n.Exprs {
				collect(child)
			}
		}
	}
	collect(q.root)
	return terms
}
