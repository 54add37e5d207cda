package query

import (
	"sort"
	"strings"

	"github.com/chandan1819/nosql-mcp-server/internal/globalconst"
)

// Operator is the normalised tag of a comparison operator.
type Operator int

const (
	OpEq Operator = iota + 1
	OpNe
	OpGt
	OpGte
	OpLt
	OpLte
	OpContains
	OpStartsWith
	OpEndsWith
	OpIn
	OpNotIn
	OpExists
	OpBetween
)

var operatorNames = map[Operator]string{
	OpEq:         globalconst.OpEqual,
	OpNe:         globalconst.OpNotEqual,
	OpGt:         globalconst.OpGreaterThan,
	OpGte:        globalconst.OpGreaterThanOrEqual,
	OpLt:         globalconst.OpLessThan,
	OpLte:        globalconst.OpLessThanOrEqual,
	OpContains:   globalconst.OpContains,
	OpStartsWith: globalconst.OpStartsWith,
	OpEndsWith:   globalconst.OpEndsWith,
	OpIn:         globalconst.OpIn,
	OpNotIn:      globalconst.OpNotIn,
	OpExists:     globalconst.OpExists,
	OpBetween:    globalconst.OpBetween,
}

// operatorAliases maps every accepted spelling (lower-cased) to its tag.
var operatorAliases = map[string]Operator{
	"eq": OpEq, "equals": OpEq, "==": OpEq,
	"ne": OpNe, "not_equals": OpNe, "!=": OpNe,
	"gt": OpGt, "greater_than": OpGt, ">": OpGt,
	"gte": OpGte, "greater_than_or_equal": OpGte, ">=": OpGte,
	"lt": OpLt, "less_than": OpLt, "<": OpLt,
	"lte": OpLte, "less_than_or_equal": OpLte, "<=": OpLte,
	"contains": OpContains, "like": OpContains,
	"startswith": OpStartsWith, "starts_with": OpStartsWith,
	"endswith": OpEndsWith, "ends_with": OpEndsWith,
	"in":     OpIn,
	"not_in": OpNotIn, "nin": OpNotIn,
	"exists":  OpExists,
	"between": OpBetween,
}

var operatorDescriptions = map[Operator]string{
	OpEq:         "equal to the operand",
	OpNe:         "present and not equal to the operand",
	OpGt:         "greater than the operand (numbers or strings)",
	OpGte:        "greater than or equal to the operand",
	OpLt:         "less than the operand",
	OpLte:        "less than or equal to the operand",
	OpContains:   "string contains the operand, case-insensitive",
	OpStartsWith: "string starts with the operand, case-insensitive",
	OpEndsWith:   "string ends with the operand, case-insensitive",
	OpIn:         "equal to one element of the operand list",
	OpNotIn:      "present and equal to no element of the operand list",
	OpExists:     "field presence matches the boolean operand",
	OpBetween:    "within the inclusive [low, high] operand pair",
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return "unknown"
}

// Ordered reports whether the operator needs an orderable stored value.
func (o Operator) Ordered() bool {
	switch o {
	case OpGt, OpGte, OpLt, OpLte, OpBetween:
		return true
	}
	return false
}

// LookupOperator resolves a user-supplied operator name, ignoring case.
func LookupOperator(name string) (Operator, bool) {
	op, ok := operatorAliases[strings.ToLower(strings.TrimSpace(name))]
	return op, ok
}

// OperatorInfo is one entry of the capability listing.
type OperatorInfo struct {
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases,omitempty"`
	Description string   `json:"description"`
	Ordered     bool     `json:"ordered"`
}

// Operators lists every supported operator with its aliases, in declaration order.
func Operators() []OperatorInfo {
	aliases := make(map[Operator][]string)
	for alias, op := range operatorAliases {
		if alias != operatorNames[op] {
			aliases[op] = append(aliases[op], alias)
		}
	}
	infos := make([]OperatorInfo, 0, len(operatorNames))
	for op := OpEq; op <= OpBetween; op++ {
		a := aliases[op]
		sort.Strings(a)
		infos = append(infos, OperatorInfo{Name: op.String(), Aliases: a, Description: operatorDescriptions[op], Ordered: op.Ordered()})
	}
	return infos
}

// LogicalOperators lists the accepted logical keys.
func LogicalOperators() []string {
	return []string{globalconst.OpAnd, globalconst.OpOr, globalconst.OpNot}
}
