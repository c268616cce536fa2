package mapping

import "github.com/omniql-engine/sql2mongo/ast"

// ComparisonOperatorMap mirrors the teacher's OperatorMap["MongoDB"] table
// (originally keyed by dialect name in mapping/operators.go) but is scoped
// to the single target and operator set spec §3 actually defines for
// Comparison nodes.
var ComparisonOperatorMap = map[ast.CompareKind]string{
	ast.Eq:    "$eq",
	ast.NotEq: "$ne",
	ast.Gt:    "$gt",
	ast.Gte:   "$gte",
	ast.Lt:    "$lt",
	ast.Lte:   "$lte",
}

// DateCompareOperatorMap is the restricted subset spec §4.2 allows for the
// `date(col,'fmt') OP 'literal'` specialty form — NotEq/Like are excluded
// there on purpose.
var DateCompareOperatorMap = map[ast.CompareKind]string{
	ast.Eq:  "$eq",
	ast.Gt:  "$gt",
	ast.Gte: "$gte",
	ast.Lt:  "$lt",
	ast.Lte: "$lte",
}

// SpecialtyFunctionNames are the function names the Specialty Recognizers
// (spec §4.2) treat semantically instead of passing through generically.
var SpecialtyFunctionNames = map[string]bool{
	"regexMatch": true,
	"date":       true,
	"OBJECTID":   true,
	"Bindata":    true,
}
