// Package where implements the Where Lowerer (spec §4.3, component C3):
// recursive descent over a WHERE expression tree producing a MongoDB
// filter document. One case per ast.Expr variant, as the teacher's own
// AST-walking code (e.g. engine/reverse/mongodb.go's convertMongoFilter)
// does for its own (flatter) condition shape.
package where

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/omniql-engine/sql2mongo/ast"
	"github.com/omniql-engine/sql2mongo/engine/coerce"
	"github.com/omniql-engine/sql2mongo/engine/specialty"
	"github.com/omniql-engine/sql2mongo/mapping"
	"github.com/omniql-engine/sql2mongo/sqlerr"
)

// Lower translates expr into a MongoDB filter document.
func Lower(expr ast.Expr, types *mapping.FieldTypeMap) (bson.M, error) {
	if m, ok, err := specialty.Recognize(expr); err != nil {
		return nil, err
	} else if ok {
		return bson.M{m.Field: m.Value}, nil
	}

	switch v := expr.(type) {
	case ast.Comparison:
		return lowerComparison(v, types)
	case ast.InList:
		return lowerInList(v, types)
	case ast.IsNull:
		return lowerIsNull(v)
	case ast.Logical:
		return lowerLogical(v, types)
	case ast.Not:
		return lowerNot(v, types)
	case ast.Parens:
		return lowerParens(v, types)
	case ast.Column:
		return bson.M{v.Name(): true}, nil
	case ast.Function:
		doc, err := lowerFreeFunction(v, types)
		if err != nil {
			return nil, err
		}
		return doc, nil
	default:
		return nil, sqlerr.New(sqlerr.UnsupportedSQL, "unsupported expression in WHERE clause")
	}
}

func lowerComparison(cmp ast.Comparison, types *mapping.FieldTypeMap) (bson.M, error) {
	if cmp.Kind == ast.Like {
		return lowerLike(cmp, types)
	}

	_, leftIsFn := cmp.Left.(ast.Function)
	_, rightIsFn := cmp.Right.(ast.Function)
	leftCol, leftIsCol := cmp.Left.(ast.Column)
	_, rightIsCol := cmp.Right.(ast.Column)

	if cmp.Kind == ast.Eq && (leftIsFn || rightIsFn || (leftIsCol && rightIsCol)) {
		lhs, err := exprOperand(cmp.Left, types)
		if err != nil {
			return nil, err
		}
		rhs, err := exprOperand(cmp.Right, types)
		if err != nil {
			return nil, err
		}
		return bson.M{"$expr": bson.M{"$eq": bson.A{lhs, rhs}}}, nil
	}

	field, valueExpr, valueIsLeft, err := splitColumnAndValue(cmp.Left, cmp.Right)
	if err != nil {
		return nil, err
	}
	_ = valueIsLeft
	_ = leftCol

	value, err := coerce.Coerce(valueExpr, field, types)
	if err != nil {
		return nil, err
	}

	switch cmp.Kind {
	case ast.Eq:
		return bson.M{field: value}, nil
	case ast.NotEq:
		return bson.M{field: bson.M{"$ne": value}}, nil
	default:
		mongoOp, ok := mapping.ComparisonOperatorMap[cmp.Kind]
		if !ok {
			return nil, sqlerr.Newf(sqlerr.UnsupportedSQL, "unsupported comparison operator %q", cmp.Kind)
		}
		return bson.M{field: bson.M{mongoOp: value}}, nil
	}
}

// splitColumnAndValue finds the Column operand of a binary comparison and
// returns its dotted name plus the other (value) operand.
func splitColumnAndValue(left, right ast.Expr) (field string, value ast.Expr, valueIsLeft bool, err error) {
	if col, ok := left.(ast.Column); ok {
		return col.Name(), right, false, nil
	}
	if col, ok := right.(ast.Column); ok {
		return col.Name(), left, true, nil
	}
	return "", nil, false, sqlerr.New(sqlerr.UnsupportedSQL, "comparison has no column operand")
}

func lowerLike(cmp ast.Comparison, types *mapping.FieldTypeMap) (bson.M, error) {
	if cmp.NotLike {
		return nil, sqlerr.New(sqlerr.UnsupportedLike, "NOT LIKE queries not supported")
	}
	col, ok := cmp.Left.(ast.Column)
	if !ok {
		return nil, sqlerr.New(sqlerr.UnsupportedSQL, "LIKE requires a column on the left-hand side")
	}
	lit, ok := cmp.Right.(ast.String)
	if !ok {
		return nil, sqlerr.New(sqlerr.UnsupportedSQL, "LIKE requires a string literal pattern")
	}
	pattern := TranslateLikePattern(lit.Value)
	if err := specialty.ValidateRegex(pattern); err != nil {
		return nil, err
	}
	return bson.M{col.Name(): bson.M{"$regex": pattern}}, nil
}

// TranslateLikePattern converts a SQL LIKE pattern into an anchored regex,
// per spec §4.3: `%` → `.*`, `_` → `.{1}`, `[...]` character classes are
// preserved but suffixed `{1}`, and the whole pattern is anchored `^...$`.
func TranslateLikePattern(pattern string) string {
	var out strings.Builder
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			out.WriteString(regexp.QuoteMeta(literal.String()))
			literal.Reset()
		}
	}

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '%':
			flush()
			out.WriteString(".*")
		case '_':
			flush()
			out.WriteString(".{1}")
		case '[':
			flush()
			j := i + 1
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			if j < len(runes) {
				out.WriteString(string(runes[i : j+1]))
				out.WriteString("{1}")
				i = j
			} else {
				literal.WriteRune(c)
			}
		default:
			literal.WriteRune(c)
		}
	}
	flush()

	return "^" + out.String() + "$"
}

func lowerInList(in ast.InList, types *mapping.FieldTypeMap) (bson.M, error) {
	op, negOp := "$in", "$nin"

	if col, ok := in.Left.(ast.Column); ok {
		values := make(bson.A, 0, len(in.Items))
		for _, item := range in.Items {
			v, err := coerce.Coerce(item, col.Name(), types)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		key := op
		if in.Negated {
			key = negOp
		}
		return bson.M{col.Name(): bson.M{key: values}}, nil
	}

	fn, ok := in.Left.(ast.Function)
	if !ok {
		return nil, sqlerr.New(sqlerr.UnsupportedSQL, "IN requires a column or function on the left-hand side")
	}
	fnDoc, err := lowerFreeFunction(fn, types)
	if err != nil {
		return nil, err
	}
	values := make(bson.A, 0, len(in.Items))
	for _, item := range in.Items {
		v, err := coerce.Coerce(item, "", types)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	key := "$fin"
	if in.Negated {
		key = "$fnin"
	}
	return bson.M{key: bson.M{"function": fnDoc, "list": values}}, nil
}

func lowerIsNull(n ast.IsNull) (bson.M, error) {
	col, ok := n.Inner.(ast.Column)
	if !ok {
		return nil, sqlerr.New(sqlerr.UnsupportedSQL, "IS [NOT] NULL requires a column operand")
	}
	return bson.M{col.Name(): bson.M{"$exists": n.Negated}}, nil
}

// flattenLogical builds the operand list for a chain of the same logical
// kind, left-associatively: if the left child shares the root's kind its
// operands are spliced in, otherwise the tree contributes a single operand.
// This reproduces `A AND B AND C AND D` as a flat 4-element $and rather
// than nested binary pairs (spec §4.3's ordering guarantee).
func flattenLogical(lg ast.Logical) []ast.Expr {
	return append(collectSameKind(lg.Left, lg.Kind), lg.Right)
}

func collectSameKind(e ast.Expr, kind ast.LogicalKind) []ast.Expr {
	if lg, ok := e.(ast.Logical); ok && lg.Kind == kind {
		return append(collectSameKind(lg.Left, kind), lg.Right)
	}
	return []ast.Expr{e}
}

func lowerLogical(lg ast.Logical, types *mapping.FieldTypeMap) (bson.M, error) {
	operands := flattenLogical(lg)
	list := make(bson.A, 0, len(operands))
	for _, op := range operands {
		doc, err := Lower(op, types)
		if err != nil {
			return nil, err
		}
		list = append(list, doc)
	}
	key := "$and"
	if lg.Kind == ast.Or {
		key = "$or"
	}
	return bson.M{key: list}, nil
}

func lowerNot(n ast.Not, types *mapping.FieldTypeMap) (bson.M, error) {
	if col, ok := n.Inner.(ast.Column); ok {
		return bson.M{col.Name(): bson.M{"$ne": true}}, nil
	}
	inner, err := Lower(n.Inner, types)
	if err != nil {
		return nil, err
	}
	return bson.M{"$nor": bson.A{inner}}, nil
}

func lowerParens(p ast.Parens, types *mapping.FieldTypeMap) (bson.M, error) {
	inner, err := Lower(p.Inner, types)
	if err != nil {
		return nil, err
	}
	if p.Negated {
		return bson.M{"$nor": bson.A{inner}}, nil
	}
	return inner, nil
}

// exprOperand builds one side of an $expr comparison: columns become
// "$field" references, nested function calls lower recursively, and plain
// literals coerce with no column name, i.e. against the field-type map's
// Default type.
func exprOperand(e ast.Expr, types *mapping.FieldTypeMap) (any, error) {
	switch v := e.(type) {
	case ast.Column:
		return "$" + v.Name(), nil
	case ast.Function:
		return lowerFreeFunction(v, types)
	default:
		return coerce.Coerce(v, "", types)
	}
}

// lowerFreeFunction lowers a free-standing (non-specialty) function call,
// spec §4.3's "Free-standing function call" rule: a single argument emits
// directly (not wrapped in a list), zero arguments emit null, and more
// than one argument emits a list — recursively applying the same rule to
// nested function-call arguments (toLower(toUpper('x'))).
func lowerFreeFunction(fn ast.Function, types *mapping.FieldTypeMap) (bson.M, error) {
	switch len(fn.Args) {
	case 0:
		return bson.M{"$" + fn.Name: nil}, nil
	case 1:
		arg, err := exprOperand(fn.Args[0], types)
		if err != nil {
			return nil, err
		}
		return bson.M{"$" + fn.Name: arg}, nil
	default:
		args := make(bson.A, 0, len(fn.Args))
		for _, a := range fn.Args {
			v, err := exprOperand(a, types)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		return bson.M{"$" + fn.Name: args}, nil
	}
}
