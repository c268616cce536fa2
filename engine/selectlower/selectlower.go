// Package selectlower implements the Select Lowerer (spec §4.4, component
// C4): turning the SELECT item list into either a Find-shape projection
// document or $project-stage content for the Aggregate shape.
package selectlower

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/omniql-engine/sql2mongo/ast"
	"github.com/omniql-engine/sql2mongo/engine/coerce"
	"github.com/omniql-engine/sql2mongo/mapping"
	"github.com/omniql-engine/sql2mongo/sqlerr"
)

// Result is what the Select Lowerer hands back to the Assembler.
type Result struct {
	Projection bson.M
	// HasAlias is true the moment any SELECT item carries an alias, a CASE
	// expression, or arithmetic — any of which force the Aggregate shape
	// (spec §4.4's "aliased SELECT item forces Aggregate shape" rule).
	HasAlias bool
}

// Lower builds the projection for items. groupBys, when non-empty, is the
// flattened list of GROUP BY keys in effect; bare column references inside
// CASE/arithmetic expressions that name a group key are rewritten to their
// post-$group "_id" location (see caseColumnRef).
func Lower(items []ast.SelectItem, groupBys []string) (Result, error) {
	res := Result{Projection: bson.M{}}

	sawStar := false
	for _, item := range items {
		if item.All {
			sawStar = true
			continue
		}

		switch expr := item.Expression.(type) {
		case ast.Column:
			if item.Alias != "" {
				res.HasAlias = true
				res.Projection[item.Alias] = "$" + expr.Name()
				continue
			}
			res.Projection[expr.Name()] = 1

		case ast.Case:
			name := item.Alias
			if name == "" {
				return Result{}, sqlerr.New(sqlerr.UnsupportedProjection, "Unsupported project expression")
			}
			res.HasAlias = true
			switchDoc, err := LowerCase(expr, groupBys)
			if err != nil {
				return Result{}, err
			}
			res.Projection[name] = switchDoc

		case ast.Arithmetic:
			name := item.Alias
			if name == "" {
				return Result{}, sqlerr.New(sqlerr.UnsupportedProjection, "Unsupported project expression")
			}
			if expr.Kind != ast.Subtract {
				return Result{}, sqlerr.New(sqlerr.UnsupportedProjection, "Unsupported project expression")
			}
			res.HasAlias = true
			left, err := caseOperand(expr.Left, groupBys)
			if err != nil {
				return Result{}, err
			}
			right, err := caseOperand(expr.Right, groupBys)
			if err != nil {
				return Result{}, err
			}
			res.Projection[name] = bson.M{"$subtract": bson.A{left, right}}

		default:
			return Result{}, sqlerr.New(sqlerr.UnsupportedProjection, "Unsupported project expression")
		}
	}

	if !sawStar {
		if _, explicit := res.Projection["_id"]; !explicit {
			res.Projection["_id"] = 0
		}
	}

	return res, nil
}

// caseColumnRef resolves a bare column reference used inside a CASE
// condition or arithmetic expression. When the column names a GROUP BY key
// it is rewritten to its post-$group location under "_id"; a single scalar
// GROUP BY key lives at "_id" itself, multiple keys live under flattened,
// underscore-joined names at "_id.<key>". Columns that are not GROUP BY
// keys are referenced directly, whether or not a GROUP BY is present: the
// "_id." rewrite only makes sense for columns that actually moved under
// _id, so it is applied selectively rather than whenever any GROUP BY
// exists.
func caseColumnRef(col ast.Column, groupBys []string) string {
	name := col.Dotted()
	if len(groupBys) == 0 {
		return "$" + name
	}
	if len(groupBys) == 1 && groupBys[0] == name {
		return "$_id"
	}
	for _, g := range groupBys {
		if g == name {
			return "$_id." + flattenKey(g)
		}
	}
	return "$" + name
}

func flattenKey(dotted string) string {
	return strings.ReplaceAll(dotted, ".", "_")
}

func caseOperand(e ast.Expr, groupBys []string) (any, error) {
	switch v := e.(type) {
	case ast.Column:
		return caseColumnRef(v, groupBys), nil
	default:
		return coerce.Coerce(v, "", mapping.NewFieldTypeMap(nil, mapping.UNKNOWN))
	}
}

// LowerCase lowers a CASE expression to its $switch form. It is exported so
// the Group Lowerer (package engine/group) can reuse it when a CASE
// expression is itself one of the GROUP BY dimensions.
func LowerCase(c ast.Case, groupBys []string) (bson.M, error) {
	branches := make(bson.A, 0, len(c.Branches))
	for _, wt := range c.Branches {
		cond, err := lowerCaseCondition(wt.When, groupBys)
		if err != nil {
			return nil, err
		}
		then, err := caseOperand(wt.Then, groupBys)
		if err != nil {
			return nil, err
		}
		branches = append(branches, bson.M{"case": cond, "then": then})
	}

	doc := bson.M{"branches": branches}
	if c.Else != nil {
		elseVal, err := caseOperand(c.Else, groupBys)
		if err != nil {
			return nil, err
		}
		doc["default"] = elseVal
	}
	return bson.M{"$switch": doc}, nil
}

// lowerCaseCondition lowers a WHERE-shaped expression into the $expr-style
// boolean expression $switch's "case" field requires: operands reference
// fields with "$field" rather than the query-filter {field: value} form
// engine/where produces.
func lowerCaseCondition(e ast.Expr, groupBys []string) (any, error) {
	switch v := e.(type) {
	case ast.Comparison:
		op, ok := mapping.ComparisonOperatorMap[v.Kind]
		if !ok {
			return nil, sqlerr.Newf(sqlerr.UnsupportedSQL, "unsupported comparison operator %q in CASE", v.Kind)
		}
		left, err := caseOperand(v.Left, groupBys)
		if err != nil {
			return nil, err
		}
		right, err := caseOperand(v.Right, groupBys)
		if err != nil {
			return nil, err
		}
		return bson.M{op: bson.A{left, right}}, nil

	case ast.Logical:
		left, err := lowerCaseCondition(v.Left, groupBys)
		if err != nil {
			return nil, err
		}
		right, err := lowerCaseCondition(v.Right, groupBys)
		if err != nil {
			return nil, err
		}
		key := "$and"
		if v.Kind == ast.Or {
			key = "$or"
		}
		return bson.M{key: bson.A{left, right}}, nil

	case ast.Not:
		inner, err := lowerCaseCondition(v.Inner, groupBys)
		if err != nil {
			return nil, err
		}
		return bson.M{"$not": bson.A{inner}}, nil

	case ast.Parens:
		inner, err := lowerCaseCondition(v.Inner, groupBys)
		if err != nil {
			return nil, err
		}
		if v.Negated {
			return bson.M{"$not": bson.A{inner}}, nil
		}
		return inner, nil

	case ast.IsNull:
		col, ok := v.Inner.(ast.Column)
		if !ok {
			return nil, sqlerr.New(sqlerr.UnsupportedSQL, "IS [NOT] NULL requires a column operand")
		}
		op := "$eq"
		if v.Negated {
			op = "$ne"
		}
		return bson.M{op: bson.A{caseColumnRef(col, groupBys), nil}}, nil

	case ast.Column:
		return bson.M{"$eq": bson.A{caseColumnRef(v, groupBys), true}}, nil

	default:
		return nil, sqlerr.New(sqlerr.UnsupportedSQL, "unsupported CASE condition")
	}
}
