// Package validate implements the Validator (spec §4.8, component C8): the
// five structural rules checked against the parsed SELECT statement, plus
// the sixth (double-equals) rule the sqlinput package checks at the text
// level before a SQL parser ever sees the string. All five rules here are
// purely structural, so running them ahead of the rest of lowering (rather
// than strictly "after", as spec §4.8's header frames it) produces an
// identical fail-fast result without wasted lowering work.
package validate

import (
	"github.com/omniql-engine/sql2mongo/ast"
	"github.com/omniql-engine/sql2mongo/mapping"
	"github.com/omniql-engine/sql2mongo/sqlerr"
)

// Select runs the five AST-level validator rules against sel.
func Select(sel *ast.Select) error {
	if err := checkDistinct(sel); err != nil {
		return err
	}
	if err := checkJoins(sel); err != nil {
		return err
	}
	if sel.FromIsSubquery {
		return sqlerr.New(sqlerr.UnsupportedSQL, "Only one simple table name is supported.")
	}
	if sel.SelectHasSubquery {
		return sqlerr.New(sqlerr.UnsupportedSelectExpression, "Unsupported subselect expression")
	}
	if len(sel.GroupBys) == 0 {
		if err := checkPlainProjection(sel); err != nil {
			return err
		}
	}
	return nil
}

func checkDistinct(sel *ast.Select) error {
	if !sel.Distinct {
		return nil
	}
	nonStar := 0
	for _, item := range sel.Items {
		if !item.All {
			nonStar++
		}
	}
	if len(sel.Items) != 1 || nonStar != 1 {
		return sqlerr.New(sqlerr.UnsupportedDistinct, "cannot run distinct one more than one column")
	}
	return nil
}

// checkJoins rejects implicit multi-table FROM (comma-separated tables,
// which parse with an empty Join.Type) outright. An explicit `JOIN ... ON`
// (non-empty Type) is left to the caller's JoinPipeline collaborator,
// whose default (engine/join.NopJoinPipeline) produces the identical
// message anyway.
func checkJoins(sel *ast.Select) error {
	for _, j := range sel.Joins {
		if j.Type == "" {
			return sqlerr.New(sqlerr.UnsupportedJoin, "Join type not suported")
		}
	}
	return nil
}

// checkPlainProjection enforces rule 5: with no GROUP BY, every non-*,
// non-aggregate SELECT item must be a plain column, a CASE expression, or a
// subtraction. A bare aggregate call (e.g. SELECT SUM(amount) FROM orders,
// with no GROUP BY) is exempt - it is valid SQL and engine/group's
// zero-keys path lowers it directly, the same exemption
// engine/assemble.anyAggregateCall applies when deciding the output shape.
func checkPlainProjection(sel *ast.Select) error {
	for _, item := range sel.Items {
		if item.All {
			continue
		}
		switch expr := item.Expression.(type) {
		case ast.Column, ast.Case, ast.Arithmetic:
			continue
		case ast.Function:
			if _, ok := mapping.LookupAggregateFunc(expr.Name); ok {
				continue
			}
			return sqlerr.New(sqlerr.UnsupportedProjection,
				"illegal expression(s) found in select clause. Only column names supported")
		default:
			return sqlerr.New(sqlerr.UnsupportedProjection,
				"illegal expression(s) found in select clause. Only column names supported")
		}
	}
	return nil
}
