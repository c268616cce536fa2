// Package assemble implements the Shape Selector & Assembler (spec §4.7,
// component C7): running the Validator, then invoking the Where/Select/
// Group/Sort lowerers in the right combination for the chosen output
// shape, and wiring their results into a plan.QueryPlan.
package assemble

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/omniql-engine/sql2mongo/ast"
	"github.com/omniql-engine/sql2mongo/engine/group"
	"github.com/omniql-engine/sql2mongo/engine/join"
	"github.com/omniql-engine/sql2mongo/engine/plan"
	"github.com/omniql-engine/sql2mongo/engine/selectlower"
	"github.com/omniql-engine/sql2mongo/engine/sortlimit"
	"github.com/omniql-engine/sql2mongo/engine/validate"
	"github.com/omniql-engine/sql2mongo/engine/where"
	"github.com/omniql-engine/sql2mongo/mapping"
)

// Statement lowers a full ast.Statement into a QueryPlan. joins is the
// caller's JoinPipeline collaborator; pass join.NopJoinPipeline{} to reject
// every join (the default spec §4.8 describes).
func Statement(stmt *ast.Statement, types *mapping.FieldTypeMap, joins join.Pipeline) (*plan.QueryPlan, error) {
	if stmt.Delete != nil {
		return lowerDelete(stmt.Delete, types)
	}
	return lowerSelect(stmt.Select, types, joins)
}

func lowerDelete(del *ast.Delete, types *mapping.FieldTypeMap) (*plan.QueryPlan, error) {
	filter := bson.M{}
	if del.Where != nil {
		f, err := where.Lower(del.Where, types)
		if err != nil {
			return nil, err
		}
		filter = f
	}
	return &plan.QueryPlan{
		Collection: del.Table,
		Op:         plan.Delete,
		Filter:     filter,
		Offset:     -1,
		Limit:      -1,
	}, nil
}

func lowerSelect(sel *ast.Select, types *mapping.FieldTypeMap, joins join.Pipeline) (*plan.QueryPlan, error) {
	if err := validate.Select(sel); err != nil {
		return nil, err
	}

	filter := bson.M{}
	if sel.Where != nil {
		f, err := where.Lower(sel.Where, types)
		if err != nil {
			return nil, err
		}
		filter = f
	}

	limit, offset, err := sortlimit.LowerLimitOffset(sel.Limit, sel.Offset)
	if err != nil {
		return nil, err
	}

	var joinStages []bson.D
	if len(sel.Joins) > 0 {
		if joins == nil {
			joins = join.NopJoinPipeline{}
		}
		joinStages, err = joins.Lower(sel.Joins)
		if err != nil {
			return nil, err
		}
	}

	countAll := isCountAll(sel)
	hasAlias := anyAlias(sel.Items)
	hasAggregateItem := anyAggregateCall(sel.Items)
	needsGroup := len(sel.GroupBys) > 0 || hasAggregateItem
	hasJoins := len(sel.Joins) > 0

	base := &plan.QueryPlan{
		Collection: sel.FromTable,
		Filter:     filter,
		Offset:     offset,
		Limit:      limit,
	}

	switch {
	case sel.Distinct:
		base.Op = plan.Distinct
		base.Distinct = true
		base.DistinctField = distinctField(sel.Items)
		return base, nil

	case countAll:
		base.Op = plan.Count
		base.CountAll = true
		return base, nil

	case needsGroup || hasAlias || hasJoins:
		base.Op = plan.Aggregate
		base.JoinPipeline = joinStages

		if needsGroup {
			gr, err := group.Lower(sel.Items, sel.GroupBys)
			if err != nil {
				return nil, err
			}
			base.Projection = gr.GroupStage
			base.AliasProjection = gr.AliasProjection
			base.GroupBys = gr.GroupBys
			sortDoc, err := sortlimit.Lower(sel.OrderBys, gr.GroupBys, sel.Items)
			if err != nil {
				return nil, err
			}
			base.Sort = sortDoc
			return base, nil
		}

		res, err := selectlower.Lower(sel.Items, nil)
		if err != nil {
			return nil, err
		}
		base.AliasProjection = res.Projection
		sortDoc, err := sortlimit.Lower(sel.OrderBys, nil, sel.Items)
		if err != nil {
			return nil, err
		}
		base.Sort = sortDoc
		return base, nil

	default:
		base.Op = plan.Find
		res, err := selectlower.Lower(sel.Items, nil)
		if err != nil {
			return nil, err
		}
		base.Projection = res.Projection
		sortDoc, err := sortlimit.Lower(sel.OrderBys, nil, sel.Items)
		if err != nil {
			return nil, err
		}
		base.Sort = sortDoc
		return base, nil
	}
}

func isCountAll(sel *ast.Select) bool {
	if len(sel.GroupBys) > 0 || len(sel.Items) != 1 || sel.Items[0].All {
		return false
	}
	fn, ok := sel.Items[0].Expression.(ast.Function)
	if !ok || !strings.EqualFold(fn.Name, "COUNT") {
		return false
	}
	if len(fn.Args) == 0 {
		return true
	}
	if len(fn.Args) == 1 {
		if col, ok := fn.Args[0].(ast.Column); ok && col.Dotted() == "*" {
			return true
		}
	}
	return false
}

func anyAlias(items []ast.SelectItem) bool {
	for _, item := range items {
		if item.Alias != "" {
			return true
		}
	}
	return false
}

func anyAggregateCall(items []ast.SelectItem) bool {
	for _, item := range items {
		if fn, ok := item.Expression.(ast.Function); ok {
			if _, ok := mapping.LookupAggregateFunc(fn.Name); ok {
				return true
			}
		}
	}
	return false
}

func distinctField(items []ast.SelectItem) string {
	for _, item := range items {
		if item.All {
			continue
		}
		if col, ok := item.Expression.(ast.Column); ok {
			return col.Name()
		}
	}
	return ""
}
