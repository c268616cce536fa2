// Package group implements the Group/Aggregate Lowerer (spec §4.5,
// component C5): partitioning SELECT items into group keys and aggregate
// accumulators, and building the $group stage plus the alias projection
// that restores user-visible field names afterward.
package group

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/omniql-engine/sql2mongo/ast"
	"github.com/omniql-engine/sql2mongo/engine/selectlower"
	"github.com/omniql-engine/sql2mongo/mapping"
	"github.com/omniql-engine/sql2mongo/sqlerr"
)

// Result is the $group stage body plus the projection needed to restore
// the original column/alias names afterward.
type Result struct {
	GroupStage      bson.M
	AliasProjection bson.M
	GroupBys        []string
	HasAggregates   bool
}

type aggSpec struct {
	keyName string
	fn      mapping.AggregateFunc
	col     string
}

// key is one dimension of the $group _id: either a plain source column
// (value "$col") or a CASE expression used as a GROUP BY dimension (value
// its lowered $switch document). name is what both the _id sub-document
// key and the alias projection use to restore it afterward.
type key struct {
	name  string
	value any
}

// Lower partitions items into group keys (plain columns and CASE
// expressions, plus the explicit GROUP BY clause) and aggregate
// accumulators (COUNT/SUM/AVG/MIN/MAX calls), then builds the $group stage
// and its restoring projection.
func Lower(items []ast.SelectItem, groupBysClause []string) (Result, error) {
	var keys []key
	seen := map[string]bool{}
	for _, g := range groupBysClause {
		if !seen[g] {
			seen[g] = true
			keys = append(keys, key{name: g, value: "$" + g})
		}
	}

	var aggregates []aggSpec

	for _, item := range items {
		if item.All {
			continue
		}
		switch expr := item.Expression.(type) {
		case ast.Function:
			fn, ok := mapping.LookupAggregateFunc(expr.Name)
			if !ok {
				return Result{}, sqlerr.Newf(sqlerr.UnknownFunction,
					"could not understand function: %s", expr.Name)
			}
			if len(expr.Args) > 1 {
				return Result{}, sqlerr.Newf(sqlerr.UnsupportedFunctionArity,
					"%s function can only have one parameter", expr.Name)
			}
			colName := ""
			if len(expr.Args) == 1 {
				if col, ok := expr.Args[0].(ast.Column); ok && col.Name() != "*" {
					colName = col.Name()
				}
			}
			if fn != mapping.Count && colName == "" {
				return Result{}, sqlerr.Newf(sqlerr.UnsupportedFunctionArity,
					"%s function can only have one parameter", expr.Name)
			}
			keyName := item.Alias
			if keyName == "" {
				keyName = defaultKeyName(fn, colName)
			}
			aggregates = append(aggregates, aggSpec{keyName: keyName, fn: fn, col: colName})

		case ast.Column:
			name := expr.Name()
			if !seen[name] {
				seen[name] = true
				keys = append(keys, key{name: name, value: "$" + name})
			}

		case ast.Case:
			name := item.Alias
			if name == "" {
				return Result{}, sqlerr.New(sqlerr.UnsupportedProjection, "Unsupported project expression")
			}
			if !seen[name] {
				seen[name] = true
				// The current key list (column names already collected) is
				// the GROUP BY context a nested CASE condition would see.
				switchDoc, err := selectlower.LowerCase(expr, groupNames(keys))
				if err != nil {
					return Result{}, err
				}
				keys = append(keys, key{name: name, value: switchDoc})
			}
		}
	}

	groupStage := bson.M{"_id": idExpr(keys)}
	for _, a := range aggregates {
		accOp := mapping.AggregateAccumulatorMap[a.fn]
		var val any
		if a.fn == mapping.Count {
			val = 1
		} else {
			val = "$" + a.col
		}
		groupStage[a.keyName] = bson.M{accOp: val}
	}

	proj := bson.M{"_id": 0}
	switch len(keys) {
	case 0:
	case 1:
		proj[keys[0].name] = "$_id"
	default:
		for _, k := range keys {
			proj[k.name] = "$_id." + flattenKey(k.name)
		}
	}
	for _, a := range aggregates {
		proj[a.keyName] = 1
	}

	return Result{
		GroupStage:      groupStage,
		AliasProjection: proj,
		GroupBys:        groupNames(keys),
		HasAggregates:   len(aggregates) > 0,
	}, nil
}

func groupNames(keys []key) []string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.name
	}
	return names
}

func idExpr(keys []key) any {
	switch len(keys) {
	case 0:
		return nil
	case 1:
		return keys[0].value
	default:
		sub := bson.M{}
		for _, k := range keys {
			sub[flattenKey(k.name)] = k.value
		}
		return sub
	}
}

func defaultKeyName(fn mapping.AggregateFunc, col string) string {
	if fn == mapping.Count {
		return "count"
	}
	return strings.ToLower(string(fn)) + "_" + flattenKey(col)
}

func flattenKey(dotted string) string {
	return strings.ReplaceAll(dotted, ".", "_")
}
