// Package sortlimit implements the Sort/Offset/Limit Lowerer (spec §4.6,
// component C6): building the $sort stage (with ORDER BY keys rewritten to
// their post-$group location where needed) and converting OFFSET/LIMIT to
// the plan's Int32 fields.
package sortlimit

import (
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/omniql-engine/sql2mongo/ast"
	"github.com/omniql-engine/sql2mongo/engine/coerce"
	"github.com/omniql-engine/sql2mongo/sqlerr"
)

// Lower builds the $sort stage document. groupBys is the effective GROUP BY
// key list (see package group); selectItems is the full SELECT list, used
// to resolve a function-call ORDER BY element back to its alias.
func Lower(orderBys []ast.OrderByItem, groupBys []string, selectItems []ast.SelectItem) (bson.D, error) {
	if len(orderBys) == 0 {
		return nil, nil
	}

	sortDoc := make(bson.D, 0, len(orderBys))
	for _, item := range orderBys {
		key, err := resolveOrderKey(item.Expression, groupBys, selectItems)
		if err != nil {
			return nil, err
		}
		dir := 1
		if item.Direction == ast.Desc {
			dir = -1
		}
		sortDoc = append(sortDoc, bson.E{Key: key, Value: dir})
	}
	return sortDoc, nil
}

func resolveOrderKey(expr ast.Expr, groupBys []string, selectItems []ast.SelectItem) (string, error) {
	switch v := expr.(type) {
	case ast.Column:
		return groupAwareRef(v.Name(), groupBys), nil
	case ast.Function:
		for _, item := range selectItems {
			if fn, ok := item.Expression.(ast.Function); ok && sameFunction(fn, v) {
				if item.Alias != "" {
					return item.Alias, nil
				}
			}
		}
		return "", sqlerr.New(sqlerr.UnsupportedSQL, "cannot order by this expression")
	default:
		return "", sqlerr.New(sqlerr.UnsupportedSQL, "cannot order by this expression")
	}
}

func sameFunction(a, b ast.Function) bool {
	return reflect.DeepEqual(a, b)
}

// groupAwareRef rewrites a column name referencing a GROUP BY key to its
// location under "_id" in a $group stage's output document. Columns that
// are not group keys are referenced directly.
func groupAwareRef(name string, groupBys []string) string {
	if len(groupBys) == 1 && groupBys[0] == name {
		return "_id"
	}
	for _, g := range groupBys {
		if g == name {
			return "_id." + flattenKey(g)
		}
	}
	return name
}

func flattenKey(dotted string) string {
	return strings.ReplaceAll(dotted, ".", "_")
}

// LowerLimitOffset converts the AST's nil-means-unset *int64 OFFSET/LIMIT
// into the plan's Int32 fields, applying the overflow policy spec §4.1/§7
// requires. A nil input yields -1, the plan's "unset" sentinel.
func LowerLimitOffset(limit, offset *int64) (limitOut, offsetOut int32, err error) {
	limitOut, offsetOut = -1, -1
	if limit != nil {
		limitOut, err = coerce.CoerceLimitOffset(*limit)
		if err != nil {
			return 0, 0, err
		}
	}
	if offset != nil {
		offsetOut, err = coerce.CoerceLimitOffset(*offset)
		if err != nil {
			return 0, 0, err
		}
	}
	return limitOut, offsetOut, nil
}
