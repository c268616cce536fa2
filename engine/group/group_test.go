package group

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/omniql-engine/sql2mongo/ast"
)

func col(name string) ast.Column { return ast.Column{Parts: []string{name}} }

func qualifiedCol(parts ...string) ast.Column { return ast.Column{Parts: parts} }

func TestLowerSingleGroupKeyWithCount(t *testing.T) {
	items := []ast.SelectItem{
		{Expression: ast.Function{Name: "COUNT", Args: nil}, Alias: "n"},
	}
	res, err := Lower(items, []string{"status"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.GroupStage["_id"] != "$status" {
		t.Errorf("_id = %#v", res.GroupStage["_id"])
	}
	acc, ok := res.GroupStage["n"].(bson.M)
	if !ok || acc["$sum"] != 1 {
		t.Errorf("accumulator = %#v", res.GroupStage["n"])
	}
	if res.AliasProjection["status"] != "$_id" || res.AliasProjection["n"] != 1 {
		t.Errorf("AliasProjection = %#v", res.AliasProjection)
	}
}

func TestLowerMultiKeyFlattensID(t *testing.T) {
	res, err := Lower(nil, []string{"a.b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	idDoc, ok := res.GroupStage["_id"].(bson.M)
	if !ok {
		t.Fatalf("_id = %#v", res.GroupStage["_id"])
	}
	if idDoc["a_b"] != "$a.b" || idDoc["c"] != "$c" {
		t.Errorf("_id doc = %#v", idDoc)
	}
	if res.AliasProjection["a.b"] != "$_id.a_b" {
		t.Errorf("AliasProjection = %#v", res.AliasProjection)
	}
}

func TestLowerBareColumnKeyStripsTableQualifier(t *testing.T) {
	items := []ast.SelectItem{{Expression: qualifiedCol("c", "status")}}
	res, err := Lower(items, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.GroupStage["_id"] != "$status" {
		t.Errorf("_id = %#v, want $status (table qualifier stripped)", res.GroupStage["_id"])
	}
}

func TestLowerAggregateArgStripsTableQualifier(t *testing.T) {
	items := []ast.SelectItem{{Expression: ast.Function{Name: "SUM", Args: []ast.Expr{qualifiedCol("o", "total")}}}}
	res, err := Lower(items, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	acc, ok := res.GroupStage["sum_total"].(bson.M)
	if !ok || acc["$sum"] != "$total" {
		t.Errorf("GroupStage = %#v, want a sum_total accumulator over $total", res.GroupStage)
	}
}

func TestLowerUnknownAggregateFunction(t *testing.T) {
	items := []ast.SelectItem{{Expression: ast.Function{Name: "MEDIAN", Args: []ast.Expr{col("age")}}}}
	_, err := Lower(items, nil)
	if err == nil {
		t.Fatal("expected an error for an unrecognized aggregate function")
	}
}

func TestLowerAggregateRequiresColumnArg(t *testing.T) {
	items := []ast.SelectItem{{Expression: ast.Function{Name: "SUM", Args: nil}}}
	_, err := Lower(items, nil)
	if err == nil {
		t.Fatal("expected an error for SUM with no column argument")
	}
}

func TestLowerDefaultKeyName(t *testing.T) {
	items := []ast.SelectItem{{Expression: ast.Function{Name: "SUM", Args: []ast.Expr{col("total")}}}}
	res, err := Lower(items, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := res.GroupStage["sum_total"]; !ok {
		t.Errorf("GroupStage = %#v, want a sum_total key", res.GroupStage)
	}
}

func TestLowerCaseAsGroupKey(t *testing.T) {
	items := []ast.SelectItem{
		{
			Expression: ast.Case{
				Branches: []ast.WhenThen{
					{When: ast.Comparison{Kind: ast.Gte, Left: col("age"), Right: ast.Long{Value: 18}}, Then: ast.String{Value: "adult"}},
				},
				Else: ast.String{Value: "minor"},
			},
			Alias: "bucket",
		},
	}
	res, err := Lower(items, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := res.GroupStage["_id"].(bson.M); !ok {
		t.Fatalf("_id = %#v, want a $switch document", res.GroupStage["_id"])
	}
	if res.AliasProjection["bucket"] != "$_id" {
		t.Errorf("AliasProjection = %#v", res.AliasProjection)
	}
}
