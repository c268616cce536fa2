package validate

import (
	"testing"

	"github.com/omniql-engine/sql2mongo/ast"
)

func col(name string) ast.Column { return ast.Column{Parts: []string{name}} }

func baseSelect() *ast.Select {
	return &ast.Select{
		Items:     []ast.SelectItem{{Expression: col("name")}},
		FromTable: "users",
	}
}

func TestSelectAcceptsPlainColumns(t *testing.T) {
	if err := Select(baseSelect()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSelectRejectsDistinctOnMultipleColumns(t *testing.T) {
	sel := baseSelect()
	sel.Distinct = true
	sel.Items = []ast.SelectItem{{Expression: col("name")}, {Expression: col("age")}}
	if err := Select(sel); err == nil {
		t.Fatal("expected an error for DISTINCT over multiple columns")
	}
}

func TestSelectRejectsImplicitJoin(t *testing.T) {
	sel := baseSelect()
	sel.Joins = []ast.Join{{Type: "", Table: "orders"}}
	if err := Select(sel); err == nil {
		t.Fatal("expected an error for an implicit comma join")
	}
}

func TestSelectAllowsExplicitJoinThroughToAssembler(t *testing.T) {
	sel := baseSelect()
	sel.Joins = []ast.Join{{Type: "INNER", Table: "orders", LeftField: "id", RightField: "user_id"}}
	if err := Select(sel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSelectRejectsFromSubquery(t *testing.T) {
	sel := baseSelect()
	sel.FromIsSubquery = true
	if err := Select(sel); err == nil {
		t.Fatal("expected an error for a subquery FROM clause")
	}
}

func TestSelectRejectsSelectSubquery(t *testing.T) {
	sel := baseSelect()
	sel.SelectHasSubquery = true
	if err := Select(sel); err == nil {
		t.Fatal("expected an error for a subselect in the projection")
	}
}

func TestSelectRejectsNonColumnProjectionWithoutGroupBy(t *testing.T) {
	sel := baseSelect()
	sel.Items = []ast.SelectItem{{Expression: ast.Function{Name: "toUpper", Args: []ast.Expr{col("name")}}}}
	if err := Select(sel); err == nil {
		t.Fatal("expected an error for a non-column projection with no GROUP BY")
	}
}

func TestSelectAllowsBareAggregateWithoutGroupBy(t *testing.T) {
	sel := baseSelect()
	sel.Items = []ast.SelectItem{{Expression: ast.Function{Name: "SUM", Args: []ast.Expr{col("amount")}}}}
	if err := Select(sel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSelectAllowsFunctionProjectionWithGroupBy(t *testing.T) {
	sel := baseSelect()
	sel.GroupBys = []string{"name"}
	sel.Items = []ast.SelectItem{
		{Expression: col("name")},
		{Expression: ast.Function{Name: "COUNT"}, Alias: "n"},
	}
	if err := Select(sel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
