package selectlower

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/omniql-engine/sql2mongo/ast"
)

func col(name string) ast.Column { return ast.Column{Parts: []string{name}} }

func qualifiedCol(parts ...string) ast.Column { return ast.Column{Parts: parts} }

func TestLowerPlainColumnsSuppressID(t *testing.T) {
	items := []ast.SelectItem{
		{Expression: col("name")},
		{Expression: col("age")},
	}
	res, err := Lower(items, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Projection["name"] != 1 || res.Projection["age"] != 1 {
		t.Errorf("Projection = %#v", res.Projection)
	}
	if res.Projection["_id"] != 0 {
		t.Errorf("expected _id:0 suppression, got %#v", res.Projection)
	}
	if res.HasAlias {
		t.Errorf("expected HasAlias = false")
	}
}

func TestLowerStarSkipsIDSuppression(t *testing.T) {
	items := []ast.SelectItem{{All: true}}
	res, err := Lower(items, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, present := res.Projection["_id"]; present {
		t.Errorf("expected no _id entry for SELECT *, got %#v", res.Projection)
	}
}

func TestLowerAliasedColumn(t *testing.T) {
	items := []ast.SelectItem{{Expression: col("name"), Alias: "n"}}
	res, err := Lower(items, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.HasAlias {
		t.Errorf("expected HasAlias = true")
	}
	if res.Projection["n"] != "$name" {
		t.Errorf("Projection = %#v", res.Projection)
	}
}

func TestLowerAliasedColumnStripsTableQualifier(t *testing.T) {
	items := []ast.SelectItem{{Expression: qualifiedCol("c", "sub", "a"), Alias: "x"}}
	res, err := Lower(items, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Projection["x"] != "$sub.a" {
		t.Errorf("Projection = %#v, want {x: $sub.a}", res.Projection)
	}
}

func TestLowerPlainColumnStripsTableQualifier(t *testing.T) {
	items := []ast.SelectItem{{Expression: qualifiedCol("c", "sub", "a")}}
	res, err := Lower(items, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Projection["sub.a"] != 1 {
		t.Errorf("Projection = %#v, want {sub.a: 1}", res.Projection)
	}
}

func TestLowerCaseRequiresAlias(t *testing.T) {
	items := []ast.SelectItem{{Expression: ast.Case{
		Branches: []ast.WhenThen{{When: col("active"), Then: ast.String{Value: "yes"}}},
	}}}
	if _, err := Lower(items, nil); err == nil {
		t.Fatal("expected an error for an unaliased CASE projection")
	}
}

func TestLowerArithmeticSubtract(t *testing.T) {
	items := []ast.SelectItem{{
		Expression: ast.Arithmetic{Kind: ast.Subtract, Left: col("b"), Right: col("a")},
		Alias:      "diff",
	}}
	res, err := Lower(items, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc, ok := res.Projection["diff"].(bson.M)
	if !ok {
		t.Fatalf("Projection[diff] = %#v", res.Projection["diff"])
	}
	args, ok := doc["$subtract"].(bson.A)
	if !ok || len(args) != 2 || args[0] != "$b" || args[1] != "$a" {
		t.Errorf("$subtract = %#v", doc["$subtract"])
	}
}

func TestCaseColumnRefRewritesGroupKeyOnly(t *testing.T) {
	groupBys := []string{"status"}
	if got := caseColumnRef(col("status"), groupBys); got != "$_id" {
		t.Errorf("caseColumnRef(status) = %q, want $_id", got)
	}
	if got := caseColumnRef(col("total"), groupBys); got != "$total" {
		t.Errorf("caseColumnRef(total) = %q, want $total (not under _id)", got)
	}
}

func TestCaseColumnRefMultiKeyFlattensDotted(t *testing.T) {
	groupBys := []string{"a.b", "c"}
	if got := caseColumnRef(ast.Column{Parts: []string{"a", "b"}}, groupBys); got != "$_id.a_b" {
		t.Errorf("caseColumnRef = %q, want $_id.a_b", got)
	}
}

func TestLowerCaseBuildsSwitch(t *testing.T) {
	c := ast.Case{
		Branches: []ast.WhenThen{
			{When: ast.Comparison{Kind: ast.Gte, Left: col("age"), Right: ast.Long{Value: 18}}, Then: ast.String{Value: "adult"}},
		},
		Else: ast.String{Value: "minor"},
	}
	doc, err := LowerCase(c, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	switchDoc, ok := doc["$switch"].(bson.M)
	if !ok {
		t.Fatalf("doc = %#v", doc)
	}
	branches, ok := switchDoc["branches"].(bson.A)
	if !ok || len(branches) != 1 {
		t.Fatalf("branches = %#v", switchDoc["branches"])
	}
	if switchDoc["default"] != "minor" {
		t.Errorf("default = %#v", switchDoc["default"])
	}
}
