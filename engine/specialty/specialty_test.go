package specialty

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/omniql-engine/sql2mongo/ast"
)

func TestMain(m *testing.M) {
	Now = func() time.Time { return time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC) }
	m.Run()
}

func TestRegexMatchBareCall(t *testing.T) {
	expr := ast.Function{Name: "regexMatch", Args: []ast.Expr{
		ast.Column{Parts: []string{"name"}},
		ast.String{Value: "^A"},
	}}
	match, ok, err := Recognize(expr)
	if err != nil || !ok {
		t.Fatalf("Recognize() = (%v, %v, %v)", match, ok, err)
	}
	if match.Field != "name" {
		t.Errorf("Field = %q, want name", match.Field)
	}
	doc, ok := match.Value.(bson.M)
	if !ok || doc["$regex"] != "^A" {
		t.Errorf("Value = %#v", match.Value)
	}
}

func TestRegexMatchEqualsFalseRejected(t *testing.T) {
	expr := ast.Comparison{
		Kind: ast.Eq,
		Left: ast.Function{Name: "regexMatch", Args: []ast.Expr{
			ast.Column{Parts: []string{"name"}}, ast.String{Value: "^A"},
		}},
		Right: ast.Boolean{Value: false},
	}
	_, _, err := Recognize(expr)
	if err == nil {
		t.Fatal("expected an error for regexMatch(...) = false")
	}
}

func TestObjectIDEquals(t *testing.T) {
	hex := "507f1f77bcf86cd799439011"
	expr := ast.Comparison{
		Kind:  ast.Eq,
		Left:  ast.Function{Name: "OBJECTID", Args: []ast.Expr{ast.String{Value: "_id"}}},
		Right: ast.String{Value: hex},
	}
	match, ok, err := Recognize(expr)
	if err != nil || !ok {
		t.Fatalf("Recognize() = (%v, %v, %v)", match, ok, err)
	}
	id, ok := match.Value.(primitive.ObjectID)
	if !ok || id.Hex() != hex {
		t.Errorf("Value = %#v", match.Value)
	}
}

func TestObjectIDInvalidHex(t *testing.T) {
	expr := ast.Comparison{
		Kind:  ast.Eq,
		Left:  ast.Function{Name: "OBJECTID", Args: []ast.Expr{ast.String{Value: "_id"}}},
		Right: ast.String{Value: "not-valid-hex"},
	}
	if _, _, err := Recognize(expr); err == nil {
		t.Fatal("expected an error for an invalid ObjectId hex string")
	}
}

func TestDateLiteralCompare(t *testing.T) {
	expr := ast.Comparison{
		Kind:  ast.Gt,
		Left:  ast.Column{Parts: []string{"created"}},
		Right: ast.Function{Name: "date", Args: []ast.Expr{ast.String{Value: "2024-01-01"}}},
	}
	match, ok, err := Recognize(expr)
	if err != nil || !ok {
		t.Fatalf("Recognize() = (%v, %v, %v)", match, ok, err)
	}
	doc, ok := match.Value.(bson.M)
	if !ok {
		t.Fatalf("Value = %#v", match.Value)
	}
	if _, ok := doc["$gt"]; !ok {
		t.Errorf("expected $gt key, got %#v", doc)
	}
}

func TestRecognizeNoMatchPassesThrough(t *testing.T) {
	expr := ast.Comparison{Kind: ast.Eq, Left: ast.Column{Parts: []string{"age"}}, Right: ast.Long{Value: 5}}
	_, ok, err := Recognize(expr)
	if err != nil || ok {
		t.Fatalf("Recognize() = (_, %v, %v), want no match", ok, err)
	}
}
