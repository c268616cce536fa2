// Package specialty implements the Specialty Recognizers (spec §4.2,
// component C2): pattern-matchers over WHERE sub-expressions that let the
// Where Lowerer emit MongoDB-native forms for regexMatch, date, OBJECTID
// and Bindata instead of generic comparisons.
package specialty

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/omniql-engine/sql2mongo/ast"
	"github.com/omniql-engine/sql2mongo/engine/docval"
	"github.com/omniql-engine/sql2mongo/engine/natdate"
	"github.com/omniql-engine/sql2mongo/mapping"
	"github.com/omniql-engine/sql2mongo/sqlerr"
)

// Now is overridable in tests, mirroring engine/coerce.Now.
var Now = time.Now

func stringArg(e ast.Expr) (string, bool) {
	s, ok := e.(ast.String)
	if !ok {
		return "", false
	}
	return s.Value, true
}

func columnArg(e ast.Expr) (ast.Column, bool) {
	c, ok := e.(ast.Column)
	return c, ok
}

// Match is what a successful recognizer returns: the document field to set
// and the value (or operator sub-document) to set it to.
type Match struct {
	Field string
	Value any
}

// RegexMatch recognizes `regexMatch(col, 'pat' [, 'opts']) = true` and the
// bare call form `regexMatch(col, 'pat')`. `= false` is explicitly rejected.
func RegexMatch(e ast.Expr) (*Match, bool, error) {
	var call ast.Function

	switch v := e.(type) {
	case ast.Function:
		call = v
	case ast.Comparison:
		fn, ok := v.Left.(ast.Function)
		if !ok || !strings.EqualFold(fn.Name, "regexMatch") {
			return nil, false, nil
		}
		boolLit, ok := v.Right.(ast.Boolean)
		if !ok {
			return nil, false, nil
		}
		if v.Kind != ast.Eq {
			return nil, false, nil
		}
		if !boolLit.Value {
			return nil, false, sqlerr.New(sqlerr.UnsupportedSQL, "regexMatch(...) = false is not supported")
		}
		call = fn
	default:
		return nil, false, nil
	}

	if !strings.EqualFold(call.Name, "regexMatch") {
		return nil, false, nil
	}
	if len(call.Args) < 2 || len(call.Args) > 3 {
		return nil, false, nil
	}
	col, ok := columnArg(call.Args[0])
	if !ok {
		return nil, false, nil
	}
	pattern, ok := stringArg(call.Args[1])
	if !ok {
		return nil, false, nil
	}
	if err := validateRegex(pattern); err != nil {
		return nil, false, err
	}

	doc := bson.M{"$regex": pattern}
	if len(call.Args) == 3 {
		opts, ok := stringArg(call.Args[2])
		if !ok {
			return nil, false, nil
		}
		doc["$options"] = opts
	}
	return &Match{Field: col.Name(), Value: doc}, true, nil
}

// DateColumnCompare recognizes `date(col, 'fmt') OP 'literal'`.
func DateColumnCompare(e ast.Expr) (*Match, bool, error) {
	cmp, ok := e.(ast.Comparison)
	if !ok {
		return nil, false, nil
	}
	call, ok := cmp.Left.(ast.Function)
	if !ok || !strings.EqualFold(call.Name, "date") || len(call.Args) != 2 {
		return nil, false, nil
	}
	col, ok := columnArg(call.Args[0])
	if !ok {
		return nil, false, nil
	}
	if _, ok := stringArg(call.Args[1]); !ok {
		return nil, false, nil
	}
	literal, ok := stringArg(cmp.Right)
	if !ok {
		return nil, false, nil
	}
	mongoOp, ok := mapping.DateCompareOperatorMap[cmp.Kind]
	if !ok {
		return nil, false, nil
	}
	t, err := natdate.Parse(literal, Now())
	if err != nil {
		return nil, false, sqlerr.Newf(sqlerr.BadDate, "could not convert %s to a date", literal)
	}
	return &Match{Field: col.Name(), Value: bson.M{mongoOp: primitive.NewDateTimeFromTime(t)}}, true, nil
}

// ObjectID recognizes `OBJECTID('col') OP 'hex24'` and
// `OBJECTID('col') [NOT] IN (...)`.
func ObjectID(e ast.Expr) (*Match, bool, error) {
	switch v := e.(type) {
	case ast.Comparison:
		col, ok := objectIDCall(v.Left)
		if !ok {
			return nil, false, nil
		}
		hex, ok := stringArg(v.Right)
		if !ok {
			return nil, false, nil
		}
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return nil, false, sqlerr.Newf(sqlerr.BadRegex, "invalid ObjectId: %s", hex)
		}
		switch v.Kind {
		case ast.Eq:
			return &Match{Field: col, Value: id}, true, nil
		case ast.NotEq:
			return &Match{Field: col, Value: bson.M{"$ne": id}}, true, nil
		}
		return nil, false, nil

	case ast.InList:
		col, ok := objectIDCall(v.Left)
		if !ok {
			return nil, false, nil
		}
		ids := make(bson.A, 0, len(v.Items))
		for _, item := range v.Items {
			hex, ok := stringArg(item)
			if !ok {
				return nil, false, nil
			}
			id, err := primitive.ObjectIDFromHex(hex)
			if err != nil {
				return nil, false, sqlerr.Newf(sqlerr.BadRegex, "invalid ObjectId: %s", hex)
			}
			ids = append(ids, id)
		}
		op := "$in"
		if v.Negated {
			op = "$nin"
		}
		return &Match{Field: col, Value: bson.M{op: ids}}, true, nil
	}
	return nil, false, nil
}

func objectIDCall(e ast.Expr) (string, bool) {
	call, ok := e.(ast.Function)
	if !ok || !strings.EqualFold(call.Name, "OBJECTID") || len(call.Args) != 1 {
		return "", false
	}
	name, ok := stringArg(call.Args[0])
	return name, ok
}

// BindataEquals recognizes `col = Bindata('base64')`.
func BindataEquals(e ast.Expr) (*Match, bool, error) {
	cmp, ok := e.(ast.Comparison)
	if !ok || cmp.Kind != ast.Eq {
		return nil, false, nil
	}
	col, ok := columnArg(cmp.Left)
	if !ok {
		return nil, false, nil
	}
	call, ok := cmp.Right.(ast.Function)
	if !ok || !strings.EqualFold(call.Name, "Bindata") || len(call.Args) != 1 {
		return nil, false, nil
	}
	b64, ok := stringArg(call.Args[0])
	if !ok {
		return nil, false, nil
	}
	return &Match{
		Field: col.Name(),
		Value: bson.M{"$eq": docval.Binary{Base64: b64, Subtype: "03"}},
	}, true, nil
}

// DateLiteralCompare recognizes `col OP date('str')`.
func DateLiteralCompare(e ast.Expr) (*Match, bool, error) {
	cmp, ok := e.(ast.Comparison)
	if !ok {
		return nil, false, nil
	}
	col, ok := columnArg(cmp.Left)
	if !ok {
		return nil, false, nil
	}
	call, ok := cmp.Right.(ast.Function)
	if !ok || !strings.EqualFold(call.Name, "date") || len(call.Args) != 1 {
		return nil, false, nil
	}
	literal, ok := stringArg(call.Args[0])
	if !ok {
		return nil, false, nil
	}
	mongoOp, ok := mapping.DateCompareOperatorMap[cmp.Kind]
	if !ok {
		return nil, false, nil
	}
	t, err := natdate.Parse(literal, Now())
	if err != nil {
		return nil, false, sqlerr.Newf(sqlerr.BadDate, "could not convert %s to a date", literal)
	}
	return &Match{Field: col.Name(), Value: bson.M{mongoOp: primitive.NewDateTimeFromTime(t)}}, true, nil
}

// validateRegex compiles pat to surface a BadRegex ParseError immediately,
// per spec §4.2's "Regex validation" rule and invariant #6.
func validateRegex(pat string) error {
	if _, err := regexp.Compile(pat); err != nil {
		return sqlerr.Newf(sqlerr.BadRegex, "%s", err.Error())
	}
	return nil
}

// ValidateRegex is the exported form Where Lowerer's LIKE translation uses
// for invariant #6 (every $regex value must compile).
func ValidateRegex(pat string) error {
	return validateRegex(pat)
}

// Recognize runs every recognizer in spec §4.2's table order and returns
// the first match. This is the single entry point the Where Lowerer calls.
func Recognize(e ast.Expr) (*Match, bool, error) {
	if m, ok, err := RegexMatch(e); ok || err != nil {
		return m, ok, err
	}
	if m, ok, err := DateColumnCompare(e); ok || err != nil {
		return m, ok, err
	}
	if m, ok, err := ObjectID(e); ok || err != nil {
		return m, ok, err
	}
	if m, ok, err := BindataEquals(e); ok || err != nil {
		return m, ok, err
	}
	if m, ok, err := DateLiteralCompare(e); ok || err != nil {
		return m, ok, err
	}
	return nil, false, nil
}
