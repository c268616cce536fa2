// Package coerce implements the Value Coercer (spec §4.1, component C1):
// turning a literal or identifier AST node into a typed value suitable for
// embedding in a MongoDB document, driven by the caller's field-type map.
package coerce

import (
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/omniql-engine/sql2mongo/ast"
	"github.com/omniql-engine/sql2mongo/engine/natdate"
	"github.com/omniql-engine/sql2mongo/mapping"
	"github.com/omniql-engine/sql2mongo/sqlerr"
)

const int32Max = math.MaxInt32

// Now is overridable in tests so relative date literals ("45 days ago")
// resolve deterministically.
var Now = time.Now

// Coerce converts expr into a typed value, using column (the dotted name of
// the field expr is being compared to, or "" if there is none) to look up
// the FieldType. column may differ from expr itself, e.g. when expr is the
// RHS literal of `col = expr`.
func Coerce(expr ast.Expr, column string, types *mapping.FieldTypeMap) (any, error) {
	ft := types.Lookup(column)

	switch ft {
	case mapping.STRING:
		return coerceString(expr)
	case mapping.NUMBER:
		return coerceNumber(expr)
	case mapping.DATE:
		return coerceDate(expr)
	case mapping.BOOLEAN:
		return coerceBoolean(expr)
	default:
		return coerceUnknown(expr)
	}
}

// literalText extracts the raw textual form of a literal/column/signed node,
// the way the teacher's string-typed AST carried everything as text.
func literalText(expr ast.Expr) (string, bool) {
	switch v := expr.(type) {
	case ast.Long:
		return strconv.FormatInt(v.Value, 10), true
	case ast.Double:
		return strconv.FormatFloat(v.Value, 'f', -1, 64), true
	case ast.String:
		return v.Value, true
	case ast.Boolean:
		if v.Value {
			return "true", true
		}
		return "false", true
	case ast.Column:
		return v.Name(), true
	case ast.Signed:
		inner, ok := literalText(v.Inner)
		if !ok {
			return "", false
		}
		if v.Minus {
			return "-" + inner, true
		}
		return inner, true
	}
	return "", false
}

func coerceUnknown(expr ast.Expr) (any, error) {
	switch v := expr.(type) {
	case ast.Long:
		return v.Value, nil
	case ast.Double:
		return v.Value, nil
	case ast.Boolean:
		return v.Value, nil
	case ast.String:
		if b, ok := parseBoolLiteral(v.Value); ok {
			return b, nil
		}
		return collapseQuotes(v.Value), nil
	case ast.Column:
		return v.Name(), nil
	case ast.Signed:
		inner, err := coerceUnknown(v.Inner)
		if err != nil {
			return nil, err
		}
		return negate(inner), nil
	}
	text, ok := literalText(expr)
	if !ok {
		return nil, sqlerr.Newf(sqlerr.BadDate, "unsupported literal in expression")
	}
	return text, nil
}

func parseBoolLiteral(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func negate(v any) any {
	switch n := v.(type) {
	case int64:
		return -n
	case float64:
		return -n
	}
	return v
}

func collapseQuotes(s string) string {
	s = strings.ReplaceAll(s, "''", "'")
	return s
}

func coerceString(expr ast.Expr) (any, error) {
	text, ok := literalText(expr)
	if !ok {
		return nil, sqlerr.Newf(sqlerr.BadDate, "cannot coerce expression to string")
	}
	return collapseQuotes(text), nil
}

func coerceNumber(expr ast.Expr) (any, error) {
	text, ok := literalText(expr)
	if !ok {
		return nil, sqlerr.Newf(sqlerr.BadDate, "cannot coerce expression to number")
	}
	text = strings.TrimSpace(text)

	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		if i > int32Max || i < -int32Max {
			// Only LIMIT/OFFSET enforce the Int32 ceiling (spec §4.1); plain
			// numeric filter values may exceed it, so this branch returns
			// the int64 unchanged, it never fails.
			return i, nil
		}
		return i, nil
	}
	if d, err := strconv.ParseFloat(text, 64); err == nil {
		return d, nil
	}
	if f, err := strconv.ParseFloat(text, 32); err == nil {
		return float32(f), nil
	}
	return nil, sqlerr.Newf(sqlerr.BadDate, "could not convert %s to a number", text)
}

func coerceDate(expr ast.Expr) (any, error) {
	text, ok := literalText(expr)
	if !ok {
		return nil, sqlerr.Newf(sqlerr.BadDate, "cannot coerce expression to a date")
	}
	t, err := natdate.Parse(text, Now())
	if err != nil {
		return nil, sqlerr.Newf(sqlerr.BadDate, "could not convert %s to a date", text)
	}
	return primitive.NewDateTimeFromTime(t), nil
}

func coerceBoolean(expr ast.Expr) (any, error) {
	text, ok := literalText(expr)
	if !ok {
		return nil, sqlerr.Newf(sqlerr.BadDate, "cannot coerce expression to boolean")
	}
	b, err := strconv.ParseBool(strings.TrimSpace(text))
	if err != nil {
		return nil, sqlerr.Newf(sqlerr.BadDate, "could not convert %s to a boolean", text)
	}
	return b, nil
}

// CoerceLimitOffset applies the Int32 overflow policy spec §4.1 requires
// specifically for LIMIT/OFFSET values.
func CoerceLimitOffset(v int64) (int32, error) {
	if v > int32Max || v < 0 {
		return 0, sqlerr.Newf(sqlerr.ValueOutOfRange, "%d: value is too large", v)
	}
	return int32(v), nil
}
