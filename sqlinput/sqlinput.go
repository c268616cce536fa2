// Package sqlinput adapts SQL text into the lowering core's ast.Statement,
// using the same xwb1989/sqlparser grammar the teacher's own MySQL
// validator parses with (see engine/validator/mysql.go). Nothing
// downstream of this package imports a SQL parser.
package sqlinput

import (
	"strconv"
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/omniql-engine/sql2mongo/ast"
	"github.com/omniql-engine/sql2mongo/sqlerr"
)

// Parse turns sql into an ast.Statement. A literal "==" anywhere in the
// source is caught before the grammar ever sees it (spec §4.8 rule 6): a
// grammar-level parse error for "==" would otherwise surface a confusing
// syntax message instead of the specific, well-known mistake it usually is.
func Parse(sql string) (*ast.Statement, error) {
	if strings.Contains(sql, "==") {
		return nil, sqlerr.New(sqlerr.UnsupportedSQL,
			"unable to parse complete sql string. one reason for this is the use of double equals (==).")
	}

	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, sqlerr.Newf(sqlerr.UnsupportedSQL, "unable to parse complete sql string: %s", err.Error())
	}

	switch s := stmt.(type) {
	case *sqlparser.Select:
		sel, err := convertSelect(s)
		if err != nil {
			return nil, err
		}
		return &ast.Statement{Select: sel}, nil
	case *sqlparser.Delete:
		del, err := convertDelete(s)
		if err != nil {
			return nil, err
		}
		return &ast.Statement{Delete: del}, nil
	default:
		return nil, sqlerr.New(sqlerr.UnsupportedSQL, "unsupported statement type")
	}
}

func convertSelect(s *sqlparser.Select) (*ast.Select, error) {
	table, alias, isSubquery, joins, err := convertFrom(s.From)
	if err != nil {
		return nil, err
	}

	items, selHasSubquery, err := convertSelectExprs(s.SelectExprs)
	if err != nil {
		return nil, err
	}

	sel := &ast.Select{
		Items:             items,
		FromTable:         table,
		FromAlias:         alias,
		FromIsSubquery:    isSubquery,
		SelectHasSubquery: selHasSubquery,
		Distinct:          s.Distinct != "",
		Joins:             joins,
		GroupBys:          convertGroupBy(s.GroupBy),
	}

	if s.Where != nil {
		w, err := convertExpr(s.Where.Expr)
		if err != nil {
			return nil, err
		}
		sel.Where = w
	}

	orderBys, err := convertOrderBy(s.OrderBy)
	if err != nil {
		return nil, err
	}
	sel.OrderBys = orderBys

	offset, limit, err := convertLimit(s.Limit)
	if err != nil {
		return nil, err
	}
	sel.Offset, sel.Limit = offset, limit

	return sel, nil
}

func convertDelete(d *sqlparser.Delete) (*ast.Delete, error) {
	if len(d.TableExprs) != 1 {
		return nil, sqlerr.New(sqlerr.UnsupportedSQL, "Only one simple table name is supported.")
	}
	table, _, isSubquery, _, err := convertTableExpr(d.TableExprs[0])
	if err != nil {
		return nil, err
	}
	if isSubquery {
		return nil, sqlerr.New(sqlerr.UnsupportedSQL, "Only one simple table name is supported.")
	}

	del := &ast.Delete{Table: table}
	if d.Where != nil {
		w, err := convertExpr(d.Where.Expr)
		if err != nil {
			return nil, err
		}
		del.Where = w
	}
	return del, nil
}

func convertFrom(from sqlparser.TableExprs) (table, alias string, isSubquery bool, joins []ast.Join, err error) {
	if len(from) == 0 {
		return "", "", false, nil, sqlerr.New(sqlerr.UnsupportedSQL, "missing FROM clause")
	}

	table, alias, isSubquery, joins, err = convertTableExpr(from[0])
	if err != nil {
		return "", "", false, nil, err
	}
	for _, extra := range from[1:] {
		extraTable, _, _, _, err := convertTableExpr(extra)
		if err != nil {
			return "", "", false, nil, err
		}
		// Comma-separated implicit join: Type is left empty so the
		// Validator rejects it outright (spec §4.8 rule 2).
		joins = append(joins, ast.Join{Type: "", Table: extraTable})
	}
	return table, alias, isSubquery, joins, nil
}

func convertTableExpr(te sqlparser.TableExpr) (table, alias string, isSubquery bool, joins []ast.Join, err error) {
	switch t := te.(type) {
	case *sqlparser.AliasedTableExpr:
		switch inner := t.Expr.(type) {
		case sqlparser.TableName:
			return inner.Name.String(), t.As.String(), false, nil, nil
		case *sqlparser.Subquery:
			return "", t.As.String(), true, nil, nil
		default:
			return "", "", false, nil, sqlerr.New(sqlerr.UnsupportedSQL, "unsupported FROM expression")
		}

	case *sqlparser.JoinTableExpr:
		leftTable, leftAlias, leftSub, leftJoins, err := convertTableExpr(t.LeftExpr)
		if err != nil {
			return "", "", false, nil, err
		}
		rightTable, _, _, _, err := convertTableExpr(t.RightExpr)
		if err != nil {
			return "", "", false, nil, err
		}
		j := ast.Join{Type: joinTypeFromStr(t.Join), Table: rightTable}
		if cmp, ok := t.Condition.On.(*sqlparser.ComparisonExpr); ok {
			if lc, ok := cmp.Left.(*sqlparser.ColName); ok {
				j.LeftField = lc.Name.CompliantName()
			}
			if rc, ok := cmp.Right.(*sqlparser.ColName); ok {
				j.RightField = rc.Name.CompliantName()
			}
		}
		return leftTable, leftAlias, leftSub, append(leftJoins, j), nil

	default:
		return "", "", false, nil, sqlerr.New(sqlerr.UnsupportedSQL, "unsupported FROM expression")
	}
}

func joinTypeFromStr(s string) string {
	switch strings.ToLower(s) {
	case sqlparser.JoinStr, sqlparser.StraightJoinStr:
		return "INNER"
	case sqlparser.LeftJoinStr, sqlparser.NaturalLeftJoinStr:
		return "LEFT"
	case sqlparser.RightJoinStr, sqlparser.NaturalRightJoinStr:
		return "RIGHT"
	case sqlparser.CrossJoinStr:
		return "CROSS"
	default:
		return strings.ToUpper(s)
	}
}

func convertSelectExprs(exprs sqlparser.SelectExprs) ([]ast.SelectItem, bool, error) {
	items := make([]ast.SelectItem, 0, len(exprs))
	hasSubquery := false

	for _, e := range exprs {
		switch se := e.(type) {
		case *sqlparser.StarExpr:
			items = append(items, ast.SelectItem{All: true})
		case *sqlparser.AliasedExpr:
			if _, ok := se.Expr.(*sqlparser.Subquery); ok {
				hasSubquery = true
				continue
			}
			expr, err := convertExpr(se.Expr)
			if err != nil {
				return nil, false, err
			}
			items = append(items, ast.SelectItem{Expression: expr, Alias: se.As.String()})
		default:
			return nil, false, sqlerr.New(sqlerr.UnsupportedSelectExpression, "Unsupported subselect expression")
		}
	}
	return items, hasSubquery, nil
}

func convertGroupBy(gb sqlparser.GroupBy) []string {
	names := make([]string, 0, len(gb))
	for _, e := range gb {
		if col, ok := e.(*sqlparser.ColName); ok {
			names = append(names, colName(col).Dotted())
		}
	}
	return names
}

func convertOrderBy(ob sqlparser.OrderBy) ([]ast.OrderByItem, error) {
	items := make([]ast.OrderByItem, 0, len(ob))
	for _, o := range ob {
		expr, err := convertExpr(o.Expr)
		if err != nil {
			return nil, err
		}
		dir := ast.Asc
		if strings.EqualFold(o.Direction, "desc") {
			dir = ast.Desc
		}
		items = append(items, ast.OrderByItem{Expression: expr, Direction: dir})
	}
	return items, nil
}

func convertLimit(l *sqlparser.Limit) (offset, limit *int64, err error) {
	if l == nil {
		return nil, nil, nil
	}
	if l.Offset != nil {
		v, ok := l.Offset.(*sqlparser.SQLVal)
		if !ok {
			return nil, nil, sqlerr.New(sqlerr.UnsupportedSQL, "unsupported OFFSET expression")
		}
		n, convErr := strconv.ParseInt(string(v.Val), 10, 64)
		if convErr != nil {
			return nil, nil, sqlerr.Newf(sqlerr.UnsupportedSQL, "invalid OFFSET: %s", v.Val)
		}
		offset = &n
	}
	if l.Rowcount != nil {
		v, ok := l.Rowcount.(*sqlparser.SQLVal)
		if !ok {
			return nil, nil, sqlerr.New(sqlerr.UnsupportedSQL, "unsupported LIMIT expression")
		}
		n, convErr := strconv.ParseInt(string(v.Val), 10, 64)
		if convErr != nil {
			return nil, nil, sqlerr.Newf(sqlerr.UnsupportedSQL, "invalid LIMIT: %s", v.Val)
		}
		limit = &n
	}
	return offset, limit, nil
}

func colName(col *sqlparser.ColName) ast.Column {
	var parts []string
	if !col.Qualifier.Name.IsEmpty() {
		parts = append(parts, col.Qualifier.Name.String())
	}
	parts = append(parts, col.Name.CompliantName())
	return ast.Column{Parts: parts}
}

func convertExpr(e sqlparser.Expr) (ast.Expr, error) {
	switch v := e.(type) {
	case *sqlparser.ColName:
		return colName(v), nil

	case *sqlparser.SQLVal:
		return convertSQLVal(v)

	case sqlparser.BoolVal:
		return ast.Boolean{Value: bool(v)}, nil

	case *sqlparser.AndExpr:
		left, err := convertExpr(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := convertExpr(v.Right)
		if err != nil {
			return nil, err
		}
		return ast.Logical{Kind: ast.And, Left: left, Right: right}, nil

	case *sqlparser.OrExpr:
		left, err := convertExpr(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := convertExpr(v.Right)
		if err != nil {
			return nil, err
		}
		return ast.Logical{Kind: ast.Or, Left: left, Right: right}, nil

	case *sqlparser.NotExpr:
		inner, err := convertExpr(v.Expr)
		if err != nil {
			return nil, err
		}
		if col, ok := inner.(ast.Column); ok {
			return ast.Not{Inner: col}, nil
		}
		if p, ok := inner.(ast.Parens); ok {
			p.Negated = true
			return p, nil
		}
		return ast.Parens{Inner: inner, Negated: true}, nil

	case *sqlparser.ParenExpr:
		inner, err := convertExpr(v.Expr)
		if err != nil {
			return nil, err
		}
		return ast.Parens{Inner: inner}, nil

	case *sqlparser.ComparisonExpr:
		return convertComparison(v)

	case *sqlparser.IsExpr:
		inner, err := convertExpr(v.Expr)
		if err != nil {
			return nil, err
		}
		col, ok := inner.(ast.Column)
		if !ok {
			return nil, sqlerr.New(sqlerr.UnsupportedSQL, "IS [NOT] NULL requires a column operand")
		}
		switch v.Operator {
		case sqlparser.IsNullStr:
			return ast.IsNull{Inner: col, Negated: false}, nil
		case sqlparser.IsNotNullStr:
			return ast.IsNull{Inner: col, Negated: true}, nil
		default:
			return nil, sqlerr.Newf(sqlerr.UnsupportedSQL, "unsupported IS expression %q", v.Operator)
		}

	case *sqlparser.FuncExpr:
		return convertFunc(v)

	case *sqlparser.CaseExpr:
		return convertCase(v)

	case *sqlparser.BinaryExpr:
		if v.Operator != sqlparser.MinusStr {
			return nil, sqlerr.Newf(sqlerr.UnsupportedSQL, "unsupported arithmetic operator %q", v.Operator)
		}
		left, err := convertExpr(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := convertExpr(v.Right)
		if err != nil {
			return nil, err
		}
		return ast.Arithmetic{Kind: ast.Subtract, Left: left, Right: right}, nil

	case *sqlparser.UnaryExpr:
		inner, err := convertExpr(v.Expr)
		if err != nil {
			return nil, err
		}
		if v.Operator == sqlparser.UMinusStr {
			return ast.Signed{Inner: inner, Minus: true}, nil
		}
		return inner, nil

	case *sqlparser.ParenBoolExpr:
		inner, err := convertExpr(v.Expr)
		if err != nil {
			return nil, err
		}
		return ast.Parens{Inner: inner}, nil

	default:
		return nil, sqlerr.Newf(sqlerr.UnsupportedSQL, "unsupported expression type %T", e)
	}
}

func convertSQLVal(v *sqlparser.SQLVal) (ast.Expr, error) {
	switch v.Type {
	case sqlparser.StrVal:
		return ast.String{Value: string(v.Val)}, nil
	case sqlparser.IntVal:
		n, err := strconv.ParseInt(string(v.Val), 10, 64)
		if err != nil {
			return nil, sqlerr.Newf(sqlerr.UnsupportedSQL, "invalid integer literal: %s", v.Val)
		}
		return ast.Long{Value: n}, nil
	case sqlparser.FloatVal:
		f, err := strconv.ParseFloat(string(v.Val), 64)
		if err != nil {
			return nil, sqlerr.Newf(sqlerr.UnsupportedSQL, "invalid float literal: %s", v.Val)
		}
		return ast.Double{Value: f}, nil
	default:
		return ast.String{Value: string(v.Val)}, nil
	}
}

func convertComparison(v *sqlparser.ComparisonExpr) (ast.Expr, error) {
	switch v.Operator {
	case sqlparser.EqualStr, sqlparser.NotEqualStr,
		sqlparser.GreaterThanStr, sqlparser.GreaterEqualStr,
		sqlparser.LessThanStr, sqlparser.LessEqualStr:
		left, err := convertExpr(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := convertExpr(v.Right)
		if err != nil {
			return nil, err
		}
		return ast.Comparison{Kind: kindFromOp(v.Operator), Left: left, Right: right}, nil

	case sqlparser.LikeStr, sqlparser.NotLikeStr:
		left, err := convertExpr(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := convertExpr(v.Right)
		if err != nil {
			return nil, err
		}
		return ast.Comparison{Kind: ast.Like, Left: left, Right: right, NotLike: v.Operator == sqlparser.NotLikeStr}, nil

	case sqlparser.InStr, sqlparser.NotInStr:
		left, err := convertExpr(v.Left)
		if err != nil {
			return nil, err
		}
		items, err := convertValTuple(v.Right)
		if err != nil {
			return nil, err
		}
		return ast.InList{Left: left, Items: items, Negated: v.Operator == sqlparser.NotInStr}, nil

	default:
		return nil, sqlerr.Newf(sqlerr.UnsupportedSQL, "unsupported comparison operator %q", v.Operator)
	}
}

func kindFromOp(op string) ast.CompareKind {
	switch op {
	case sqlparser.EqualStr:
		return ast.Eq
	case sqlparser.NotEqualStr:
		return ast.NotEq
	case sqlparser.GreaterThanStr:
		return ast.Gt
	case sqlparser.GreaterEqualStr:
		return ast.Gte
	case sqlparser.LessThanStr:
		return ast.Lt
	case sqlparser.LessEqualStr:
		return ast.Lte
	default:
		return ""
	}
}

func convertValTuple(e sqlparser.Expr) ([]ast.Expr, error) {
	vt, ok := e.(sqlparser.ValTuple)
	if !ok {
		return nil, sqlerr.New(sqlerr.UnsupportedSQL, "IN requires a list of values")
	}
	items := make([]ast.Expr, 0, len(vt))
	for _, it := range vt {
		ex, err := convertExpr(it)
		if err != nil {
			return nil, err
		}
		items = append(items, ex)
	}
	return items, nil
}

func convertFunc(v *sqlparser.FuncExpr) (ast.Expr, error) {
	name := v.Name.String()
	args := make([]ast.Expr, 0, len(v.Exprs))
	for _, se := range v.Exprs {
		switch a := se.(type) {
		case *sqlparser.StarExpr:
			args = append(args, ast.Column{Parts: []string{"*"}})
		case *sqlparser.AliasedExpr:
			ex, err := convertExpr(a.Expr)
			if err != nil {
				return nil, err
			}
			args = append(args, ex)
		default:
			return nil, sqlerr.New(sqlerr.UnsupportedSQL, "unsupported function argument")
		}
	}
	return ast.Function{Name: name, Args: args}, nil
}

func convertCase(v *sqlparser.CaseExpr) (ast.Expr, error) {
	var baseExpr ast.Expr
	if v.Expr != nil {
		b, err := convertExpr(v.Expr)
		if err != nil {
			return nil, err
		}
		baseExpr = b
	}

	branches := make([]ast.WhenThen, 0, len(v.Whens))
	for _, w := range v.Whens {
		cond, err := convertExpr(w.Cond)
		if err != nil {
			return nil, err
		}
		then, err := convertExpr(w.Val)
		if err != nil {
			return nil, err
		}
		if baseExpr != nil {
			// Simple CASE (`CASE expr WHEN val THEN ...`) desugars to a
			// searched CASE comparing expr to each WHEN value.
			cond = ast.Comparison{Kind: ast.Eq, Left: baseExpr, Right: cond}
		}
		branches = append(branches, ast.WhenThen{When: cond, Then: then})
	}

	var elseExpr ast.Expr
	if v.Else != nil {
		e, err := convertExpr(v.Else)
		if err != nil {
			return nil, err
		}
		elseExpr = e
	}

	return ast.Case{Branches: branches, Else: elseExpr}, nil
}
