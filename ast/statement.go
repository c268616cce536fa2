package ast

// SelectItem is one entry in a SELECT list: either `*` or an expression
// with an optional alias.
type SelectItem struct {
	All        bool
	Expression Expr
	Alias      string // empty when no AS clause
}

// SortDirection is ASC or DESC.
type SortDirection string

const (
	Asc  SortDirection = "ASC"
	Desc SortDirection = "DESC"
)

// OrderByItem is one ORDER BY element.
type OrderByItem struct {
	Expression Expr
	Direction  SortDirection
}

// Join represents a table join in the FROM clause. The core recognizes that
// joins are present but lowers them only via the JoinPipeline collaborator
// (package engine/join); the shape of the join itself is opaque beyond what
// is needed to detect and describe it.
type Join struct {
	Type       string // INNER, LEFT, RIGHT, FULL, CROSS
	Table      string
	LeftField  string
	RightField string
}

// Select is a SELECT statement.
type Select struct {
	Items      []SelectItem
	FromTable  string
	FromAlias  string // empty when no AS alias
	Where      Expr   // nil when no WHERE clause
	GroupBys   []string
	OrderBys   []OrderByItem
	Offset     *int64 // nil when unset
	Limit      *int64 // nil when unset
	Distinct   bool
	Joins      []Join

	// FromIsSubquery / SelectHasSubquery flag the two subselect shapes
	// spec §4.8 rejects explicitly (rules 3 and 4), so the Validator does
	// not need to re-derive them from string inspection.
	FromIsSubquery    bool
	SelectHasSubquery bool
}

// Delete is a DELETE statement.
type Delete struct {
	Table string
	Where Expr // nil when no WHERE clause
}

// Statement is the root node handed to the translator: exactly one of
// Select or Delete is non-nil.
type Statement struct {
	Select *Select
	Delete *Delete
}
