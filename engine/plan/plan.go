// Package plan defines the Lowered Output (spec §3): the MongoDB-shaped
// query plan the lowering core produces and the render package pretty-
// prints.
package plan

import "go.mongodb.org/mongo-driver/bson"

// Op is the MongoDB operation shape the Shape Selector chose (spec §4.7).
type Op string

const (
	Find     Op = "FIND"
	Count    Op = "COUNT"
	Distinct Op = "DISTINCT"
	Aggregate Op = "AGGREGATE"
	Delete   Op = "DELETE"
)

// QueryPlan is the fully lowered query, ready for the render package or a
// driver call. Offset/Limit use -1 as the "unset" sentinel so an explicit
// LIMIT 0 / OFFSET 0 stays distinct from an unset one; a QueryPlan built
// without setting them holds 0 in both, which render treats as explicit.
type QueryPlan struct {
	Collection string
	Op         Op

	Filter          bson.M
	Projection      bson.M
	AliasProjection bson.M
	Sort            bson.D

	Offset int32
	Limit  int32

	GroupBys  []string
	Distinct  bool
	CountAll  bool

	// JoinPipeline holds any extra pipeline stages a JoinPipeline
	// collaborator contributed (spec §4.8 rule 5 / package engine/join);
	// nil in the common single-collection case.
	JoinPipeline []bson.D

	// DistinctField names the field DISTINCT was requested on.
	DistinctField string
}
