// Package join defines the JoinPipeline collaborator (spec §4.8 rule 5):
// the seam a caller can implement to translate SQL joins into $lookup
// pipeline stages. The core ships only the default, which rejects every
// join, mirroring the teacher's pattern of a narrow collaborator interface
// plus a no-op default implementation (engine/builders/mongodb falls back
// to an empty aggregation stage list the same way when a feature isn't
// wired up).
package join

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/omniql-engine/sql2mongo/ast"
	"github.com/omniql-engine/sql2mongo/sqlerr"
)

// Pipeline turns the joins present on a SELECT statement into extra
// aggregation pipeline stages.
type Pipeline interface {
	Lower(joins []ast.Join) ([]bson.D, error)
}

// NopJoinPipeline rejects every join. It is the Assembler's default
// collaborator when the caller doesn't supply one.
type NopJoinPipeline struct{}

func (NopJoinPipeline) Lower(joins []ast.Join) ([]bson.D, error) {
	if len(joins) == 0 {
		return nil, nil
	}
	return nil, sqlerr.New(sqlerr.UnsupportedJoin, "Join type not suported")
}
