// Package sql2mongo translates a single SQL statement into a MongoDB
// query plan. It composes the package's pipeline stages (sqlinput parses,
// engine/assemble validates and lowers, engine/render formats) behind one
// entry point, the way the teacher's own omniql.go composes its parser and
// translator behind Parse.
package sql2mongo

import (
	"github.com/omniql-engine/sql2mongo/engine/assemble"
	"github.com/omniql-engine/sql2mongo/engine/join"
	"github.com/omniql-engine/sql2mongo/engine/plan"
	"github.com/omniql-engine/sql2mongo/engine/render"
	"github.com/omniql-engine/sql2mongo/mapping"
	"github.com/omniql-engine/sql2mongo/sqlinput"
)

// Option configures a Translate call.
type Option func(*options)

type options struct {
	joins join.Pipeline
	types *mapping.FieldTypeMap
}

// WithJoinPipeline supplies the collaborator that lowers explicit
// `JOIN ... ON` clauses into aggregation stages. Without one, any explicit
// join is rejected the same way implicit comma-joins always are.
func WithJoinPipeline(p join.Pipeline) Option {
	return func(o *options) { o.joins = p }
}

// WithFieldTypes supplies the collection's known field types, used to
// coerce literals into strings, numbers, dates and booleans.
// Without one, every literal is coerced using its own SQL syntax alone.
func WithFieldTypes(types *mapping.FieldTypeMap) Option {
	return func(o *options) { o.types = types }
}

// Translate parses sql and lowers it into a MongoDB query plan.
func Translate(sql string, opts ...Option) (*plan.QueryPlan, error) {
	cfg := options{joins: join.NopJoinPipeline{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.types == nil {
		cfg.types = mapping.NewFieldTypeMap(nil, mapping.UNKNOWN)
	}

	stmt, err := sqlinput.Parse(sql)
	if err != nil {
		return nil, err
	}
	return assemble.Statement(stmt, cfg.types, cfg.joins)
}

// Render formats a query plan as a MongoDB shell statement (spec §6).
func Render(p *plan.QueryPlan, opts render.Options) string {
	return render.Plan(p, opts)
}
