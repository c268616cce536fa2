// Package render pretty-prints a QueryPlan as MongoDB shell syntax (spec
// §6): a thin, mechanical text layer with no bearing on the semantics the
// lowering core already committed to. It never feeds back into lowering —
// the teacher's own builders packages keep the same separation between
// building a query document and formatting one for display.
package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/omniql-engine/sql2mongo/engine/docval"
	"github.com/omniql-engine/sql2mongo/engine/plan"
)

// Options are the two process-level toggles spec §5/§6 describe; both are
// optional inputs read only at render time.
type Options struct {
	AllowDiskUse bool
	BatchSize    *int32
}

// Plan renders p as a MongoDB shell statement.
func Plan(p *plan.QueryPlan, opts Options) string {
	switch p.Op {
	case plan.Find:
		return renderFind(p)
	case plan.Count:
		return fmt.Sprintf("db.%s.count(%s)", p.Collection, doc(p.Filter, ""))
	case plan.Distinct:
		return fmt.Sprintf("db.%s.distinct(%s, %s)", p.Collection, quoteString(p.DistinctField), doc(p.Filter, ""))
	case plan.Aggregate:
		return renderAggregate(p, opts)
	case plan.Delete:
		return fmt.Sprintf("db.%s.deleteMany(%s)", p.Collection, doc(p.Filter, ""))
	default:
		return ""
	}
}

func renderFind(p *plan.QueryPlan) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("db.%s.find(%s", p.Collection, doc(p.Filter, "")))
	if len(p.Projection) > 0 {
		b.WriteString(", ")
		b.WriteString(doc(p.Projection, ""))
	}
	b.WriteString(")")
	if len(p.Sort) > 0 {
		b.WriteString(".sort(")
		b.WriteString(doc(p.Sort, ""))
		b.WriteString(")")
	}
	if p.Offset >= 0 {
		b.WriteString(fmt.Sprintf(".skip(%s)", value(docval.Long(p.Offset), "")))
	}
	if p.Limit >= 0 {
		b.WriteString(fmt.Sprintf(".limit(%s)", value(docval.Long(p.Limit), "")))
	}
	return b.String()
}

func renderAggregate(p *plan.QueryPlan, opts Options) string {
	stages := bson.A{}
	if len(p.Filter) > 0 {
		stages = append(stages, bson.M{"$match": p.Filter})
	}
	for _, s := range p.JoinPipeline {
		stages = append(stages, s)
	}
	if len(p.Projection) > 0 {
		stages = append(stages, bson.M{"$group": p.Projection})
	}
	if len(p.Sort) > 0 {
		stages = append(stages, bson.M{"$sort": p.Sort})
	}
	if p.Offset >= 0 {
		stages = append(stages, bson.M{"$skip": docval.Long(p.Offset)})
	}
	if p.Limit >= 0 {
		stages = append(stages, bson.M{"$limit": docval.Long(p.Limit)})
	}
	if len(p.AliasProjection) > 0 {
		stages = append(stages, bson.M{"$project": p.AliasProjection})
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("db.%s.aggregate(%s", p.Collection, value(stages, "")))

	if opts.AllowDiskUse || opts.BatchSize != nil {
		optsDoc := bson.M{}
		if opts.AllowDiskUse {
			optsDoc["allowDiskUse"] = true
		}
		if opts.BatchSize != nil {
			optsDoc["cursor"] = bson.M{"batchSize": *opts.BatchSize}
		}
		b.WriteString(", ")
		b.WriteString(doc(optsDoc, ""))
	}
	b.WriteString(")")
	return b.String()
}

func doc(m bson.M, indent string) string {
	if len(m) == 0 {
		return "{}"
	}
	return value(m, indent)
}

func quoteString(s string) string {
	return strconv.Quote(s)
}

// value is the recursive pretty printer. indent is the current
// indentation prefix; nested structures add two more spaces per level.
func value(v any, indent string) string {
	next := indent + "  "

	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		if t {
			return "true"
		}
		return "false"
	case string:
		return quoteString(t)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case docval.Long:
		return fmt.Sprintf(`{"$numberLong": "%d"}`, int64(t))
	case docval.Binary:
		return fmt.Sprintf(`{"$binary": "%s", "$type": "%s"}`, t.Base64, t.Subtype)
	case primitive.ObjectID:
		return fmt.Sprintf(`ObjectId("%s")`, t.Hex())
	case primitive.DateTime:
		return fmt.Sprintf(`{"$date": %d}`, int64(t))
	case bson.M:
		return renderMap(t, indent, next)
	case bson.D:
		return renderOrderedDoc(t, indent, next)
	case bson.A:
		return renderArray(t, indent, next)
	case []any:
		return renderArray(bson.A(t), indent, next)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func renderMap(m bson.M, indent, next string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{\n")
	for i, k := range keys {
		b.WriteString(next)
		b.WriteString(quoteString(k))
		b.WriteString(": ")
		b.WriteString(value(m[k], next))
		if i < len(keys)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(indent)
	b.WriteString("}")
	return b.String()
}

func renderOrderedDoc(d bson.D, indent, next string) string {
	var b strings.Builder
	b.WriteString("{\n")
	for i, e := range d {
		b.WriteString(next)
		b.WriteString(quoteString(e.Key))
		b.WriteString(": ")
		b.WriteString(value(e.Value, next))
		if i < len(d)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(indent)
	b.WriteString("}")
	return b.String()
}

func renderArray(a bson.A, indent, next string) string {
	if len(a) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteString("[\n")
	for i, v := range a {
		b.WriteString(next)
		b.WriteString(value(v, next))
		if i < len(a)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(indent)
	b.WriteString("]")
	return b.String()
}
