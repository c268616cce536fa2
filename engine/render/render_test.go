package render

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/omniql-engine/sql2mongo/engine/plan"
)

func TestPlanFindRendersFilterAndProjection(t *testing.T) {
	p := &plan.QueryPlan{
		Op:         plan.Find,
		Collection: "users",
		Filter:     bson.M{"age": 30},
		Projection: bson.M{"name": 1},
		Offset:     -1,
		Limit:      -1,
	}
	got := Plan(p, Options{})
	if !strings.HasPrefix(got, "db.users.find(") {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(got, `"age": 30`) || !strings.Contains(got, `"name": 1`) {
		t.Errorf("got %q", got)
	}
}

func TestPlanFindAppliesSortSkipLimit(t *testing.T) {
	p := &plan.QueryPlan{
		Op:         plan.Find,
		Collection: "users",
		Filter:     bson.M{},
		Sort:       bson.D{{Key: "age", Value: -1}},
		Offset:     5,
		Limit:      10,
	}
	got := Plan(p, Options{})
	if !strings.Contains(got, ".sort(") || !strings.Contains(got, ".skip(") || !strings.Contains(got, ".limit(") {
		t.Errorf("got %q", got)
	}
}

func TestPlanCount(t *testing.T) {
	p := &plan.QueryPlan{Op: plan.Count, Collection: "users", Filter: bson.M{}, Offset: -1, Limit: -1}
	got := Plan(p, Options{})
	if got != "db.users.count({})" {
		t.Errorf("got %q", got)
	}
}

func TestPlanDistinct(t *testing.T) {
	p := &plan.QueryPlan{Op: plan.Distinct, Collection: "users", DistinctField: "name", Filter: bson.M{}, Offset: -1, Limit: -1}
	got := Plan(p, Options{})
	if got != `db.users.distinct("name", {})` {
		t.Errorf("got %q", got)
	}
}

func TestPlanDelete(t *testing.T) {
	p := &plan.QueryPlan{Op: plan.Delete, Collection: "users", Filter: bson.M{"id": 1}, Offset: -1, Limit: -1}
	got := Plan(p, Options{})
	if !strings.HasPrefix(got, "db.users.deleteMany(") {
		t.Errorf("got %q", got)
	}
}

func TestPlanAggregateBuildsStagesInOrder(t *testing.T) {
	p := &plan.QueryPlan{
		Op:              plan.Aggregate,
		Collection:      "orders",
		Filter:          bson.M{"status": "open"},
		Projection:      bson.M{"_id": "$customer"},
		AliasProjection: bson.M{"customer": "$_id"},
		Offset:          -1,
		Limit:           -1,
	}
	got := Plan(p, Options{})
	matchIdx := strings.Index(got, "$match")
	groupIdx := strings.Index(got, "$group")
	projectIdx := strings.Index(got, "$project")
	if matchIdx == -1 || groupIdx == -1 || projectIdx == -1 {
		t.Fatalf("missing expected stage in %q", got)
	}
	if !(matchIdx < groupIdx && groupIdx < projectIdx) {
		t.Errorf("stages out of order: match=%d group=%d project=%d", matchIdx, groupIdx, projectIdx)
	}
}

func TestPlanAggregateWithOptionsAppendsCursorDoc(t *testing.T) {
	batch := int32(50)
	p := &plan.QueryPlan{Op: plan.Aggregate, Collection: "orders", Filter: bson.M{}, Offset: -1, Limit: -1}
	got := Plan(p, Options{AllowDiskUse: true, BatchSize: &batch})
	if !strings.Contains(got, "allowDiskUse") || !strings.Contains(got, "batchSize") {
		t.Errorf("got %q", got)
	}
}

func TestPlanUnknownOpRendersEmpty(t *testing.T) {
	p := &plan.QueryPlan{Op: plan.Op("BOGUS")}
	if got := Plan(p, Options{}); got != "" {
		t.Errorf("got %q, want empty string", got)
	}
}
