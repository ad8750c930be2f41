package rules

import (
	"testing"

	"github.com/NASA-AMMOS/synopsis/internal/metadata"
	"github.com/NASA-AMMOS/synopsis/internal/ruleast"
)

func makeEntry(id int, instrument string) metadata.Entry {
	return metadata.Entry{
		"id":              metadata.Int(int64(id)),
		"instrument_name": metadata.String(instrument),
	}
}

func TestRuleMaxApplicationsZeroIsNoop(t *testing.T) {
	arena := ruleast.NewArena()
	alwaysTrue := arena.AddLogicalConstant(true)
	adj := arena.AddConstNumber(100)

	r := Rule{
		Variables:       []string{"x"},
		Application:     alwaysTrue,
		Adjustment:      adj,
		MaxApplications: 0,
	}

	asdps := []metadata.Entry{makeEntry(1, "A"), makeEntry(2, "A")}
	total := r.Apply(arena, asdps, nil)
	if total != 0 {
		t.Fatalf("max_applications=0 should contribute zero adjustment, got %v", total)
	}
}

func TestRuleUnboundedAppliesToAllMatches(t *testing.T) {
	arena := ruleast.NewArena()
	alwaysTrue := arena.AddLogicalConstant(true)
	adj := arena.AddConstNumber(10)

	r := Rule{
		Variables:       []string{"x"},
		Application:     alwaysTrue,
		Adjustment:      adj,
		MaxApplications: -1,
	}

	asdps := []metadata.Entry{makeEntry(1, "A"), makeEntry(2, "A"), makeEntry(3, "A")}
	total := r.Apply(arena, asdps, nil)
	if total != 30 {
		t.Fatalf("expected 30, got %v", total)
	}
}

func TestTwoVariableRuleInstrumentPair(t *testing.T) {
	// RULE(x, y): APPLIES (x.instrument == "A") AND (y.instrument == "B")
	// ADJUST UTILITY 100, MAXIMUM APPLICATIONS 1
	arena := ruleast.NewArena()
	xField := arena.AddField("x", "instrument_name")
	yField := arena.AddField("y", "instrument_name")
	aStr := arena.AddConstString("A")
	bStr := arena.AddConstString("B")
	xIsA := arena.AddComparator(ruleast.OpEq, xField, aStr)
	yIsB := arena.AddComparator(ruleast.OpEq, yField, bStr)
	app := arena.AddBinaryLogical(ruleast.OpAnd, xIsA, yIsB)
	adj := arena.AddConstNumber(100)

	r := Rule{
		Variables:       []string{"x", "y"},
		Application:     app,
		Adjustment:      adj,
		MaxApplications: 1,
	}

	asdps := []metadata.Entry{
		makeEntry(1, "A"),
		makeEntry(2, "B"),
		makeEntry(3, "A"),
		makeEntry(4, "B"),
	}

	total := r.Apply(arena, asdps, nil)
	if total != 100 {
		t.Fatalf("expected exactly one application (100), got %v", total)
	}
}

func TestConstraintCountSemantics(t *testing.T) {
	arena := ruleast.NewArena()
	alwaysTrue := arena.AddLogicalConstant(true)

	c := Constraint{
		Variables:       []string{"x"},
		Application:     alwaysTrue,
		HasSumField:     false,
		ConstraintValue: 0,
	}

	asdps := []metadata.Entry{makeEntry(1, "A")}
	if c.Apply(arena, asdps, nil) {
		t.Fatal("constraint_value=0 with any application holding should be unsatisfied")
	}
}

func TestConstraintEmptyQueueSatisfied(t *testing.T) {
	arena := ruleast.NewArena()
	alwaysTrue := arena.AddLogicalConstant(true)

	c := Constraint{
		Variables:       []string{"x"},
		Application:     alwaysTrue,
		HasSumField:     false,
		ConstraintValue: 1,
	}

	if !c.Apply(arena, nil, nil) {
		t.Fatal("empty queue (count 0) should satisfy a count constraint with bound 1")
	}
}

func TestConstraintUnsupportedArityIsSatisfied(t *testing.T) {
	arena := ruleast.NewArena()
	c := Constraint{
		Variables:       []string{"x", "y"},
		ConstraintValue: 0,
	}
	if !c.Apply(arena, []metadata.Entry{makeEntry(1, "A")}, nil) {
		t.Fatal("unsupported arity constraint must report satisfied")
	}
}

func TestRuleSetApplyStopsAtFirstViolation(t *testing.T) {
	arena := ruleast.NewArena()
	alwaysTrue := arena.AddLogicalConstant(true)

	violating := Constraint{
		Variables:       []string{"x"},
		Application:     alwaysTrue,
		HasSumField:     false,
		ConstraintValue: 0,
	}
	passing := Constraint{
		Variables:       []string{"x"},
		Application:     alwaysTrue,
		HasSumField:     false,
		ConstraintValue: 1000,
	}

	rs := NewRuleSet(nil)
	rs.Arena = arena
	rs.DefaultConstraints = []Constraint{violating, passing}

	ok, adj := rs.Apply(0, []metadata.Entry{makeEntry(1, "A")})
	if ok {
		t.Fatal("expected admissibility false when first constraint fails")
	}
	if adj != 0 {
		t.Fatalf("expected zero adjustment on violation, got %v", adj)
	}
}

func TestRuleSetApplySumsRuleAdjustments(t *testing.T) {
	arena := ruleast.NewArena()
	alwaysTrue := arena.AddLogicalConstant(true)
	five := arena.AddConstNumber(5)
	ten := arena.AddConstNumber(10)

	r1 := Rule{Variables: []string{"x"}, Application: alwaysTrue, Adjustment: five, MaxApplications: -1}
	r2 := Rule{Variables: []string{"x"}, Application: alwaysTrue, Adjustment: ten, MaxApplications: -1}

	rs := NewRuleSet(nil)
	rs.Arena = arena
	rs.DefaultRules = []Rule{r1, r2}

	ok, adj := rs.Apply(0, []metadata.Entry{makeEntry(1, "A")})
	if !ok {
		t.Fatal("expected admissible with no constraints")
	}
	if adj != 15 {
		t.Fatalf("expected 15 (5+10), got %v", adj)
	}
}

func TestRuleSetBinOverrideFallsBackToDefault(t *testing.T) {
	rs := NewRuleSet(nil)
	rs.DefaultRules = []Rule{{MaxApplications: -1}}
	rs.BinRules[5] = []Rule{{MaxApplications: -1}, {MaxApplications: -1}}

	if len(rs.Rules(5)) != 2 {
		t.Fatal("expected bin override to take precedence")
	}
	if len(rs.Rules(99)) != 1 {
		t.Fatal("expected default list for unspecified bin")
	}
}
