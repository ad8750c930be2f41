// Package rules implements Rule, Constraint, and RuleSet: quantified
// applications of the rule AST over an ASDP queue producing utility
// adjustments and constraint verdicts.
package rules

import (
	"github.com/NASA-AMMOS/synopsis/internal/metadata"
	"github.com/NASA-AMMOS/synopsis/internal/obslog"
	"github.com/NASA-AMMOS/synopsis/internal/ruleast"
)

// Rule carries a variable list (length 1 or 2), an application expression,
// an adjustment expression, and a maximum application count (negative
// means unbounded).
type Rule struct {
	Variables       []string
	Application     ruleast.BoolRef
	Adjustment      ruleast.ValueRef
	MaxApplications int
}

// Apply enumerates all assignments of Rule.Variables to elements of asdps
// and returns the total science-utility adjustment.
func (r Rule) Apply(arena *ruleast.Arena, asdps []metadata.Entry, logger obslog.Logger) float64 {
	switch len(r.Variables) {
	case 1:
		return r.applyOne(arena, asdps, logger)
	case 2:
		return r.applyTwo(arena, asdps, logger)
	default:
		obslog.Log(logger, obslog.Warn, "rule with %d variables is unsupported, no-op", len(r.Variables))
		return 0
	}
}

func (r Rule) applyOne(arena *ruleast.Arena, asdps []metadata.Entry, logger obslog.Logger) float64 {
	var total float64
	var applications int

	if r.MaxApplications == 0 {
		return 0
	}

	for _, a := range asdps {
		assignments := ruleast.Assignments{r.Variables[0]: a}
		if arena.EvalBool(r.Application, assignments, asdps, logger) {
			adj := arena.EvalValue(r.Adjustment, assignments, asdps, logger)
			if adj.IsNumeric() {
				total += adj.Numeric()
				applications++
			} else {
				obslog.Log(logger, obslog.Warn, "rule adjustment produced non-numeric value, skipping")
			}
			if r.MaxApplications >= 0 && applications >= r.MaxApplications {
				break
			}
		}
	}
	return total
}

func (r Rule) applyTwo(arena *ruleast.Arena, asdps []metadata.Entry, logger obslog.Logger) float64 {
	var total float64
	var applications int

	if r.MaxApplications == 0 {
		return 0
	}

outer:
	for _, a := range asdps {
		for _, b := range asdps {
			assignments := ruleast.Assignments{
				r.Variables[0]: a,
				r.Variables[1]: b,
			}
			if arena.EvalBool(r.Application, assignments, asdps, logger) {
				adj := arena.EvalValue(r.Adjustment, assignments, asdps, logger)
				if adj.IsNumeric() {
					total += adj.Numeric()
					applications++
				} else {
					obslog.Log(logger, obslog.Warn, "rule adjustment produced non-numeric value, skipping")
				}
				if r.MaxApplications >= 0 && applications >= r.MaxApplications {
					break outer
				}
			}
		}
	}
	return total
}

// Constraint carries a one-variable list, an application expression, an
// optional sum-field expression (zero ValueRef with HasSumField false means
// "count"), and an upper-bound constant.
type Constraint struct {
	Variables       []string
	Application     ruleast.BoolRef
	SumField        ruleast.ValueRef
	HasSumField     bool
	ConstraintValue float64
}

// Apply returns whether the constraint is satisfied (aggregate strictly
// less than ConstraintValue) over asdps. Constraints with an unsupported
// arity return true ("satisfied") to avoid spurious hard failures.
func (c Constraint) Apply(arena *ruleast.Arena, asdps []metadata.Entry, logger obslog.Logger) bool {
	if len(c.Variables) != 1 {
		obslog.Log(logger, obslog.Warn, "constraint with %d variables is unsupported, treated as satisfied", len(c.Variables))
		return true
	}

	var aggregate float64
	for _, a := range asdps {
		assignments := ruleast.Assignments{c.Variables[0]: a}
		if !arena.EvalBool(c.Application, assignments, asdps, logger) {
			continue
		}
		if !c.HasSumField {
			aggregate += 1
			continue
		}
		v := arena.EvalValue(c.SumField, assignments, asdps, logger)
		if v.IsNumeric() {
			aggregate += v.Numeric()
		} else {
			obslog.Log(logger, obslog.Warn, "constraint sum_field produced non-numeric value, skipping")
		}
	}
	return aggregate < c.ConstraintValue
}

// RuleSet owns the default and per-bin rule/constraint lists and the AST
// arena backing all of their expressions.
type RuleSet struct {
	Arena              *ruleast.Arena
	DefaultRules       []Rule
	DefaultConstraints []Constraint
	BinRules           map[int][]Rule
	BinConstraints     map[int][]Constraint
	Logger             obslog.Logger
}

// NewRuleSet constructs an empty RuleSet backed by a fresh arena.
func NewRuleSet(logger obslog.Logger) *RuleSet {
	return &RuleSet{
		Arena:          ruleast.NewArena(),
		BinRules:       map[int][]Rule{},
		BinConstraints: map[int][]Constraint{},
		Logger:         logger,
	}
}

// Rules returns the rule list for bin, falling back to the default list.
func (rs *RuleSet) Rules(bin int) []Rule {
	if r, ok := rs.BinRules[bin]; ok {
		return r
	}
	return rs.DefaultRules
}

// Constraints returns the constraint list for bin, falling back to the
// default list.
func (rs *RuleSet) Constraints(bin int) []Constraint {
	if c, ok := rs.BinConstraints[bin]; ok {
		return c
	}
	return rs.DefaultConstraints
}

// Apply evaluates all constraints for bin against queue; if any fails, it
// returns (false, 0) immediately. Otherwise it sums every rule's adjustment
// and returns (true, sum).
func (rs *RuleSet) Apply(bin int, queue []metadata.Entry) (bool, float64) {
	for _, c := range rs.Constraints(bin) {
		if !c.Apply(rs.Arena, queue, rs.Logger) {
			return false, 0
		}
	}

	var utility float64
	for _, r := range rs.Rules(bin) {
		utility += r.Apply(rs.Arena, queue, rs.Logger)
	}
	return true, utility
}
