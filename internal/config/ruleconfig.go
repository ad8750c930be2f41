// Package config loads rule and similarity configuration documents: the
// recursive {__type__, __contents__} AST envelope for rules and
// constraints, and the alpha/function-map document for similarity. Both
// formats are dynamic JSON, so traversal uses gjson path queries rather
// than static struct tags.
package config

import (
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/NASA-AMMOS/synopsis/internal/obslog"
	"github.com/NASA-AMMOS/synopsis/internal/ruleast"
	"github.com/NASA-AMMOS/synopsis/internal/rules"
)

// LoadRuleSet parses a rule configuration document into a RuleSet. Any
// individual malformed rule or constraint is dropped with a log entry;
// the rest of the document still takes effect. An empty or absent document
// yields an empty RuleSet.
func LoadRuleSet(data []byte, logger obslog.Logger) *rules.RuleSet {
	rs := rules.NewRuleSet(logger)
	if len(data) == 0 {
		return rs
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		obslog.Log(logger, obslog.Warn, "rule configuration document is not a JSON object, using empty rule set")
		return rs
	}

	doc.ForEach(func(key, val gjson.Result) bool {
		binRules, binConstraints := parseBin(rs.Arena, val, logger)
		if key.String() == "default" {
			rs.DefaultRules = binRules
			rs.DefaultConstraints = binConstraints
			return true
		}
		bin, err := strconv.Atoi(key.String())
		if err != nil {
			obslog.Log(logger, obslog.Warn, "rule configuration key %q is neither \"default\" nor an integer bin, skipping", key.String())
			return true
		}
		rs.BinRules[bin] = binRules
		rs.BinConstraints[bin] = binConstraints
		return true
	})

	return rs
}

func parseBin(arena *ruleast.Arena, binDoc gjson.Result, logger obslog.Logger) ([]rules.Rule, []rules.Constraint) {
	var parsedRules []rules.Rule
	var parsedConstraints []rules.Constraint

	for _, r := range binDoc.Get("rules").Array() {
		rule, ok := parseRule(arena, r, logger)
		if !ok {
			continue
		}
		parsedRules = append(parsedRules, rule)
	}

	for _, c := range binDoc.Get("constraints").Array() {
		constraint, ok := parseConstraint(arena, c, logger)
		if !ok {
			continue
		}
		parsedConstraints = append(parsedConstraints, constraint)
	}

	return parsedRules, parsedConstraints
}

func objType(obj gjson.Result) string {
	return obj.Get("__type__").String()
}

func contents(obj gjson.Result) gjson.Result {
	return obj.Get("__contents__")
}

func parseStringArray(obj gjson.Result, field string) ([]string, bool) {
	arr := contents(obj).Get(field)
	if !arr.IsArray() {
		return nil, false
	}
	var out []string
	for _, v := range arr.Array() {
		if v.Type != gjson.String {
			return nil, false
		}
		out = append(out, v.String())
	}
	return out, true
}

func parseRule(arena *ruleast.Arena, obj gjson.Result, logger obslog.Logger) (rules.Rule, bool) {
	if objType(obj) != "Rule" {
		obslog.Log(logger, obslog.Warn, "expected Rule node, got %q, dropping", objType(obj))
		return rules.Rule{}, false
	}

	variables, ok := parseStringArray(obj, "variables")
	if !ok {
		obslog.Log(logger, obslog.Warn, "rule missing or malformed variables, dropping")
		return rules.Rule{}, false
	}

	application, ok := parseBoolExpr(arena, contents(obj).Get("application"), logger)
	if !ok {
		obslog.Log(logger, obslog.Warn, "rule has malformed application expression, dropping")
		return rules.Rule{}, false
	}

	adjustment, ok := parseValueExpr(arena, contents(obj).Get("adjustment"), logger)
	if !ok {
		obslog.Log(logger, obslog.Warn, "rule has malformed adjustment expression, dropping")
		return rules.Rule{}, false
	}

	maxApplications := -1
	if m := contents(obj).Get("max_applications"); m.Exists() {
		maxApplications = int(m.Int())
	}

	return rules.Rule{
		Variables:       variables,
		Application:     application,
		Adjustment:      adjustment,
		MaxApplications: maxApplications,
	}, true
}

func parseConstraint(arena *ruleast.Arena, obj gjson.Result, logger obslog.Logger) (rules.Constraint, bool) {
	if objType(obj) != "Constraint" {
		obslog.Log(logger, obslog.Warn, "expected Constraint node, got %q, dropping", objType(obj))
		return rules.Constraint{}, false
	}

	variables, ok := parseStringArray(obj, "variables")
	if !ok {
		obslog.Log(logger, obslog.Warn, "constraint missing or malformed variables, dropping")
		return rules.Constraint{}, false
	}

	application, ok := parseBoolExpr(arena, contents(obj).Get("application"), logger)
	if !ok {
		obslog.Log(logger, obslog.Warn, "constraint has malformed application expression, dropping")
		return rules.Constraint{}, false
	}

	sumFieldNode := contents(obj).Get("sum_field")
	var sumField ruleast.ValueRef
	hasSumField := false
	if sumFieldNode.Exists() && sumFieldNode.Type != gjson.Null {
		sumField, ok = parseValueExpr(arena, sumFieldNode, logger)
		if !ok {
			obslog.Log(logger, obslog.Warn, "constraint has malformed sum_field expression, dropping")
			return rules.Constraint{}, false
		}
		hasSumField = true
	}

	constraintValueNode := contents(obj).Get("constraint_value")
	if !constraintValueNode.Exists() {
		obslog.Log(logger, obslog.Warn, "constraint missing constraint_value, dropping")
		return rules.Constraint{}, false
	}

	return rules.Constraint{
		Variables:       variables,
		Application:     application,
		SumField:        sumField,
		HasSumField:     hasSumField,
		ConstraintValue: constraintValueNode.Float(),
	}, true
}

func parseBoolExpr(arena *ruleast.Arena, obj gjson.Result, logger obslog.Logger) (ruleast.BoolRef, bool) {
	switch objType(obj) {
	case "LogicalConstant":
		v := contents(obj).Get("value")
		if v.Type != gjson.True && v.Type != gjson.False {
			obslog.Log(logger, obslog.Warn, "LogicalConstant.value is not a boolean, dropping")
			return 0, false
		}
		return arena.AddLogicalConstant(v.Bool()), true

	case "LogicalNot":
		child, ok := parseBoolExpr(arena, contents(obj).Get("expression"), logger)
		if !ok {
			return 0, false
		}
		return arena.AddLogicalNot(child), true

	case "BinaryLogical":
		op, ok := parseLogicalOp(contents(obj).Get("operator").String())
		if !ok {
			obslog.Log(logger, obslog.Warn, "BinaryLogical has unknown operator %q, dropping", contents(obj).Get("operator").String())
			return 0, false
		}
		left, ok := parseBoolExpr(arena, contents(obj).Get("left_expression"), logger)
		if !ok {
			return 0, false
		}
		right, ok := parseBoolExpr(arena, contents(obj).Get("right_expression"), logger)
		if !ok {
			return 0, false
		}
		return arena.AddBinaryLogical(op, left, right), true

	case "Comparator":
		op, ok := parseCompareOp(contents(obj).Get("comparator").String())
		if !ok {
			obslog.Log(logger, obslog.Warn, "Comparator has unknown comparator %q, dropping", contents(obj).Get("comparator").String())
			return 0, false
		}
		left, ok := parseValueExpr(arena, contents(obj).Get("left_expression"), logger)
		if !ok {
			return 0, false
		}
		right, ok := parseValueExpr(arena, contents(obj).Get("right_expression"), logger)
		if !ok {
			return 0, false
		}
		return arena.AddComparator(op, left, right), true

	case "Existential":
		variable := contents(obj).Get("variable").String()
		if variable == "" {
			obslog.Log(logger, obslog.Warn, "Existential missing variable, dropping")
			return 0, false
		}
		body, ok := parseBoolExpr(arena, contents(obj).Get("expression"), logger)
		if !ok {
			return 0, false
		}
		return arena.AddExistential(variable, body), true

	default:
		obslog.Log(logger, obslog.Warn, "unknown bool expression node type %q, dropping", objType(obj))
		return 0, false
	}
}

func parseValueExpr(arena *ruleast.Arena, obj gjson.Result, logger obslog.Logger) (ruleast.ValueRef, bool) {
	switch objType(obj) {
	case "ConstNumber":
		v := contents(obj).Get("value")
		if v.Type != gjson.Number {
			obslog.Log(logger, obslog.Warn, "ConstNumber.value is not a number, dropping")
			return 0, false
		}
		return arena.AddConstNumber(v.Float()), true

	case "ConstString":
		v := contents(obj).Get("value")
		if v.Type != gjson.String {
			obslog.Log(logger, obslog.Warn, "ConstString.value is not a string, dropping")
			return 0, false
		}
		return arena.AddConstString(v.String()), true

	case "UnaryMinus":
		child, ok := parseValueExpr(arena, contents(obj).Get("expression"), logger)
		if !ok {
			return 0, false
		}
		return arena.AddUnaryMinus(child), true

	case "BinaryNumeric":
		op, ok := parseNumericOp(contents(obj).Get("operator").String())
		if !ok {
			obslog.Log(logger, obslog.Warn, "BinaryNumeric has unknown operator %q, dropping", contents(obj).Get("operator").String())
			return 0, false
		}
		left, ok := parseValueExpr(arena, contents(obj).Get("left_expression"), logger)
		if !ok {
			return 0, false
		}
		right, ok := parseValueExpr(arena, contents(obj).Get("right_expression"), logger)
		if !ok {
			return 0, false
		}
		return arena.AddBinaryNumeric(op, left, right), true

	case "Field":
		variable := contents(obj).Get("variable_name").String()
		field := contents(obj).Get("field_name").String()
		if variable == "" || field == "" {
			obslog.Log(logger, obslog.Warn, "Field missing variable_name or field_name, dropping")
			return 0, false
		}
		return arena.AddField(variable, field), true

	default:
		obslog.Log(logger, obslog.Warn, "unknown value expression node type %q, dropping", objType(obj))
		return 0, false
	}
}

func parseLogicalOp(s string) (ruleast.LogicalOp, bool) {
	switch s {
	case "AND":
		return ruleast.OpAnd, true
	case "OR":
		return ruleast.OpOr, true
	default:
		return 0, false
	}
}

func parseCompareOp(s string) (ruleast.CompareOp, bool) {
	switch s {
	case "==":
		return ruleast.OpEq, true
	case "!=":
		return ruleast.OpNe, true
	case ">":
		return ruleast.OpGt, true
	case ">=":
		return ruleast.OpGe, true
	case "<":
		return ruleast.OpLt, true
	case "<=":
		return ruleast.OpLe, true
	default:
		return 0, false
	}
}

func parseNumericOp(s string) (ruleast.NumericOp, bool) {
	switch s {
	case "+":
		return ruleast.OpAdd, true
	case "-":
		return ruleast.OpSub, true
	case "*":
		return ruleast.OpMul, true
	default:
		return 0, false
	}
}
