// Package ruleast implements the abstract syntax tree representation of
// prioritization rules and constraints: an arena of tagged expression nodes
// over typed metadata values, with short-circuit Boolean evaluation and
// existential quantification over the downlink queue.
package ruleast

import (
	"github.com/NASA-AMMOS/synopsis/internal/metadata"
	"github.com/NASA-AMMOS/synopsis/internal/obslog"
)

// Assignments maps variable names to a single bound ASDP entry during rule
// evaluation. Built fresh per application; never retained beyond one call.
type Assignments map[string]metadata.Entry

// BoolRef and ValueRef index into an Arena's node slices. They replace the
// raw-pointer child references of the original implementation with
// arena-relative indices, so there is no dangling-pointer hazard. A RuleSet
// holds its Arena by pointer; a copied RuleSet shares node storage with the
// original.
type BoolRef int
type ValueRef int

// BoolKind tags the variant of a boolNode.
type BoolKind int

const (
	KindLogicalConstant BoolKind = iota
	KindLogicalNot
	KindBinaryLogical
	KindComparator
	KindExistential
)

// LogicalOp is a binary Boolean operator.
type LogicalOp int

const (
	OpAnd LogicalOp = iota
	OpOr
)

// CompareOp is a comparator operator.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpNe
	OpGt
	OpGe
	OpLt
	OpLe
)

// ValueKind tags the variant of a valueNode.
type ValueKind int

const (
	KindConstNumber ValueKind = iota
	KindConstString
	KindUnaryMinus
	KindBinaryNumeric
	KindField
)

// NumericOp is a binary numeric operator.
type NumericOp int

const (
	OpAdd NumericOp = iota
	OpSub
	OpMul
	OpUnknownNumeric
)

type boolNode struct {
	kind BoolKind

	// LogicalConstant
	constVal bool

	// LogicalNot
	child BoolRef

	// BinaryLogical
	logicalOp LogicalOp
	left      BoolRef
	right     BoolRef

	// Comparator
	compareOp CompareOp
	cmpLeft   ValueRef
	cmpRight  ValueRef

	// Existential
	variable string
	body     BoolRef
}

type valueNode struct {
	kind ValueKind

	// ConstNumber / ConstString
	literal metadata.Value

	// UnaryMinus
	operand ValueRef

	// BinaryNumeric
	numericOp NumericOp
	numLeft   ValueRef
	numRight  ValueRef

	// Field
	fieldVar  string
	fieldName string
}

// Arena owns the node storage for a RuleSet's expressions. Children are
// referenced by index rather than pointer.
type Arena struct {
	bools  []boolNode
	values []valueNode
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) addBool(n boolNode) BoolRef {
	a.bools = append(a.bools, n)
	return BoolRef(len(a.bools) - 1)
}

func (a *Arena) addValue(n valueNode) ValueRef {
	a.values = append(a.values, n)
	return ValueRef(len(a.values) - 1)
}

// AddLogicalConstant adds a LogicalConstant(b) node.
func (a *Arena) AddLogicalConstant(b bool) BoolRef {
	return a.addBool(boolNode{kind: KindLogicalConstant, constVal: b})
}

// AddLogicalNot adds a LogicalNot(e) node.
func (a *Arena) AddLogicalNot(e BoolRef) BoolRef {
	return a.addBool(boolNode{kind: KindLogicalNot, child: e})
}

// AddBinaryLogical adds a BinaryLogical(op, l, r) node.
func (a *Arena) AddBinaryLogical(op LogicalOp, l, r BoolRef) BoolRef {
	return a.addBool(boolNode{kind: KindBinaryLogical, logicalOp: op, left: l, right: r})
}

// AddComparator adds a Comparator(op, l, r) node.
func (a *Arena) AddComparator(op CompareOp, l, r ValueRef) BoolRef {
	return a.addBool(boolNode{kind: KindComparator, compareOp: op, cmpLeft: l, cmpRight: r})
}

// AddExistential adds an Existential(var, e) node.
func (a *Arena) AddExistential(variable string, e BoolRef) BoolRef {
	return a.addBool(boolNode{kind: KindExistential, variable: variable, body: e})
}

// AddConstNumber adds a ConstNumber(x) node.
func (a *Arena) AddConstNumber(x float64) ValueRef {
	return a.addValue(valueNode{kind: KindConstNumber, literal: metadata.Float(x)})
}

// AddConstString adds a ConstString(s) node.
func (a *Arena) AddConstString(s string) ValueRef {
	return a.addValue(valueNode{kind: KindConstString, literal: metadata.String(s)})
}

// AddUnaryMinus adds a UnaryMinus(e) node.
func (a *Arena) AddUnaryMinus(e ValueRef) ValueRef {
	return a.addValue(valueNode{kind: KindUnaryMinus, operand: e})
}

// AddBinaryNumeric adds a BinaryNumeric(op, l, r) node.
func (a *Arena) AddBinaryNumeric(op NumericOp, l, r ValueRef) ValueRef {
	return a.addValue(valueNode{kind: KindBinaryNumeric, numericOp: op, numLeft: l, numRight: r})
}

// AddField adds a Field(var, field) node.
func (a *Arena) AddField(variable, field string) ValueRef {
	return a.addValue(valueNode{kind: KindField, fieldVar: variable, fieldName: field})
}

// EvalBool evaluates a BoolRef against assignments/asdps, logging any soft
// evaluation errors to logger (which may be nil).
func (a *Arena) EvalBool(ref BoolRef, assignments Assignments, asdps []metadata.Entry, logger obslog.Logger) bool {
	n := a.bools[ref]
	switch n.kind {
	case KindLogicalConstant:
		return n.constVal

	case KindLogicalNot:
		return !a.EvalBool(n.child, assignments, asdps, logger)

	case KindBinaryLogical:
		left := a.EvalBool(n.left, assignments, asdps, logger)
		switch n.logicalOp {
		case OpAnd:
			if !left {
				return false
			}
			return a.EvalBool(n.right, assignments, asdps, logger)
		case OpOr:
			if left {
				return true
			}
			return a.EvalBool(n.right, assignments, asdps, logger)
		default:
			obslog.Log(logger, obslog.Error, "unknown logical operator")
			return false
		}

	case KindComparator:
		lv := a.EvalValue(n.cmpLeft, assignments, asdps, logger)
		rv := a.EvalValue(n.cmpRight, assignments, asdps, logger)
		return evalComparator(n.compareOp, lv, rv, logger)

	case KindExistential:
		for _, asdp := range asdps {
			extended := extendAssignments(assignments, n.variable, asdp)
			if a.EvalBool(n.body, extended, asdps, logger) {
				return true
			}
		}
		return false

	default:
		obslog.Log(logger, obslog.Error, "unknown bool expression kind")
		return false
	}
}

// EvalValue evaluates a ValueRef against assignments/asdps, returning the
// NaN sentinel on any soft evaluation error.
func (a *Arena) EvalValue(ref ValueRef, assignments Assignments, asdps []metadata.Entry, logger obslog.Logger) metadata.Value {
	n := a.values[ref]
	switch n.kind {
	case KindConstNumber, KindConstString:
		return n.literal

	case KindUnaryMinus:
		v := a.EvalValue(n.operand, assignments, asdps, logger)
		if !v.IsNumeric() {
			obslog.Log(logger, obslog.Warn, "unary minus on non-numeric operand")
			return metadata.NaN()
		}
		return metadata.Float(-v.Numeric())

	case KindBinaryNumeric:
		lv := a.EvalValue(n.numLeft, assignments, asdps, logger)
		rv := a.EvalValue(n.numRight, assignments, asdps, logger)
		if !lv.IsNumeric() || !rv.IsNumeric() {
			obslog.Log(logger, obslog.Warn, "binary numeric operation on non-numeric operand")
			return metadata.NaN()
		}
		switch n.numericOp {
		case OpAdd:
			return metadata.Float(lv.Numeric() + rv.Numeric())
		case OpSub:
			return metadata.Float(lv.Numeric() - rv.Numeric())
		case OpMul:
			return metadata.Float(lv.Numeric() * rv.Numeric())
		default:
			obslog.Log(logger, obslog.Error, "unknown numeric operator")
			return metadata.NaN()
		}

	case KindField:
		asdp, ok := assignments[n.fieldVar]
		if !ok {
			obslog.Log(logger, obslog.Warn, "field access on unbound variable %q", n.fieldVar)
			return metadata.NaN()
		}
		v, ok := asdp[n.fieldName]
		if !ok {
			obslog.Log(logger, obslog.Warn, "field %q missing on variable %q", n.fieldName, n.fieldVar)
			return metadata.NaN()
		}
		return v

	default:
		obslog.Log(logger, obslog.Error, "unknown value expression kind")
		return metadata.NaN()
	}
}

func evalComparator(op CompareOp, l, r metadata.Value, logger obslog.Logger) bool {
	lNum, rNum := l.IsNumeric(), r.IsNumeric()

	if lNum != rNum {
		obslog.Log(logger, obslog.Warn, "comparator type mismatch: one operand numeric, one not")
		return false
	}

	if lNum && rNum {
		lf, rf := l.Numeric(), r.Numeric()
		switch op {
		case OpEq:
			return lf == rf
		case OpNe:
			return lf != rf
		case OpGt:
			return lf > rf
		case OpGe:
			return lf >= rf
		case OpLt:
			return lf < rf
		case OpLe:
			return lf <= rf
		default:
			obslog.Log(logger, obslog.Error, "unknown comparator")
			return false
		}
	}

	// Both string.
	ls, rs := l.Str(), r.Str()
	switch op {
	case OpEq:
		return ls == rs
	case OpNe:
		return ls != rs
	default:
		obslog.Log(logger, obslog.Warn, "unsupported comparator on string operands")
		return false
	}
}

func extendAssignments(a Assignments, variable string, asdp metadata.Entry) Assignments {
	extended := make(Assignments, len(a)+1)
	for k, v := range a {
		extended[k] = v
	}
	extended[variable] = asdp
	return extended
}
