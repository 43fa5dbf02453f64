package cellgraph

import (
	"math"
	"strconv"
)

// ErrorCategory is the kind of a formula evaluation error
type ErrorCategory uint8

const (
	ErrorCategoryRef        ErrorCategory = 1 // #REF! - a dependency has no usable value
	ErrorCategoryValue      ErrorCategory = 2 // #VALUE! - text that cannot be a number
	ErrorCategoryArithmetic ErrorCategory = 3 // #ARITHM! - non-finite result
)

// errorTokens maps error categories to their display tokens
var errorTokens = map[ErrorCategory]string{
	ErrorCategoryRef:        "#REF!",
	ErrorCategoryValue:      "#VALUE!",
	ErrorCategoryArithmetic: "#ARITHM!",
}

// FormulaError is a value-level evaluation outcome. it travels through the
// error result of Evaluate and ends up stored in a cell's Value.
type FormulaError struct {
	Category ErrorCategory
}

func (e FormulaError) Error() string {
	return errorTokens[e.Category]
}

// ValueKind tags the variant held by a Value
type ValueKind uint8

const (
	ValueText ValueKind = iota
	ValueNumber
	ValueError
)

// Value is the computed result of a cell: text, number or formula error
type Value struct {
	kind   ValueKind
	text   string
	number float64
	err    FormulaError
}

func TextValue(s string) Value {
	return Value{kind: ValueText, text: s}
}

func NumberValue(n float64) Value {
	return Value{kind: ValueNumber, number: n}
}

func ErrorValue(category ErrorCategory) Value {
	return Value{kind: ValueError, err: FormulaError{Category: category}}
}

func (v Value) Kind() ValueKind {
	return v.kind
}

// Text returns the text variant, empty for other kinds
func (v Value) Text() string {
	return v.text
}

// Number returns the numeric variant, zero for other kinds
func (v Value) Number() float64 {
	return v.number
}

// FormulaError returns the error variant and whether the value holds one
func (v Value) FormulaError() (FormulaError, bool) {
	return v.err, v.kind == ValueError
}

// String returns the displayed form of the value
func (v Value) String() string {
	switch v.kind {
	case ValueNumber:
		return formatNumber(v.number)
	case ValueError:
		return v.err.Error()
	default:
		return v.text
	}
}

// formatNumber prints whole numbers without an exponent and everything else
// in the shortest form that round-trips
func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
