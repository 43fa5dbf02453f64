package cellgraph

import (
	"math"
	"strconv"
	"strings"
)

// CellResolver returns the numeric value of a referenced cell. a
// FormulaError returned here aborts evaluation of the whole expression.
type CellResolver func(pos Position) (float64, error)

// UnaryOp represents unary operators in AST nodes
type UnaryOp int

const (
	UnaryPlus UnaryOp = iota
	UnaryMinus
)

func (op UnaryOp) Symbol() byte {
	if op == UnaryMinus {
		return '-'
	}
	return '+'
}

// BinaryOp represents binary operators in AST nodes
type BinaryOp int

const (
	BinaryAdd BinaryOp = iota
	BinarySub
	BinaryMul
	BinaryDiv
)

func (op BinaryOp) Symbol() byte {
	switch op {
	case BinarySub:
		return '-'
	case BinaryMul:
		return '*'
	case BinaryDiv:
		return '/'
	default:
		return '+'
	}
}

// precedence classes, low to high
type precedence int

const (
	precedenceAdd precedence = iota
	precedenceSub
	precedenceMul
	precedenceDiv
	precedenceUnary
	precedenceAtom
	precedenceEnd
)

type parenRule uint8

const (
	parenNone  parenRule = 0b00
	parenLeft  parenRule = 0b01
	parenRight parenRule = 0b10
	parenBoth            = parenLeft | parenRight
)

// precedenceRules[parent][child] says on which side of the parent a child
// of the given class needs parentheses. a unary operand keeps its
// parentheses around any binary operation, otherwise "x/-(a*b)" would print
// as "x/-a*b" and parse back as "(x/-a)*b".
var precedenceRules = [precedenceEnd][precedenceEnd]parenRule{
	precedenceAdd:   {parenNone, parenNone, parenNone, parenNone, parenNone, parenNone},
	precedenceSub:   {parenRight, parenRight, parenNone, parenNone, parenNone, parenNone},
	precedenceMul:   {parenBoth, parenBoth, parenNone, parenNone, parenNone, parenNone},
	precedenceDiv:   {parenBoth, parenBoth, parenRight, parenRight, parenNone, parenNone},
	precedenceUnary: {parenBoth, parenBoth, parenBoth, parenBoth, parenNone, parenNone},
	precedenceAtom:  {parenNone, parenNone, parenNone, parenNone, parenNone, parenNone},
}

// Expr is a node of a formula expression tree. the set of node types is
// closed: NumberExpr, CellExpr, UnaryOpExpr and BinaryOpExpr. nodes are
// never mutated after construction.
type Expr interface {
	// Evaluate computes the node bottom-up. a non-finite intermediate result
	// yields FormulaError{ErrorCategoryArithmetic}.
	Evaluate(resolve CellResolver) (float64, error)
	// String prints the debug s-expression form
	String() string
	// Formula prints the canonical infix form with minimal parentheses
	Formula() string

	precedence() precedence
	writeTree(sb *strings.Builder)
	writeFormula(sb *strings.Builder)
}

// writeChild prints child in infix form inside a parent of the given class,
// adding parentheses when the precedence table asks for them
func writeChild(sb *strings.Builder, child Expr, parent precedence, right bool) {
	mask := parenLeft
	if right {
		mask = parenRight
	}
	parens := precedenceRules[parent][child.precedence()]&mask != 0
	if parens {
		sb.WriteByte('(')
	}
	child.writeFormula(sb)
	if parens {
		sb.WriteByte(')')
	}
}

func printTree(e Expr) string {
	var sb strings.Builder
	e.writeTree(&sb)
	return sb.String()
}

func printFormula(e Expr) string {
	var sb strings.Builder
	e.writeFormula(&sb)
	return sb.String()
}

// NumberExpr represents a numeric literal
type NumberExpr struct {
	Value float64
}

func (n *NumberExpr) Evaluate(CellResolver) (float64, error) {
	return n.Value, nil
}

func (n *NumberExpr) String() string                { return printTree(n) }
func (n *NumberExpr) Formula() string               { return printFormula(n) }
func (n *NumberExpr) precedence() precedence        { return precedenceAtom }
func (n *NumberExpr) writeTree(sb *strings.Builder) { n.writeFormula(sb) }

func (n *NumberExpr) writeFormula(sb *strings.Builder) {
	// exact digits so the printed formula parses back to the same literal
	sb.WriteString(strconv.FormatFloat(n.Value, 'f', -1, 64))
}

// CellExpr represents a reference to another cell
type CellExpr struct {
	Position Position
}

func (n *CellExpr) Evaluate(resolve CellResolver) (float64, error) {
	return resolve(n.Position)
}

func (n *CellExpr) String() string                { return printTree(n) }
func (n *CellExpr) Formula() string               { return printFormula(n) }
func (n *CellExpr) precedence() precedence        { return precedenceAtom }
func (n *CellExpr) writeTree(sb *strings.Builder) { n.writeFormula(sb) }

func (n *CellExpr) writeFormula(sb *strings.Builder) {
	if !n.Position.IsValid() {
		sb.WriteString(errorTokens[ErrorCategoryRef])
		return
	}
	sb.WriteString(n.Position.String())
}

// UnaryOpExpr represents a unary operation
type UnaryOpExpr struct {
	Op      UnaryOp
	Operand Expr
}

func (n *UnaryOpExpr) Evaluate(resolve CellResolver) (float64, error) {
	val, err := n.Operand.Evaluate(resolve)
	if err != nil {
		return 0, err
	}
	if n.Op == UnaryMinus {
		return -val, nil
	}
	return val, nil
}

func (n *UnaryOpExpr) String() string         { return printTree(n) }
func (n *UnaryOpExpr) Formula() string        { return printFormula(n) }
func (n *UnaryOpExpr) precedence() precedence { return precedenceUnary }

func (n *UnaryOpExpr) writeTree(sb *strings.Builder) {
	sb.WriteByte('(')
	sb.WriteByte(n.Op.Symbol())
	sb.WriteByte(' ')
	n.Operand.writeTree(sb)
	sb.WriteByte(')')
}

func (n *UnaryOpExpr) writeFormula(sb *strings.Builder) {
	sb.WriteByte(n.Op.Symbol())
	writeChild(sb, n.Operand, precedenceUnary, false)
}

// BinaryOpExpr represents a binary operation
type BinaryOpExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *BinaryOpExpr) Evaluate(resolve CellResolver) (float64, error) {
	left, err := n.Left.Evaluate(resolve)
	if err != nil {
		return 0, err
	}
	right, err := n.Right.Evaluate(resolve)
	if err != nil {
		return 0, err
	}

	var result float64
	switch n.Op {
	case BinaryAdd:
		result = left + right
	case BinarySub:
		result = left - right
	case BinaryMul:
		result = left * right
	case BinaryDiv:
		result = left / right
	}

	// covers division by zero, 0/0 and overflow
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return 0, FormulaError{Category: ErrorCategoryArithmetic}
	}
	return result, nil
}

func (n *BinaryOpExpr) String() string  { return printTree(n) }
func (n *BinaryOpExpr) Formula() string { return printFormula(n) }

func (n *BinaryOpExpr) precedence() precedence {
	switch n.Op {
	case BinarySub:
		return precedenceSub
	case BinaryMul:
		return precedenceMul
	case BinaryDiv:
		return precedenceDiv
	default:
		return precedenceAdd
	}
}

func (n *BinaryOpExpr) writeTree(sb *strings.Builder) {
	sb.WriteByte('(')
	sb.WriteByte(n.Op.Symbol())
	sb.WriteByte(' ')
	n.Left.writeTree(sb)
	sb.WriteByte(' ')
	n.Right.writeTree(sb)
	sb.WriteByte(')')
}

func (n *BinaryOpExpr) writeFormula(sb *strings.Builder) {
	p := n.precedence()
	writeChild(sb, n.Left, p, false)
	sb.WriteByte(n.Op.Symbol())
	writeChild(sb, n.Right, p, true)
}
