package cellgraph

import (
	"slices"
	"strconv"
)

// formulaBuilder is the Listener that assembles grammar reductions into an
// expression tree and collects the referenced positions
type formulaBuilder struct {
	stack      []Expr
	references []Position
	failure    error
}

func (b *formulaBuilder) push(e Expr) {
	b.stack = append(b.stack, e)
}

func (b *formulaBuilder) pop() (Expr, bool) {
	if len(b.stack) == 0 {
		return nil, false
	}
	e := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return e, true
}

// fail records the first failure; later events are ignored
func (b *formulaBuilder) fail(err error) error {
	if b.failure == nil {
		b.failure = err
	}
	return b.failure
}

func (b *formulaBuilder) NumberLiteral(text string) error {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return b.fail(formulaInvalidError("invalid number: %s", text))
	}
	b.push(&NumberExpr{Value: v})
	return nil
}

func (b *formulaBuilder) CellReference(text string) error {
	pos := ParsePosition(text)
	if !pos.IsValid() {
		return b.fail(formulaInvalidError("invalid position: %s", text))
	}
	b.references = append(b.references, pos)
	b.push(&CellExpr{Position: pos})
	return nil
}

func (b *formulaBuilder) UnaryClose(negative bool) error {
	operand, ok := b.pop()
	if !ok {
		return b.fail(malformedEventsError("unary operator without operand"))
	}
	op := UnaryPlus
	if negative {
		op = UnaryMinus
	}
	b.push(&UnaryOpExpr{Op: op, Operand: operand})
	return nil
}

func (b *formulaBuilder) BinaryClose(op BinaryOp) error {
	right, ok := b.pop()
	if !ok {
		return b.fail(malformedEventsError("binary operator without operands"))
	}
	left, ok := b.pop()
	if !ok {
		return b.fail(malformedEventsError("binary operator without left operand"))
	}
	b.push(&BinaryOpExpr{Op: op, Left: left, Right: right})
	return nil
}

func (b *formulaBuilder) SyntaxError(message string) error {
	return b.fail(formulaInvalidError("%s", message))
}

// buildFormula walks expression with the grammar and returns the finished
// formula. no partial tree is ever returned.
func buildFormula(g Grammar, expression string) (*Formula, error) {
	b := &formulaBuilder{}
	err := g.Walk(expression, b)
	if b.failure != nil {
		return nil, b.failure
	}
	if err != nil {
		return nil, formulaInvalidError("%v", err)
	}
	if len(b.stack) != 1 {
		return nil, malformedEventsError("%d expressions left after parsing", len(b.stack))
	}

	refs := slices.Clone(b.references)
	slices.SortFunc(refs, Position.Compare)
	refs = slices.Compact(refs)

	return &Formula{root: b.stack[0], references: refs}, nil
}
