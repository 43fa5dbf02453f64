package cellgraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGrammar replays a fixed sequence of events
type scriptedGrammar func(l Listener) error

func (g scriptedGrammar) Walk(_ string, l Listener) error {
	return g(l)
}

func TestBuildFormulaFailures(t *testing.T) {
	tests := []struct {
		name    string
		grammar scriptedGrammar
		message string
		code    AppErrorCode
	}{
		{
			name: "bad number literal",
			grammar: func(l Listener) error {
				return l.NumberLiteral("abc")
			},
			message: "formula is invalid: invalid number: abc",
			code:    InvalidArgument,
		},
		{
			name: "bad cell reference",
			grammar: func(l Listener) error {
				return l.CellReference("1A")
			},
			message: "formula is invalid: invalid position: 1A",
			code:    InvalidArgument,
		},
		{
			name: "syntax error",
			grammar: func(l Listener) error {
				return l.SyntaxError("unexpected token")
			},
			message: "formula is invalid: unexpected token",
			code:    InvalidArgument,
		},
		{
			name: "unary without operand",
			grammar: func(l Listener) error {
				return l.UnaryClose(true)
			},
			message: "formula is invalid: malformed event stream: unary operator without operand",
			code:    Internal,
		},
		{
			name: "binary with one operand",
			grammar: func(l Listener) error {
				if err := l.NumberLiteral("1"); err != nil {
					return err
				}
				return l.BinaryClose(BinaryAdd)
			},
			message: "formula is invalid: malformed event stream: binary operator without left operand",
			code:    Internal,
		},
		{
			name: "two roots",
			grammar: func(l Listener) error {
				if err := l.NumberLiteral("1"); err != nil {
					return err
				}
				return l.NumberLiteral("2")
			},
			message: "formula is invalid: malformed event stream: 2 expressions left after parsing",
			code:    Internal,
		},
		{
			name:    "no events",
			grammar: func(l Listener) error { return nil },
			message: "formula is invalid: malformed event stream: 0 expressions left after parsing",
			code:    Internal,
		},
		{
			name: "grammar failure outside the listener",
			grammar: func(l Listener) error {
				return errors.New("tokenizer crashed")
			},
			message: "formula is invalid: tokenizer crashed",
			code:    InvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := buildFormula(tt.grammar, "")
			require.Error(t, err)
			assert.Nil(t, f)
			assert.ErrorIs(t, err, ErrFormulaInvalid)
			assert.Equal(t, tt.message, err.Error())

			var appErr *AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestBuildFormulaKeepsFirstFailure(t *testing.T) {
	g := scriptedGrammar(func(l Listener) error {
		_ = l.CellReference("nope")
		_ = l.SyntaxError("later")
		return nil
	})

	_, err := buildFormula(g, "")
	require.Error(t, err)
	assert.Equal(t, "formula is invalid: invalid position: nope", err.Error())
}

func TestFormulaReferencedCells(t *testing.T) {
	f := mustParse(t, "B2+A1+B2*A10+A2-A1")

	want := []Position{
		ParsePosition("A1"),
		ParsePosition("A2"),
		ParsePosition("B2"),
		ParsePosition("A10"),
	}
	assert.Equal(t, want, f.ReferencedCells())

	// callers get their own copy
	refs := f.ReferencedCells()
	refs[0] = PositionNone
	assert.Equal(t, want, f.ReferencedCells())

	assert.Empty(t, mustParse(t, "1+2").ReferencedCells())
}

func TestFormulaAccessors(t *testing.T) {
	f := mustParse(t, "(A1 + 2) * 3")
	assert.Equal(t, "(A1+2)*3", f.Expression())
	assert.Equal(t, "(* (+ A1 2) 3)", f.String())
	assert.IsType(t, &BinaryOpExpr{}, f.Root())

	got, err := f.Evaluate(mapResolver(map[string]float64{"A1": 1}))
	require.NoError(t, err)
	assert.Equal(t, 9.0, got)
}

func TestFormulaTableInterning(t *testing.T) {
	ft := newFormulaTable()
	a1, b1, c1 := ParsePosition("A1"), ParsePosition("B1"), ParsePosition("C1")

	first := ft.intern(mustParse(t, "X1+1"), a1)
	second := ft.intern(mustParse(t, "(X1)+1"), b1)
	assert.Same(t, first, second)
	assert.Equal(t, 1, ft.Count())
	assert.Equal(t, 2, ft.ReferenceCount("X1+1"))
	assert.Equal(t, []Position{a1, b1}, ft.cellsUsing("X1+1"))

	// re-interning the same formula for a cell does not add a reference
	ft.intern(mustParse(t, "X1 + 1"), a1)
	assert.Equal(t, 2, ft.ReferenceCount("X1+1"))

	// replacing the formula of a cell releases the old one
	ft.intern(mustParse(t, "X1*2"), b1)
	assert.Equal(t, 2, ft.Count())
	assert.Equal(t, 1, ft.ReferenceCount("X1+1"))
	assert.Equal(t, 1, ft.ReferenceCount("X1*2"))

	assert.False(t, ft.release(c1))
	assert.True(t, ft.release(a1))
	assert.Equal(t, 1, ft.Count())
	assert.Zero(t, ft.ReferenceCount("X1+1"))
	assert.Empty(t, ft.cellsUsing("X1+1"))

	assert.True(t, ft.release(b1))
	assert.Zero(t, ft.Count())
}
