package cellgraph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingListener records every event it receives
type recordingListener struct {
	events []string
}

func (l *recordingListener) NumberLiteral(text string) error {
	l.events = append(l.events, "num "+text)
	return nil
}

func (l *recordingListener) CellReference(text string) error {
	l.events = append(l.events, "ref "+text)
	return nil
}

func (l *recordingListener) UnaryClose(negative bool) error {
	if negative {
		l.events = append(l.events, "unary -")
	} else {
		l.events = append(l.events, "unary +")
	}
	return nil
}

func (l *recordingListener) BinaryClose(op BinaryOp) error {
	l.events = append(l.events, "binary "+string(op.Symbol()))
	return nil
}

func (l *recordingListener) SyntaxError(message string) error {
	l.events = append(l.events, "error")
	return errors.New(message)
}

func TestGrammarEvents(t *testing.T) {
	tests := []struct {
		formula string
		want    []string
	}{
		{"1", []string{"num 1"}},
		{"A1", []string{"ref A1"}},
		{"1+A1*2", []string{"num 1", "ref A1", "num 2", "binary *", "binary +"}},
		{"(1+A1)*2", []string{"num 1", "ref A1", "binary +", "num 2", "binary *"}},
		{"1-2-3", []string{"num 1", "num 2", "binary -", "num 3", "binary -"}},
		{"-(1-2)", []string{"num 1", "num 2", "binary -", "unary -"}},
		{"2*-B3", []string{"num 2", "ref B3", "unary -", "binary *"}},
		{"+5", []string{"num 5"}},
		{"1.5e2/ZZ9", []string{"num 1.5e2", "ref ZZ9", "binary /"}},
		{"2*1e-3", []string{"num 2", "num 1e-3", "binary *"}},
		{"1e+3-1", []string{"num 1e+3", "num 1", "binary -"}},
		{"0.5e-2-A1", []string{"num 0.5e-2", "ref A1", "binary -"}},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			l := &recordingListener{}
			require.NoError(t, efpGrammar{}.Walk(tt.formula, l))
			assert.Equal(t, tt.want, l.events)
		})
	}
}

func TestGrammarStopsAtFirstListenerError(t *testing.T) {
	l := &recordingListener{}
	err := efpGrammar{}.Walk("1+SUM(A1)+2", l)
	require.Error(t, err)
	assert.Equal(t, []string{"num 1", "error"}, l.events)
}

func TestParseFormulaValid(t *testing.T) {
	validFormulas := []string{
		"1+2",
		"A1",
		"-A1",
		"((A1))",
		"A1 + B2 * C3",
		"1.5/0.5",
		".25",
		"XFD16384",
		"--1",
		"1--1",
		"1e-3",
		"1e+3",
		"2*1e-3",
		"1E-3",
		".5e-1",
	}

	for _, formula := range validFormulas {
		t.Run(formula, func(t *testing.T) {
			_, err := ParseFormula(formula)
			assert.NoError(t, err)
		})
	}
}

func TestParseFormulaInvalid(t *testing.T) {
	invalidFormulas := []string{
		"",
		"   ",
		"+",
		"1+",
		"*1",
		"1 2",
		"(1",
		"1)",
		"()",
		"SUM(A1)",
		"A1:B2",
		`"text"`,
		"TRUE",
		"#REF!",
		"1^2",
		"1&2",
		"1=2",
		"1<>2",
		"10%",
		"1,2",
		"{1,2}",
		"=1",
		"a1",
		"A0",
		"XFE1",
		"$A$1",
		"Sheet1!A1",
		"Inf",
		"NaN",
		"1e999",
	}

	for _, formula := range invalidFormulas {
		t.Run(fmt.Sprintf("%q", formula), func(t *testing.T) {
			f, err := ParseFormula(formula)
			require.Error(t, err)
			assert.Nil(t, f)
			assert.ErrorIs(t, err, ErrFormulaInvalid)

			var appErr *AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, InvalidArgument, appErr.Code)
			assert.Contains(t, appErr.Error(), "formula is invalid: ")
		})
	}
}

func TestParseFormulaErrorMessages(t *testing.T) {
	tests := []struct {
		formula string
		message string
	}{
		{"A1+ZZZZ1", "formula is invalid: invalid position: ZZZZ1"},
		{"1e999", "formula is invalid: invalid number: 1e999"},
		{"2*1e-", "formula is invalid: invalid number: 1e"},
		{"1)", `formula is invalid: unexpected token ")"`},
		{"(1+2))*3", `formula is invalid: unexpected token ")"`},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			_, err := ParseFormula(tt.formula)
			require.Error(t, err)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}
