package cellgraph

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/efp"
)

// Listener receives grammar reductions in post-order while a formula is
// walked. returning an error from any callback aborts the walk.
type Listener interface {
	NumberLiteral(text string) error
	CellReference(text string) error
	UnaryClose(negative bool) error
	BinaryClose(op BinaryOp) error
	SyntaxError(message string) error
}

// Grammar turns formula text (without the leading "=") into a stream of
// Listener events. a grammar guarantees a well-formed event stream for
// valid input and reports every lexical or syntactic problem through
// Listener.SyntaxError.
type Grammar interface {
	Walk(formula string, l Listener) error
}

var errSyntax = errors.New("syntax error")

var (
	exponentStem   = regexp.MustCompile(`^([0-9]+\.?[0-9]*|\.[0-9]+)[eE]$`)
	exponentDigits = regexp.MustCompile(`^[0-9]+$`)
)

// efpGrammar tokenizes with the Excel formula parser and runs a small
// recursive descent over the tokens:
//
//	expr    := term (("+" | "-") term)*
//	term    := unary (("*" | "/") unary)*
//	unary   := "-" unary | primary
//	primary := number | cell | "(" expr ")"
//
// efp drops a unary "+" as a no-op, so it never reaches the listener.
type efpGrammar struct{}

func (efpGrammar) Walk(formula string, l Listener) error {
	tokens, err := tokenize(formula)
	if err != nil {
		return syntaxError(l, err.Error())
	}
	if len(tokens) == 0 {
		return syntaxError(l, "empty formula")
	}

	w := &tokenWalker{tokens: tokens, listener: l}
	if err := w.parseAddition(); err != nil {
		return err
	}
	if !w.isAtEnd() {
		return w.unexpected()
	}
	return nil
}

// tokenize runs the efp tokenizer over "=" + formula and strips the marker
// token it produces for the leading "="
func tokenize(formula string) (tokens []efp.Token, err error) {
	defer func() {
		if r := recover(); r != nil {
			tokens, err = nil, fmt.Errorf("%w: malformed formula %q", errSyntax, formula)
		}
	}()

	p := efp.ExcelParser()
	tokens = p.Parse("=" + formula)
	if len(tokens) > 0 && tokens[0].TType == efp.TokenTypeOperatorInfix && tokens[0].TValue == "=" {
		tokens = tokens[1:]
	}
	return joinExponents(tokens), nil
}

// joinExponents merges the pieces efp splits a signed exponent into unless it
// recognized the literal itself: "1e-3" arrives as operand "1e", infix "-"
// and operand "3"
func joinExponents(tokens []efp.Token) []efp.Token {
	joined := make([]efp.Token, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if i+2 < len(tokens) &&
			tok.TType == efp.TokenTypeOperand && exponentStem.MatchString(tok.TValue) &&
			tokens[i+1].TType == efp.TokenTypeOperatorInfix &&
			(tokens[i+1].TValue == "+" || tokens[i+1].TValue == "-") &&
			tokens[i+2].TType == efp.TokenTypeOperand && exponentDigits.MatchString(tokens[i+2].TValue) {
			tok.TValue += tokens[i+1].TValue + tokens[i+2].TValue
			tok.TSubType = efp.TokenSubTypeNumber
			i += 2
		}
		joined = append(joined, tok)
	}
	return joined
}

func syntaxError(l Listener, message string) error {
	if err := l.SyntaxError(message); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", errSyntax, message)
}

type tokenWalker struct {
	tokens   []efp.Token
	current  int
	listener Listener
}

func (w *tokenWalker) isAtEnd() bool {
	return w.current >= len(w.tokens)
}

func (w *tokenWalker) peek() efp.Token {
	if w.isAtEnd() {
		return efp.Token{}
	}
	return w.tokens[w.current]
}

func (w *tokenWalker) advance() efp.Token {
	tok := w.peek()
	if !w.isAtEnd() {
		w.current++
	}
	return tok
}

func (w *tokenWalker) unexpected() error {
	if w.isAtEnd() {
		return syntaxError(w.listener, "unexpected end of formula")
	}
	tok := w.peek()
	value := tok.TValue
	switch {
	case tok.TSubType == efp.TokenSubTypeStop &&
		(tok.TType == efp.TokenTypeSubexpression || tok.TType == efp.TokenTypeFunction):
		// efp reports an unmatched ")" as the end of a function call
		value = ")"
	case value == "":
		value = tok.TType
	}
	return syntaxError(w.listener, fmt.Sprintf("unexpected token %q", value))
}

// infixOperator reports the arithmetic operator at the cursor, if any
func (w *tokenWalker) infixOperator() (BinaryOp, bool) {
	tok := w.peek()
	if tok.TType != efp.TokenTypeOperatorInfix || tok.TSubType != efp.TokenSubTypeMath {
		return 0, false
	}
	switch tok.TValue {
	case "+":
		return BinaryAdd, true
	case "-":
		return BinarySub, true
	case "*":
		return BinaryMul, true
	case "/":
		return BinaryDiv, true
	}
	return 0, false
}

func (w *tokenWalker) parseAddition() error {
	if err := w.parseMultiplication(); err != nil {
		return err
	}
	for {
		op, ok := w.infixOperator()
		if !ok || (op != BinaryAdd && op != BinarySub) {
			return nil
		}
		w.advance()
		if err := w.parseMultiplication(); err != nil {
			return err
		}
		if err := w.listener.BinaryClose(op); err != nil {
			return err
		}
	}
}

func (w *tokenWalker) parseMultiplication() error {
	if err := w.parseUnary(); err != nil {
		return err
	}
	for {
		op, ok := w.infixOperator()
		if !ok || (op != BinaryMul && op != BinaryDiv) {
			return nil
		}
		w.advance()
		if err := w.parseUnary(); err != nil {
			return err
		}
		if err := w.listener.BinaryClose(op); err != nil {
			return err
		}
	}
}

func (w *tokenWalker) parseUnary() error {
	tok := w.peek()
	if tok.TType == efp.TokenTypeOperatorPrefix && tok.TValue == "-" {
		w.advance()
		if err := w.parseUnary(); err != nil {
			return err
		}
		return w.listener.UnaryClose(true)
	}
	return w.parsePrimary()
}

func (w *tokenWalker) parsePrimary() error {
	tok := w.peek()
	switch {
	case tok.TType == efp.TokenTypeOperand:
		return w.parseOperand()

	case tok.TType == efp.TokenTypeSubexpression && tok.TSubType == efp.TokenSubTypeStart:
		w.advance()
		if err := w.parseAddition(); err != nil {
			return err
		}
		closing := w.peek()
		if closing.TType != efp.TokenTypeSubexpression || closing.TSubType != efp.TokenSubTypeStop {
			if w.isAtEnd() {
				return syntaxError(w.listener, "missing closing parenthesis")
			}
			return w.unexpected()
		}
		w.advance()
		return nil

	case tok.TType == efp.TokenTypeFunction && tok.TSubType == efp.TokenSubTypeStart:
		return syntaxError(w.listener, fmt.Sprintf("functions are not supported: %s", tok.TValue))
	}
	return w.unexpected()
}

func (w *tokenWalker) parseOperand() error {
	tok := w.advance()
	switch tok.TSubType {
	case efp.TokenSubTypeNumber:
		// "Inf" and "NaN" parse as floats but are not numeric literals
		if c := tok.TValue[0]; (c >= '0' && c <= '9') || c == '.' {
			return w.listener.NumberLiteral(tok.TValue)
		}
		return w.listener.CellReference(tok.TValue)
	case efp.TokenSubTypeRange:
		if strings.ContainsAny(tok.TValue, ":!$[") {
			return syntaxError(w.listener, fmt.Sprintf("unsupported reference %q", tok.TValue))
		}
		// efp files numbers it cannot parse, like "1e999", under ranges
		if c := tok.TValue[0]; (c >= '0' && c <= '9') || c == '.' {
			return w.listener.NumberLiteral(tok.TValue)
		}
		return w.listener.CellReference(tok.TValue)
	case efp.TokenSubTypeText:
		return syntaxError(w.listener, fmt.Sprintf("text literals are not supported: %q", tok.TValue))
	case efp.TokenSubTypeLogical:
		return syntaxError(w.listener, fmt.Sprintf("logical literals are not supported: %s", tok.TValue))
	case efp.TokenSubTypeError:
		return syntaxError(w.listener, fmt.Sprintf("error literals are not supported: %s", tok.TValue))
	}
	return syntaxError(w.listener, fmt.Sprintf("unexpected operand %q", tok.TValue))
}
