package cellgraph

import (
	"errors"
	"slices"
	"strconv"
)

const (
	formulaMarker = '='
	escapeMarker  = '\''
)

// cellContent is the closed set of things a cell can hold: emptyContent,
// textContent or formulaContent
type cellContent interface {
	text() string
}

type emptyContent struct{}

func (emptyContent) text() string { return "" }

type textContent struct {
	raw string
}

func (c textContent) text() string { return c.raw }

type formulaContent struct {
	formula *Formula
}

func (c formulaContent) text() string {
	return string(formulaMarker) + c.formula.Expression()
}

// Cell is one position of a Sheet. cells are owned by their sheet and refer
// to each other only by position.
type Cell struct {
	sheet   *Sheet
	pos     Position
	content cellContent

	// cache holds the last evaluation result of a formula cell, nil until
	// the first read after an invalidating edit
	cache *Value

	dependsOn  map[Position]struct{} // cells this formula references
	dependents map[Position]struct{} // cells whose formulas reference this one
}

func newCell(s *Sheet, pos Position) *Cell {
	return &Cell{sheet: s, pos: pos, content: emptyContent{}}
}

// parseContent classifies raw cell text
func parseContent(g Grammar, text string) (cellContent, error) {
	switch {
	case text == "":
		return emptyContent{}, nil
	case text[0] == formulaMarker && len(text) > 1:
		f, err := buildFormula(g, text[1:])
		if err != nil {
			return nil, err
		}
		return formulaContent{formula: f}, nil
	default:
		// includes escaped text and a lone "="
		return textContent{raw: text}, nil
	}
}

// set replaces the content of the cell. on failure the cell, and every
// other cell of the sheet, is left exactly as it was.
func (c *Cell) set(text string) error {
	content, err := parseContent(c.sheet.grammar, text)
	if err != nil {
		return err
	}

	var deps []Position
	if fc, ok := content.(formulaContent); ok {
		if current, ok := c.content.(formulaContent); ok && current.formula.Expression() == fc.formula.Expression() {
			return nil
		}
		deps = fc.formula.references
	}

	if c.sheet.wouldCycle(c.pos, deps) {
		return circularDependencyError(c.pos)
	}

	c.sheet.invalidate(c)
	former := c.sheet.unlinkPrecedents(c)

	if fc, ok := content.(formulaContent); ok {
		content = formulaContent{formula: c.sheet.formulas.intern(fc.formula, c.pos)}
	} else {
		c.sheet.formulas.release(c.pos)
	}
	c.content = content
	c.sheet.linkPrecedents(c, deps)
	c.sheet.pruneOrphans(former)
	return nil
}

func (c *Cell) Position() Position {
	return c.pos
}

// Text returns the round-trip form of the cell: stored text verbatim, or
// "=" followed by the canonical expression for formulas
func (c *Cell) Text() string {
	return c.content.text()
}

// Value returns the computed value. formula results, errors included, are
// cached until an edit invalidates them.
func (c *Cell) Value() Value {
	switch content := c.content.(type) {
	case textContent:
		if content.raw[0] == escapeMarker {
			return TextValue(content.raw[1:])
		}
		return TextValue(content.raw)
	case formulaContent:
		if c.cache != nil {
			return *c.cache
		}
		// evaluate uncached precedents first so each evaluation only reads
		// cached neighbours
		for _, cell := range c.sheet.calculationOrder(c) {
			cell.evaluate()
		}
		return *c.cache
	default:
		return TextValue("")
	}
}

// needsEvaluation reports whether reading the cell would run its formula
func (c *Cell) needsEvaluation() bool {
	_, isFormula := c.content.(formulaContent)
	return isFormula && c.cache == nil
}

func (c *Cell) evaluate() {
	content, ok := c.content.(formulaContent)
	if !ok || c.cache != nil {
		return
	}

	var v Value
	result, err := content.formula.Evaluate(c.sheet.resolve)
	if err != nil {
		var fe FormulaError
		if !errors.As(err, &fe) {
			fe = FormulaError{Category: ErrorCategoryRef}
		}
		v = ErrorValue(fe.Category)
	} else {
		v = NumberValue(result)
	}
	c.cache = &v
}

// ReferencedCells returns the positions the formula of the cell reads, in
// position order. non-formula cells reference nothing.
func (c *Cell) ReferencedCells() []Position {
	if fc, ok := c.content.(formulaContent); ok {
		return fc.formula.ReferencedCells()
	}
	return nil
}

// Dependents returns the positions whose formulas read this cell, in
// position order
func (c *Cell) Dependents() []Position {
	result := make([]Position, 0, len(c.dependents))
	for pos := range c.dependents {
		result = append(result, pos)
	}
	slices.SortFunc(result, Position.Compare)
	return result
}

// resolve converts the value of the cell at pos into an operand
func (s *Sheet) resolve(pos Position) (float64, error) {
	if !pos.IsValid() {
		return 0, FormulaError{Category: ErrorCategoryRef}
	}
	cell, exists := s.cells[pos]
	if !exists {
		return 0, nil
	}

	v := cell.Value()
	switch v.Kind() {
	case ValueNumber:
		return v.Number(), nil
	case ValueError:
		fe, _ := v.FormulaError()
		return 0, fe
	}
	return textOperand(v.Text())
}

// textOperand coerces text to a number: empty text is zero, a run of decimal
// digits is an integer, anything else is a #VALUE! error
func textOperand(text string) (float64, error) {
	if text == "" {
		return 0, nil
	}
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return 0, FormulaError{Category: ErrorCategoryValue}
		}
	}
	// integers beyond 32 bits are rejected like any other bad text
	n, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return 0, FormulaError{Category: ErrorCategoryValue}
	}
	return float64(n), nil
}
