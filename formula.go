package cellgraph

import "slices"

// Formula is a parsed formula: an immutable expression tree plus the sorted,
// deduplicated positions it references
type Formula struct {
	root       Expr
	references []Position
}

// ParseFormula parses formula text given without the leading "=". every
// failure is an *AppError wrapping ErrFormulaInvalid.
func ParseFormula(expression string) (*Formula, error) {
	return buildFormula(efpGrammar{}, expression)
}

// Evaluate computes the formula, resolving cell references through resolve
func (f *Formula) Evaluate(resolve CellResolver) (float64, error) {
	return f.root.Evaluate(resolve)
}

// Expression returns the canonical infix text, without the "=" marker
func (f *Formula) Expression() string {
	return f.root.Formula()
}

// ReferencedCells returns the referenced positions in ascending order
func (f *Formula) ReferencedCells() []Position {
	return slices.Clone(f.references)
}

func (f *Formula) Root() Expr {
	return f.root
}

func (f *Formula) String() string {
	return f.root.String()
}

// formulaKey is the canonical expression of a formula. formulas that differ
// only in whitespace or redundant parentheses share a key.
type formulaKey string

// formulaTable interns parsed formulas so identical formulas across cells
// share one tree, and tracks which cells use each of them
type formulaTable struct {
	formulas  map[formulaKey]*Formula
	refCounts map[formulaKey]int

	// cell tracking

	cellsUsingFormula map[formulaKey]map[Position]struct{} // formula -> cells using it
	formulaAtCell     map[Position]formulaKey              // cell -> formula (reverse index)
}

func newFormulaTable() *formulaTable {
	return &formulaTable{
		formulas:          make(map[formulaKey]*Formula),
		refCounts:         make(map[formulaKey]int),
		cellsUsingFormula: make(map[formulaKey]map[Position]struct{}),
		formulaAtCell:     make(map[Position]formulaKey),
	}
}

// intern registers f as the formula of cell and returns the shared instance
// for its key. a formula previously held by cell is released first.
func (ft *formulaTable) intern(f *Formula, cell Position) *Formula {
	key := formulaKey(f.Expression())
	if old, exists := ft.formulaAtCell[cell]; exists {
		if old == key {
			return ft.formulas[key]
		}
		ft.release(cell)
	}

	shared, exists := ft.formulas[key]
	if !exists {
		ft.formulas[key] = f
		shared = f
	}
	ft.refCounts[key]++

	if ft.cellsUsingFormula[key] == nil {
		ft.cellsUsingFormula[key] = make(map[Position]struct{})
	}
	ft.cellsUsingFormula[key][cell] = struct{}{}
	ft.formulaAtCell[cell] = key

	return shared
}

// release drops the formula held by cell. returns true if the formula was
// removed due to zero references.
func (ft *formulaTable) release(cell Position) bool {
	key, exists := ft.formulaAtCell[cell]
	if !exists {
		return false
	}
	delete(ft.formulaAtCell, cell)
	if cells, ok := ft.cellsUsingFormula[key]; ok {
		delete(cells, cell)
		if len(cells) == 0 {
			delete(ft.cellsUsingFormula, key)
		}
	}

	ft.refCounts[key]--
	if ft.refCounts[key] <= 0 {
		delete(ft.refCounts, key)
		delete(ft.formulas, key)
		return true
	}
	return false
}

// Count returns the number of unique formulas
func (ft *formulaTable) Count() int {
	return len(ft.formulas)
}

// ReferenceCount returns how many cells hold the formula with the given
// canonical expression
func (ft *formulaTable) ReferenceCount(expression string) int {
	return ft.refCounts[formulaKey(expression)]
}

// cellsUsing returns the cells holding the formula, in position order
func (ft *formulaTable) cellsUsing(expression string) []Position {
	cells := ft.cellsUsingFormula[formulaKey(expression)]
	result := make([]Position, 0, len(cells))
	for cell := range cells {
		result = append(result, cell)
	}
	slices.SortFunc(result, Position.Compare)
	return result
}
