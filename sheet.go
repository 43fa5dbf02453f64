package cellgraph

import (
	"bufio"
	"io"
	"log/slog"
)

// Sheet owns every cell of one grid and the dependency relation between
// them. a Sheet is not safe for concurrent use; embeddings serialize calls.
type Sheet struct {
	cells    map[Position]*Cell
	formulas *formulaTable
	grammar  Grammar
	logger   *slog.Logger
}

// NewSheet creates an empty sheet
func NewSheet(opts ...Option) *Sheet {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Sheet{
		cells:    make(map[Position]*Cell),
		formulas: newFormulaTable(),
		grammar:  o.grammar,
		logger:   o.logger,
	}
}

// SetCell sets the text of the cell at pos. text starting with "=" is a
// formula, text starting with "'" is literal text. a failed edit leaves the
// sheet unchanged.
func (s *Sheet) SetCell(pos Position, text string) error {
	if !pos.IsValid() {
		return invalidPositionError(pos)
	}

	cell, exists := s.cells[pos]
	if exists && cell.Text() == text {
		return nil
	}
	if !exists {
		cell = newCell(s, pos)
	}

	if err := cell.set(text); err != nil {
		s.logger.Debug("cell edit rejected",
			slog.String("position", pos.String()),
			slog.Any("error", err))
		return err
	}
	if !exists {
		s.cells[pos] = cell
	}

	s.logger.Debug("cell updated",
		slog.String("position", pos.String()),
		slog.String("kind", contentKind(cell.content)),
		slog.Int("dependencies", len(cell.dependsOn)))
	return nil
}

// Cell returns the cell at pos, or nil if no cell exists there
func (s *Sheet) Cell(pos Position) (*Cell, error) {
	if !pos.IsValid() {
		return nil, invalidPositionError(pos)
	}
	return s.cells[pos], nil
}

// ClearCell empties the cell at pos. the storage entry survives only while
// other formulas still reference it.
func (s *Sheet) ClearCell(pos Position) error {
	if !pos.IsValid() {
		return invalidPositionError(pos)
	}
	cell, exists := s.cells[pos]
	if !exists {
		return nil
	}
	if err := cell.set(""); err != nil {
		return err
	}
	if len(cell.dependents) == 0 {
		delete(s.cells, pos)
	}

	s.logger.Debug("cell cleared",
		slog.String("position", pos.String()),
		slog.Bool("kept", len(cell.dependents) > 0))
	return nil
}

// Value returns the computed value at pos; absent cells read as empty text
func (s *Sheet) Value(pos Position) (Value, error) {
	cell, err := s.Cell(pos)
	if err != nil {
		return Value{}, err
	}
	if cell == nil {
		return TextValue(""), nil
	}
	return cell.Value(), nil
}

// Text returns the round-trip text at pos; absent cells read as ""
func (s *Sheet) Text(pos Position) (string, error) {
	cell, err := s.Cell(pos)
	if err != nil || cell == nil {
		return "", err
	}
	return cell.Text(), nil
}

// Len returns the number of stored cells, placeholders included
func (s *Sheet) Len() int {
	return len(s.cells)
}

// PrintableSize returns the smallest area, anchored at A1, covering every
// cell with non-empty text
func (s *Sheet) PrintableSize() Size {
	var size Size
	for pos, cell := range s.cells {
		if cell.Text() == "" {
			continue
		}
		size.Rows = max(size.Rows, pos.Row+1)
		size.Cols = max(size.Cols, pos.Col+1)
	}
	return size
}

// PrintValues writes the displayed values of the printable area, columns
// separated by tabs and rows terminated by newlines
func (s *Sheet) PrintValues(w io.Writer) error {
	return s.print(w, func(c *Cell) string { return c.Value().String() })
}

// PrintTexts writes the texts of the printable area in the same layout as
// PrintValues
func (s *Sheet) PrintTexts(w io.Writer) error {
	return s.print(w, (*Cell).Text)
}

func (s *Sheet) print(w io.Writer, render func(*Cell) string) error {
	size := s.PrintableSize()
	bw := bufio.NewWriter(w)
	for row := 0; row < size.Rows; row++ {
		for col := 0; col < size.Cols; col++ {
			if col > 0 {
				bw.WriteByte('\t')
			}
			if cell, exists := s.cells[Position{Row: row, Col: col}]; exists {
				bw.WriteString(render(cell))
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func contentKind(c cellContent) string {
	switch c.(type) {
	case formulaContent:
		return "formula"
	case textContent:
		return "text"
	default:
		return "empty"
	}
}
