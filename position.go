package cellgraph

import "strconv"

const (
	MaxRows = 16384
	MaxCols = 16384

	letters = 26

	// labels reaching this length are rejected outright
	maxLabelLength = 17
)

// PositionNone marks an invalid or unparseable position
var PositionNone = Position{Row: -1, Col: -1}

// Position is a zero-based (row, column) grid coordinate. it is comparable
// and can be used directly as a map key.
type Position struct {
	Row int
	Col int
}

// Size is the printable area of a sheet
type Size struct {
	Rows int
	Cols int
}

// IsValid reports whether the position lies inside the grid bounds
func (p Position) IsValid() bool {
	return p.Row >= 0 && p.Col >= 0 && p.Row < MaxRows && p.Col < MaxCols
}

// Compare orders positions by row, then column
func (p Position) Compare(other Position) int {
	switch {
	case p.Row < other.Row:
		return -1
	case p.Row > other.Row:
		return 1
	case p.Col < other.Col:
		return -1
	case p.Col > other.Col:
		return 1
	}
	return 0
}

// Less reports whether p sorts before other
func (p Position) Less(other Position) bool {
	return p.Compare(other) < 0
}

// String encodes the position as a label like "B12". invalid positions
// encode to the empty string.
func (p Position) String() string {
	if !p.IsValid() {
		return ""
	}
	return columnLabel(p.Col) + strconv.Itoa(p.Row+1)
}

// columnLabel converts a zero-based column to bijective base-26 letters:
// 0 -> A, 25 -> Z, 26 -> AA
func columnLabel(col int) string {
	var buf [8]byte
	i := len(buf)
	for n := col + 1; n > 0; n = (n - 1) / letters {
		i--
		buf[i] = byte('A' + (n-1)%letters)
	}
	return string(buf[i:])
}

// ParsePosition decodes a label like "B12". malformed labels decode to
// PositionNone, never to an error, so callers decide how to react.
func ParsePosition(label string) Position {
	if len(label) >= maxLabelLength {
		return PositionNone
	}

	i := 0
	for i < len(label) && label[i] >= 'A' && label[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(label) {
		return PositionNone
	}

	digits := label[i:]
	for j := 0; j < len(digits); j++ {
		// also catches letters after digits
		if digits[j] < '0' || digits[j] > '9' {
			return PositionNone
		}
	}
	row, err := strconv.Atoi(digits)
	if err != nil || row < 1 || row > MaxRows {
		return PositionNone
	}

	col := 0
	for j := 0; j < i; j++ {
		col = col*letters + int(label[j]-'A') + 1
		if col > MaxCols {
			return PositionNone
		}
	}

	return Position{Row: row - 1, Col: col - 1}
}
