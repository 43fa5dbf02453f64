package cellgraph

import (
	"fmt"
	"io"
)

// RunnableSheet provides a chainable interface for sheet operations
// addressed by labels like "B12". wraps a Sheet and tracks the first
// error internally; once an error is recorded every later step is a no-op.
type RunnableSheet struct {
	sheet   *Sheet
	err     error
	printLn func(string)
}

// NewRunnableSheet creates a new RunnableSheet. printLn is required and will
// be used for all logging operations (Log, CheckError)
func NewRunnableSheet(printLn func(string), opts ...Option) *RunnableSheet {
	return &RunnableSheet{
		sheet:   NewSheet(opts...),
		printLn: printLn,
	}
}

// position decodes a label, reporting malformed labels as invalid positions
func (r *RunnableSheet) position(label string) (Position, bool) {
	pos := ParsePosition(label)
	if !pos.IsValid() {
		r.err = NewApplicationError(OutOfRange,
			fmt.Sprintf("%v: %q", ErrInvalidPosition, label), ErrInvalidPosition)
		return PositionNone, false
	}
	return pos, true
}

// Set sets the text of a cell (chainable)
func (r *RunnableSheet) Set(label, text string) *RunnableSheet {
	if r.err != nil {
		return r
	}
	if pos, ok := r.position(label); ok {
		r.err = r.sheet.SetCell(pos, text)
	}
	return r
}

// SetBatch sets multiple cells in the given order (chainable). each entry is
// a label and a text.
func (r *RunnableSheet) SetBatch(cells ...[2]string) *RunnableSheet {
	for _, cell := range cells {
		if r.Set(cell[0], cell[1]); r.err != nil {
			return r
		}
	}
	return r
}

// Clear clears a cell (chainable)
func (r *RunnableSheet) Clear(label string) *RunnableSheet {
	if r.err != nil {
		return r
	}
	if pos, ok := r.position(label); ok {
		r.err = r.sheet.ClearCell(pos)
	}
	return r
}

// Value is a helper to get a single value from the chain.
// example: v := NewRunnableSheet(log).Set("A1", "10").Set("A2", "=A1*2").Value("A2")
func (r *RunnableSheet) Value(label string) Value {
	if r.err != nil {
		return Value{}
	}
	pos, ok := r.position(label)
	if !ok {
		return Value{}
	}
	v, err := r.sheet.Value(pos)
	r.err = err
	return v
}

// Values is a helper to get multiple values from the chain
func (r *RunnableSheet) Values(labels ...string) []Value {
	values := make([]Value, len(labels))
	for i, label := range labels {
		values[i] = r.Value(label)
		if r.err != nil {
			return nil
		}
	}
	return values
}

// Text returns the round-trip text of a cell
func (r *RunnableSheet) Text(label string) string {
	if r.err != nil {
		return ""
	}
	pos, ok := r.position(label)
	if !ok {
		return ""
	}
	text, err := r.sheet.Text(pos)
	r.err = err
	return text
}

// Log logs the value of a cell using the provided printLn function (chainable)
func (r *RunnableSheet) Log(label string) *RunnableSheet {
	v := r.Value(label)
	if r.err != nil {
		return r
	}
	if v.Kind() == ValueText && v.Text() == "" {
		r.printLn(fmt.Sprintf("%s: <empty>", label))
	} else {
		r.printLn(fmt.Sprintf("%s: %s", label, v))
	}
	return r
}

// PrintValues writes the displayed values of the sheet (chainable)
func (r *RunnableSheet) PrintValues(w io.Writer) *RunnableSheet {
	if r.err != nil {
		return r
	}
	r.err = r.sheet.PrintValues(w)
	return r
}

// Then allows conditional execution based on current error state
func (r *RunnableSheet) Then(fn func(*RunnableSheet) *RunnableSheet) *RunnableSheet {
	if r.err != nil {
		return r
	}
	return fn(r)
}

// OnError allows error handling in the chain
func (r *RunnableSheet) OnError(fn func(error) error) *RunnableSheet {
	if r.err != nil {
		r.err = fn(r.err)
	}
	return r
}

// CheckError logs the current error using the printLn function (chainable)
func (r *RunnableSheet) CheckError() *RunnableSheet {
	if r.err != nil {
		r.printLn(fmt.Sprintf("ERROR: %v", r.err))
	} else {
		r.printLn("No errors")
	}
	return r
}

// Must panics if there's an error (chainable). useful for ensuring
// critical operations succeed
func (r *RunnableSheet) Must() *RunnableSheet {
	if r.err != nil {
		panic(r.err)
	}
	return r
}

// Reset clears the error state (chainable)
func (r *RunnableSheet) Reset() *RunnableSheet {
	r.err = nil
	return r
}

// Error returns the current error state
func (r *RunnableSheet) Error() error {
	return r.err
}

// Sheet returns the underlying sheet. use with caution as it bypasses
// error tracking.
func (r *RunnableSheet) Sheet() *Sheet {
	return r.sheet
}
