package cellgraph

import (
	"log/slog"
	"slices"
)

// sheet-level operations over the dependency relation. edges live on the
// cells themselves (dependsOn / dependents); every traversal here resolves
// positions through s.cells and uses an explicit work-list, so chains of
// any length never grow the goroutine stack.

// wouldCycle reports whether giving the cell at self the dependencies deps
// would close a cycle, that is whether any of deps already depends on self.
// the search runs from self along committed dependents edges, so a cell
// nothing refers to yet is checked in constant time.
func (s *Sheet) wouldCycle(self Position, deps []Position) bool {
	if len(deps) == 0 {
		return false
	}
	targets := make(map[Position]struct{}, len(deps))
	for _, pos := range deps {
		if pos == self {
			return true
		}
		targets[pos] = struct{}{}
	}

	start, exists := s.cells[self]
	if !exists || len(start.dependents) == 0 {
		return false
	}

	visited := map[Position]struct{}{self: {}}
	stack := []*Cell{start}
	for len(stack) > 0 {
		cell := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for pos := range cell.dependents {
			if _, hit := targets[pos]; hit {
				return true
			}
			if _, seen := visited[pos]; seen {
				continue
			}
			visited[pos] = struct{}{}
			if dependent, exists := s.cells[pos]; exists {
				stack = append(stack, dependent)
			}
		}
	}
	return false
}

// invalidate clears the cache of c and of every cell that transitively
// depends on it. dependents are always visited, cached or not: an uncached
// dependent can still have cached dependents of its own.
func (s *Sheet) invalidate(c *Cell) int {
	visited := map[Position]struct{}{c.pos: {}}
	stack := []*Cell{c}
	cleared := 0

	for len(stack) > 0 {
		cell := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cell.cache != nil {
			cell.cache = nil
			cleared++
		}
		for pos := range cell.dependents {
			if _, seen := visited[pos]; seen {
				continue
			}
			visited[pos] = struct{}{}
			if dependent, exists := s.cells[pos]; exists {
				stack = append(stack, dependent)
			}
		}
	}

	if cleared > 0 {
		s.logger.Debug("invalidated cached values",
			slog.String("position", c.pos.String()),
			slog.Int("invalidated", cleared))
	}
	return cleared
}

// unlinkPrecedents removes c from the dependents of everything it depends
// on and returns those former precedents
func (s *Sheet) unlinkPrecedents(c *Cell) []*Cell {
	former := make([]*Cell, 0, len(c.dependsOn))
	for pos := range c.dependsOn {
		precedent, exists := s.cells[pos]
		if !exists {
			continue
		}
		delete(precedent.dependents, c.pos)
		former = append(former, precedent)
	}
	c.dependsOn = nil
	return former
}

// linkPrecedents installs deps as the dependencies of c, creating empty
// placeholder cells for positions that do not exist yet
func (s *Sheet) linkPrecedents(c *Cell, deps []Position) {
	if len(deps) == 0 {
		return
	}
	c.dependsOn = make(map[Position]struct{}, len(deps))
	for _, pos := range deps {
		precedent, exists := s.cells[pos]
		if !exists {
			precedent = newCell(s, pos)
			s.cells[pos] = precedent
		}
		if precedent.dependents == nil {
			precedent.dependents = make(map[Position]struct{})
		}
		precedent.dependents[c.pos] = struct{}{}
		c.dependsOn[pos] = struct{}{}
	}
}

// pruneOrphans drops the empty cells among candidates that nothing refers
// to anymore
func (s *Sheet) pruneOrphans(candidates []*Cell) {
	for _, c := range candidates {
		if _, isEmpty := c.content.(emptyContent); !isEmpty || len(c.dependents) > 0 {
			continue
		}
		if stored, exists := s.cells[c.pos]; exists && stored == c {
			delete(s.cells, c.pos)
		}
	}
}

// calculationOrder returns the uncached formula cells that must be
// evaluated for c to be computed, precedents first and c last. cells
// already cached are treated as leaves.
func (s *Sheet) calculationOrder(c *Cell) []*Cell {
	type frame struct {
		cell     *Cell
		expanded bool
	}

	// three states: unvisited (not in map), visiting (false), visited (true)
	state := make(map[Position]bool)
	var order []*Cell
	stack := []frame{{cell: c}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.expanded {
			state[top.cell.pos] = true
			order = append(order, top.cell)
			continue
		}
		if _, seen := state[top.cell.pos]; seen {
			continue
		}
		state[top.cell.pos] = false
		stack = append(stack, frame{cell: top.cell, expanded: true})

		for _, pos := range top.cell.ReferencedCells() {
			if _, seen := state[pos]; seen {
				continue
			}
			precedent, exists := s.cells[pos]
			if !exists || !precedent.needsEvaluation() {
				continue
			}
			stack = append(stack, frame{cell: precedent})
		}
	}
	return order
}

// Precedents returns the positions the cell at pos directly depends on
func (s *Sheet) Precedents(pos Position) ([]Position, error) {
	cell, err := s.Cell(pos)
	if err != nil || cell == nil {
		return nil, err
	}
	return cell.ReferencedCells(), nil
}

// Dependents returns the positions whose formulas directly reference pos
func (s *Sheet) Dependents(pos Position) ([]Position, error) {
	cell, err := s.Cell(pos)
	if err != nil || cell == nil {
		return nil, err
	}
	return cell.Dependents(), nil
}

// AllDependents returns every position affected by a change at pos
// (transitive closure), in position order
func (s *Sheet) AllDependents(pos Position) ([]Position, error) {
	start, err := s.Cell(pos)
	if err != nil || start == nil {
		return nil, err
	}

	visited := make(map[Position]struct{})
	var result []Position
	stack := []*Cell{start}

	for len(stack) > 0 {
		cell := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for dependentPos := range cell.dependents {
			if _, seen := visited[dependentPos]; seen || dependentPos == pos {
				continue
			}
			visited[dependentPos] = struct{}{}
			result = append(result, dependentPos)
			if dependent, exists := s.cells[dependentPos]; exists {
				stack = append(stack, dependent)
			}
		}
	}

	slices.SortFunc(result, Position.Compare)
	return result, nil
}

// CalculationOrder returns the positions that reading the value at pos
// would evaluate, in evaluation order. an empty result means the value is
// already cached or pos holds no formula.
func (s *Sheet) CalculationOrder(pos Position) ([]Position, error) {
	cell, err := s.Cell(pos)
	if err != nil || cell == nil || !cell.needsEvaluation() {
		return nil, err
	}

	order := s.calculationOrder(cell)
	result := make([]Position, len(order))
	for i, c := range order {
		result[i] = c.pos
	}
	return result, nil
}
