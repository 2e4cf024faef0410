package domain

import "fmt"

// Cell represents a board cell state. Red and Blue double as the two sides.
type Cell uint8

const (
	Empty Cell = iota
	Red
	Blue
)

const (
	// Nodes is the number of positions on the board.
	Nodes = 9
	// PiecesPerSide is how many pieces each side introduces during placement.
	PiecesPerSide = 3
	// NoNode marks an absent node index.
	NoNode = -1
)

// Board is the fixed 3x3 node grid stored row-major.
type Board [Nodes]Cell

// adjacency lists neighbours in ascending order; move enumeration relies on it.
var adjacency = [Nodes][]int{
	0: {1, 3, 4},
	1: {0, 2, 4},
	2: {1, 4, 5},
	3: {0, 4, 6},
	4: {0, 1, 2, 3, 5, 6, 7, 8},
	5: {2, 4, 8},
	6: {3, 4, 7},
	7: {4, 6, 8},
	8: {4, 5, 7},
}

var lines = [8][3]int{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// Opponent returns the other side. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case Red:
		return Blue
	case Blue:
		return Red
	default:
		return Empty
	}
}

// IsSide reports whether c is Red or Blue.
func (c Cell) IsSide() bool { return c == Red || c == Blue }

func (c Cell) String() string {
	switch c {
	case Red:
		return "red"
	case Blue:
		return "blue"
	default:
		return "empty"
	}
}

// ParseSide converts "red" or "blue" into a side.
func ParseSide(s string) (Cell, error) {
	switch s {
	case "red", "Red", "RED":
		return Red, nil
	case "blue", "Blue", "BLUE":
		return Blue, nil
	}
	return Empty, fmt.Errorf("unknown side %q", s)
}

func (c Cell) index() int { return int(c) - 1 }

// Neighbors returns the nodes adjacent to node, or nil when node is off the board.
func Neighbors(node int) []int {
	if !inRange(node) {
		return nil
	}
	return append([]int(nil), adjacency[node]...)
}

// Adjacent reports whether a and b share an edge.
func Adjacent(a, b int) bool {
	if !inRange(a) || !inRange(b) {
		return false
	}
	for _, n := range adjacency[a] {
		if n == b {
			return true
		}
	}
	return false
}

// Lines returns the eight winning lines in scan order.
func Lines() [8][3]int { return lines }

// CheckWinner returns the side that fully occupies a winning line, or Empty.
func CheckWinner(b Board) Cell {
	for _, ln := range lines {
		c := b[ln[0]]
		if c != Empty && b[ln[1]] == c && b[ln[2]] == c {
			return c
		}
	}
	return Empty
}

// Count returns how many cells hold c.
func (b Board) Count(c Cell) int {
	n := 0
	for _, v := range b {
		if v == c {
			n++
		}
	}
	return n
}

func inRange(node int) bool { return node >= 0 && node < Nodes }
