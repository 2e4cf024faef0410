package domain

import (
	"errors"
	"fmt"
)

// Phase is the stage a game is in. It only ever moves forward.
type Phase uint8

const (
	Placement Phase = iota
	Movement
	GameOver
)

func (p Phase) String() string {
	switch p {
	case Placement:
		return "placement"
	case Movement:
		return "movement"
	case GameOver:
		return "game_over"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// PlayerType says who controls a side.
type PlayerType uint8

const (
	Human PlayerType = iota
	Computer
)

func (t PlayerType) String() string {
	if t == Computer {
		return "computer"
	}
	return "human"
}

// ParsePlayerType converts "human" or "computer".
func ParsePlayerType(s string) (PlayerType, error) {
	switch s {
	case "human", "":
		return Human, nil
	case "computer", "ai":
		return Computer, nil
	}
	return Human, fmt.Errorf("unknown player type %q", s)
}

// Players assigns a controller to each side.
type Players struct {
	Red  PlayerType
	Blue PlayerType
}

// Of returns the controller of side.
func (p Players) Of(side Cell) PlayerType {
	if side == Blue {
		return p.Blue
	}
	return p.Red
}

// Mode summarises who plays whom.
type Mode uint8

const (
	HumanVsHuman Mode = iota
	HumanVsComputer
	ComputerVsComputer
)

func (m Mode) String() string {
	switch m {
	case HumanVsComputer:
		return "human_vs_computer"
	case ComputerVsComputer:
		return "computer_vs_computer"
	default:
		return "human_vs_human"
	}
}

// Mode derives the game mode from the controllers.
func (p Players) Mode() Mode {
	switch {
	case p.Red == Computer && p.Blue == Computer:
		return ComputerVsComputer
	case p.Red == Computer || p.Blue == Computer:
		return HumanVsComputer
	default:
		return HumanVsHuman
	}
}

// MoveKind distinguishes placements from relocations.
type MoveKind uint8

const (
	Place MoveKind = iota + 1
	Relocate
)

// Move is either a placement on To or a relocation From -> To.
type Move struct {
	Kind MoveKind
	From int
	To   int
}

// PlaceAt builds a placement move.
func PlaceAt(node int) Move { return Move{Kind: Place, From: NoNode, To: node} }

// Step builds a relocation move.
func Step(from, to int) Move { return Move{Kind: Relocate, From: from, To: to} }

func (m Move) String() string {
	switch m.Kind {
	case Place:
		return fmt.Sprintf("place %d", m.To)
	case Relocate:
		return fmt.Sprintf("move %d->%d", m.From, m.To)
	default:
		return "none"
	}
}

// Record is one applied move in the game history.
type Record struct {
	Side Cell
	Move Move
}

// GameState is the whole state of a match. It is a value: every transition
// returns a new GameState and leaves its input untouched.
type GameState struct {
	Board    Board
	Current  Cell
	First    Cell
	Phase    Phase
	Pieces   [2]int
	Selected int
	Winner   Cell
	Players  Players
	History  []Record
}

// Errors returned by the checked operations.
var (
	ErrGameOver      = errors.New("game over")
	ErrOutOfBounds   = errors.New("out of bounds")
	ErrOccupied      = errors.New("node occupied")
	ErrWrongPhase    = errors.New("not allowed in this phase")
	ErrNoPiecesLeft  = errors.New("no pieces left to place")
	ErrNotYourPiece  = errors.New("not your piece")
	ErrNotAdjacent   = errors.New("nodes are not adjacent")
	ErrInvalidMove   = errors.New("invalid move")
	ErrNothingToUndo = errors.New("nothing to undo")
)

// New returns an empty board in the placement phase with first to move.
func New(first Cell, players Players) GameState {
	if !first.IsSide() {
		first = Red
	}
	return GameState{
		Current:  first,
		First:    first,
		Phase:    Placement,
		Selected: NoNode,
		Players:  players,
	}
}

// Placed returns how many pieces side has put on the board.
func (s GameState) Placed(side Cell) int {
	if !side.IsSide() {
		return 0
	}
	return s.Pieces[side.index()]
}

// Mode is shorthand for s.Players.Mode().
func (s GameState) Mode() Mode { return s.Players.Mode() }

// Over reports whether the game has ended.
func (s GameState) Over() bool { return s.Phase == GameOver }

// IsValidPlacement reports whether the side to move may place on node.
func IsValidPlacement(s GameState, node int) bool {
	return s.Phase == Placement &&
		s.Current.IsSide() &&
		inRange(node) &&
		s.Board[node] == Empty &&
		s.Placed(s.Current) < PiecesPerSide
}

// IsValidMove reports whether the side to move may relocate from -> to.
func IsValidMove(s GameState, from, to int) bool {
	return s.Phase == Movement &&
		s.Current.IsSide() &&
		inRange(from) && inRange(to) &&
		s.Board[from] == s.Current &&
		s.Board[to] == Empty &&
		Adjacent(from, to)
}

// PlacePiece places a piece for the side to move. Input that fails
// IsValidPlacement is returned unchanged.
func PlacePiece(s GameState, node int) GameState {
	if !IsValidPlacement(s, node) {
		return s
	}
	side := s.Current
	next := place(s, side, node)
	next.History = appendRecord(s.History, Record{Side: side, Move: PlaceAt(node)})
	return next
}

// MovePiece relocates a piece of the side to move. Input that fails
// IsValidMove is returned unchanged.
func MovePiece(s GameState, from, to int) GameState {
	if !IsValidMove(s, from, to) {
		return s
	}
	side := s.Current
	next := relocate(s, side, from, to)
	next.History = appendRecord(s.History, Record{Side: side, Move: Step(from, to)})
	return next
}

// Successor applies m for side without recording history or selection.
// Search code uses it to branch cheaply from a shared ancestor. A non-side
// returns s unchanged.
func Successor(s GameState, side Cell, m Move) GameState {
	if !side.IsSide() {
		return s
	}
	s.History = nil
	s.Selected = NoNode
	switch m.Kind {
	case Place:
		return place(s, side, m.To)
	case Relocate:
		return relocate(s, side, m.From, m.To)
	}
	return s
}

func place(s GameState, side Cell, node int) GameState {
	if !side.IsSide() || !inRange(node) {
		return s
	}
	s.Board[node] = side
	s.Pieces[side.index()]++
	return settle(s, side)
}

func relocate(s GameState, side Cell, from, to int) GameState {
	if !side.IsSide() || !inRange(from) || !inRange(to) {
		return s
	}
	s.Board[from] = Empty
	s.Board[to] = side
	s.Selected = NoNode
	return settle(s, side)
}

// settle runs the post-move bookkeeping: win check, phase change, turn flip.
func settle(s GameState, mover Cell) GameState {
	if w := CheckWinner(s.Board); w != Empty {
		s.Winner = w
		s.Phase = GameOver
		return s
	}
	if s.Phase == Placement && s.Pieces[0] == PiecesPerSide && s.Pieces[1] == PiecesPerSide {
		s.Phase = Movement
	}
	s.Current = mover.Opponent()
	return s
}

// appendRecord never writes into h's backing array; sibling states may share it.
func appendRecord(h []Record, r Record) []Record {
	out := make([]Record, len(h)+1)
	copy(out, h)
	out[len(h)] = r
	return out
}

// Apply validates m for the side to move and applies it.
func Apply(s GameState, m Move) (GameState, error) {
	if s.Phase == GameOver {
		return s, ErrGameOver
	}
	if !s.Current.IsSide() {
		return s, ErrInvalidMove
	}
	switch m.Kind {
	case Place:
		if !inRange(m.To) {
			return s, ErrOutOfBounds
		}
		if s.Phase != Placement {
			return s, ErrWrongPhase
		}
		if s.Board[m.To] != Empty {
			return s, ErrOccupied
		}
		if s.Placed(s.Current) >= PiecesPerSide {
			return s, ErrNoPiecesLeft
		}
		return PlacePiece(s, m.To), nil
	case Relocate:
		if !inRange(m.From) || !inRange(m.To) {
			return s, ErrOutOfBounds
		}
		if s.Phase != Movement {
			return s, ErrWrongPhase
		}
		if s.Board[m.From] != s.Current {
			return s, ErrNotYourPiece
		}
		if s.Board[m.To] != Empty {
			return s, ErrOccupied
		}
		if !Adjacent(m.From, m.To) {
			return s, ErrNotAdjacent
		}
		return MovePiece(s, m.From, m.To), nil
	}
	return s, ErrInvalidMove
}

// Select picks up a piece of the side to move.
func Select(s GameState, node int) (GameState, error) {
	if s.Phase == GameOver {
		return s, ErrGameOver
	}
	if !s.Current.IsSide() {
		return s, ErrInvalidMove
	}
	if !inRange(node) {
		return s, ErrOutOfBounds
	}
	if s.Phase != Movement {
		return s, ErrWrongPhase
	}
	if s.Board[node] != s.Current {
		return s, ErrNotYourPiece
	}
	s.Selected = node
	return s, nil
}

// Deselect drops the current selection.
func Deselect(s GameState) GameState {
	s.Selected = NoNode
	return s
}

// ValidMovesFrom returns the empty neighbours of node when it holds a piece
// of the side to move during the movement phase.
func ValidMovesFrom(s GameState, node int) []int {
	if s.Phase != Movement || !s.Current.IsSide() || !inRange(node) || s.Board[node] != s.Current {
		return nil
	}
	var out []int
	for _, n := range adjacency[node] {
		if s.Board[n] == Empty {
			out = append(out, n)
		}
	}
	return out
}

// AllValidMoves lists every relocation open to side, in board order and then
// neighbour order.
func AllValidMoves(s GameState, side Cell) []Move {
	if !side.IsSide() {
		return nil
	}
	var out []Move
	for from, c := range s.Board {
		if c != side {
			continue
		}
		for _, to := range adjacency[from] {
			if s.Board[to] == Empty {
				out = append(out, Step(from, to))
			}
		}
	}
	return out
}

// CanMove reports whether side has at least one relocation.
func CanMove(s GameState, side Cell) bool {
	if !side.IsSide() {
		return false
	}
	for from, c := range s.Board {
		if c != side {
			continue
		}
		for _, to := range adjacency[from] {
			if s.Board[to] == Empty {
				return true
			}
		}
	}
	return false
}

// Legal lists the moves open to the side to move.
func Legal(s GameState) []Move {
	switch s.Phase {
	case Placement:
		if !s.Current.IsSide() || s.Placed(s.Current) >= PiecesPerSide {
			return nil
		}
		var out []Move
		for n, c := range s.Board {
			if c == Empty {
				out = append(out, PlaceAt(n))
			}
		}
		return out
	case Movement:
		return AllValidMoves(s, s.Current)
	default:
		return nil
	}
}

// Stuck reports a movement-phase side to move with no relocation.
func Stuck(s GameState) bool {
	return s.Phase == Movement && s.Current.IsSide() && !CanMove(s, s.Current)
}

// Conclude ends a live game without a winner.
func Conclude(s GameState) GameState {
	if s.Phase == GameOver {
		return s
	}
	s.Phase = GameOver
	s.Selected = NoNode
	return s
}
