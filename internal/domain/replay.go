package domain

import "fmt"

// Replay rebuilds a game by applying records from a fresh start.
func Replay(first Cell, players Players, records []Record) (GameState, error) {
	s := New(first, players)
	for i, r := range records {
		if r.Side != s.Current {
			return s, fmt.Errorf("record %d: %s to move, got %s: %w", i, s.Current, r.Side, ErrInvalidMove)
		}
		next, err := Apply(s, r.Move)
		if err != nil {
			return s, fmt.Errorf("record %d (%s): %w", i, r.Move, err)
		}
		s = next
	}
	return s, nil
}

// Undo drops the last n records and replays the rest.
func Undo(s GameState, n int) (GameState, error) {
	if n <= 0 || n > len(s.History) {
		return s, ErrNothingToUndo
	}
	return Replay(s.First, s.Players, s.History[:len(s.History)-n])
}
