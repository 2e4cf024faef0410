package ai

import (
	"math"
	"math/rand"
	"testing"

	"github.com/jaminalder/codex-three-mens-morris/internal/domain"
	"github.com/stretchr/testify/require"
)

func play(t *testing.T, s domain.GameState, moves ...domain.Move) domain.GameState {
	t.Helper()
	for _, m := range moves {
		next, err := domain.Apply(s, m)
		require.NoError(t, err, "applying %v", m)
		s = next
	}
	return s
}

func places(t *testing.T, first domain.Cell, nodes ...int) domain.GameState {
	t.Helper()
	s := domain.New(first, domain.Players{})
	for _, n := range nodes {
		s = play(t, s, domain.PlaceAt(n))
	}
	return s
}

func movement(red, blue []int, current domain.Cell) domain.GameState {
	s := domain.New(current, domain.Players{})
	for _, n := range red {
		s.Board[n] = domain.Red
	}
	for _, n := range blue {
		s.Board[n] = domain.Blue
	}
	s.Pieces = [2]int{len(red), len(blue)}
	s.Phase = domain.Movement
	return s
}

// exhaustive is plain minimax without pruning, used as the reference value.
func exhaustive(s domain.GameState, depth int, maximizing bool, ai domain.Cell) int {
	switch domain.CheckWinner(s.Board) {
	case ai:
		return WinScore - depth
	case ai.Opponent():
		return depth - WinScore
	}
	if depth >= MaxDepth {
		return Evaluate(s.Board, ai)
	}
	side := ai
	if !maximizing {
		side = ai.Opponent()
	}
	moves := candidates(s, side)
	if len(moves) == 0 {
		if s.Phase == domain.Movement {
			if maximizing {
				return -StuckScore
			}
			return StuckScore
		}
		return Evaluate(s.Board, ai)
	}
	best := math.MaxInt
	if maximizing {
		best = math.MinInt
	}
	for _, m := range moves {
		v := exhaustive(domain.Successor(s, side, m), depth+1, !maximizing, ai)
		if maximizing {
			best = max(best, v)
		} else {
			best = min(best, v)
		}
	}
	return best
}

func TestSearchTakesImmediateWin(t *testing.T) {
	s := places(t, domain.Red, 0, 3, 1, 4)
	res := New().Search(s)
	require.True(t, res.OK)
	require.Equal(t, domain.PlaceAt(2), res.Move)
	require.Equal(t, WinScore-1, res.Score)
}

func TestSearchBlocksImmediateLoss(t *testing.T) {
	s := places(t, domain.Red, 0, 3, 8, 4)
	move, ok := New().ChooseMove(s)
	require.True(t, ok)
	require.Equal(t, domain.PlaceAt(5), move, "Blue threatens 3-4-5")
}

func TestSearchWinsInMovement(t *testing.T) {
	// 4->1 completes the top row.
	s := movement([]int{0, 2, 4}, []int{3, 5, 7}, domain.Red)
	require.Equal(t, domain.Empty, domain.CheckWinner(s.Board))
	res := New().Search(s)
	require.True(t, res.OK)
	require.Equal(t, domain.Red, domain.CheckWinner(domain.Successor(s, domain.Red, res.Move).Board),
		"expected a winning relocation, got %v", res.Move)
	require.Equal(t, WinScore-1, res.Score)
}

func TestSearchIsDeterministic(t *testing.T) {
	a := New()
	for _, s := range []domain.GameState{
		domain.New(domain.Red, domain.Players{}),
		places(t, domain.Blue, 4, 0, 8),
		movement([]int{0, 5, 7}, []int{2, 6, 8}, domain.Blue),
	} {
		first := a.Search(s)
		for i := 0; i < 3; i++ {
			again := a.Search(s)
			require.Equal(t, first.Move, again.Move)
			require.Equal(t, first.Score, again.Score)
		}
	}
}

func TestSearchDoesNotMutateInput(t *testing.T) {
	s := places(t, domain.Red, 4, 0)
	before := s
	beforeHist := append([]domain.Record(nil), s.History...)
	New().Search(s)
	require.Equal(t, before.Board, s.Board)
	require.Equal(t, beforeHist, s.History)
}

func TestSearchNoMove(t *testing.T) {
	t.Run("boxed in side", func(t *testing.T) {
		s := movement([]int{0, 3, 6}, []int{1, 4, 7}, domain.Red)
		res := New().Search(s)
		require.False(t, res.OK)
	})

	t.Run("game over", func(t *testing.T) {
		s := places(t, domain.Red, 0, 3, 1, 4, 2)
		require.True(t, s.Over())
		_, ok := New().ChooseMove(s)
		require.False(t, ok)
	})
}

func TestStuckBranchScores(t *testing.T) {
	// Red's only piece is boxed in and no line is complete.
	s := movement([]int{0}, []int{1, 3, 4}, domain.Red)
	require.Equal(t, domain.Empty, domain.CheckWinner(s.Board))

	t.Run("maximizing side stuck", func(t *testing.T) {
		tr := &tree{ai: domain.Red}
		require.Equal(t, -StuckScore, tr.minimax(s, 1, math.MinInt, math.MaxInt, true))
	})

	t.Run("minimizing side stuck", func(t *testing.T) {
		tr := &tree{ai: domain.Blue}
		require.Equal(t, StuckScore, tr.minimax(s, 1, math.MinInt, math.MaxInt, false))
	})
}

func TestTerminalScoresPreferFasterWins(t *testing.T) {
	s := places(t, domain.Red, 0, 3, 1, 4, 2)
	tr := &tree{ai: domain.Red}
	require.Equal(t, WinScore-2, tr.minimax(s, 2, math.MinInt, math.MaxInt, false))
	tr = &tree{ai: domain.Blue}
	require.Equal(t, 3-WinScore, tr.minimax(s, 3, math.MinInt, math.MaxInt, true))
}

func TestDepthCutoffUsesEvaluator(t *testing.T) {
	s := places(t, domain.Red, 4, 0)
	tr := &tree{ai: domain.Red}
	require.Equal(t, Evaluate(s.Board, domain.Red), tr.minimax(s, MaxDepth, math.MinInt, math.MaxInt, true))
	require.Equal(t, 1, tr.nodes)
}

func TestPruningMatchesExhaustiveSearch(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	a := New()
	states := []domain.GameState{
		domain.New(domain.Red, domain.Players{}),
		movement([]int{0, 5, 7}, []int{2, 6, 8}, domain.Red),
	}
	for len(states) < 24 {
		s := domain.New(domain.Cell(1+rng.Intn(2)), domain.Players{})
		plies := 1 + rng.Intn(14)
		for i := 0; i < plies && !s.Over(); i++ {
			moves := domain.Legal(s)
			if len(moves) == 0 {
				break
			}
			s = play(t, s, moves[rng.Intn(len(moves))])
		}
		if !s.Over() && len(domain.Legal(s)) > 0 {
			states = append(states, s)
		}
	}

	for i, s := range states {
		res := a.Search(s)
		require.True(t, res.OK, "state %d", i)

		ai := s.Current
		best := math.MinInt
		var bestMove domain.Move
		for _, m := range candidates(s, ai) {
			v := exhaustive(domain.Successor(s, ai, m), 1, false, ai)
			if v > best {
				best, bestMove = v, m
			}
		}
		require.Equal(t, best, res.Score, "state %d: pruned score differs", i)
		require.Equal(t, bestMove, res.Move, "state %d: pruned move differs", i)
	}
}

func TestSelfPlayTerminates(t *testing.T) {
	a := New()
	s := domain.New(domain.Red, domain.Players{Red: domain.Computer, Blue: domain.Computer})
	for ply := 0; ply < 40 && !s.Over(); ply++ {
		move, ok := a.ChooseMove(s)
		if !ok {
			break
		}
		s = play(t, s, move)
	}
	require.NotEmpty(t, s.History)
}
