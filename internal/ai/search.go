package ai

import (
	"math"
	"time"

	"github.com/jaminalder/codex-three-mens-morris/internal/domain"
	"github.com/rs/zerolog"
)

const (
	// MaxDepth is the ply limit, counted across both phases.
	MaxDepth = 6
	// WinScore is the value of a win at the root; deeper wins score less.
	WinScore = 100
	// StuckScore is the value of leaving the opponent without a relocation.
	StuckScore = 50
)

type Option func(*Searcher)

// WithLogger sets the logger used for per-search diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Searcher) {
		a.log = l
	}
}

// Searcher picks moves with depth-limited minimax and alpha-beta pruning.
// It holds no per-search state and is safe for concurrent use.
type Searcher struct {
	log zerolog.Logger
}

// Stats describes the work done by one search.
type Stats struct {
	Nodes   int
	Cutoffs int
	Elapsed time.Duration
}

// Result is the outcome of a root search.
type Result struct {
	Move  domain.Move
	OK    bool
	Score int
	Stats Stats
}

func New(options ...Option) *Searcher {
	a := &Searcher{log: zerolog.Nop()}
	for _, option := range options {
		option(a)
	}
	return a
}

// ChooseMove returns the best move for the side to move, or false when that
// side has nothing to play.
func (a *Searcher) ChooseMove(s domain.GameState) (domain.Move, bool) {
	r := a.Search(s)
	return r.Move, r.OK
}

// Search runs the full root search for s.Current.
func (a *Searcher) Search(s domain.GameState) Result {
	start := time.Now()
	if s.Phase == domain.GameOver || !s.Current.IsSide() {
		return Result{}
	}

	t := &tree{ai: s.Current}
	var res Result
	alpha := math.MinInt
	for _, m := range candidates(s, t.ai) {
		score := t.minimax(domain.Successor(s, t.ai, m), 1, alpha, math.MaxInt, false)
		// Strictly greater: ties keep the first candidate seen.
		if !res.OK || score > res.Score {
			res.Move, res.Score, res.OK = m, score, true
		}
		if score > alpha {
			alpha = score
		}
	}
	res.Stats = Stats{Nodes: t.nodes, Cutoffs: t.cutoffs, Elapsed: time.Since(start)}

	a.log.Debug().
		Str("side", t.ai.String()).
		Str("phase", s.Phase.String()).
		Bool("found", res.OK).
		Str("move", res.Move.String()).
		Int("score", res.Score).
		Int("nodes", t.nodes).
		Int("cutoffs", t.cutoffs).
		Dur("elapsed", res.Stats.Elapsed).
		Msg("search complete")
	return res
}

// tree carries the fixed AI colour and counters through one search.
type tree struct {
	ai      domain.Cell
	nodes   int
	cutoffs int
}

func (t *tree) minimax(s domain.GameState, depth, alpha, beta int, maximizing bool) int {
	t.nodes++

	switch domain.CheckWinner(s.Board) {
	case t.ai:
		return WinScore - depth
	case t.ai.Opponent():
		return depth - WinScore
	}
	if depth >= MaxDepth {
		return Evaluate(s.Board, t.ai)
	}

	// Side to move comes from the ply parity, not s.Current.
	side := t.ai
	if !maximizing {
		side = t.ai.Opponent()
	}
	moves := candidates(s, side)
	if len(moves) == 0 {
		if s.Phase == domain.Movement {
			if maximizing {
				return -StuckScore
			}
			return StuckScore
		}
		return Evaluate(s.Board, t.ai)
	}

	if maximizing {
		best := math.MinInt
		for _, m := range moves {
			score := t.minimax(domain.Successor(s, side, m), depth+1, alpha, beta, false)
			best = max(best, score)
			alpha = max(alpha, best)
			if beta <= alpha {
				t.cutoffs++
				break
			}
		}
		return best
	}

	best := math.MaxInt
	for _, m := range moves {
		score := t.minimax(domain.Successor(s, side, m), depth+1, alpha, beta, true)
		best = min(best, score)
		beta = min(beta, best)
		if beta <= alpha {
			t.cutoffs++
			break
		}
	}
	return best
}

// candidates lists the moves side may make at one ply of the search.
func candidates(s domain.GameState, side domain.Cell) []domain.Move {
	switch s.Phase {
	case domain.Placement:
		if s.Placed(side) >= domain.PiecesPerSide {
			return nil
		}
		var out []domain.Move
		for n, c := range s.Board {
			if c == domain.Empty {
				out = append(out, domain.PlaceAt(n))
			}
		}
		return out
	case domain.Movement:
		return domain.AllValidMoves(s, side)
	}
	return nil
}
