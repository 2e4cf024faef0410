package arena

import (
	"github.com/jaminalder/codex-three-mens-morris/internal/ai"
	"github.com/jaminalder/codex-three-mens-morris/internal/domain"
	"golang.org/x/exp/rand"
)

// Player picks moves for whichever side is to move.
type Player interface {
	Name() string
	ChooseMove(domain.GameState) (domain.Move, bool)
}

// Random plays a uniformly random legal move.
type Random struct {
	name string
	rng  *rand.Rand
}

func NewRandom(name string, seed uint64) *Random {
	return &Random{name: name, rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Name() string { return r.name }

func (r *Random) ChooseMove(s domain.GameState) (domain.Move, bool) {
	moves := domain.Legal(s)
	if len(moves) == 0 {
		return domain.Move{}, false
	}
	return moves[r.rng.Intn(len(moves))], true
}

type searcher struct {
	name string
	*ai.Searcher
}

func (s searcher) Name() string { return s.name }

// Searcher adapts the minimax search to a Player.
func Searcher(name string, s *ai.Searcher) Player {
	return searcher{name: name, Searcher: s}
}
