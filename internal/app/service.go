package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jaminalder/codex-three-mens-morris/internal/domain"
	"github.com/rs/zerolog"
)

// Errors exposed by the service layer.
var (
	ErrNotFound     = errors.New("game not found")
	ErrComputerTurn = errors.New("computer to move")
	ErrNoSelection  = errors.New("select a piece first")
)

// Mover picks moves for computer-controlled sides.
type Mover interface {
	ChooseMove(domain.GameState) (domain.Move, bool)
}

// Session is the in-memory state tracked per game.
type Session struct {
	ID       string
	Game     domain.GameState
	Thinking bool
	Created  time.Time
	Updated  time.Time

	gen uint64
}

type subscriber struct {
	ch        chan Session
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

type Option func(*Service)

// WithAIDelay sets the pause before a computer side moves.
func WithAIDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.aiDelay = d
		}
	}
}

// WithMaxPlies ends a game without a winner once its history reaches n moves.
// Zero disables the cap.
func WithMaxPlies(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxPlies = n
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// Service manages games, computer turns and subscribers.
type Service struct {
	mu       sync.Mutex
	games    map[string]*Session
	subs     map[string]map[*subscriber]struct{}
	mover    Mover
	aiDelay  time.Duration
	maxPlies int
	log      zerolog.Logger
}

// NewService creates a service; mover may be nil when no side is ever computer-controlled.
func NewService(mover Mover, options ...Option) *Service {
	s := &Service{
		games:   make(map[string]*Session),
		subs:    make(map[string]map[*subscriber]struct{}),
		mover:   mover,
		aiDelay: 500 * time.Millisecond,
		log:     zerolog.Nop(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// CreateGame creates and registers a new game.
func (s *Service) CreateGame(first domain.Cell, players domain.Players) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	now := time.Now()
	gs := &Session{ID: id, Created: now}
	s.games[id] = gs
	s.commitLocked(gs, domain.New(first, players))
	s.log.Info().
		Str("game", id).
		Str("mode", players.Mode().String()).
		Str("first", gs.Game.First.String()).
		Msg("game created")
	cp := *gs
	return &cp, nil
}

// Get returns a copy of the session if present.
func (s *Service) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return nil, false
	}
	cp := *gs
	return &cp, true
}

// Click applies a board click for the human side to move: a placement in the
// placement phase, otherwise select, deselect or move the selected piece.
func (s *Service) Click(id string, node int) (*Session, error) {
	return s.update(id, func(g domain.GameState) (domain.GameState, error) {
		if g.Phase == domain.Placement {
			return domain.Apply(g, domain.PlaceAt(node))
		}
		switch {
		case node < 0 || node >= domain.Nodes:
			return g, domain.ErrOutOfBounds
		case node == g.Selected:
			return domain.Deselect(g), nil
		case g.Board[node] == g.Current:
			return domain.Select(g, node)
		case g.Selected != domain.NoNode:
			return domain.Apply(g, domain.Step(g.Selected, node))
		default:
			return g, ErrNoSelection
		}
	})
}

// Play applies an explicit move for the human side to move.
func (s *Service) Play(id string, move domain.Move) (*Session, error) {
	return s.update(id, func(g domain.GameState) (domain.GameState, error) {
		return domain.Apply(g, move)
	})
}

// Undo rewinds the last move by replaying the shorter history. Against the
// computer it keeps rewinding until a human side is to act.
func (s *Service) Undo(id string) (*Session, error) {
	s.mu.Lock()
	gs, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	g := gs.Game
	var next domain.GameState
	for n := 1; ; n++ {
		var err error
		next, err = domain.Undo(g, n)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		if next.Mode() != domain.HumanVsComputer ||
			next.Players.Of(next.Current) == domain.Human ||
			len(next.History) == 0 {
			break
		}
	}
	s.commitLocked(gs, next)
	cp := *gs
	s.fanOutLocked(id, cp)
	s.mu.Unlock()

	s.log.Debug().Str("game", id).Int("history", len(cp.Game.History)).Msg("undo")
	return &cp, nil
}

// Reset restarts the game with the same first side and controllers.
func (s *Service) Reset(id string) (*Session, error) {
	s.mu.Lock()
	gs, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	s.commitLocked(gs, domain.New(gs.Game.First, gs.Game.Players))
	cp := *gs
	s.fanOutLocked(id, cp)
	s.mu.Unlock()
	return &cp, nil
}

// update gates a human action, applies it and broadcasts the result.
func (s *Service) update(id string, apply func(domain.GameState) (domain.GameState, error)) (*Session, error) {
	s.mu.Lock()
	gs, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	g := gs.Game
	if g.Over() {
		s.mu.Unlock()
		return nil, domain.ErrGameOver
	}
	if g.Players.Of(g.Current) == domain.Computer {
		s.mu.Unlock()
		return nil, ErrComputerTurn
	}
	next, err := apply(g)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.commitLocked(gs, next)
	cp := *gs
	s.fanOutLocked(id, cp)
	s.mu.Unlock()
	return &cp, nil
}

// commitLocked stores next, ends stalled games and schedules the computer.
// Every commit bumps the generation so pending computer turns go stale.
func (s *Service) commitLocked(gs *Session, next domain.GameState) {
	if !next.Over() {
		switch {
		case domain.Stuck(next):
			s.log.Info().Str("game", gs.ID).Str("side", next.Current.String()).Msg("side to move is boxed in")
			next = domain.Conclude(next)
		case s.maxPlies > 0 && len(next.History) >= s.maxPlies:
			s.log.Info().Str("game", gs.ID).Int("plies", len(next.History)).Msg("ply cap reached")
			next = domain.Conclude(next)
		}
	}
	wasOver := gs.Game.Over()
	gs.Game = next
	gs.Updated = time.Now()
	gs.gen++
	gs.Thinking = false

	if next.Over() && !wasOver {
		s.log.Info().Str("game", gs.ID).Str("winner", next.Winner.String()).Msg("game over")
	}
	if !next.Over() && next.Players.Of(next.Current) == domain.Computer {
		if s.mover == nil {
			s.log.Warn().Str("game", gs.ID).Msg("computer side without a mover")
			return
		}
		gs.Thinking = true
		id, gen := gs.ID, gs.gen
		time.AfterFunc(s.aiDelay, func() { s.computerTurn(id, gen) })
	}
}

// computerTurn searches outside the lock on a snapshot and applies the result
// only if nothing else happened to the game meanwhile.
func (s *Service) computerTurn(id string, gen uint64) {
	s.mu.Lock()
	gs, ok := s.games[id]
	if !ok || gs.gen != gen {
		s.mu.Unlock()
		return
	}
	snapshot := gs.Game
	s.mu.Unlock()

	move, found := s.mover.ChooseMove(snapshot)

	s.mu.Lock()
	gs, ok = s.games[id]
	if !ok || gs.gen != gen {
		s.mu.Unlock()
		return
	}
	next := domain.Conclude(gs.Game)
	if found {
		applied, err := domain.Apply(gs.Game, move)
		if err != nil {
			s.log.Error().Err(err).Str("game", id).Str("move", move.String()).Msg("computer chose an illegal move")
		} else {
			s.log.Debug().Str("game", id).Str("move", move.String()).Msg("computer moved")
			next = applied
		}
	} else {
		s.log.Warn().Str("game", id).Str("side", snapshot.Current.String()).Msg("computer has no move")
	}
	s.commitLocked(gs, next)
	s.fanOutLocked(id, *gs)
	s.mu.Unlock()
}

// Subscribe registers a subscriber for a game. Returns a channel and an unsubscribe func.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan Session, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return nil, func() {}, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan Session, 1)}
	set[sub] = struct{}{}

	unsub := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if set, ok := s.subs[id]; ok {
			delete(set, sub)
		}
		sub.close()
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}

// fanOutLocked delivers a snapshot without blocking; slow subscribers are
// closed and dropped. Sends happen under the lock so they never race a close.
func (s *Service) fanOutLocked(id string, cp Session) {
	set := s.subs[id]
	for sub := range set {
		select {
		case sub.ch <- cp:
		default:
			sub.close()
			delete(set, sub)
		}
	}
}
