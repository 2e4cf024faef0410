package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaminalder/codex-three-mens-morris/internal/ai"
	"github.com/jaminalder/codex-three-mens-morris/internal/domain"
	"github.com/stretchr/testify/require"
)

// firstLegal plays the first legal move and counts calls.
type firstLegal struct{ calls atomic.Int32 }

func (f *firstLegal) ChooseMove(s domain.GameState) (domain.Move, bool) {
	f.calls.Add(1)
	moves := domain.Legal(s)
	if len(moves) == 0 {
		return domain.Move{}, false
	}
	return moves[0], true
}

var humans = domain.Players{}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 5*time.Second, 5*time.Millisecond)
}

func mustClick(t *testing.T, s *Service, id string, nodes ...int) *Session {
	t.Helper()
	var gs *Session
	for _, n := range nodes {
		var err error
		gs, err = s.Click(id, n)
		if err != nil {
			t.Fatalf("click %d failed: %v", n, err)
		}
	}
	return gs
}

func TestCreateAndGet(t *testing.T) {
	s := NewService(nil)
	gs, err := s.CreateGame(domain.Blue, humans)
	if err != nil {
		t.Fatalf("CreateGame error: %v", err)
	}
	if gs.ID == "" {
		t.Fatalf("expected non-empty game ID")
	}
	if gs.Game.Current != domain.Blue || gs.Game.Phase != domain.Placement {
		t.Fatalf("expected Blue to start in placement, got %v %v", gs.Game.Current, gs.Game.Phase)
	}
	if gs.Created.IsZero() || gs.Updated.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}
	got, ok := s.Get(gs.ID)
	if !ok || got.ID != gs.ID {
		t.Fatalf("Get should find created game")
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatalf("Get should miss unknown ids")
	}
}

func TestUnknownGame(t *testing.T) {
	s := NewService(nil)
	if _, err := s.Click("nope", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Undo("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Reset("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := s.Subscribe(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClickPlacesAndAlternates(t *testing.T) {
	s := NewService(nil)
	gs, _ := s.CreateGame(domain.Red, humans)
	st := mustClick(t, s, gs.ID, 4)
	if st.Game.Board[4] != domain.Red || st.Game.Current != domain.Blue {
		t.Fatalf("unexpected state after Red click: %+v", st.Game)
	}
	if _, err := s.Click(gs.ID, 4); !errors.Is(err, domain.ErrOccupied) {
		t.Fatalf("expected ErrOccupied, got %v", err)
	}
}

func TestClickMovementSelectsAndMoves(t *testing.T) {
	s := NewService(nil)
	gs, _ := s.CreateGame(domain.Red, humans)
	st := mustClick(t, s, gs.ID, 0, 1, 5, 2, 7, 6)
	if st.Game.Phase != domain.Movement {
		t.Fatalf("expected movement phase, got %v", st.Game.Phase)
	}

	st = mustClick(t, s, gs.ID, 0)
	if st.Game.Selected != 0 {
		t.Fatalf("expected node 0 selected, got %d", st.Game.Selected)
	}
	st = mustClick(t, s, gs.ID, 0)
	if st.Game.Selected != domain.NoNode {
		t.Fatalf("expected second click to deselect, got %d", st.Game.Selected)
	}
	if _, err := s.Click(gs.ID, 3); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}

	st = mustClick(t, s, gs.ID, 0, 3)
	if st.Game.Board[0] != domain.Empty || st.Game.Board[3] != domain.Red {
		t.Fatalf("expected 0->3, got board %v", st.Game.Board)
	}
	if st.Game.Current != domain.Blue || st.Game.Selected != domain.NoNode {
		t.Fatalf("expected Blue to move with no selection, got %v sel=%d", st.Game.Current, st.Game.Selected)
	}

	// Blue: select 1, then a non-adjacent target.
	mustClick(t, s, gs.ID, 1)
	if _, err := s.Click(gs.ID, 8); !errors.Is(err, domain.ErrNotAdjacent) {
		t.Fatalf("expected ErrNotAdjacent, got %v", err)
	}
	// Clicking another own piece switches the selection.
	st = mustClick(t, s, gs.ID, 2)
	if st.Game.Selected != 2 {
		t.Fatalf("expected selection to switch to 2, got %d", st.Game.Selected)
	}
}

func TestPlayRejectedAfterGameOver(t *testing.T) {
	s := NewService(nil)
	gs, _ := s.CreateGame(domain.Red, humans)
	st := mustClick(t, s, gs.ID, 0, 3, 1, 4, 2)
	if !st.Game.Over() || st.Game.Winner != domain.Red {
		t.Fatalf("expected Red to win, got %+v", st.Game)
	}
	if _, err := s.Play(gs.ID, domain.PlaceAt(8)); !errors.Is(err, domain.ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
}

func TestComputerTurnIsGated(t *testing.T) {
	mover := &firstLegal{}
	s := NewService(mover, WithAIDelay(time.Hour))
	gs, _ := s.CreateGame(domain.Red, domain.Players{Blue: domain.Computer})
	st := mustClick(t, s, gs.ID, 4)
	if !st.Thinking {
		t.Fatalf("expected computer to be thinking")
	}
	if _, err := s.Click(gs.ID, 0); !errors.Is(err, ErrComputerTurn) {
		t.Fatalf("expected ErrComputerTurn, got %v", err)
	}
	if mover.calls.Load() != 0 {
		t.Fatalf("computer moved before its delay")
	}
}

func TestComputerRepliesAndUndoSkipsReply(t *testing.T) {
	s := NewService(ai.New(), WithAIDelay(0))
	gs, _ := s.CreateGame(domain.Red, domain.Players{Blue: domain.Computer})
	mustClick(t, s, gs.ID, 4)

	waitFor(t, func() bool {
		g, _ := s.Get(gs.ID)
		return len(g.Game.History) == 2
	})
	g, _ := s.Get(gs.ID)
	if g.Game.Current != domain.Red || g.Thinking {
		t.Fatalf("expected Red to act after the reply, got %v thinking=%v", g.Game.Current, g.Thinking)
	}
	if g.Game.History[1].Side != domain.Blue {
		t.Fatalf("expected Blue's reply in history, got %+v", g.Game.History)
	}

	st, err := s.Undo(gs.ID)
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if len(st.Game.History) != 0 || st.Game.Current != domain.Red {
		t.Fatalf("expected undo to rewind both moves, got %+v", st.Game)
	}
	if _, err := s.Undo(gs.ID); !errors.Is(err, domain.ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestUndoDiscardsPendingComputerTurn(t *testing.T) {
	mover := &firstLegal{}
	s := NewService(mover, WithAIDelay(30*time.Millisecond))
	gs, _ := s.CreateGame(domain.Red, domain.Players{Blue: domain.Computer})
	mustClick(t, s, gs.ID, 4)
	if _, err := s.Undo(gs.ID); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	time.Sleep(120 * time.Millisecond)
	g, _ := s.Get(gs.ID)
	if len(g.Game.History) != 0 {
		t.Fatalf("stale computer turn was applied: %+v", g.Game.History)
	}
}

func TestUndoHumanVsHuman(t *testing.T) {
	s := NewService(nil)
	gs, _ := s.CreateGame(domain.Red, humans)
	mustClick(t, s, gs.ID, 4, 0)
	st, err := s.Undo(gs.ID)
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if len(st.Game.History) != 1 || st.Game.Current != domain.Blue {
		t.Fatalf("expected one move undone, got %+v", st.Game)
	}
}

func TestComputerVsComputerFinishes(t *testing.T) {
	s := NewService(ai.New(), WithAIDelay(0), WithMaxPlies(30))
	gs, _ := s.CreateGame(domain.Red, domain.Players{Red: domain.Computer, Blue: domain.Computer})
	waitFor(t, func() bool {
		g, _ := s.Get(gs.ID)
		return g.Game.Over()
	})
	g, _ := s.Get(gs.ID)
	if g.Thinking {
		t.Fatalf("expected no pending turn after game over")
	}
	if g.Game.Winner == domain.Empty && len(g.Game.History) != 30 {
		t.Fatalf("expected a winner or the ply cap, got %d plies", len(g.Game.History))
	}
}

func TestPlyCapConcludesWithoutWinner(t *testing.T) {
	s := NewService(nil, WithMaxPlies(4))
	gs, _ := s.CreateGame(domain.Red, humans)
	st := mustClick(t, s, gs.ID, 4, 0, 1, 2)
	if !st.Game.Over() || st.Game.Winner != domain.Empty {
		t.Fatalf("expected draw-like end at the cap, got %+v", st.Game)
	}
}

func TestResetKeepsSettings(t *testing.T) {
	s := NewService(&firstLegal{}, WithAIDelay(time.Hour))
	players := domain.Players{Blue: domain.Computer}
	gs, _ := s.CreateGame(domain.Red, players)
	mustClick(t, s, gs.ID, 4)
	st, err := s.Reset(gs.ID)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if len(st.Game.History) != 0 || st.Game.Players != players || st.Game.Current != domain.Red || st.Thinking {
		t.Fatalf("unexpected state after reset: %+v", st)
	}
}

func TestSubscribeAndBroadcast(t *testing.T) {
	s := NewService(nil)
	gs, _ := s.CreateGame(domain.Red, humans)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	ch, unsub, err := s.Subscribe(ctx, gs.ID)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer unsub()

	mustClick(t, s, gs.ID, 4)

	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed unexpectedly")
		}
		if snap.Game.Board[4] != domain.Red || len(snap.Game.History) != 1 {
			t.Fatalf("unexpected broadcast snapshot: %+v", snap.Game)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for broadcast")
	}
}

func TestDropSlowSubscriber(t *testing.T) {
	s := NewService(nil)
	gs, _ := s.CreateGame(domain.Red, humans)

	// Slow subscriber: never read
	slowCh, _, _ := s.Subscribe(context.Background(), gs.ID)

	ctxFast, cancelFast := context.WithTimeout(context.Background(), time.Second*2)
	defer cancelFast()
	fastCh, unsubFast, _ := s.Subscribe(ctxFast, gs.ID)
	defer unsubFast()

	mustClick(t, s, gs.ID, 4)
	<-fastCh
	mustClick(t, s, gs.ID, 0)
	<-fastCh

	// The slow one holds the first snapshot and is then closed.
	if _, ok := <-slowCh; !ok {
		t.Fatalf("expected the buffered snapshot first")
	}
	select {
	case _, ok := <-slowCh:
		if ok {
			t.Fatalf("expected slow subscriber to be closed")
		}
	case <-time.After(time.Second):
		t.Fatalf("slow subscriber was not dropped")
	}
}
