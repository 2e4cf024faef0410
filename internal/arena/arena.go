package arena

import (
	"context"
	"fmt"
	"time"

	"github.com/jaminalder/codex-three-mens-morris/internal/domain"
	"github.com/rs/zerolog"
)

// Reason says how a game ended.
type Reason string

const (
	ReasonLine    Reason = "line"
	ReasonStuck   Reason = "stuck"
	ReasonPlyCap  Reason = "ply_cap"
	ReasonForfeit Reason = "forfeit"
)

// Outcome is the result of one game.
type Outcome struct {
	Winner domain.Cell
	Reason Reason
	Plies  int
	Final  domain.GameState
	Err    error
}

// Play runs one game between red and blue until a line, a side without a
// move, an illegal move or maxPlies (0 for no cap).
func Play(red, blue Player, first domain.Cell, maxPlies int) Outcome {
	s := domain.New(first, domain.Players{Red: domain.Computer, Blue: domain.Computer})
	for !s.Over() {
		if maxPlies > 0 && len(s.History) >= maxPlies {
			return finish(domain.Conclude(s), ReasonPlyCap, nil)
		}
		p := red
		if s.Current == domain.Blue {
			p = blue
		}
		m, ok := p.ChooseMove(s)
		if !ok {
			return finish(domain.Conclude(s), ReasonStuck, nil)
		}
		next, err := domain.Apply(s, m)
		if err != nil {
			out := finish(domain.Conclude(s), ReasonForfeit, fmt.Errorf("%s played %s: %w", p.Name(), m, err))
			out.Winner = s.Current.Opponent()
			return out
		}
		s = next
	}
	return finish(s, ReasonLine, nil)
}

func finish(s domain.GameState, reason Reason, err error) Outcome {
	return Outcome{Winner: s.Winner, Reason: reason, Plies: len(s.History), Final: s, Err: err}
}

type Config struct {
	Games    int
	MaxPlies int
}

// Tally aggregates outcomes by player name.
type Tally struct {
	Games    int
	Wins     map[string]int
	Draws    int
	Reasons  map[Reason]int
	Plies    int
	Duration time.Duration
}

func (t Tally) String() string {
	return fmt.Sprintf("games=%d wins=%v draws=%d reasons=%v avg_plies=%.1f in %s",
		t.Games, t.Wins, t.Draws, t.Reasons, t.AvgPlies(), t.Duration.Round(time.Millisecond))
}

func (t Tally) AvgPlies() float64 {
	if t.Games == 0 {
		return 0
	}
	return float64(t.Plies) / float64(t.Games)
}

// Run plays cfg.Games games with red and blue, alternating the side that
// opens. It stops early when ctx is done.
func Run(ctx context.Context, red, blue Player, cfg Config, log zerolog.Logger) Tally {
	start := time.Now()
	tally := Tally{
		Wins:    map[string]int{red.Name(): 0, blue.Name(): 0},
		Reasons: map[Reason]int{},
	}
	log.Info().Str("red", red.Name()).Str("blue", blue.Name()).Int("games", cfg.Games).Msg("starting arena")

	for i := 0; i < cfg.Games; i++ {
		if ctx.Err() != nil {
			log.Warn().Int("played", i).Msg("arena interrupted")
			break
		}
		first := domain.Red
		if i%2 == 1 {
			first = domain.Blue
		}
		gameStart := time.Now()
		out := Play(red, blue, first, cfg.MaxPlies)

		tally.Games++
		tally.Plies += out.Plies
		tally.Reasons[out.Reason]++
		winner := "none"
		switch out.Winner {
		case domain.Red:
			winner = red.Name()
			tally.Wins[winner]++
		case domain.Blue:
			winner = blue.Name()
			tally.Wins[winner]++
		default:
			tally.Draws++
		}

		ev := log.Info()
		if out.Err != nil {
			ev = log.Warn().Err(out.Err)
		}
		ev.Int("game", i+1).
			Str("first", first.String()).
			Str("winner", winner).
			Str("reason", string(out.Reason)).
			Int("plies", out.Plies).
			Dur("elapsed", time.Since(gameStart)).
			Msg("game finished")
	}
	tally.Duration = time.Since(start)
	log.Info().Msgf("completed arena: %s", tally)
	return tally
}
