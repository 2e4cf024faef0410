package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jaminalder/codex-three-mens-morris/internal/ai"
	"github.com/jaminalder/codex-three-mens-morris/internal/arena"
	"github.com/jaminalder/codex-three-mens-morris/internal/config"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.ParseArena("morris-arena", os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log.Logger = cfg.Logger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	searcher := arena.Searcher("minimax", ai.New(ai.WithLogger(log.With().Str("component", "ai").Logger())))
	random := arena.NewRandom("random", cfg.ArenaSeed)
	tally := arena.Run(ctx, searcher, random, arena.Config{Games: cfg.ArenaGames, MaxPlies: cfg.MaxPlies}, log.Logger)

	fmt.Printf("%-8s %d\n", "games", tally.Games)
	fmt.Printf("%-8s %d\n", searcher.Name(), tally.Wins[searcher.Name()])
	fmt.Printf("%-8s %d\n", random.Name(), tally.Wins[random.Name()])
	fmt.Printf("%-8s %d\n", "draws", tally.Draws)
	fmt.Printf("%-8s %.1f\n", "plies", tally.AvgPlies())
}
