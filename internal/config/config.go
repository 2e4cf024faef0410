package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Addr       string `json:"addr"`
	AIDelayMs  int    `json:"ai_delay_ms"`
	MaxPlies   int    `json:"max_plies"`
	LogLevel   string `json:"log_level"`
	LogPretty  bool   `json:"log_pretty"`
	ArenaGames int    `json:"arena_games"`
	ArenaSeed  uint64 `json:"arena_seed"`
}

func Default() Config {
	return Config{
		Addr:       ":8080",
		AIDelayMs:  500,
		MaxPlies:   200,
		LogLevel:   "info",
		LogPretty:  true,
		ArenaGames: 20,
		ArenaSeed:  1,
	}
}

// AIDelay is the pause before a computer side moves.
func (c Config) AIDelay() time.Duration {
	return time.Duration(c.AIDelayMs) * time.Millisecond
}

// Load overlays the JSON file at path on Default. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := decode(f, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.AIDelayMs < 0 {
		errs = append(errs, fmt.Errorf("ai_delay_ms must be >= 0, got %d", c.AIDelayMs))
	}
	if c.MaxPlies < 0 {
		errs = append(errs, fmt.Errorf("max_plies must be >= 0, got %d", c.MaxPlies))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

// ValidateArena checks Validate plus the fields only the arena reads.
func (c Config) ValidateArena() error {
	var errs []error
	if err := c.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.ArenaGames < 1 {
		errs = append(errs, fmt.Errorf("arena_games must be >= 1, got %d", c.ArenaGames))
	}
	return errors.Join(errs...)
}

// Parse reads -config first, then lets explicitly set flags override the file.
// It serves the HTTP server and ignores the arena fields.
func Parse(name string, args []string) (Config, error) {
	cfg, err := parse(name, args, false)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ParseArena is Parse with the -games and -seed flags.
func ParseArena(name string, args []string) (Config, error) {
	cfg, err := parse(name, args, true)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.ValidateArena()
}

func parse(name string, args []string, arena bool) (Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.String("config", "", "path to a JSON config file")
	def := Default()
	addr := fs.String("addr", def.Addr, "HTTP listen address")
	delay := fs.Int("ai-delay-ms", def.AIDelayMs, "pause before a computer side moves")
	maxPlies := fs.Int("max-plies", def.MaxPlies, "end games without a winner after this many moves (0 disables)")
	level := fs.String("log-level", def.LogLevel, "log level (debug, info, warn, error)")
	pretty := fs.Bool("log-pretty", def.LogPretty, "human readable console logs")
	games, seed := new(int), new(uint64)
	if arena {
		fs.IntVar(games, "games", def.ArenaGames, "number of games")
		fs.Uint64Var(seed, "seed", def.ArenaSeed, "random player seed")
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg, err := Load(*path)
	if err != nil {
		return cfg, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "ai-delay-ms":
			cfg.AIDelayMs = *delay
		case "max-plies":
			cfg.MaxPlies = *maxPlies
		case "log-level":
			cfg.LogLevel = *level
		case "log-pretty":
			cfg.LogPretty = *pretty
		case "games":
			cfg.ArenaGames = *games
		case "seed":
			cfg.ArenaSeed = *seed
		}
	})
	return cfg, nil
}

// Logger builds the process logger. Pretty mode writes through a console writer.
func (c Config) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if c.LogPretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
