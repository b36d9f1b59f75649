package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/aaronzipp/you-are-officially-mafia/internal/game"
)

type Config struct {
	HTTPAddr   string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	BaseURL    string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	ArchiveDir string `env:"ARCHIVE_DIR"`
	Game       Game   `envPrefix:"GAME_"`
}

// Game holds the tunables handed to every session
type Game struct {
	MinPlayers             int           `env:"MIN_PLAYERS" envDefault:"5"`
	MaxPlayers             int           `env:"MAX_PLAYERS" envDefault:"5"`
	DayDuration            time.Duration `env:"DAY_DURATION" envDefault:"3m"`
	NightDuration          time.Duration `env:"NIGHT_DURATION" envDefault:"1m"`
	MayorMultiplier        int           `env:"MAYOR_MULTIPLIER" envDefault:"4"`
	ExecutionerNightImmune bool          `env:"EXECUTIONER_NIGHT_IMMUNE" envDefault:"true"`
	EndCleanupDelay        time.Duration `env:"END_CLEANUP_DELAY" envDefault:"2m"`
	MafiaWinPolicy         string        `env:"MAFIA_WIN_POLICY" envDefault:"parity"`
	JesterPolicy           string        `env:"JESTER_POLICY" envDefault:"target_killed_at_night"`
}

// Load reads an optional .env file, then the environment
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.GameSettings().Validate(); err != nil {
		return nil, fmt.Errorf("game settings: %w", err)
	}
	return &cfg, nil
}

// GameSettings converts the game section into the core's settings
func (c *Config) GameSettings() game.Settings {
	return game.Settings{
		MinPlayers:             c.Game.MinPlayers,
		MaxPlayers:             c.Game.MaxPlayers,
		DayDuration:            c.Game.DayDuration,
		NightDuration:          c.Game.NightDuration,
		MayorMultiplier:        c.Game.MayorMultiplier,
		ExecutionerNightImmune: c.Game.ExecutionerNightImmune,
		EndCleanupDelay:        c.Game.EndCleanupDelay,
		MafiaWinPolicy:         game.MafiaWinPolicy(c.Game.MafiaWinPolicy),
		JesterPolicy:           game.JesterPolicy(c.Game.JesterPolicy),
	}
}
