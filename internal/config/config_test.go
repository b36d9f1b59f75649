package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronzipp/you-are-officially-mafia/internal/game"
)

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.ArchiveDir)
	assert.Equal(t, game.DefaultSettings(), cfg.GameSettings())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("GAME_DAY_DURATION", "90s")
	t.Setenv("GAME_EXECUTIONER_NIGHT_IMMUNE", "false")
	t.Setenv("GAME_MAFIA_WIN_POLICY", "elimination")
	t.Setenv("GAME_JESTER_POLICY", "never")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)
	settings := cfg.GameSettings()
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, 90*time.Second, settings.DayDuration)
	assert.False(t, settings.ExecutionerNightImmune)
	assert.Equal(t, game.MafiaWinElimination, settings.MafiaWinPolicy)
	assert.Equal(t, game.JesterNever, settings.JesterPolicy)
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GAME_NIGHT_DURATION=45s\nBASE_URL=https://mafia.example\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("GAME_NIGHT_DURATION")
		os.Unsetenv("BASE_URL")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Game.NightDuration)
	assert.Equal(t, "https://mafia.example", cfg.BaseURL)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Setenv("GAME_MIN_PLAYERS", "4")
	_, err := Load(missingEnvFile(t))
	assert.ErrorIs(t, err, game.ErrValidation)

	t.Setenv("GAME_MIN_PLAYERS", "5")
	t.Setenv("GAME_MAFIA_WIN_POLICY", "sudden-death")
	_, err = Load(missingEnvFile(t))
	assert.ErrorIs(t, err, game.ErrValidation)

	t.Setenv("GAME_MAFIA_WIN_POLICY", "parity")
	t.Setenv("GAME_DAY_DURATION", "soon")
	_, err = Load(missingEnvFile(t))
	assert.Error(t, err)
}
