package game

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aaronzipp/you-are-officially-mafia/internal/models"
)

// table builds players from role kinds; ids are their index letters
func table(alive map[string]bool) []*models.Player {
	kinds := map[string]models.RoleKind{
		"A": models.RoleMafia, "B": models.RoleMayor, "C": models.RoleExecutioner,
		"D": models.RoleTown, "E": models.RoleTown,
	}
	var out []*models.Player
	for _, id := range roster {
		out = append(out, &models.Player{ID: id, Role: models.Role{Kind: kinds[id]}, Alive: alive[id]})
	}
	return out
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		policy MafiaWinPolicy
		alive  map[string]bool
		want   []models.Winner
	}{
		{"full table", MafiaWinParity, allAlive(), nil},
		{"mafia dead", MafiaWinParity, map[string]bool{"B": true, "C": true}, []models.Winner{{Type: models.WinnerTown, Reason: ReasonMafiaEliminated}}},
		{"empty table goes to town", MafiaWinParity, map[string]bool{}, []models.Winner{{Type: models.WinnerTown, Reason: ReasonMafiaEliminated}}},
		{"one against two", MafiaWinParity, map[string]bool{"A": true, "B": true, "D": true}, nil},
		{"parity", MafiaWinParity, map[string]bool{"A": true, "D": true}, []models.Winner{{Type: models.WinnerMafia, Reason: ReasonMafiaParity}}},
		{"elimination waits past parity", MafiaWinElimination, map[string]bool{"A": true, "D": true}, nil},
		{"elimination", MafiaWinElimination, map[string]bool{"A": true}, []models.Winner{{Type: models.WinnerMafia, Reason: ReasonTownEliminated}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := NewWinEvaluator(zerolog.Nop(), tc.policy)
			assert.Equal(t, tc.want, e.Evaluate(table(tc.alive)))
		})
	}
}

func TestJesterPredicates(t *testing.T) {
	exec := &models.Player{ID: "C", Alive: true, Role: models.Role{Kind: models.RoleExecutioner, Target: "D"}}

	convert, ok := JesterPredicateFor(JesterOnTargetNightDeath)
	assert.True(t, ok)
	assert.True(t, convert(Death{Victim: "D", Cause: CauseNight}, exec))
	assert.False(t, convert(Death{Victim: "D", Cause: CauseVote}, exec))
	assert.False(t, convert(Death{Victim: "E", Cause: CauseNight}, exec))

	never, ok := JesterPredicateFor(JesterNever)
	assert.True(t, ok)
	assert.False(t, never(Death{Victim: "D", Cause: CauseNight}, exec))

	_, ok = JesterPredicateFor("sometimes")
	assert.False(t, ok)
}

func TestSettingsValidate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())

	s := DefaultSettings()
	s.MinPlayers = 4
	assert.ErrorIs(t, s.Validate(), ErrValidation)

	s = DefaultSettings()
	s.MayorMultiplier = 0
	assert.ErrorIs(t, s.Validate(), ErrValidation)

	s = DefaultSettings()
	s.JesterPolicy = "sometimes"
	assert.ErrorIs(t, s.Validate(), ErrValidation)
}
