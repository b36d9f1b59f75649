package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronzipp/you-are-officially-mafia/internal/models"
)

func record(room string) models.GameRecord {
	return models.GameRecord{
		RoomID:  room,
		HostID:  "host",
		Days:    2,
		Winners: []models.Winner{{Type: models.WinnerTown, Reason: "Mafia eliminated"}},
		Roles:   map[string]models.Role{"host": {Kind: models.RoleMayor}},
		Names:   map[string]string{"host": "Alice"},
		EndedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestRecordAndRecent(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	for _, room := range []string{"AAAAAA", "BBBBBB", "CCCCCC"} {
		require.NoError(t, s.Record(record(room)))
	}

	recent, err := s.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "CCCCCC", recent[0].RoomID)
	assert.Equal(t, "BBBBBB", recent[1].RoomID)
	want := record("CCCCCC")
	assert.Equal(t, want.Winners, recent[0].Winners)
	assert.Equal(t, want.Names, recent[0].Names)
	assert.Equal(t, want.Roles, recent[0].Roles)
	assert.True(t, want.EndedAt.Equal(recent[0].EndedAt))

	all, err := s.Recent(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	require.NoError(t, s.Close())
}

func TestReopenContinuesSequence(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Record(record("FIRST1")))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Record(record("SECOND")))

	recent, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "SECOND", recent[0].RoomID)
	assert.Equal(t, "FIRST1", recent[1].RoomID)
}

func TestDisabledArchive(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.NoError(t, s.Record(record("AAAAAA")))
	recent, err := s.Recent(5)
	assert.NoError(t, err)
	assert.Empty(t, recent)
	assert.NoError(t, s.Close())
}
