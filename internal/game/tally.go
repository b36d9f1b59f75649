package game

import (
	"sort"

	"github.com/aaronzipp/you-are-officially-mafia/internal/models"
)

// Ballot is the vote state of one day round
type Ballot struct {
	Votes         map[string]string // voter -> target
	Skips         map[string]bool
	MayorID       string
	MayorRevealed bool
	Multiplier    int
}

// Weight returns the weight of a vote cast by voterID
func (b Ballot) Weight(voterID string) int {
	if b.MayorRevealed && voterID == b.MayorID && b.Multiplier > 0 {
		return b.Multiplier
	}
	return 1
}

// Decision is the result of tallying a ballot
type Decision struct {
	Reason     models.EliminationReason
	Eliminated string
	Tied       []string
	Tally      map[string]int
}

// Tally sums vote weights per target. Votes from or for players that are not
// alive members of the roster are ignored, as are skipping voters.
func Tally(b Ballot, alive map[string]bool) map[string]int {
	tally := make(map[string]int)
	for voterID, targetID := range b.Votes {
		if !alive[voterID] || !alive[targetID] || b.Skips[voterID] {
			continue
		}
		tally[targetID] += b.Weight(voterID)
	}
	return tally
}

// Decide tallies the ballot and applies the tie-break policy: a single
// leader is eliminated, a shared maximum eliminates nobody.
func Decide(b Ballot, alive map[string]bool) Decision {
	tally := Tally(b, alive)
	if len(tally) == 0 {
		return Decision{Reason: models.ReasonNoVotes, Tally: tally}
	}

	maxVotes := 0
	var leaders []string
	for id, weight := range tally {
		if weight > maxVotes {
			maxVotes = weight
			leaders = []string{id}
		} else if weight == maxVotes {
			leaders = append(leaders, id)
		}
	}

	if len(leaders) > 1 {
		sort.Strings(leaders)
		return Decision{Reason: models.ReasonTie, Tied: leaders, Tally: tally}
	}
	return Decision{Reason: models.ReasonEliminated, Eliminated: leaders[0], Tally: tally}
}
