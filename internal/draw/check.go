package draw

import (
	"github.com/kingrea/secret-santa/internal/config"
	"github.com/kingrea/secret-santa/internal/matcher"
)

// RoundFeasibility is the number of valid pairings a round has on its own.
type RoundFeasibility struct {
	Round        int
	Participants int
	Candidates   int
}

// Check counts the valid pairings of every round with an empty history.
// A zero count means the draw cannot succeed; a positive count does not
// guarantee that later rounds stay feasible once earlier ones are drawn.
func Check(cfg *config.Config) []RoundFeasibility {
	rounds := cfg.Rounds()
	out := make([]RoundFeasibility, len(rounds))
	for i, round := range rounds {
		out[i] = RoundFeasibility{
			Round:        i + 1,
			Participants: len(round.Participants),
			Candidates:   matcher.CountValid(round.Participants, round.Exclusions, nil, cfg.Draw.PreventReciprocalPairs),
		}
	}
	return out
}
