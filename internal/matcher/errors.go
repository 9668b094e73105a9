package matcher

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRoundInfeasible indicates a round had no valid candidate under the
	// attempt's history. It only aborts the current attempt.
	ErrRoundInfeasible = errors.New("matcher: round infeasible")
	// ErrAllAttemptsExhausted indicates no attempt produced a full set of
	// pairings.
	ErrAllAttemptsExhausted = errors.New("matcher: all attempts exhausted")
)

// recentAttempts is how many failed attempts ExhaustedError keeps.
const recentAttempts = 5

// AttemptTrace records the candidate count of every round an attempt
// reached. The last entry belongs to the round that failed.
type AttemptTrace struct {
	Attempt         int
	CandidateCounts []int
}

// FailedRound returns the 1-based number of the round that ended the attempt.
func (t AttemptTrace) FailedRound() int {
	return len(t.CandidateCounts)
}

// ExhaustedError reports that every attempt hit an infeasible round.
type ExhaustedError struct {
	Attempts int
	// Recent holds the traces of the last few failed attempts, oldest first.
	Recent []AttemptTrace
}

func (e *ExhaustedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "matcher: no valid pairings after %d attempts", e.Attempts)
	for _, trace := range e.Recent {
		fmt.Fprintf(&b, "; attempt %d candidates per round %v", trace.Attempt, trace.CandidateCounts)
	}
	return b.String()
}

// Is lets errors.Is match ErrAllAttemptsExhausted.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrAllAttemptsExhausted
}
