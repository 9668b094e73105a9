package matcher

import (
	"fmt"
	"math/rand"
	"time"
)

// DefaultMaxAttempts bounds how often the full round sequence is retried.
const DefaultMaxAttempts = 20

// Matcher generates pairings for a sequence of rounds.
type Matcher struct {
	maxAttempts       int
	preventReciprocal bool
	seed              *History
	rng               *rand.Rand
	logf              func(format string, args ...any)
}

// Option customizes a Matcher during construction.
type Option func(*Matcher)

// WithMaxAttempts overrides DefaultMaxAttempts. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(m *Matcher) {
		if n >= 1 {
			m.maxAttempts = n
		}
	}
}

// WithPreventReciprocal forbids a pair whose reverse was already assigned.
func WithPreventReciprocal(enabled bool) Option {
	return func(m *Matcher) {
		m.preventReciprocal = enabled
	}
}

// WithSeedHistory starts every attempt from a copy of h instead of an empty
// history. Used to keep givers from drawing the receivers of earlier draws.
func WithSeedHistory(h *History) Option {
	return func(m *Matcher) {
		m.seed = h
	}
}

// WithRand overrides the random source used to pick candidates.
func WithRand(rng *rand.Rand) Option {
	return func(m *Matcher) {
		if rng != nil {
			m.rng = rng
		}
	}
}

// WithLogf receives a line for every abandoned attempt.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(m *Matcher) {
		m.logf = logf
	}
}

// New builds a Matcher.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		maxAttempts: DefaultMaxAttempts,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GeneratePairings draws one pairing per round, in order. When any round has
// no valid candidate the whole sequence restarts from the seed history. It
// returns the results and the 1-based number of the successful attempt, or an
// *ExhaustedError once every attempt failed. Partial results are never
// returned.
func (m *Matcher) GeneratePairings(rounds []Round) ([]RoundResult, int, error) {
	var recent []AttemptTrace
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		results, trace, err := m.attempt(rounds)
		if err == nil {
			return results, attempt, nil
		}
		trace.Attempt = attempt
		m.log("attempt %d/%d abandoned: %v (candidates per round %v)", attempt, m.maxAttempts, err, trace.CandidateCounts)
		recent = append(recent, trace)
		if len(recent) > recentAttempts {
			recent = recent[1:]
		}
	}
	return nil, m.maxAttempts, &ExhaustedError{Attempts: m.maxAttempts, Recent: recent}
}

func (m *Matcher) attempt(rounds []Round) ([]RoundResult, AttemptTrace, error) {
	history := m.seed.Clone()
	results := make([]RoundResult, 0, len(rounds))
	var trace AttemptTrace
	for i, round := range rounds {
		candidates := ValidateRound(round.Participants, round.Exclusions, history, m.preventReciprocal)
		trace.CandidateCounts = append(trace.CandidateCounts, len(candidates))
		if len(candidates) == 0 {
			return nil, trace, fmt.Errorf("round %d: %w", i+1, ErrRoundInfeasible)
		}
		chosen := candidates[m.rng.Intn(len(candidates))]
		results = append(results, RoundResult{Pairing: chosen, Budget: round.Budget})
		history.Commit(chosen)
	}
	return results, trace, nil
}

func (m *Matcher) log(format string, args ...any) {
	if m.logf != nil {
		m.logf(format, args...)
	}
}
