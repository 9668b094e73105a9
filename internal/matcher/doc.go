// Package matcher assigns gift givers to receivers across one or more rounds.
//
// ValidateRound enumerates every receiver permutation that satisfies the
// round's constraints given the history of earlier rounds. Matcher drives
// ValidateRound across all configured rounds, picks one candidate per round
// uniformly at random, and restarts the whole sequence when a round turns out
// to be infeasible.
package matcher
