package matcher

import "sort"

// Participant identifies someone taking part in a draw.
type Participant string

// Round is one assignment cycle over a participant set.
type Round struct {
	Participants []Participant
	// Exclusions lists receivers a giver must never draw. The relation is
	// applied symmetrically.
	Exclusions map[Participant][]Participant
	Budget     string
}

// Pairing maps every giver of a round to exactly one receiver.
type Pairing map[Participant]Participant

// Givers returns the pairing's givers in sorted order.
func (p Pairing) Givers() []Participant {
	out := make([]Participant, 0, len(p))
	for giver := range p {
		out = append(out, giver)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RoundResult is the committed outcome of one round.
type RoundResult struct {
	Pairing Pairing
	Budget  string
}

// Pair is an ordered giver/receiver assignment.
type Pair struct {
	Giver    Participant
	Receiver Participant
}

// Reverse returns the pair with giver and receiver swapped.
func (p Pair) Reverse() Pair {
	return Pair{Giver: p.Receiver, Receiver: p.Giver}
}
