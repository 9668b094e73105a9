package matcher

// ValidateRound returns every pairing of participants that satisfies the
// round's constraints. Each candidate pairs the i-th participant (as giver)
// with the i-th element of a permutation of participants (as receiver).
//
// A candidate is rejected when any giver would draw themselves, an excluded
// receiver, or a receiver they already drew in history. With
// preventReciprocal set, a candidate is also rejected when it contains the
// reverse of a pair from history or the reverse of one of its own pairs.
//
// The walk abandons a permutation prefix as soon as it breaks a constraint,
// which yields exactly the filtered set of all N! permutations. An empty
// result means the round is infeasible under the given history.
func ValidateRound(participants []Participant, exclusions map[Participant][]Participant, history *History, preventReciprocal bool) []Pairing {
	var out []Pairing
	search := newRoundSearch(participants, exclusions, history, preventReciprocal)
	search.run(func(receivers []Participant) {
		pairing := make(Pairing, len(receivers))
		for i, receiver := range receivers {
			pairing[participants[i]] = receiver
		}
		out = append(out, pairing)
	})
	return out
}

// CountValid returns len(ValidateRound(...)) without materializing the
// pairings.
func CountValid(participants []Participant, exclusions map[Participant][]Participant, history *History, preventReciprocal bool) int {
	count := 0
	search := newRoundSearch(participants, exclusions, history, preventReciprocal)
	search.run(func([]Participant) { count++ })
	return count
}

// SymmetricExclusions expands an exclusion map so that A excluding B also
// makes B exclude A.
func SymmetricExclusions(exclusions map[Participant][]Participant) map[Participant]map[Participant]struct{} {
	out := map[Participant]map[Participant]struct{}{}
	add := func(a, b Participant) {
		set, ok := out[a]
		if !ok {
			set = map[Participant]struct{}{}
			out[a] = set
		}
		set[b] = struct{}{}
	}
	for giver, excluded := range exclusions {
		for _, receiver := range excluded {
			add(giver, receiver)
			add(receiver, giver)
		}
	}
	return out
}

type roundSearch struct {
	givers            []Participant
	position          map[Participant]int
	excluded          map[Participant]map[Participant]struct{}
	history           *History
	preventReciprocal bool

	used      []bool
	receivers []Participant
}

func newRoundSearch(participants []Participant, exclusions map[Participant][]Participant, history *History, preventReciprocal bool) *roundSearch {
	position := make(map[Participant]int, len(participants))
	for i, p := range participants {
		position[p] = i
	}
	return &roundSearch{
		givers:            participants,
		position:          position,
		excluded:          SymmetricExclusions(exclusions),
		history:           history,
		preventReciprocal: preventReciprocal,
		used:              make([]bool, len(participants)),
		receivers:         make([]Participant, len(participants)),
	}
}

func (s *roundSearch) run(emit func([]Participant)) {
	// An empty round has nothing to assign and is treated as infeasible.
	if len(s.givers) == 0 {
		return
	}
	s.walk(0, emit)
}

func (s *roundSearch) walk(pos int, emit func([]Participant)) {
	if pos == len(s.givers) {
		emit(s.receivers)
		return
	}
	giver := s.givers[pos]
	for i, receiver := range s.givers {
		if s.used[i] || !s.allowed(pos, giver, receiver) {
			continue
		}
		s.used[i] = true
		s.receivers[pos] = receiver
		s.walk(pos+1, emit)
		s.used[i] = false
	}
}

func (s *roundSearch) allowed(pos int, giver, receiver Participant) bool {
	if giver == receiver {
		return false
	}
	if _, ok := s.excluded[giver][receiver]; ok {
		return false
	}
	if s.history.HasReceived(giver, receiver) {
		return false
	}
	if !s.preventReciprocal {
		return true
	}
	if s.history.HasPair(Pair{Giver: receiver, Receiver: giver}) {
		return false
	}
	// Receivers of later givers are checked when those givers are placed.
	if j, ok := s.position[receiver]; ok && j < pos && s.receivers[j] == giver {
		return false
	}
	return true
}
