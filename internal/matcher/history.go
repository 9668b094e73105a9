package matcher

// History accumulates the assignments committed in earlier rounds.
// The zero value is not usable; call NewHistory.
type History struct {
	received map[Participant]map[Participant]struct{}
	pairs    map[Pair]struct{}
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{
		received: map[Participant]map[Participant]struct{}{},
		pairs:    map[Pair]struct{}{},
	}
}

// Add records that giver gave to receiver.
func (h *History) Add(giver, receiver Participant) {
	set, ok := h.received[giver]
	if !ok {
		set = map[Participant]struct{}{}
		h.received[giver] = set
	}
	set[receiver] = struct{}{}
	h.pairs[Pair{Giver: giver, Receiver: receiver}] = struct{}{}
}

// Commit merges every assignment of a pairing.
func (h *History) Commit(p Pairing) {
	for giver, receiver := range p {
		h.Add(giver, receiver)
	}
}

// HasReceived reports whether giver already drew receiver.
func (h *History) HasReceived(giver, receiver Participant) bool {
	if h == nil {
		return false
	}
	_, ok := h.received[giver][receiver]
	return ok
}

// HasPair reports whether the ordered pair was ever assigned.
func (h *History) HasPair(p Pair) bool {
	if h == nil {
		return false
	}
	_, ok := h.pairs[p]
	return ok
}

// Len returns the number of distinct pairs recorded.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.pairs)
}

// Clone returns an independent copy. A nil history clones to an empty one.
func (h *History) Clone() *History {
	out := NewHistory()
	if h == nil {
		return out
	}
	for pair := range h.pairs {
		out.Add(pair.Giver, pair.Receiver)
	}
	return out
}
