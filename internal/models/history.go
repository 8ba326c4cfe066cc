package models

const MaxHistory = 48

// History is a fixed-capacity ring of past rounds. Idx is the next slot to
// write; once the ring is full the oldest entry is overwritten.
type History struct {
	Idx    uint32            `json:"idx"`
	Max    uint32            `json:"max"`
	Rounds [MaxHistory]Round `json:"-"`
}

func NewHistory() History {
	return History{Max: MaxHistory}
}

func (h *History) Push(r Round) {
	h.Rounds[h.Idx] = r
	h.Idx = (h.Idx + 1) % MaxHistory
}

// Latest returns the most recently written round.
func (h *History) Latest() (Round, bool) {
	prev := (h.Idx + MaxHistory - 1) % MaxHistory
	r := h.Rounds[prev]
	if r.IsZero() {
		return Round{}, false
	}
	return r, true
}

// IsLatest reports whether the most recent write is the given round.
func (h *History) IsLatest(id RoundID) bool {
	latest, ok := h.Latest()
	return ok && latest.RoundID.Equal(id)
}

// Ordered returns the written rounds oldest first.
func (h *History) Ordered() []Round {
	out := make([]Round, 0, MaxHistory)
	for i := uint32(0); i < MaxHistory; i++ {
		r := h.Rounds[(h.Idx+i)%MaxHistory]
		if r.IsZero() {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (h *History) Len() int {
	n := 0
	for _, r := range h.Rounds {
		if !r.IsZero() {
			n++
		}
	}
	return n
}

// HistoryView is the read shape of the ring: rounds oldest first plus the
// raw cursor.
type HistoryView struct {
	Cursor uint32  `json:"cursor"`
	Max    uint32  `json:"max"`
	Rounds []Round `json:"rounds"`
}

func (h *History) View() HistoryView {
	return HistoryView{Cursor: h.Idx, Max: h.Max, Rounds: h.Ordered()}
}
