package auction

// activeIndex is an unordered set of loan ids. Removal swaps the last id into
// the vacated slot, so iteration order is not stable across removals.
type activeIndex struct {
	ids []uint64
	pos map[uint64]int
}

func newActiveIndex() *activeIndex {
	return &activeIndex{pos: make(map[uint64]int)}
}

func (a *activeIndex) add(loanID uint64) {
	if _, ok := a.pos[loanID]; ok {
		return
	}
	a.pos[loanID] = len(a.ids)
	a.ids = append(a.ids, loanID)
}

func (a *activeIndex) remove(loanID uint64) bool {
	i, ok := a.pos[loanID]
	if !ok {
		return false
	}
	last := len(a.ids) - 1
	if i != last {
		moved := a.ids[last]
		a.ids[i] = moved
		a.pos[moved] = i
	}
	a.ids = a.ids[:last]
	delete(a.pos, loanID)
	return true
}

func (a *activeIndex) contains(loanID uint64) bool {
	_, ok := a.pos[loanID]
	return ok
}

func (a *activeIndex) len() int { return len(a.ids) }

func (a *activeIndex) snapshot() []uint64 {
	out := make([]uint64, len(a.ids))
	copy(out, a.ids)
	return out
}
