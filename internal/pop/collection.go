package pop

// Collection is an ordered set of positions, possibly spanning populations.
// Inserting the same slot twice keeps the first occurrence.
type Collection struct {
	items []Position
	seen  map[slotKey]struct{}
}

type slotKey struct {
	pop *Population
	idx int
}

func NewCollection() *Collection {
	return &Collection{seen: make(map[slotKey]struct{})}
}

// Insert appends a position unless it is invalid or already present.
func (c *Collection) Insert(pos Position) {
	if !pos.Valid() {
		return
	}
	key := slotKey{pos.pop, pos.idx}
	if _, dup := c.seen[key]; dup {
		return
	}
	c.seen[key] = struct{}{}
	c.items = append(c.items, pos)
}

// InsertPop appends every slot of a population in index order.
func (c *Collection) InsertPop(p *Population) {
	for i := 0; i < p.Size(); i++ {
		c.Insert(p.At(i))
	}
}

func (c *Collection) Size() int { return len(c.items) }

// NumLive counts positions whose slot currently holds a live organism.
func (c *Collection) NumLive() int {
	n := 0
	for _, pos := range c.items {
		if !pos.IsEmptySlot() {
			n++
		}
	}
	return n
}

// Positions returns a copy of the ordered contents.
func (c *Collection) Positions() []Position {
	return append([]Position(nil), c.items...)
}

// Live returns the positions that currently hold a live organism, in order.
func (c *Collection) Live() []Position {
	out := make([]Position, 0, len(c.items))
	for _, pos := range c.items {
		if !pos.IsEmptySlot() {
			out = append(out, pos)
		}
	}
	return out
}

// RemoveEmpty drops positions whose slot is vacant or out of range.
func (c *Collection) RemoveEmpty() {
	kept := c.items[:0]
	for _, pos := range c.items {
		if pos.IsEmptySlot() {
			delete(c.seen, slotKey{pos.pop, pos.idx})
			continue
		}
		kept = append(kept, pos)
	}
	c.items = kept
}

// First returns the first position, or the invalid position when empty.
func (c *Collection) First() Position {
	if len(c.items) == 0 {
		return Position{}
	}
	return c.items[0]
}
