// Package tagging keeps the tag state of the ways of a cache set.
package tagging

// A Block of a cache is the information that is associated with a cache line.
type Block struct {
	WayID   int
	Tag     uint64
	IsValid bool
	IsDirty bool
}

// A Set is a fixed number of blocks where a certain piece of memory can be
// stored at. Victims are selected by a cursor that rotates over the ways,
// regardless of how the blocks are accessed.
type Set struct {
	Blocks []Block
	cursor int
}

// NewSet creates a set with the given number of ways. All the blocks start
// invalid and clean.
func NewSet(numWays int) Set {
	s := Set{
		Blocks: make([]Block, numWays),
	}

	for i := range s.Blocks {
		s.Blocks[i].WayID = i
	}

	return s
}

// NumWays returns the associativity of the set.
func (s *Set) NumWays() int {
	return len(s.Blocks)
}

// Cursor returns the way that the next eviction selects.
func (s *Set) Cursor() int {
	return s.cursor
}

// FindWay returns the way that holds a valid copy of the tag.
func (s *Set) FindWay(tag uint64) (wayID int, found bool) {
	for i := range s.Blocks {
		if s.Blocks[i].IsValid && s.Blocks[i].Tag == tag {
			return i, true
		}
	}

	return 0, false
}

// FindEmptyWay returns the first way that does not hold a valid block.
func (s *Set) FindEmptyWay() (wayID int, found bool) {
	for i := range s.Blocks {
		if !s.Blocks[i].IsValid {
			return i, true
		}
	}

	return 0, false
}

// Evict returns the way pointed by the cursor and moves the cursor to the
// next way. The state of the victim is left to the caller.
func (s *Set) Evict() (wayID int) {
	wayID = s.cursor
	s.cursor = (s.cursor + 1) % len(s.Blocks)

	return wayID
}

// Allocate places the tag into the set. An empty way is used if there is
// one. Otherwise, the victim selected by Evict is overwritten, dropping
// whatever it held.
func (s *Set) Allocate(tag uint64) (wayID int) {
	wayID, found := s.FindEmptyWay()
	if !found {
		wayID = s.Evict()
	}

	s.fill(wayID, tag)

	return wayID
}

// MarkDirty sets the dirty bit of a way.
func (s *Set) MarkDirty(wayID int) {
	s.Blocks[wayID].IsDirty = true
}

// Invalidate drops the content of a way.
func (s *Set) Invalidate(wayID int) {
	s.Blocks[wayID].IsValid = false
	s.Blocks[wayID].IsDirty = false
}

func (s *Set) fill(wayID int, tag uint64) {
	block := &s.Blocks[wayID]
	block.Tag = tag
	block.IsValid = true
	block.IsDirty = false
}
