package cache

import (
	"github.com/sarchlab/cachesim/mem/cache/internal/tagging"
)

// A Level is one tier of a cache hierarchy. It keeps the tags of an array of
// sets, but not the data.
//
// Reads allocate on miss, while writes do not. A block dropped by a read
// miss is discarded even if it is dirty. Only EvictAndMove writes dirty
// blocks back.
type Level struct {
	name       string
	blockSize  int
	numWays    int
	numSets    int
	offsetBits int
	indexBits  int
	sets       []tagging.Set
}

// Name returns the name of the level.
func (l *Level) Name() string {
	return l.name
}

// BlockSize returns the number of bytes in each block.
func (l *Level) BlockSize() int {
	return l.blockSize
}

// NumWays returns the way associativity.
func (l *Level) NumWays() int {
	return l.numWays
}

// NumSets returns the number of sets.
func (l *Level) NumSets() int {
	return l.numSets
}

// OffsetBits returns the number of address bits that select the byte in a
// block.
func (l *Level) OffsetBits() int {
	return l.offsetBits
}

// IndexBits returns the number of address bits that select the set.
func (l *Level) IndexBits() int {
	return l.indexBits
}

// ByteSize returns the capacity of the level in bytes.
func (l *Level) ByteSize() uint64 {
	return uint64(l.numSets) * uint64(l.numWays) * uint64(l.blockSize)
}

// Read looks up the address. On a miss, the block is allocated.
func (l *Level) Read(address uint64) Result {
	tag, set := l.locate(address)

	if _, found := set.FindWay(tag); found {
		return ReadHit
	}

	set.Allocate(tag)

	return ReadMiss
}

// Write marks the block dirty if it is present. A write miss does not
// allocate a block.
func (l *Level) Write(address uint64) Result {
	tag, set := l.locate(address)

	wayID, found := set.FindWay(tag)
	if !found {
		return WriteMiss
	}

	set.MarkDirty(wayID)

	return WriteHit
}

// EvictAndMove frees a way in the set that the address maps to. The victim is
// selected by the round-robin cursor, so it may not hold the address. If the
// victim is dirty, the requesting address, rather than the victim's own
// tag, is written to the next level. The freed way is not refilled.
func (l *Level) EvictAndMove(
	address uint64,
	next *Level,
) (wayID int, wroteBack bool) {
	_, set := l.locate(address)

	wayID = set.Evict()

	if set.Blocks[wayID].IsDirty {
		// TODO: decide whether the victim's own tag should be written back
		// instead. Kept as is to match the reference outputs.
		next.Write(address)
		wroteBack = true
	}

	set.Invalidate(wayID)

	return wayID, wroteBack
}

// Lookup returns the block that holds the address, if there is one. It does
// not change any state.
func (l *Level) Lookup(address uint64) (tagging.Block, bool) {
	tag, set := l.locate(address)

	wayID, found := set.FindWay(tag)
	if !found {
		return tagging.Block{}, false
	}

	return set.Blocks[wayID], true
}

// Block returns the state of one way.
func (l *Level) Block(setID, wayID int) tagging.Block {
	return l.sets[setID].Blocks[wayID]
}

// NumValidBlocks returns the number of blocks that hold data.
func (l *Level) NumValidBlocks() int {
	n := 0

	for i := range l.sets {
		for _, b := range l.sets[i].Blocks {
			if b.IsValid {
				n++
			}
		}
	}

	return n
}

// Reset invalidates all the blocks and rewinds the eviction cursors.
func (l *Level) Reset() {
	l.sets = make([]tagging.Set, l.numSets)
	for i := range l.sets {
		l.sets[i] = tagging.NewSet(l.numWays)
	}
}

func (l *Level) locate(address uint64) (tag uint64, set *tagging.Set) {
	tag, index, _ := Decompose(address, l.blockSize, l.numSets)

	return tag, &l.sets[index]
}
