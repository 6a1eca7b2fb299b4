package hooking

import (
	"sync"

	"github.com/google/btree"
)

type blockAddr uint64

func (a blockAddr) Less(than btree.Item) bool {
	return a < than.(blockAddr)
}

// FootprintTracer records the distinct blocks that a trace touches.
type FootprintTracer struct {
	lock      sync.Mutex
	blockSize uint64
	blocks    *btree.BTree
}

// NewFootprintTracer creates a FootprintTracer that aligns addresses to
// blockSize, which must be a power of two.
func NewFootprintTracer(blockSize int) *FootprintTracer {
	return &FootprintTracer{
		blockSize: uint64(blockSize),
		blocks:    btree.New(2),
	}
}

// Func records the block of each access.
func (t *FootprintTracer) Func(ctx HookCtx) {
	if ctx.Pos != HookPosAccessStart {
		return
	}

	start := ctx.Item.(AccessStart)

	t.lock.Lock()
	defer t.lock.Unlock()

	t.blocks.ReplaceOrInsert(blockAddr(start.Address &^ (t.blockSize - 1)))
}

// Count returns the number of distinct blocks touched.
func (t *FootprintTracer) Count() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.blocks.Len()
}

// Bytes returns the number of distinct bytes touched, counted in blocks.
func (t *FootprintTracer) Bytes() uint64 {
	return uint64(t.Count()) * t.blockSize
}

// Lowest returns the lowest block address touched.
func (t *FootprintTracer) Lowest() (uint64, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	item := t.blocks.Min()
	if item == nil {
		return 0, false
	}

	return uint64(item.(blockAddr)), true
}

// Highest returns the highest block address touched.
func (t *FootprintTracer) Highest() (uint64, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	item := t.blocks.Max()
	if item == nil {
		return 0, false
	}

	return uint64(item.(blockAddr)), true
}

// Ascend calls fn with the block addresses in ascending order until fn
// returns false.
func (t *FootprintTracer) Ascend(fn func(addr uint64) bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.blocks.Ascend(func(i btree.Item) bool {
		return fn(uint64(i.(blockAddr)))
	})
}
