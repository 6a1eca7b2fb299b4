package hooking

import (
	"sync"

	"github.com/sarchlab/cachesim/mem/cache"
)

// LevelStats summarizes how a level responded to accesses.
type LevelStats struct {
	ReadHits   uint64 `json:"read_hits"`
	ReadMisses uint64 `json:"read_misses"`

	WriteHits   uint64 `json:"write_hits"`
	WriteMisses uint64 `json:"write_misses"`
}

// Accesses returns the number of accesses that reached the level.
func (s LevelStats) Accesses() uint64 {
	return s.ReadHits + s.ReadMisses + s.WriteHits + s.WriteMisses
}

// HitRate returns the fraction of the accesses that hit. It is 0 if the
// level was never accessed.
func (s LevelStats) HitRate() float64 {
	n := s.Accesses()
	if n == 0 {
		return 0
	}

	return float64(s.ReadHits+s.WriteHits) / float64(n)
}

func (s *LevelStats) count(r cache.Result) {
	switch r {
	case cache.ReadHit:
		s.ReadHits++
	case cache.ReadMiss:
		s.ReadMisses++
	case cache.WriteHit:
		s.WriteHits++
	case cache.WriteMiss:
		s.WriteMisses++
	}
}

// Stats is a snapshot of a ResultCountTracer.
type Stats struct {
	Accesses     uint64     `json:"accesses"`
	Reads        uint64     `json:"reads"`
	Writes       uint64     `json:"writes"`
	L1           LevelStats `json:"l1"`
	L2           LevelStats `json:"l2"`
	MemoryWrites uint64     `json:"memory_writes"`
	WriteBacks   uint64     `json:"write_backs"`
	Promotions   uint64     `json:"promotions"`
}

// ResultCountTracer counts the codes that a hierarchy reports. An L2 result
// that is not reported, such as a hit consumed by a promotion, is not
// counted as an L2 access.
type ResultCountTracer struct {
	lock  sync.Mutex
	stats Stats
}

// NewResultCountTracer creates a new ResultCountTracer.
func NewResultCountTracer() *ResultCountTracer {
	return &ResultCountTracer{}
}

// Func counts the results of the accesses.
func (t *ResultCountTracer) Func(ctx HookCtx) {
	switch ctx.Pos {
	case HookPosAccessEnd:
		t.EndAccess(ctx.Item.(AccessEnd))
	case HookPosWriteBack:
		t.lock.Lock()
		t.stats.WriteBacks++
		t.lock.Unlock()
	case HookPosPromotion:
		t.lock.Lock()
		t.stats.Promotions++
		t.lock.Unlock()
	}
}

// EndAccess counts a resolved access.
func (t *ResultCountTracer) EndAccess(end AccessEnd) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.stats.Accesses++

	switch end.Kind {
	case "R":
		t.stats.Reads++
	case "W":
		t.stats.Writes++
	}

	t.stats.L1.count(end.L1)
	t.stats.L2.count(end.L2)

	if end.Mem == cache.WriteMemory {
		t.stats.MemoryWrites++
	}
}

// Stats returns a snapshot of the counters.
func (t *ResultCountTracer) Stats() Stats {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.stats
}

// Reset sets all the counters to zero.
func (t *ResultCountTracer) Reset() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.stats = Stats{}
}
