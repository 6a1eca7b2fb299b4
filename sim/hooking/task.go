package hooking

import (
	"github.com/sarchlab/cachesim/mem/cache"
)

// A list of hook poses for the hooks to apply to
var (
	HookPosAccessStart = &HookPos{Name: "HookPosAccessStart"}
	HookPosAccessEnd   = &HookPos{Name: "HookPosAccessEnd"}
	HookPosWriteBack   = &HookPos{Name: "HookPosWriteBack"}
	HookPosPromotion   = &HookPos{Name: "HookPosPromotion"}
)

// AccessStart is passed to the hook when a hierarchy starts to resolve an
// access.
type AccessStart struct {
	ID      string
	Where   string
	Kind    string
	Address uint64
}

// AccessEnd is passed to the hook when an access is resolved.
type AccessEnd struct {
	ID      string
	Where   string
	Kind    string
	Address uint64
	L1      cache.Result
	L2      cache.Result
	Mem     cache.Result
}

// WriteBack is passed to the hook when a dirty block is written from one
// level to the next.
type WriteBack struct {
	AccessID string
	From     string
	To       string
	Address  uint64
}

// Promotion is passed to the hook when a block found in L2 is moved into L1.
type Promotion struct {
	AccessID string
	Where    string
	Address  uint64
	WayID    int
}
