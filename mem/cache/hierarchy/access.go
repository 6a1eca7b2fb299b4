package hierarchy

import (
	"fmt"

	"github.com/sarchlab/cachesim/mem/cache"
)

// Kind is the type of a memory access.
type Kind int

// The kinds of memory accesses.
const (
	Read Kind = iota
	Write
)

func (k Kind) String() string {
	switch k {
	case Read:
		return "R"
	case Write:
		return "W"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// An Access is one entry of a memory access trace.
type Access struct {
	Kind    Kind
	Address uint64
}

func (a Access) String() string {
	return fmt.Sprintf("%s 0x%x", a.Kind, a.Address)
}

// A Record is the classification of one access. L2 is NotReported if L2 is
// not probed, or if its hit is consumed by moving the block into L1.
type Record struct {
	L1  cache.Result
	L2  cache.Result
	Mem cache.Result
}

// String formats the record as three space-separated codes.
func (r Record) String() string {
	return fmt.Sprintf("%d %d %d", r.L1, r.L2, r.Mem)
}
