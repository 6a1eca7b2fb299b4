package cache

import "fmt"

// Result is the outcome of an access to a cache level, or the decision of
// whether the backing memory is written. The values are part of the output
// format and must not change.
type Result int

// The outcome of accessing a cache level.
const (
	NotReported Result = iota
	ReadHit
	ReadMiss
	WriteHit
	WriteMiss
)

// The decision on the backing memory.
const (
	NoWrite Result = iota + 5
	WriteMemory
)

var resultNames = map[Result]string{
	NotReported: "NotReported",
	ReadHit:     "ReadHit",
	ReadMiss:    "ReadMiss",
	WriteHit:    "WriteHit",
	WriteMiss:   "WriteMiss",
	NoWrite:     "NoWrite",
	WriteMemory: "WriteMemory",
}

func (r Result) String() string {
	name, ok := resultNames[r]
	if !ok {
		return fmt.Sprintf("Result(%d)", int(r))
	}

	return name
}

// IsHit returns true if the result is a read hit or a write hit.
func (r Result) IsHit() bool {
	return r == ReadHit || r == WriteHit
}

// IsMiss returns true if the result is a read miss or a write miss.
func (r Result) IsMiss() bool {
	return r == ReadMiss || r == WriteMiss
}
