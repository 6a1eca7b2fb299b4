// Package id generates the IDs that tie the events of an access together.
package id

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// A Generator can generate IDs.
type Generator interface {
	Generate() string
}

// NewSequentialGenerator returns a generator that counts from 1. The IDs are
// deterministic and only unique within the generator.
func NewSequentialGenerator() Generator {
	return &sequentialGenerator{}
}

// NewXIDGenerator returns a generator of globally unique IDs.
func NewXIDGenerator() Generator {
	return xidGenerator{}
}

type sequentialGenerator struct {
	nextID uint64
}

func (g *sequentialGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)

	return strconv.FormatUint(idNumber, 10)
}

type xidGenerator struct{}

func (xidGenerator) Generate() string {
	return xid.New().String()
}
