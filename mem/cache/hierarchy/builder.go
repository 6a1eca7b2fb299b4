package hierarchy

import (
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/sim/id"
	"github.com/sarchlab/cachesim/sim/naming"
)

// Builder can build controllers.
type Builder struct {
	l1    cache.Builder
	l2    cache.Builder
	idGen id.Generator
}

// MakeBuilder creates a builder with a 1KB direct-mapped L1 and an 8KB
// direct-mapped L2, both with 16B blocks.
func MakeBuilder() Builder {
	return Builder{
		l1: cache.MakeBuilder().
			WithBlockSize(16).
			WithWayAssociativity(1).
			WithSizeKB(1),
		l2: cache.MakeBuilder().
			WithBlockSize(16).
			WithWayAssociativity(1).
			WithSizeKB(8),
		idGen: id.NewXIDGenerator(),
	}
}

// WithL1 sets the builder of the first level.
func (b Builder) WithL1(l1 cache.Builder) Builder {
	b.l1 = l1
	return b
}

// WithL2 sets the builder of the second level.
func (b Builder) WithL2(l2 cache.Builder) Builder {
	b.l2 = l2
	return b
}

// WithIDGenerator sets the generator of the IDs carried by the hook items.
func (b Builder) WithIDGenerator(g id.Generator) Builder {
	b.idGen = g
	return b
}

// Build builds a controller with two empty levels. The levels are named
// "<name>.L1" and "<name>.L2". It panics if the name is not valid.
func (b Builder) Build(name string) *Controller {
	return &Controller{
		NamedBase: naming.MakeNamedBase(name),
		l1:        b.l1.Build(naming.BuildName(name, "L1")),
		l2:        b.l2.Build(naming.BuildName(name, "L2")),
		idGen:     b.idGen,
	}
}
