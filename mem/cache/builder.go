package cache

// KB is the number of bytes in a kilobyte.
const KB = 1024

// Builder can build cache levels.
type Builder struct {
	blockSize        int
	wayAssociativity int
	byteSize         uint64
}

// MakeBuilder creates a new builder with a 16KB, 4-way cache that has 64B
// blocks.
func MakeBuilder() Builder {
	return Builder{
		blockSize:        64,
		wayAssociativity: 4,
		byteSize:         16 * KB,
	}
}

// WithBlockSize sets the number of bytes in a block. It must be a power of
// two.
func (b Builder) WithBlockSize(blockSize int) Builder {
	b.blockSize = blockSize
	return b
}

// WithWayAssociativity sets the number of ways in each set.
func (b Builder) WithWayAssociativity(wayAssociativity int) Builder {
	b.wayAssociativity = wayAssociativity
	return b
}

// WithByteSize sets the capacity of the cache.
func (b Builder) WithByteSize(byteSize uint64) Builder {
	b.byteSize = byteSize
	return b
}

// WithSizeKB sets the capacity of the cache in kilobytes.
func (b Builder) WithSizeKB(sizeKB int) Builder {
	b.byteSize = uint64(sizeKB) * KB
	return b
}

// Build builds a cache level. The geometry is not validated: a set count
// or block size that is not a power of two produces wrong address fields.
func (b Builder) Build(name string) *Level {
	setSize := uint64(b.blockSize * b.wayAssociativity)
	numSets := int(b.byteSize / setSize)

	l := &Level{
		name:       name,
		blockSize:  b.blockSize,
		numWays:    b.wayAssociativity,
		numSets:    numSets,
		offsetBits: log2(b.blockSize),
		indexBits:  log2(numSets),
	}

	l.Reset()

	return l
}
