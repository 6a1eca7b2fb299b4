package cache

import "math/bits"

// Decompose splits an address into the tag, the set index, and the offset
// within the block. Both blockSize and numSets must be powers of two;
// otherwise, the fields are silently wrong.
func Decompose(
	address uint64,
	blockSize, numSets int,
) (tag, index, offset uint64) {
	offsetBits := log2(blockSize)
	indexBits := log2(numSets)

	offset = address & mask(offsetBits)
	index = (address >> offsetBits) & mask(indexBits)
	tag = address >> (offsetBits + indexBits)

	return tag, index, offset
}

// Compose is the reverse of Decompose.
func Compose(
	tag, index, offset uint64,
	blockSize, numSets int,
) uint64 {
	offsetBits := log2(blockSize)
	indexBits := log2(numSets)

	return tag<<(offsetBits+indexBits) |
		(index&mask(indexBits))<<offsetBits |
		offset&mask(offsetBits)
}

func log2(n int) int {
	return bits.TrailingZeros64(uint64(n))
}

func mask(numBits int) uint64 {
	return (uint64(1) << numBits) - 1
}
