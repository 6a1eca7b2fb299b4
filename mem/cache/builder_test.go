package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Builder", func() {
	It("should derive the geometry", func() {
		l := MakeBuilder().
			WithBlockSize(16).
			WithWayAssociativity(1).
			WithSizeKB(8).
			Build("L2")

		Expect(l.Name()).To(Equal("L2"))
		Expect(l.BlockSize()).To(Equal(16))
		Expect(l.NumWays()).To(Equal(1))
		Expect(l.NumSets()).To(Equal(512))
		Expect(l.OffsetBits()).To(Equal(4))
		Expect(l.IndexBits()).To(Equal(9))
		Expect(l.ByteSize()).To(Equal(uint64(8 * KB)))
		Expect(l.NumValidBlocks()).To(Equal(0))
	})

	It("should use the defaults", func() {
		l := MakeBuilder().Build("Cache")

		Expect(l.BlockSize()).To(Equal(64))
		Expect(l.NumWays()).To(Equal(4))
		Expect(l.NumSets()).To(Equal(64))
	})

	It("should take the capacity in bytes", func() {
		l := MakeBuilder().
			WithBlockSize(32).
			WithWayAssociativity(2).
			WithByteSize(256).
			Build("Cache")

		Expect(l.NumSets()).To(Equal(4))
	})
})
