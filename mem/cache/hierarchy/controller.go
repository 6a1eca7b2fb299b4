// Package hierarchy resolves memory accesses against a two-level cache.
package hierarchy

import (
	"errors"
	"io"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/cache/internal/tagging"
	"github.com/sarchlab/cachesim/sim/hooking"
	"github.com/sarchlab/cachesim/sim/id"
	"github.com/sarchlab/cachesim/sim/naming"
)

// LevelInfo exposes the state of a level without allowing changes.
type LevelInfo interface {
	Name() string
	BlockSize() int
	NumWays() int
	NumSets() int
	OffsetBits() int
	IndexBits() int
	ByteSize() uint64
	NumValidBlocks() int
	Lookup(address uint64) (tagging.Block, bool)
	Block(setID, wayID int) tagging.Block
}

// An AccessSource provides the accesses to replay. It returns io.EOF when
// there is no more access.
type AccessSource interface {
	Next() (Access, error)
}

// A RecordSink receives the classification of each access.
type RecordSink interface {
	Write(record Record) error
}

// Controller owns an L1 and an L2 level and resolves one access at a time.
type Controller struct {
	naming.NamedBase
	hooking.HookableBase

	l1    *cache.Level
	l2    *cache.Level
	idGen id.Generator
}

// L1 returns the first level.
func (c *Controller) L1() LevelInfo {
	return c.l1
}

// L2 returns the second level.
func (c *Controller) L2() LevelInfo {
	return c.l2
}

// Levels returns both levels, L1 first.
func (c *Controller) Levels() []LevelInfo {
	return []LevelInfo{c.l1, c.l2}
}

// Reset empties both levels.
func (c *Controller) Reset() {
	c.l1.Reset()
	c.l2.Reset()
}

// Resolve classifies an access and updates the levels. It panics on an
// unknown access kind before any hook is invoked.
func (c *Controller) Resolve(access Access) Record {
	if access.Kind != Read && access.Kind != Write {
		panic("unknown access kind " + access.Kind.String())
	}

	accessID := c.startAccess(access)

	var record Record

	if access.Kind == Read {
		record = c.read(accessID, access.Address)
	} else {
		record = c.write(access.Address)
	}

	c.endAccess(accessID, access, record)

	return record
}

func (c *Controller) read(accessID string, addr uint64) Record {
	record := Record{
		L1:  c.l1.Read(addr),
		L2:  cache.NotReported,
		Mem: cache.NoWrite,
	}

	if record.L1 == cache.ReadHit {
		return record
	}

	l2 := c.l2.Read(addr)
	if l2 == cache.ReadMiss {
		record.L2 = cache.ReadMiss
		return record
	}

	c.promote(accessID, addr)

	return record
}

func (c *Controller) promote(accessID string, addr uint64) {
	wayID, wroteBack := c.l1.EvictAndMove(addr, c.l2)
	if wroteBack {
		c.invoke(hooking.HookPosWriteBack, hooking.WriteBack{
			AccessID: accessID,
			From:     c.l1.Name(),
			To:       c.l2.Name(),
			Address:  addr,
		})
	}

	c.l1.Read(addr)

	c.invoke(hooking.HookPosPromotion, hooking.Promotion{
		AccessID: accessID,
		Where:    c.l1.Name(),
		Address:  addr,
		WayID:    wayID,
	})
}

func (c *Controller) write(addr uint64) Record {
	record := Record{
		L1:  c.l1.Write(addr),
		L2:  cache.NotReported,
		Mem: cache.NoWrite,
	}

	if record.L1 == cache.WriteHit {
		return record
	}

	record.L2 = c.l2.Write(addr)
	if record.L2 == cache.WriteMiss {
		record.Mem = cache.WriteMemory
	}

	return record
}

// Replay resolves the accesses from src in order and sends the records to
// sink. It returns the number of accesses resolved. Reaching the end of src
// is not an error.
func (c *Controller) Replay(src AccessSource, sink RecordSink) (int, error) {
	n := 0

	for {
		access, err := src.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}

		if err != nil {
			return n, err
		}

		record := c.Resolve(access)
		n++

		if err := sink.Write(record); err != nil {
			return n, err
		}
	}
}

func (c *Controller) startAccess(access Access) string {
	if c.NumHooks() == 0 {
		return ""
	}

	accessID := c.idGen.Generate()

	c.invoke(hooking.HookPosAccessStart, hooking.AccessStart{
		ID:      accessID,
		Where:   c.Name(),
		Kind:    access.Kind.String(),
		Address: access.Address,
	})

	return accessID
}

func (c *Controller) endAccess(accessID string, access Access, record Record) {
	if c.NumHooks() == 0 {
		return
	}

	c.invoke(hooking.HookPosAccessEnd, hooking.AccessEnd{
		ID:      accessID,
		Where:   c.Name(),
		Kind:    access.Kind.String(),
		Address: access.Address,
		L1:      record.L1,
		L2:      record.L2,
		Mem:     record.Mem,
	})
}

func (c *Controller) invoke(pos *hooking.HookPos, item any) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   item,
	})
}
