package trace

import (
	"fmt"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/sim/hooking"
)

const (
	accessTableName    = "cache_accesses"
	writeBackTableName = "cache_write_backs"
)

// accessEntry represents a resolved access in the database
type accessEntry struct {
	ID       string
	Seq      uint64
	Location string
	Kind     string
	Address  string
	L1       int
	L2       int
	Mem      int
}

// writeBackEntry represents a block written from one level to the next
type writeBackEntry struct {
	AccessID string
	Src      string
	Dst      string
	Address  string
}

// A DBTracer is a hook that records the accesses that a hierarchy resolves
// into a database.
type DBTracer struct {
	dataRecorder datarecording.DataRecorder
	filter       Filter
	seq          uint64
	recorded     uint64
}

// NewDBTracer creates a new DBTracer. Only the accesses that match the
// filter are recorded. Write-backs are always recorded.
func NewDBTracer(
	dataRecorder datarecording.DataRecorder,
	filter Filter,
) *DBTracer {
	if filter == nil {
		filter = AcceptAll()
	}

	t := &DBTracer{
		dataRecorder: dataRecorder,
		filter:       filter,
	}

	t.dataRecorder.CreateTable(accessTableName, accessEntry{})
	t.dataRecorder.CreateTable(writeBackTableName, writeBackEntry{})

	return t
}

// Func records the end of accesses and write-backs.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case hooking.HookPosAccessEnd:
		t.EndAccess(ctx.Item.(hooking.AccessEnd))
	case hooking.HookPosWriteBack:
		t.WriteBack(ctx.Item.(hooking.WriteBack))
	}
}

// EndAccess records a resolved access.
func (t *DBTracer) EndAccess(end hooking.AccessEnd) {
	t.seq++

	if !t.filter.Match(end) {
		return
	}

	t.dataRecorder.InsertData(accessTableName, accessEntry{
		ID:       end.ID,
		Seq:      t.seq,
		Location: end.Where,
		Kind:     end.Kind,
		Address:  formatAddress(end.Address),
		L1:       int(end.L1),
		L2:       int(end.L2),
		Mem:      int(end.Mem),
	})
	t.recorded++
}

// WriteBack records a block written back to the next level.
func (t *DBTracer) WriteBack(wb hooking.WriteBack) {
	t.dataRecorder.InsertData(writeBackTableName, writeBackEntry{
		AccessID: wb.AccessID,
		Src:      wb.From,
		Dst:      wb.To,
		Address:  formatAddress(wb.Address),
	})
}

// NumRecorded returns the number of accesses recorded.
func (t *DBTracer) NumRecorded() uint64 {
	return t.recorded
}

// formatAddress renders addresses as hex text, as SQLite integers cannot hold
// addresses with the top bit set.
func formatAddress(addr uint64) string {
	return fmt.Sprintf("%#x", addr)
}
