package trace

import (
	"database/sql"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/cache/hierarchy"
	"github.com/sarchlab/cachesim/sim/hooking"
)

var _ = Describe("DBTracer", func() {
	var (
		mockCtrl     *gomock.Controller
		dataRecorder *MockDataRecorder
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		dataRecorder = NewMockDataRecorder(mockCtrl)
		dataRecorder.EXPECT().CreateTable(accessTableName, accessEntry{})
		dataRecorder.EXPECT().CreateTable(writeBackTableName, writeBackEntry{})
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should record resolved accesses", func() {
		t := NewDBTracer(dataRecorder, nil)

		dataRecorder.EXPECT().InsertData(accessTableName, accessEntry{
			ID:       "1",
			Seq:      1,
			Location: "Cache",
			Kind:     "R",
			Address:  "0x40",
			L1:       2,
			L2:       2,
			Mem:      5,
		})

		t.Func(hooking.HookCtx{
			Pos: hooking.HookPosAccessEnd,
			Item: hooking.AccessEnd{
				ID: "1", Where: "Cache", Kind: "R", Address: 0x40,
				L1: cache.ReadMiss, L2: cache.ReadMiss, Mem: cache.NoWrite,
			},
		})

		Expect(t.NumRecorded()).To(Equal(uint64(1)))
	})

	It("should record write-backs", func() {
		t := NewDBTracer(dataRecorder, nil)

		dataRecorder.EXPECT().InsertData(writeBackTableName, writeBackEntry{
			AccessID: "1", Src: "Cache.L1", Dst: "Cache.L2", Address: "0x80",
		})

		t.Func(hooking.HookCtx{
			Pos: hooking.HookPosWriteBack,
			Item: hooking.WriteBack{
				AccessID: "1", From: "Cache.L1", To: "Cache.L2", Address: 0x80,
			},
		})
	})

	It("should skip accesses that do not match the filter", func() {
		filter, err := NewFilter(`l1 == 4`)
		Expect(err).NotTo(HaveOccurred())
		t := NewDBTracer(dataRecorder, filter)

		c := hierarchy.MakeBuilder().Build("Cache")
		c.AcceptHook(t)

		dataRecorder.EXPECT().
			InsertData(accessTableName, gomock.Any()).
			Do(func(_ string, entry any) {
				Expect(entry.(accessEntry).Seq).To(Equal(uint64(3)))
				Expect(entry.(accessEntry).Kind).To(Equal("W"))
			})

		c.Resolve(hierarchy.Access{Kind: hierarchy.Read, Address: 0x0})
		c.Resolve(hierarchy.Access{Kind: hierarchy.Read, Address: 0x0})
		c.Resolve(hierarchy.Access{Kind: hierarchy.Write, Address: 0x100})

		Expect(t.NumRecorded()).To(Equal(uint64(1)))
	})
})

var _ = Describe("DBTracer with a SQLite database", func() {
	var (
		path     string
		recorder datarecording.DataRecorder
		c        *hierarchy.Controller
	)

	BeforeEach(func() {
		var err error

		path = filepath.Join(GinkgoT().TempDir(), "rec")
		recorder, err = datarecording.New(path)
		Expect(err).NotTo(HaveOccurred())

		c = hierarchy.MakeBuilder().
			WithL1(cache.MakeBuilder().
				WithBlockSize(16).
				WithWayAssociativity(2).
				WithSizeKB(1)).
			Build("Cache")
		c.AcceptHook(NewDBTracer(recorder, nil))
	})

	queryStrings := func(query string) []string {
		db, err := sql.Open("sqlite3", path+".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()

		rows, err := db.Query(query)
		Expect(err).NotTo(HaveOccurred())
		defer rows.Close()

		var values []string
		for rows.Next() {
			var v string
			Expect(rows.Scan(&v)).To(Succeed())
			values = append(values, v)
		}

		Expect(rows.Err()).NotTo(HaveOccurred())

		return values
	}

	It("should store accesses and write-backs", func() {
		a, b, d := uint64(0x0), uint64(0x200), uint64(0x400)

		c.Resolve(hierarchy.Access{Kind: hierarchy.Read, Address: a})
		c.Resolve(hierarchy.Access{Kind: hierarchy.Read, Address: b})
		c.Resolve(hierarchy.Access{Kind: hierarchy.Write, Address: a})
		c.Resolve(hierarchy.Access{Kind: hierarchy.Read, Address: d})
		c.Resolve(hierarchy.Access{Kind: hierarchy.Write, Address: d})
		c.Resolve(hierarchy.Access{Kind: hierarchy.Read, Address: a})

		Expect(recorder.Close()).To(Succeed())

		Expect(queryStrings(
			"SELECT Location || ' ' || Kind || ' ' || Address || ' ' || " +
				"L1 || L2 || Mem FROM cache_accesses ORDER BY Seq",
		)).To(Equal([]string{
			"Cache R 0x0 225",
			"Cache R 0x200 225",
			"Cache W 0x0 305",
			"Cache R 0x400 225",
			"Cache W 0x400 305",
			"Cache R 0x0 205",
		}))

		Expect(queryStrings(
			"SELECT Src || ' ' || Dst || ' ' || Address FROM cache_write_backs",
		)).To(Equal([]string{"Cache.L1 Cache.L2 0x0"}))
	})

	It("should store addresses with the top bit set", func() {
		c.Resolve(hierarchy.Access{
			Kind: hierarchy.Read, Address: 0xffffffffffffff00,
		})

		Expect(func() { recorder.Flush() }).NotTo(Panic())
		Expect(recorder.Close()).To(Succeed())

		Expect(queryStrings("SELECT Address FROM cache_accesses")).
			To(Equal([]string{"0xffffffffffffff00"}))
	})
})
