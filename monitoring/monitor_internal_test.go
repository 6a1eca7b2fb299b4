package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/mem/cache/hierarchy"
	"github.com/sarchlab/cachesim/sim/hooking"
)

var _ = Describe("Monitor", func() {
	var (
		monitor    *Monitor
		controller *hierarchy.Controller
		server     *httptest.Server
	)

	get := func(path string) *http.Response {
		rsp, err := http.Get(server.URL + path)
		Expect(err).NotTo(HaveOccurred())

		return rsp
	}

	BeforeEach(func() {
		monitor = NewMonitor()
		controller = hierarchy.MakeBuilder().Build("Sim")
		monitor.RegisterController(controller)
		server = httptest.NewServer(monitor.Router())
	})

	AfterEach(func() {
		server.Close()
	})

	It("should fall back to a random port for reserved port numbers", func() {
		Expect(monitor.WithPortNumber(80).portNumber).To(Equal(0))
		Expect(monitor.WithPortNumber(32776).portNumber).To(Equal(32776))
	})

	It("should list controllers", func() {
		rsp := get("/api/list_controllers")
		defer rsp.Body.Close()

		var names []string
		Expect(json.NewDecoder(rsp.Body).Decode(&names)).To(Succeed())
		Expect(names).To(Equal([]string{"Sim"}))
	})

	It("should report statistics", func() {
		controller.Resolve(hierarchy.Access{Kind: hierarchy.Read})
		controller.Resolve(hierarchy.Access{Kind: hierarchy.Read})
		controller.Resolve(hierarchy.Access{Kind: hierarchy.Write, Address: 0x40})

		stats, ok := monitor.Stats("Sim")
		Expect(ok).To(BeTrue())
		Expect(stats.Accesses).To(Equal(uint64(3)))

		rsp := get("/api/stats/Sim")
		defer rsp.Body.Close()

		var body statsRsp
		Expect(json.NewDecoder(rsp.Body).Decode(&body)).To(Succeed())
		Expect(body.Reads).To(Equal(uint64(2)))
		Expect(body.Writes).To(Equal(uint64(1)))
		Expect(body.MemoryWrites).To(Equal(uint64(1)))
		Expect(body.L1HitRate).To(BeNumerically("~", 1.0/3.0, 1e-9))
	})

	It("should return 404 for unknown controllers", func() {
		rsp := get("/api/stats/Other")
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("should report the footprint", func() {
		controller.Resolve(hierarchy.Access{Kind: hierarchy.Read, Address: 0x104})
		controller.Resolve(hierarchy.Access{Kind: hierarchy.Read, Address: 0x20})

		rsp := get("/api/footprint/Sim")
		defer rsp.Body.Close()

		var body footprintRsp
		Expect(json.NewDecoder(rsp.Body).Decode(&body)).To(Succeed())
		Expect(body.Blocks).To(Equal(2))
		Expect(body.Lowest).To(Equal(uint64(0x20)))
		Expect(body.Highest).To(Equal(uint64(0x100)))
	})

	It("should look up blocks", func() {
		controller.Resolve(hierarchy.Access{Kind: hierarchy.Read, Address: 0x40})
		controller.Resolve(hierarchy.Access{Kind: hierarchy.Write, Address: 0x40})

		rsp := get("/api/block/Sim.L1/0x40")
		defer rsp.Body.Close()

		var body blockRsp
		Expect(json.NewDecoder(rsp.Body).Decode(&body)).To(Succeed())
		Expect(body.Found).To(BeTrue())
		Expect(body.IsValid).To(BeTrue())
		Expect(body.IsDirty).To(BeTrue())

		rsp2 := get("/api/block/Sim.L2/0x80")
		defer rsp2.Body.Close()

		body = blockRsp{}
		Expect(json.NewDecoder(rsp2.Body).Decode(&body)).To(Succeed())
		Expect(body.Found).To(BeFalse())
	})

	It("should reject malformed block addresses", func() {
		rsp := get("/api/block/Sim.L1/zz")
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("should dump a level", func() {
		rsp := get("/api/level/Sim.L1")
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
	})

	It("should reject malformed field requests", func() {
		rsp := get("/api/field/notjson")
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("should list progress bars", func() {
		bar := monitor.CreateProgressBar("trace.txt", 10)
		bar.IncrementFinished(4)

		rsp := get("/api/progress")
		defer rsp.Body.Close()

		var bars []ProgressBar
		Expect(json.NewDecoder(rsp.Body).Decode(&bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("trace.txt"))
		Expect(bars[0].Finished).To(Equal(uint64(4)))

		monitor.CompleteProgressBar(bar)
		Expect(monitor.progressBars).To(BeEmpty())
	})

	It("should block accesses while paused", func() {
		resp := get("/api/pause")
		resp.Body.Close()

		done := make(chan struct{})
		go func() {
			controller.Resolve(hierarchy.Access{Kind: hierarchy.Read})
			close(done)
		}()

		Consistently(done, 50*time.Millisecond).ShouldNot(BeClosed())

		resp = get("/api/continue")
		resp.Body.Close()

		Eventually(done).Should(BeClosed())
	})

	It("should serve the state of the levels while paused", func() {
		monitor.Pause()
		defer monitor.Continue()

		rsp := get("/api/block/Sim.L1/0x0")
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
	})

	It("should tolerate repeated pause and continue", func() {
		monitor.Pause()
		monitor.Pause()
		monitor.Continue()
		monitor.Continue()

		Expect(controller.Resolve(hierarchy.Access{Kind: hierarchy.Read})).
			To(Equal(hierarchy.Record{L1: 2, L2: 2, Mem: 5}))
	})

	It("should stay inspectable after a rejected access", func() {
		Expect(func() {
			controller.Resolve(hierarchy.Access{Kind: hierarchy.Kind(9)})
		}).To(Panic())

		Expect(monitor.stateLock.TryLock()).To(BeTrue())
		monitor.stateLock.Unlock()

		rsp := get("/api/level/Sim.L1")
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
	})

	It("should not change results", func() {
		plain := hierarchy.MakeBuilder().Build("Plain")

		accesses := []hierarchy.Access{
			{Kind: hierarchy.Read, Address: 0x0},
			{Kind: hierarchy.Write, Address: 0x0},
			{Kind: hierarchy.Read, Address: 0x400},
			{Kind: hierarchy.Read, Address: 0x0},
		}

		for _, a := range accesses {
			Expect(controller.Resolve(a)).To(Equal(plain.Resolve(a)))
		}
	})
})

var _ = Describe("accessGuard", func() {
	It("should ignore other hook positions", func() {
		m := NewMonitor()
		g := &accessGuard{m: m}

		g.Func(hooking.HookCtx{Pos: hooking.HookPosWriteBack})

		Expect(m.stateLock.TryLock()).To(BeTrue())
		m.stateLock.Unlock()
	})

	It("should hold the state lock during an access", func() {
		m := NewMonitor()
		g := &accessGuard{m: m}

		g.Func(hooking.HookCtx{Pos: hooking.HookPosAccessStart})
		Expect(m.stateLock.TryLock()).To(BeFalse())

		g.Func(hooking.HookCtx{Pos: hooking.HookPosAccessEnd})
		Expect(m.stateLock.TryLock()).To(BeTrue())
		m.stateLock.Unlock()
	})
})
