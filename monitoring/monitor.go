// Package monitoring turns a running simulation into a server that reports
// the state of the cache hierarchies.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/cachesim/mem/cache/hierarchy"
	"github.com/sarchlab/cachesim/sim/hooking"
)

type monitoredController struct {
	controller *hierarchy.Controller
	stats      *hooking.ResultCountTracer
	footprint  *hooking.FootprintTracer
}

// Monitor can turn a simulation into a server and allows external monitoring
// and pausing of the replay.
type Monitor struct {
	portNumber int

	// stateLock is held while an access is being resolved.
	stateLock sync.Mutex

	// pauseGate is held while the replay is paused. Accesses pass through
	// it before they start.
	pauseGate  sync.Mutex
	pausedLock sync.Mutex
	paused     bool

	controllersLock sync.Mutex
	controllers     []*monitoredController

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterController registers a controller to be monitored. The monitor
// hooks to the controller to collect statistics.
func (m *Monitor) RegisterController(c *hierarchy.Controller) {
	mc := &monitoredController{
		controller: c,
		stats:      hooking.NewResultCountTracer(),
		footprint:  hooking.NewFootprintTracer(c.L1().BlockSize()),
	}

	c.AcceptHook(&accessGuard{m: m})
	c.AcceptHook(mc.stats)
	c.AcceptHook(mc.footprint)

	m.controllersLock.Lock()
	m.controllers = append(m.controllers, mc)
	m.controllersLock.Unlock()
}

// Stats returns the statistics collected from a registered controller.
func (m *Monitor) Stats(name string) (hooking.Stats, bool) {
	mc := m.findController(name)
	if mc == nil {
		return hooking.Stats{}, false
	}

	return mc.stats.Stats(), true
}

// accessGuard keeps the levels from being read while an access is in flight.
type accessGuard struct {
	m *Monitor
}

func (g *accessGuard) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case hooking.HookPosAccessStart:
		g.m.pauseGate.Lock()
		g.m.pauseGate.Unlock()
		g.m.stateLock.Lock()
	case hooking.HookPosAccessEnd:
		g.m.stateLock.Unlock()
	}
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Pause blocks the replay before the next access. The state of the levels
// can still be inspected while paused.
func (m *Monitor) Pause() {
	m.pausedLock.Lock()
	defer m.pausedLock.Unlock()

	if m.paused {
		return
	}

	m.pauseGate.Lock()
	m.paused = true
}

// Continue resumes a paused replay.
func (m *Monitor) Continue() {
	m.pausedLock.Lock()
	defer m.pausedLock.Unlock()

	if !m.paused {
		return
	}

	m.paused = false
	m.pauseGate.Unlock()
}

// Router returns the handler of the monitoring API.
func (m *Monitor) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pause)
	r.HandleFunc("/api/continue", m.continueReplay)
	r.HandleFunc("/api/list_controllers", m.listControllers)
	r.HandleFunc("/api/stats/{name}", m.reportStats)
	r.HandleFunc("/api/footprint/{name}", m.reportFootprint)
	r.HandleFunc("/api/level/{name}", m.listLevelDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/block/{name}/{address}", m.lookupBlock)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	go func() {
		err := http.Serve(listener, m.Router())
		dieOnErr(err)
	}()

	return url, nil
}

// OpenBrowser opens the URL in the default browser.
func (m *Monitor) OpenBrowser(url string) error {
	return browser.OpenURL(url + "/api/list_controllers")
}

func (m *Monitor) pause(w http.ResponseWriter, _ *http.Request) {
	m.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueReplay(w http.ResponseWriter, _ *http.Request) {
	m.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) findController(name string) *monitoredController {
	m.controllersLock.Lock()
	defer m.controllersLock.Unlock()

	for _, mc := range m.controllers {
		if mc.controller.Name() == name {
			return mc
		}
	}

	return nil
}

func (m *Monitor) findLevel(name string) hierarchy.LevelInfo {
	m.controllersLock.Lock()
	defer m.controllersLock.Unlock()

	for _, mc := range m.controllers {
		for _, l := range mc.controller.Levels() {
			if l.Name() == name {
				return l
			}
		}
	}

	return nil
}

func (m *Monitor) findControllerOr404(
	w http.ResponseWriter,
	name string,
) *monitoredController {
	mc := m.findController(name)
	if mc == nil {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "controller %s not found", name)
	}

	return mc
}

func (m *Monitor) findLevelOr404(
	w http.ResponseWriter,
	name string,
) hierarchy.LevelInfo {
	l := m.findLevel(name)
	if l == nil {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "level %s not found", name)
	}

	return l
}

func (m *Monitor) listControllers(w http.ResponseWriter, _ *http.Request) {
	m.controllersLock.Lock()
	names := make([]string, 0, len(m.controllers))
	for _, mc := range m.controllers {
		names = append(names, mc.controller.Name())
	}
	m.controllersLock.Unlock()

	writeJSON(w, names)
}

type statsRsp struct {
	hooking.Stats
	L1HitRate float64 `json:"l1_hit_rate"`
	L2HitRate float64 `json:"l2_hit_rate"`
}

func (m *Monitor) reportStats(w http.ResponseWriter, r *http.Request) {
	mc := m.findControllerOr404(w, mux.Vars(r)["name"])
	if mc == nil {
		return
	}

	stats := mc.stats.Stats()

	writeJSON(w, statsRsp{
		Stats:     stats,
		L1HitRate: stats.L1.HitRate(),
		L2HitRate: stats.L2.HitRate(),
	})
}

type footprintRsp struct {
	Blocks  int    `json:"blocks"`
	Bytes   uint64 `json:"bytes"`
	Lowest  uint64 `json:"lowest"`
	Highest uint64 `json:"highest"`
}

func (m *Monitor) reportFootprint(w http.ResponseWriter, r *http.Request) {
	mc := m.findControllerOr404(w, mux.Vars(r)["name"])
	if mc == nil {
		return
	}

	rsp := footprintRsp{
		Blocks: mc.footprint.Count(),
		Bytes:  mc.footprint.Bytes(),
	}
	rsp.Lowest, _ = mc.footprint.Lowest()
	rsp.Highest, _ = mc.footprint.Highest()

	writeJSON(w, rsp)
}

func (m *Monitor) listLevelDetails(w http.ResponseWriter, r *http.Request) {
	level := m.findLevelOr404(w, mux.Vars(r)["name"])
	if level == nil {
		return
	}

	m.stateLock.Lock()
	defer m.stateLock.Unlock()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(level)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	LevelName string `json:"level_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	level := m.findLevelOr404(w, req.LevelName)
	if level == nil {
		return
	}

	m.stateLock.Lock()
	defer m.stateLock.Unlock()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(level)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	err = serializer.Serialize(w)
	dieOnErr(err)
}

type blockRsp struct {
	Found   bool   `json:"found"`
	Tag     uint64 `json:"tag"`
	WayID   int    `json:"way_id"`
	IsValid bool   `json:"is_valid"`
	IsDirty bool   `json:"is_dirty"`
}

func (m *Monitor) lookupBlock(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	level := m.findLevelOr404(w, vars["name"])
	if level == nil {
		return
	}

	addr, err := strconv.ParseUint(
		strings.TrimPrefix(vars["address"], "0x"), 16, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	m.stateLock.Lock()
	block, found := level.Lookup(addr)
	m.stateLock.Unlock()

	writeJSON(w, blockRsp{
		Found:   found,
		Tag:     block.Tag,
		WayID:   block.WayID,
		IsValid: block.IsValid,
		IsDirty: block.IsDirty,
	})
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
