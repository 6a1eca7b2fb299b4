package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/sarchlab/cachesim/sim/hooking"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	labelColor = color.New(color.FgYellow)
	hitColor   = color.New(color.FgGreen)
	missColor  = color.New(color.FgRed)
)

func printSummary(w io.Writer, name string, stats hooking.Stats) {
	titleColor.Fprintf(w, "%s: %d accesses (%d reads, %d writes)\n",
		name, stats.Accesses, stats.Reads, stats.Writes)

	printLevel(w, "L1", stats.L1)
	printLevel(w, "L2", stats.L2)

	labelColor.Fprintf(w, "  %-4s", "Mem")
	fmt.Fprintf(w, "%d writes, %d write-backs, %d promotions\n",
		stats.MemoryWrites, stats.WriteBacks, stats.Promotions)
}

func printLevel(w io.Writer, name string, s hooking.LevelStats) {
	labelColor.Fprintf(w, "  %-4s", name)
	hitColor.Fprintf(w, "%d/%d read hits, %d/%d write hits",
		s.ReadHits, s.ReadHits+s.ReadMisses,
		s.WriteHits, s.WriteHits+s.WriteMisses)
	fmt.Fprint(w, ", ")
	missColor.Fprintf(w, "hit rate %.2f%%\n", s.HitRate()*100)
}
