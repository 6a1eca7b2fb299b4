package cmd

import (
	"context"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/sim/naming"
)

var batchCmd = &cobra.Command{
	Use:   "batch trace...",
	Short: "Replay several traces in parallel.",
	Long: "`batch a.txt b.txt` replays each trace on its own hierarchy, " +
		"writing a.txt.out and b.txt.out. All hierarchies share the same " +
		"geometry.",
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configFile, _ := cmd.Flags().GetString("config")
		jobs, _ := cmd.Flags().GetInt("jobs")

		err := runBatch(cmd.Context(), configFile, args, jobs)
		if err != nil {
			atexit.Fatalf("Error: %v", err)
		}
	},
}

// runBatch replays the traces concurrently. The first failing trace cancels
// the traces that are still being replayed.
func runBatch(
	ctx context.Context,
	configFile string,
	traceFiles []string,
	jobs int,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return err
	}

	var printLock sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}

	for i, traceFile := range traceFiles {
		g.Go(func() error {
			s := newSession(cfg, naming.BuildNameWithIndex("", "Cache", i),
				traceFile, config.OutputFileFor(traceFile))

			if _, err := s.run(ctx); err != nil {
				return err
			}

			printLock.Lock()
			printSummary(os.Stdout, traceFile, s.stats.Stats())
			printLock.Unlock()

			return nil
		})
	}

	return g.Wait()
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("jobs", 0,
		"The maximum number of traces replayed at the same time. "+
			"0 means no limit.")
}
