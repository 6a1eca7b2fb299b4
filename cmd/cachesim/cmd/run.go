package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a trace and write the classification of every access.",
	Long: "`run --trace trace.txt` replays trace.txt and writes one line " +
		"`<L1> <L2> <Mem>` per access into trace.txt.out.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		opts, err := runOptionsFromFlags(cmd)
		if err != nil {
			atexit.Fatalf("Error: %v", err)
		}

		err = runTrace(cmd.Context(), opts)
		if err != nil {
			atexit.Fatalf("Error: %v", err)
		}
	},
}

type runOptions struct {
	configFile  string
	traceFile   string
	outputFile  string
	recordPath  string
	filter      string
	monitor     bool
	port        int
	openBrowser bool
}

func runOptionsFromFlags(cmd *cobra.Command) (runOptions, error) {
	flags := cmd.Flags()
	opts := runOptions{}

	var err error
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"config", &opts.configFile},
		{"trace", &opts.traceFile},
		{"output", &opts.outputFile},
		{"record", &opts.recordPath},
		{"filter", &opts.filter},
	} {
		*f.dst, err = flags.GetString(f.name)
		if err != nil {
			return opts, err
		}
	}

	if opts.monitor, err = flags.GetBool("monitor"); err != nil {
		return opts, err
	}

	if opts.port, err = flags.GetInt("port"); err != nil {
		return opts, err
	}

	if opts.openBrowser, err = flags.GetBool("open"); err != nil {
		return opts, err
	}

	if opts.outputFile == "" {
		opts.outputFile = config.OutputFileFor(opts.traceFile)
	}

	return opts, nil
}

func runTrace(ctx context.Context, opts runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadFile(opts.configFile)
	if err != nil {
		return err
	}

	s := newSession(cfg, "Cache", opts.traceFile, opts.outputFile)

	if opts.recordPath != "" {
		closeRecorder, err := attachRecorder(s, cfg, opts)
		if err != nil {
			return err
		}
		defer closeRecorder()
	}

	if opts.monitor {
		done, err := attachMonitor(s, opts)
		if err != nil {
			return err
		}
		defer done()
	}

	n, err := s.run(ctx)
	if err != nil {
		return err
	}

	printSummary(os.Stdout, opts.traceFile, s.stats.Stats())
	fmt.Fprintf(os.Stderr, "%d records written to %s\n", n, opts.outputFile)

	return nil
}

func attachRecorder(
	s *session,
	cfg config.Config,
	opts runOptions,
) (func(), error) {
	filter, err := trace.NewFilter(opts.filter)
	if err != nil {
		return nil, err
	}

	recorder, err := datarecording.New(opts.recordPath)
	if err != nil {
		return nil, err
	}

	exec := datarecording.NewExecRecorder(recorder)
	exec.Start()
	exec.Set("Trace", opts.traceFile)
	exec.Set("L1", levelDesc(cfg.L1))
	exec.Set("L2", levelDesc(cfg.L2))
	if opts.filter != "" {
		exec.Set("Filter", opts.filter)
	}

	tracer := trace.NewDBTracer(recorder, filter)
	s.controller.AcceptHook(tracer)

	return func() {
		exec.Set("Recorded Accesses", strconv.FormatUint(tracer.NumRecorded(), 10))
		exec.End()

		if err := recorder.Close(); err != nil {
			log.Printf("Error closing recorder: %v", err)
		}
	}, nil
}

func attachMonitor(s *session, opts runOptions) (func(), error) {
	total, err := countAccesses(opts.traceFile)
	if err != nil {
		return nil, err
	}

	m := monitoring.NewMonitor().WithPortNumber(opts.port)
	m.RegisterController(s.controller)

	url, err := m.StartServer()
	if err != nil {
		return nil, err
	}

	if opts.openBrowser {
		if err := m.OpenBrowser(url); err != nil {
			log.Printf("Error opening browser: %v", err)
		}
	}

	s.progress = m.CreateProgressBar(opts.traceFile, total)

	return func() { m.CompleteProgressBar(s.progress) }, nil
}

func levelDesc(c config.LevelConfig) string {
	return fmt.Sprintf("%dB blocks, %d ways, %dKB, %d sets",
		c.BlockSize, c.Associativity, c.SizeKB, c.NumSets())
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.String("trace", config.DefaultTraceFile,
		"The trace to replay. Defaults to $"+config.EnvTrace+" if set.")
	flags.String("output", "",
		"The file to write the records to. Defaults to $"+config.EnvOutput+
			" if set, or <trace>.out.")
	flags.String("record", "",
		"Record the resolved accesses into <record>.sqlite3. "+
			"Defaults to $"+config.EnvRecord+" if set.")
	flags.String("filter", "",
		"Only record the accesses that match this expression, "+
			"e.g. 'kind == \"W\" && address >= 0x1000u'.")
	flags.Bool("monitor", false, "Serve the state of the cache over HTTP.")
	flags.Int("port", 0, "The port of the monitoring server.")
	flags.Bool("open", false, "Open the monitoring server in a browser.")
}
