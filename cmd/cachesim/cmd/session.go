package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/mem/cache/hierarchy"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// A session replays one trace file on its own hierarchy.
type session struct {
	name       string
	traceFile  string
	outputFile string

	controller *hierarchy.Controller
	stats      *hooking.ResultCountTracer
	progress   *monitoring.ProgressBar
}

func newSession(
	cfg config.Config,
	name, traceFile, outputFile string,
) *session {
	s := &session{
		name:       name,
		traceFile:  traceFile,
		outputFile: outputFile,
		controller: cfg.HierarchyBuilder().Build(name),
		stats:      hooking.NewResultCountTracer(),
	}

	s.controller.AcceptHook(s.stats)

	return s
}

// run replays the trace and writes one record per access into the output
// file. The records resolved before an error are kept in the output. A
// malformed record ends the replay without failing it.
func (s *session) run(ctx context.Context) (int, error) {
	in, err := os.Open(s.traceFile)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(s.outputFile)
	if err != nil {
		return 0, err
	}

	writer := trace.NewWriter(out)

	var sink hierarchy.RecordSink = writer
	if s.progress != nil {
		sink = &progressSink{sink: writer, bar: s.progress}
	}

	src := &contextSource{ctx: ctx, src: trace.NewReader(in)}

	n, err := s.controller.Replay(src, sink)
	if errors.Is(err, trace.ErrMalformedRecord) {
		fmt.Fprintf(os.Stderr, "%s: replay ended early: %v\n", s.traceFile, err)
		err = nil
	}

	if flushErr := writer.Flush(); err == nil {
		err = flushErr
	}

	if closeErr := out.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return n, fmt.Errorf("%s: %w", s.traceFile, err)
	}

	return n, nil
}

// countAccesses returns the number of well-formed accesses at the head of a
// trace file.
func countAccesses(traceFile string) (uint64, error) {
	f, err := os.Open(traceFile)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := trace.NewReader(f)
	for {
		if _, err := r.Next(); err != nil {
			break
		}
	}

	return uint64(r.Count()), nil
}

// contextSource stops a replay when the context is canceled.
type contextSource struct {
	ctx context.Context
	src hierarchy.AccessSource
}

func (s *contextSource) Next() (hierarchy.Access, error) {
	if err := s.ctx.Err(); err != nil {
		return hierarchy.Access{}, err
	}

	return s.src.Next()
}

type progressSink struct {
	sink hierarchy.RecordSink
	bar  *monitoring.ProgressBar
}

func (s *progressSink) Write(record hierarchy.Record) error {
	err := s.sink.Write(record)
	if err == nil {
		s.bar.IncrementFinished(1)
	}

	return err
}
