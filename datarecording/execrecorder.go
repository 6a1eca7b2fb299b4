package datarecording

import (
	"os"
	"strings"
	"time"
)

const execTableName = "exec_info"

const timeFormat = "2006-01-02 15:04:05.000000000"

type execInfo struct {
	Property string
	Value    string
}

// ExecRecorder records how a simulation is executed, such as the command
// line and the cache geometry.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []execInfo
}

// NewExecRecorder creates an ExecRecorder that writes into the exec_info
// table of the recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	e := &ExecRecorder{
		recorder: recorder,
	}

	recorder.CreateTable(execTableName, execInfo{})

	return e
}

// Start records the start time, the command, and the working directory.
func (e *ExecRecorder) Start() {
	e.Set("Start Time", time.Now().Format(timeFormat))
	e.Set("Command", strings.Join(os.Args, " "))

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	e.Set("Working Directory", cwd)
}

// Set records a property of the execution.
func (e *ExecRecorder) Set(property, value string) {
	e.entries = append(e.entries, execInfo{property, value})
}

// End writes all the properties along with the end time.
func (e *ExecRecorder) End() {
	e.Set("End Time", time.Now().Format(timeFormat))

	for _, entry := range e.entries {
		e.recorder.InsertData(execTableName, entry)
	}

	e.entries = nil

	e.recorder.Flush()
}
