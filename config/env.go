package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// The default files that the simulator works on.
const (
	DefaultConfigFile = "cacheconfig.txt"
	DefaultTraceFile  = "trace.txt"
	OutputSuffix      = ".out"
)

// The environment variables that override the default files.
const (
	EnvConfig = "CACHESIM_CONFIG"
	EnvTrace  = "CACHESIM_TRACE"
	EnvOutput = "CACHESIM_OUTPUT"
	EnvRecord = "CACHESIM_RECORD"
)

// LoadEnv loads environment variables from the given files, or from .env if
// no file is given. Missing files are skipped. Variables that are already
// set are not overwritten.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		err := godotenv.Load(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// Getenv returns the value of an environment variable, or def if it is not
// set or empty.
func Getenv(key, def string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}

	return v
}

// OutputFileFor returns the output file that goes with a trace file.
func OutputFileFor(traceFile string) string {
	return traceFile + OutputSuffix
}
