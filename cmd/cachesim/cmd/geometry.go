package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/mem/cache/hierarchy"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the geometry derived from a configuration file.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		configFile, _ := cmd.Flags().GetString("config")

		err := printGeometry(os.Stdout, configFile)
		if err != nil {
			atexit.Fatalf("Error: %v", err)
		}
	},
}

func printGeometry(w io.Writer, configFile string) error {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return err
	}

	c := cfg.HierarchyBuilder().Build("Cache")

	for _, l := range c.Levels() {
		err = printLevelGeometry(w, l)
		if err != nil {
			return err
		}
	}

	return nil
}

func printLevelGeometry(w io.Writer, l hierarchy.LevelInfo) error {
	_, err := fmt.Fprintf(w,
		"%s: %d bytes, %dB blocks, %d ways, %d sets, "+
			"%d offset bits, %d index bits\n",
		l.Name(), l.ByteSize(), l.BlockSize(), l.NumWays(), l.NumSets(),
		l.OffsetBits(), l.IndexBits())

	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
}
