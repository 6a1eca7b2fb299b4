// Package cmd provides the command-line interface of the cache hierarchy
// simulator.
package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cachesim",
	Short: "Cachesim replays memory access traces on a two-level cache.",
	Long: `Cachesim replays memory access traces on a two-level ` +
		`set-associative cache hierarchy and reports, for every access, ` +
		`whether it hits or misses in each level and whether it reaches ` +
		`memory.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		noColor, _ := cmd.Flags().GetBool("no-color")
		if noColor {
			color.NoColor = true
		}

		return applyEnvDefaults(cmd)
	},
}

// envFlags maps flags to the environment variables that provide their
// defaults.
var envFlags = map[string]string{
	"config": config.EnvConfig,
	"trace":  config.EnvTrace,
	"output": config.EnvOutput,
	"record": config.EnvRecord,
}

// applyEnvDefaults sets the flags that are not given on the command line
// from the environment. It runs after the .env file is loaded.
func applyEnvDefaults(cmd *cobra.Command) error {
	flags := cmd.Flags()

	for name, env := range envFlags {
		if flags.Lookup(name) == nil || flags.Changed(name) {
			continue
		}

		value := config.Getenv(env, "")
		if value == "" {
			continue
		}

		if err := flags.Set(name, value); err != nil {
			return err
		}
	}

	return nil
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := config.LoadEnv()
	if err != nil {
		atexit.Fatalf("Error loading environment: %v", err)
	}

	err = rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultConfigFile,
		"The file that describes the geometry of both levels. "+
			"Defaults to $"+config.EnvConfig+" if set.")
	rootCmd.PersistentFlags().Bool("no-color", false,
		"Print the summary without colors.")
}
