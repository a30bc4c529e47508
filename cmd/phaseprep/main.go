// Package main provides the phaseprep command-line tool.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phaseprep",
		Short: "Prepare a reference + target VCF pair for haplotype phasing",
		Long: `phaseprep synchronizes a phased reference panel with a target panel,
encodes the genotypes, and packs them into 64-site bitmask segments for a
downstream phasing algorithm. The matched target records are written through
to an output VCF unchanged.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	cmd.AddCommand(newPrepareCmd())
	cmd.AddCommand(newConvertMapCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("phaseprep version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// initConfig loads ~/.phaseprep.yaml if present.
func initConfig() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil // no config file, not an error
	}
	viper.SetConfigFile(filepath.Join(home, ".phaseprep.yaml"))
	if err := viper.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}
