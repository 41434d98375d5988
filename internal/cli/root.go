// Package cli provides the operator command-line interface of the asset pipeline.
package cli

import (
	"fmt"
	"os"

	"github.com/andreyxaxa/Asset-Pipeline/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "1.0.0"

	// Global flags
	verbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "assetctl",
	Short: "Operate the asset pipeline storage",
	Long: `assetctl inspects how uploads are classified and schedules derived
assets (mp3 copies, CDN copies, thumbnails) for files already in storage.

Configuration is read from the same environment variables as the server;
a .env file in the working directory is loaded first when present.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		if _, err := os.Stat(".env"); err == nil {
			if err := godotenv.Load(); err != nil {
				return fmt.Errorf("load .env: %w", err)
			}
		}

		var err error
		cfg, err = config.NewOffline()
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(rederiveCmd)
}
