// Command s13core serves an S13Core website and runs its management tasks.
package main

import (
	"context"
	"os"

	"github.com/bilgisen/s13core/internal/config"
	"github.com/bilgisen/s13core/internal/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// cli holds what the commands share once the configuration is loaded.
type cli struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "s13core",
		Short: "S13Core content management system",
		Long: `s13core serves an S13Core website and manages its database.

Running it without a command starts the web server.

Examples:
  # First run: create the schema, an administrator and the settings
  s13core setup

  # Start the server
  s13core serve

  # Download and process a social media feed
  s13core getfeed twitter`,
		Version:           config.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.init,
		RunE:              c.runServe,
	}
	root.AddCommand(
		c.serveCmd(),
		c.migrateCmd(),
		c.setupCmd(),
		c.createUserCmd(),
		c.getFeedCmd(),
	)
	return root
}

func (c *cli) init(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	output := cfg.LogFile
	if output == "" {
		output = "stderr"
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: output,
		Pretty: cfg.LogPretty,
	}); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}
