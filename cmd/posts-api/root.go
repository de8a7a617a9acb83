package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hatchways-assessment/posts-api/pkg/config"
	"github.com/hatchways-assessment/posts-api/pkg/logging"
)

type rootFlags struct {
	config string
	port   int
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:          "posts-api",
		Short:        "Blog posts aggregation API with a response cache",
		Long:         "posts-api serves /api/posts, merging the upstream blog posts for several tags into one sorted, de-duplicated list.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.config, "config", "", "path to config file")
	rootCmd.PersistentFlags().IntVar(&flags.port, "port", 3000, "port to listen on (overrides server.port)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "posts-api %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

// loadConfig merges defaults, file, environment and explicitly set flags.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	v := config.NewViper()
	if cmd.Flags().Changed("port") {
		v.Set("server.port", flags.port)
	}
	return config.LoadFrom(v, flags.config)
}

func runServe(cmd *cobra.Command, flags *rootFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	logger := logging.Setup(cfg.LoggingConfig())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, logger, nil)
}
