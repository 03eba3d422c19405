package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/osfio/osfsearch/internal/config"
	"github.com/osfio/osfsearch/internal/version"
	reindexuc "github.com/osfio/osfsearch/internal/usecase/reindex"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(version.Version, args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exit(1)
	}
}

// rootFlags are shared by every subcommand.
type rootFlags struct {
	env        string
	configPath string
}

func (f *rootFlags) load() (config.Config, error) {
	if f.configPath != "" {
		return config.LoadFile(f.configPath)
	}
	return config.Load(f.env)
}

// Execute builds the command tree and runs it with args.
func Execute(ver string, args []string) error {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "osfsearch",
		Short:         "OSF search synchronization service",
		Long:          "Keeps the OSF search index in sync with the website store and serves search queries.",
		Version:       ver,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), flags)
		},
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&flags.env, "env", config.GetEnv(), "environment name (selects config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "explicit config file path")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context(), flags)
			},
		},
		newIndexCmd(flags),
		newReindexCmd(flags),
		newVersionCmd(),
	)

	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func newIndexCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the search index",
	}
	action := func(name string, fn func(ctx context.Context, a *app) error) *cobra.Command {
		return &cobra.Command{
			Use:   name,
			Short: name + " the configured index",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd.Context(), flags, func(ctx context.Context, a *app) error {
					if err := fn(ctx, a); err != nil {
						return err
					}
					a.logger.Info("Index "+name+" done", zap.String("index", a.indexSvc.IndexName()))
					return nil
				})
			},
		}
	}
	cmd.AddCommand(
		action("create", func(ctx context.Context, a *app) error { return a.indexSvc.CreateIndex(ctx) }),
		action("delete", func(ctx context.Context, a *app) error {
			return a.indexSvc.DeleteIndex(ctx, a.indexSvc.IndexName())
		}),
		action("reset", func(ctx context.Context, a *app) error { return a.indexSvc.Reset(ctx) }),
	)
	return cmd
}

func newReindexCmd(flags *rootFlags) *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the index from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, func(ctx context.Context, a *app) error {
				rep, err := a.reindexSvc.Run(ctx, reindexuc.Options{Reset: reset})
				if err != nil {
					return err
				}
				a.logger.Info("Reindex finished",
					zap.String("run_id", rep.RunID),
					zap.Int("nodes", rep.Nodes),
					zap.Int("users", rep.Users),
					zap.Int("deleted", rep.Deleted),
					zap.Int("failed", rep.Failed),
				)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "drop and recreate the index first")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version.String())
		},
	}
}

// withApp loads the config, wires the services, runs fn and releases
// everything afterwards.
func withApp(ctx context.Context, flags *rootFlags, fn func(context.Context, *app) error) error {
	cfg, err := flags.load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a, err := newApp(ctx, flags.env, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a.ctx(ctx), a)
}
