package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

type globalOptions struct {
	envFiles []string
	logLevel string
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "attainment",
		Short:         "Per-manager attainment workbooks: generate, package and mail",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return withCode(exitUsage, err)
	})
	cmd.PersistentFlags().StringSliceVar(&g.envFiles, "env-file", nil, "Env files to load (default .env, .env.local)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Override ATTAINMENT_LOG_LEVEL (silent|error|warn|info|debug)")

	cmd.AddCommand(newRegionsCmd(g))
	cmd.AddCommand(newManagersCmd(g))
	cmd.AddCommand(newGenerateCmd(g))
	cmd.AddCommand(newPackageCmd(g))
	cmd.AddCommand(newPublishCmd(g))
	cmd.AddCommand(newDraftsCmd(g))
	cmd.AddCommand(newHistoryCmd(g))
	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		os.Exit(exitCode(classify(err)))
	}
}
