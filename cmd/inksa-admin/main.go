package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/diego00711/inksa-admin-sub000/internal/version"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "inksa-admin",
		Short:        "Inksa admin console",
		Long:         `Console server and command line client for the Inksa delivery platform admin API`,
		SilenceUsage: true,
		Version:      version.Get().String(),
	}

	root.AddCommand(
		newServeCommand(),
		newLoginCommand(),
		newLogoutCommand(),
		newWhoamiCommand(),
		newListCommand(),
		newExportCommand(),
		newFinanceCommand(),
	)
	return root
}
