package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/lingopop/internal/cli"
	"codeberg.org/snonux/lingopop/internal/gateway"
	"codeberg.org/snonux/lingopop/internal/gui"
	"codeberg.org/snonux/lingopop/internal/library"
	"codeberg.org/snonux/lingopop/internal/session"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)
	rootCmd.SilenceErrors = true

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
		cli.InitLogging()
	})

	// Without a subcommand lingopop launches the GUI
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runGUI(cmd.Context())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, gateway.UserMessage(err))
		os.Exit(1)
	}
}

func runGUI(ctx context.Context) error {
	logger := slog.Default()

	gw, err := gateway.New(ctx, cli.GatewayConfig(logger))
	if err != nil {
		return err
	}

	store, err := library.OpenSQLite(cli.LibraryPath())
	if err != nil {
		return err
	}
	defer store.Close()

	// Configured languages only pre-fill onboarding
	settings, err := cli.LanguageSettings()
	if err != nil {
		logger.Warn("Ignoring configured languages", "error", err)
	}

	ctrl, err := session.New(ctx, session.Options{
		Gateway:  gw,
		Store:    store,
		Logger:   logger,
		Settings: settings,
	})
	if err != nil {
		return err
	}

	app, err := gui.New(&gui.Config{
		Controller: ctrl,
		Logger:     logger,
		Speech:     gw,
	})
	if err != nil {
		ctrl.Close()
		return err
	}

	app.Run()
	return nil
}
