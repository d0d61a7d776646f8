package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/3cpo-dev/hostinit/internal/provision"
)

var (
	version   = "0.1.0"
	commit    = ""
	buildDate = ""
)

// errDrift is returned by verify when at least one check failed.
var errDrift = errors.New("host has drifted from the provisioned state")

// Create the root command
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hostinit",
		Short: "hostinit: one-shot hardening and provisioning of a fresh Debian/Ubuntu host",
		Long: "hostinit upgrades packages, installs Docker and base utilities, creates an admin user " +
			"with SSH keys, hardens sshd, configures ufw and replaces the shell profile and login banner. " +
			"It runs on the host itself or against it over SSH.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("log", "l", "info", "Set log level. Available: trace, debug, info, warn, error")
	cmd.PersistentFlags().String("config", "", "config file (default $XDG_CONFIG_HOME/hostinit/config.yaml)")

	cmd.PersistentPreRun = func(c *cobra.Command, args []string) {
		levelStr, _ := c.Flags().GetString("log")
		switch levelStr {
		case "trace":
			zerolog.SetGlobalLevel(zerolog.TraceLevel)
		case "debug":
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		case "info":
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		case "warn":
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		case "error":
			zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		default:
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newApplyCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newCloudInitCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newKeygenCmd())
	cmd.AddCommand(newCompletionCmd())
	return cmd
}

// Create the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hostinit %s (%s) %s\n", version, commit, buildDate)
		},
	}
}

// Setup the logger
func setupLogger() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// exitCode maps errors to the process status: the failing command's own
// status where there is one, 1 otherwise.
func exitCode(err error) int {
	if errors.Is(err, errDrift) {
		return 1
	}
	return provision.ExitCode(err)
}

func main() {
	setupLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("error:"), err)
		stop()
		os.Exit(exitCode(err))
	}
}
