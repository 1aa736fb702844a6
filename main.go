package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/helmcode/netdiag-ai/cmd"
	"github.com/helmcode/netdiag-ai/pkg/logging"
	"github.com/spf13/cobra"
)

var (
	version = "v0.1.0" // Overwritten at build time
)

func main() {
	logging.Init(logging.Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "netdiag-ai",
		Short: "AI-assisted diagnostics for network devices",
		Long: `netdiag-ai collects diagnostic command output from network devices over SSH,
asks an LLM to summarize the findings per device type, stores each analysis
and notifies the team on Webex, escalating critical issues to the on-call
engineer.`,
		SilenceUsage: true,
	}

	// Disable automatic 'completion' command added by cobra
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(
		cmd.NewCollectCmd(),
		cmd.NewNotifyCmd(),
		cmd.NewTroubleshootCmd(),
		cmd.NewChatCmd(),
		cmd.NewHistoryCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("netdiag-ai version %s\n", version)
		},
	}
}
