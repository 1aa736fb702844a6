package cmd

import (
	"os"

	"github.com/helmcode/netdiag-ai/pkg/formatter"
	"github.com/helmcode/netdiag-ai/pkg/history"
	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyOutput string
)

func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [DEVICE_TYPE]",
		Short: "List recent diagnostic runs",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHistory,
	}

	cmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().StringVarP(&historyOutput, "output", "o", "human", "Output format (human, json, yaml)")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := validateOutputFormat(historyOutput); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer repo.Close()

	deviceType := ""
	if len(args) == 1 {
		deviceType = args[0]
	}
	runs, err := repo.ListRecent(cmd.Context(), deviceType, historyLimit)
	if err != nil {
		return err
	}
	return formatter.DisplayHistory(os.Stdout, runs, historyOutput)
}
