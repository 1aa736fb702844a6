package cmd

import (
	"os"

	"github.com/helmcode/netdiag-ai/pkg/formatter"
	"github.com/helmcode/netdiag-ai/pkg/pipeline"
	"github.com/helmcode/netdiag-ai/pkg/store"
	"github.com/spf13/cobra"
)

var (
	notifyOutputDir string
	notifyOutput    string
)

func NewNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify DEVICE_TYPE",
		Short: "Send the Webex messages for the latest record of a device type",
		Long: `Pick the most recently modified record of DEVICE_TYPE, check its summary
for severity keywords and post the team status message. Critical findings are
also sent directly to the escalation contact.

Examples:
  netdiag-ai notify iosxe`,
		Args: cobra.ArbitraryArgs,
		RunE: runNotify,
	}

	cmd.Flags().StringVar(&notifyOutputDir, "output-dir", "", "Record directory (default $OUTPUT_DIR or output)")
	cmd.Flags().StringVarP(&notifyOutput, "output", "o", "human", "Output format (human, json, yaml)")

	return cmd
}

func runNotify(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return cmd.Usage()
	}
	if err := validateOutputFormat(notifyOutput); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if notifyOutputDir != "" {
		cfg.OutputDir = notifyOutputDir
	}
	if err := cfg.ValidateNotify(); err != nil {
		return err
	}

	runner := &pipeline.Runner{
		Store:    store.New(cfg.OutputDir),
		Notifier: newNotifier(cfg),
	}

	s := newSpinner("Sending notifications...")
	if notifyOutput == "human" {
		s.Start()
	}
	path, outcome, err := runner.NotifyLatest(cmd.Context(), args[0])
	s.Stop()
	if err != nil {
		return err
	}
	return formatter.DisplayNotification(os.Stdout, path, outcome, notifyOutput)
}
