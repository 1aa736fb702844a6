package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/helmcode/netdiag-ai/pkg/collector"
	"github.com/helmcode/netdiag-ai/pkg/formatter"
	"github.com/helmcode/netdiag-ai/pkg/history"
	"github.com/helmcode/netdiag-ai/pkg/inventory"
	"github.com/helmcode/netdiag-ai/pkg/pipeline"
	"github.com/helmcode/netdiag-ai/pkg/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// historyMaxRows bounds the run ledger.
const historyMaxRows = 1000

var (
	collectInventory string
	collectOutputDir string
	collectNoNotify  bool
	collectOutput    string
)

func NewCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect [DEVICE_TYPE...]",
		Short: "Collect diagnostics from devices, analyze them and notify the team",
		Long: `Connect to every device in the inventory, run the diagnostic commands,
summarize the outputs per device type with the configured LLM provider, store
a record under the output directory and post the result to Webex.

Examples:
  # Run the full batch for every device type in the inventory
  netdiag-ai collect

  # Only Nexus switches, without sending messages
  netdiag-ai collect nxos --no-notify

  # Machine-readable result
  netdiag-ai collect -o json

Supported LLM providers (LLM_PROVIDER): ` + providerNames(),
		RunE: runCollect,
	}

	cmd.Flags().StringVar(&collectInventory, "inventory", "", "Device inventory file (default $DEVICE_INVENTORY or source_of_truth/devices.yaml)")
	cmd.Flags().StringVar(&collectOutputDir, "output-dir", "", "Record directory (default $OUTPUT_DIR or output)")
	cmd.Flags().BoolVar(&collectNoNotify, "no-notify", false, "Skip Webex notifications")
	cmd.Flags().StringVarP(&collectOutput, "output", "o", "human", "Output format (human, json, yaml)")

	return cmd
}

func runCollect(cmd *cobra.Command, args []string) error {
	if err := validateOutputFormat(collectOutput); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if collectInventory != "" {
		cfg.InventoryPath = collectInventory
	}
	if collectOutputDir != "" {
		cfg.OutputDir = collectOutputDir
	}

	an, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}

	devices, err := inventory.Load(cfg.InventoryPath)
	if err != nil {
		return err
	}
	groups, err := inventory.Filter(inventory.GroupByType(devices), args)
	if err != nil {
		return err
	}

	human := collectOutput == "human"
	if human {
		types := make([]string, 0, len(groups))
		for _, g := range groups {
			types = append(types, g.DeviceType)
		}
		printHeader("🔍 Network Diagnostics",
			[2]string{"📋 Inventory", cfg.InventoryPath},
			[2]string{"📊 Device types", strings.Join(types, ", ")},
			[2]string{"🤖 Model", fmt.Sprintf("%s (%s)", an.Model(), cfg.LLMProvider)},
		)
	}

	runner := &pipeline.Runner{
		Collector:  collector.New(collector.NewSSHDialer(), cfg.Commands, cfg.ConnectTimeout, cfg.CommandTimeout),
		Summarizer: an,
		Store:      store.New(cfg.OutputDir),
	}

	if !collectNoNotify {
		if err := cfg.ValidateNotify(); err != nil {
			log.Warn().Err(err).Msg("Notifications disabled")
		} else {
			runner.Notifier = newNotifier(cfg)
		}
	}

	repo, err := history.Open(cfg.HistoryPath())
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.HistoryPath()).Msg("Run history disabled")
	} else {
		defer repo.Close()
		runner.Ledger = repo
	}

	s := newSpinner("Starting...")
	if human {
		runner.Progress = func(deviceType, stage string) {
			s.Stop()
			s.Suffix = fmt.Sprintf(" %s: %s...", deviceType, stage)
			s.Start()
		}
	}

	results, err := runner.Run(cmd.Context(), groups)
	s.Stop()
	if err != nil {
		if human {
			printError(err.Error())
		}
		return err
	}
	if human {
		printSuccess(fmt.Sprintf("Analyzed %d device type(s)", len(results)))
	}

	if repo != nil {
		if err := repo.Cleanup(cmd.Context(), historyMaxRows); err != nil {
			log.Warn().Err(err).Msg("Failed to trim run history")
		}
	}

	return formatter.DisplayResults(os.Stdout, results, collectOutput)
}
