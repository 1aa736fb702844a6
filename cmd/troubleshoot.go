package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/helmcode/netdiag-ai/pkg/assistant"
	"github.com/helmcode/netdiag-ai/pkg/formatter"
	"github.com/helmcode/netdiag-ai/pkg/store"
	"github.com/spf13/cobra"
)

// recentChoices is how many records are offered for selection.
const recentChoices = 3

var (
	troubleshootRecord    string
	troubleshootQuestion  string
	troubleshootOutputDir string
	troubleshootOutput    string
)

func NewTroubleshootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "troubleshoot [DEVICE_TYPE]",
		Short: "Ask follow-up questions about a stored analysis",
		Long: `Load one of the most recent records of a device type and ask the model for
troubleshooting steps. The prompt combines the stored summary, the raw device
outputs and your question.

Examples:
  # Interactive: choose the device type, the record and the question
  netdiag-ai troubleshoot

  # Non-interactive
  netdiag-ai troubleshoot nxos --record 2025-05-01_10-00-00.yaml --question "why is vlan 20 missing?"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runTroubleshoot,
	}

	cmd.Flags().StringVar(&troubleshootRecord, "record", "", "Record file (path, or file name inside the device type directory)")
	cmd.Flags().StringVarP(&troubleshootQuestion, "question", "q", "", "Question to ask")
	cmd.Flags().StringVar(&troubleshootOutputDir, "output-dir", "", "Record directory (default $OUTPUT_DIR or output)")
	cmd.Flags().StringVarP(&troubleshootOutput, "output", "o", "human", "Output format (human, json, yaml)")

	return cmd
}

func runTroubleshoot(cmd *cobra.Command, args []string) error {
	if err := validateOutputFormat(troubleshootOutput); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if troubleshootOutputDir != "" {
		cfg.OutputDir = troubleshootOutputDir
	}
	an, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	st := store.New(cfg.OutputDir)

	deviceType := ""
	if len(args) == 1 {
		deviceType = args[0]
	}

	path, err := resolveRecord(st, in, out, deviceType, troubleshootRecord)
	if err != nil {
		return err
	}
	record, err := st.Load(path)
	if err != nil {
		return err
	}

	question := strings.TrimSpace(troubleshootQuestion)
	if question == "" {
		if question, err = prompt(in, out, "What would you like help troubleshooting? "); err != nil {
			return err
		}
	}

	human := troubleshootOutput == "human"
	if human {
		printHeader("🛠️  Network Troubleshooting Assistant",
			[2]string{"📁 Record", path},
			[2]string{"❓ Question", question},
		)
	}

	s := newSpinner("Asking for troubleshooting guidance...")
	if human {
		s.Start()
	}
	guidance, err := assistant.New(an, nil, "").Ask(cmd.Context(), record, question)
	s.Stop()
	if err != nil {
		if human {
			printError("Troubleshooting request failed")
		}
		return fmt.Errorf("troubleshooting failed: %w", err)
	}
	return formatter.DisplayGuidance(os.Stdout, guidance, troubleshootOutput)
}

// resolveRecord picks the record file from the flag, or interactively among
// the most recent records of deviceType.
func resolveRecord(st *store.Store, in *bufio.Reader, out io.Writer, deviceType, record string) (string, error) {
	var err error
	if deviceType == "" && (record == "" || !strings.ContainsAny(record, `/\`)) {
		if deviceType, err = prompt(in, out, "Enter the device type (e.g., nxos, iosxe): "); err != nil {
			return "", err
		}
	}

	if record != "" {
		if strings.ContainsAny(record, `/\`) {
			return record, nil
		}
		dir, err := st.Dir(deviceType)
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, record), nil
	}

	files, err := st.Recent(deviceType, recentChoices)
	if err != nil {
		return "", err
	}
	formatter.DisplayRecordChoices(out, files)

	for {
		answer, err := prompt(in, out, "Select a file number: ")
		if err != nil {
			return "", err
		}
		n, convErr := strconv.Atoi(answer)
		if convErr == nil && n >= 1 && n <= len(files) {
			return files[n-1], nil
		}
		fmt.Fprintln(out, "Invalid choice. Please try again.")
	}
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	for {
		fmt.Fprint(out, label)
		line, err := in.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			return line, nil
		}
		if err != nil {
			if err == io.EOF {
				return "", fmt.Errorf("no input provided")
			}
			return "", err
		}
	}
}
