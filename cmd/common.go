package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/helmcode/netdiag-ai/pkg/analyzer"
	"github.com/helmcode/netdiag-ai/pkg/config"
	"github.com/helmcode/netdiag-ai/pkg/llm"
	"github.com/helmcode/netdiag-ai/pkg/logging"
	"github.com/helmcode/netdiag-ai/pkg/notify"
	"github.com/helmcode/netdiag-ai/pkg/severity"
)

var outputFormats = []string{"human", "json", "yaml"}

func validateOutputFormat(format string) error {
	for _, f := range outputFormats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("unsupported output format %q (supported: %s)", format, strings.Join(outputFormats, ", "))
}

func providerNames() string {
	var names []string
	for _, p := range llm.NewFactory().GetAvailableProviders() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

// loadConfig loads the configuration and re-applies the logging settings,
// which may come from a .env file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	return cfg, nil
}

func newAnalyzer(cfg *config.Config) (*analyzer.Analyzer, error) {
	if err := cfg.ValidateAnalysis(); err != nil {
		return nil, err
	}
	a, err := analyzer.NewWithProvider(llm.Provider(cfg.LLMProvider), map[string]string{
		"api_key":  cfg.LLMAPIKey(),
		"model":    cfg.LLMModel,
		"base_url": cfg.LLMBaseURL,
	}, cfg.LLMMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	// the troubleshooting model name is a Mistral model
	if llm.Provider(cfg.LLMProvider) == llm.ProviderMistral {
		a.WithTroubleshootModel(cfg.TroubleshootModel)
	}
	return a, nil
}

func newNotifier(cfg *config.Config) *notify.Notifier {
	client := notify.NewWebexClient(cfg.WebexToken, cfg.WebexBaseURL, cfg.WebexRateLimit)
	return notify.New(client, severity.New(cfg.SeverityKeywords), cfg.WebexSpace, cfg.WebexEscalationID, cfg.ChatURL)
}

func newSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + suffix
	return s
}

func printHeader(title string, fields ...[2]string) {
	cyan := color.New(color.FgCyan, color.Bold)
	fmt.Println()
	cyan.Println(title)
	for _, f := range fields {
		fmt.Printf("%s: %s\n", f[0], f[1])
	}
	fmt.Println()
}

func printSuccess(msg string) {
	green := color.New(color.FgGreen)
	green.Printf("✓ %s\n", msg)
}

func printError(msg string) {
	red := color.New(color.FgRed)
	red.Printf("✗ %s\n", msg)
}
