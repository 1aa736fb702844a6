package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultCommands is the diagnostic command list run on every device.
var DefaultCommands = []string{
	"show vrf",
	"show vlan",
	"show memory",
	"show version",
	"show interface",
	"show logging",
}

// Config holds runtime settings for every stage of the pipeline.
type Config struct {
	InventoryPath string
	OutputDir     string
	StateDir      string

	LLMProvider       string
	LLMModel          string
	LLMBaseURL        string
	LLMMaxTokens      int
	TroubleshootModel string
	MistralAPIKey     string
	OpenAIAPIKey      string
	AnthropicAPIKey   string

	WebexToken        string
	WebexSpace        string
	WebexEscalationID string
	WebexBaseURL      string
	WebexRateLimit    float64
	ChatURL           string

	SeverityKeywords []string
	Commands         []string
	ConnectTimeout   time.Duration
	CommandTimeout   time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment.
// A .env file is loaded if present but not required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	maxTokens, err := envOrDefaultInt("LLM_MAX_TOKENS", 2000)
	if err != nil {
		return nil, err
	}
	rateLimit, err := envOrDefaultFloat("WEBEX_RATE_LIMIT", 1)
	if err != nil {
		return nil, err
	}
	connectTimeout, err := envOrDefaultDuration("SSH_CONNECT_TIMEOUT", 3*time.Second)
	if err != nil {
		return nil, err
	}
	commandTimeout, err := envOrDefaultDuration("SSH_COMMAND_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InventoryPath:     envOrDefault("DEVICE_INVENTORY", filepath.Join("source_of_truth", "devices.yaml")),
		OutputDir:         envOrDefault("OUTPUT_DIR", "output"),
		StateDir:          envOrDefault("NETDIAG_STATE_DIR", ".netdiag"),
		LLMProvider:       strings.ToLower(envOrDefault("LLM_PROVIDER", "mistral")),
		LLMModel:          strings.TrimSpace(os.Getenv("LLM_MODEL")),
		LLMBaseURL:        strings.TrimSpace(os.Getenv("LLM_BASE_URL")),
		LLMMaxTokens:      maxTokens,
		TroubleshootModel: envOrDefault("TROUBLESHOOT_MODEL", "mistral-small"),
		MistralAPIKey:     strings.TrimSpace(os.Getenv("MISTRAL_API_KEY")),
		OpenAIAPIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		AnthropicAPIKey:   strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		WebexToken:        strings.TrimSpace(os.Getenv("WEBEX_BOT_TOKEN")),
		WebexSpace:        strings.TrimSpace(os.Getenv("WEBEX_SPACE")),
		WebexEscalationID: strings.TrimSpace(os.Getenv("WEBEX_ESCALATION_ID")),
		WebexBaseURL:      envOrDefault("WEBEX_BASE_URL", "https://webexapis.com/v1"),
		WebexRateLimit:    rateLimit,
		ChatURL:           strings.TrimSpace(os.Getenv("LE_CHAT_URL")),
		SeverityKeywords:  splitList(os.Getenv("SEVERITY_KEYWORDS")),
		Commands:          splitList(os.Getenv("DIAG_COMMANDS")),
		ConnectTimeout:    connectTimeout,
		CommandTimeout:    commandTimeout,
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		LogFormat:         envOrDefault("LOG_FORMAT", "auto"),
	}
	if len(cfg.Commands) == 0 {
		cfg.Commands = append([]string(nil), DefaultCommands...)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLMProvider {
	case "mistral", "openai", "claude":
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER: %s (supported: mistral, openai, claude)", c.LLMProvider)
	}
	if c.LLMMaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be greater than 0, got %d", c.LLMMaxTokens)
	}
	if c.WebexRateLimit <= 0 {
		return fmt.Errorf("WEBEX_RATE_LIMIT must be greater than 0, got %g", c.WebexRateLimit)
	}
	if c.ConnectTimeout <= 0 || c.CommandTimeout <= 0 {
		return fmt.Errorf("SSH timeouts must be positive")
	}
	return nil
}

// LLMAPIKey returns the credential for the configured provider.
func (c *Config) LLMAPIKey() string {
	switch c.LLMProvider {
	case "openai":
		return c.OpenAIAPIKey
	case "claude":
		return c.AnthropicAPIKey
	default:
		return c.MistralAPIKey
	}
}

// ValidateAnalysis checks the settings needed to call the model service.
func (c *Config) ValidateAnalysis() error {
	if c.LLMAPIKey() == "" {
		return fmt.Errorf("missing required environment variables: %s", apiKeyVar(c.LLMProvider))
	}
	return nil
}

// ValidateConversations checks the settings needed by the stateful chat mode,
// which only the Mistral conversations API provides.
func (c *Config) ValidateConversations() error {
	if c.MistralAPIKey == "" {
		return fmt.Errorf("missing required environment variables: MISTRAL_API_KEY")
	}
	return nil
}

// ValidateNotify checks the settings needed to post Webex messages.
func (c *Config) ValidateNotify() error {
	var missing []string
	if c.WebexToken == "" {
		missing = append(missing, "WEBEX_BOT_TOKEN")
	}
	if c.WebexSpace == "" {
		missing = append(missing, "WEBEX_SPACE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// HistoryPath is the sqlite ledger location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.StateDir, "history.db")
}

func apiKeyVar(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "claude":
		return "ANTHROPIC_API_KEY"
	default:
		return "MISTRAL_API_KEY"
	}
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func envOrDefaultFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func envOrDefaultDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (e.g. 3s): %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
