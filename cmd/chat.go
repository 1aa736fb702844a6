package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/helmcode/netdiag-ai/pkg/assistant"
	"github.com/helmcode/netdiag-ai/pkg/formatter"
	"github.com/helmcode/netdiag-ai/pkg/llm"
	"github.com/helmcode/netdiag-ai/pkg/prompts"
	"github.com/helmcode/netdiag-ai/pkg/store"
	"github.com/spf13/cobra"
)

var (
	chatNew        bool
	chatDeviceType string
	chatOutput     string
)

func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat MESSAGE...",
		Short: "Continue a troubleshooting conversation with the Mistral agent",
		Long: `Send a message to the network troubleshooting agent. The agent and the
conversation are kept server-side; their identifiers are stored in the state
directory so every invocation continues the same conversation.

Examples:
  # Start with the latest iosxe record as context
  netdiag-ai chat --device-type iosxe "what explains the interface errors?"

  # Follow up
  netdiag-ai chat "show me the commands to clear the counters"

  # Forget the current conversation
  netdiag-ai chat --new "let's look at the nxos core instead"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runChat,
	}

	cmd.Flags().BoolVar(&chatNew, "new", false, "Start a new conversation")
	cmd.Flags().StringVar(&chatDeviceType, "device-type", "", "Attach the latest record of this device type to the message")
	cmd.Flags().StringVarP(&chatOutput, "output", "o", "human", "Output format (human, json, yaml)")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	if err := validateOutputFormat(chatOutput); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateConversations(); err != nil {
		return err
	}

	message := strings.Join(args, " ")
	if chatDeviceType != "" {
		st := store.New(cfg.OutputDir)
		path, err := st.Latest(chatDeviceType)
		if err != nil {
			return err
		}
		record, err := st.Load(path)
		if err != nil {
			return err
		}
		if message, err = prompts.BuildTroubleshootPrompt(record, message); err != nil {
			return err
		}
	}

	mistral := llm.NewMistral(cfg.MistralAPIKey)
	if cfg.LLMModel != "" && llm.Provider(cfg.LLMProvider) == llm.ProviderMistral {
		mistral = llm.NewMistralWithModel(cfg.MistralAPIKey, cfg.LLMModel)
	}
	if llm.Provider(cfg.LLMProvider) == llm.ProviderMistral {
		mistral.WithBaseURL(cfg.LLMBaseURL)
	}

	session, err := assistant.LoadSession(cfg.StateDir)
	if err != nil {
		return err
	}
	if chatNew {
		session.ResetConversation()
		if err := session.Save(); err != nil {
			return err
		}
	}

	human := chatOutput == "human"
	s := newSpinner("Waiting for the agent...")
	if human {
		s.Start()
	}
	reply, err := assistant.New(nil, mistral, mistral.GetModel()).Converse(cmd.Context(), session, message)
	s.Stop()
	if err != nil {
		return fmt.Errorf("conversation failed: %w", err)
	}
	if human {
		printSuccess(fmt.Sprintf("Conversation %s", session.ConversationID))
	}
	return formatter.DisplayGuidance(os.Stdout, reply, chatOutput)
}
