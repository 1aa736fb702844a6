package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/helmcode/netdiag-ai/pkg/llm"
	"github.com/helmcode/netdiag-ai/pkg/model"
	"github.com/helmcode/netdiag-ai/pkg/prompts"
	"github.com/rs/zerolog/log"
)

// AnalysisFailed is stored as the summary when the model call fails.
const AnalysisFailed = "Error during analysis"

type Analyzer struct {
	llm               llm.LLM
	maxTokens         int
	troubleshootModel string
}

func New(l llm.LLM, maxTokens int) *Analyzer {
	return &Analyzer{llm: l, maxTokens: maxTokens}
}

func NewWithProvider(provider llm.Provider, config map[string]string, maxTokens int) (*Analyzer, error) {
	factory := llm.NewFactory()
	llmInstance, err := factory.CreateLLM(provider, config)
	if err != nil {
		return nil, err
	}
	return New(llmInstance, maxTokens), nil
}

// WithTroubleshootModel sets the model used for follow-up questions.
func (a *Analyzer) WithTroubleshootModel(model string) *Analyzer {
	a.troubleshootModel = model
	return a
}

// Model returns the summary model name.
func (a *Analyzer) Model() string {
	return a.llm.GetModel()
}

// Summarize asks the model to analyze an aggregated prompt. It never fails:
// any error, or an empty reply, yields AnalysisFailed.
func (a *Analyzer) Summarize(ctx context.Context, aggregated string) string {
	rawResp, err := a.llm.Chat(ctx, llm.ChatRequest{Prompt: aggregated, MaxTokens: a.maxTokens})
	if err != nil {
		log.Error().Err(err).Str("model", a.llm.GetModel()).Msg("Error analyzing with LLM")
		return AnalysisFailed
	}
	summary := strings.TrimSpace(rawResp)
	if summary == "" {
		log.Error().Str("model", a.llm.GetModel()).Msg("LLM returned an empty summary")
		return AnalysisFailed
	}
	return summary
}

// Troubleshoot answers a follow-up question about a stored record.
func (a *Analyzer) Troubleshoot(ctx context.Context, record *model.AnalysisRecord, question string) (string, error) {
	prompt, err := prompts.BuildTroubleshootPrompt(record, question)
	if err != nil {
		return "", err
	}

	rawResp, err := a.llm.Chat(ctx, llm.ChatRequest{
		Prompt:    prompt,
		Model:     a.troubleshootModel,
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("LLM chat: %w", err)
	}
	return strings.TrimSpace(rawResp), nil
}
