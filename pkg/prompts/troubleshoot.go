package prompts

import (
	"fmt"
	"unicode/utf8"

	"github.com/helmcode/netdiag-ai/pkg/model"
	"gopkg.in/yaml.v3"
)

const (
	// MaxRawOutputChars bounds the raw outputs embedded in a follow-up prompt.
	MaxRawOutputChars = 3000
	// TruncationSuffix marks a cut rendering.
	TruncationSuffix = "\n... [truncated due to token limit]"
)

// RenderOutputs renders raw outputs as YAML.
func RenderOutputs(outputs model.BatchOutputs) (string, error) {
	data, err := yaml.Marshal(outputs)
	if err != nil {
		return "", fmt.Errorf("marshal outputs: %w", err)
	}
	return string(data), nil
}

// Truncate keeps the first limit characters of s and appends
// TruncationSuffix when anything was cut. The cut never splits a rune.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + TruncationSuffix
		}
		n++
	}
	return s
}

// BuildTroubleshootPrompt combines a stored record with an engineer's
// question.
func BuildTroubleshootPrompt(record *model.AnalysisRecord, question string) (string, error) {
	deviceType := record.DeviceType
	if deviceType == "" {
		deviceType = "unknown"
	}
	summary := record.Summary
	if summary == "" {
		summary = "No summary available"
	}

	rendered, err := RenderOutputs(record.Outputs)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`You are an expert network troubleshooting assistant. A network engineer has provided you with the following data from devices of type '%s', along with an initial AI-generated summary.


Initial AI Summary:
%s

Raw Device Outputs:
%s

The engineer has the following question:
%s

Provide specific, actionable troubleshooting steps to address the engineer's question, referencing the raw device outputs as needed.`, deviceType, summary, Truncate(rendered, MaxRawOutputChars), question), nil
}
