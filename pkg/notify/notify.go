// Package notify reports analysis results to the team channel and escalates
// critical findings to one person.
package notify

import (
	"context"
	"fmt"

	"github.com/helmcode/netdiag-ai/pkg/model"
	"github.com/helmcode/netdiag-ai/pkg/severity"
	"github.com/rs/zerolog/log"
)

const (
	statusCritical = "⚠️ Critical issue detected, the on-call engineer has been notified directly."
	statusOK       = "✅ No major issues detected."
)

// Outcome describes what was sent for one record.
type Outcome struct {
	Critical       bool     `json:"critical" yaml:"critical"`
	Indicators     []string `json:"indicators,omitempty" yaml:"indicators,omitempty"`
	TeamSent       bool     `json:"team_sent" yaml:"team_sent"`
	EscalationSent bool     `json:"escalation_sent" yaml:"escalation_sent"`
}

// Notifier sends the team status message and, for critical summaries, the
// escalation message. Delivery failures are logged, never returned.
type Notifier struct {
	poster       Poster
	classifier   *severity.Classifier
	space        string
	escalationID string
	chatURL      string
}

func New(poster Poster, classifier *severity.Classifier, space, escalationID, chatURL string) *Notifier {
	return &Notifier{
		poster:       poster,
		classifier:   classifier,
		space:        space,
		escalationID: escalationID,
		chatURL:      chatURL,
	}
}

// Notify classifies record and delivers the messages. path is the record
// file shown in the messages.
func (n *Notifier) Notify(ctx context.Context, record *model.AnalysisRecord, path string) Outcome {
	verdict := n.classifier.Evaluate(record.Summary)
	outcome := Outcome{Critical: verdict.Critical, Indicators: verdict.Indicators}

	logger := log.With().Str("device_type", record.DeviceType).Str("timestamp", record.Timestamp).Logger()

	if n.space == "" {
		logger.Warn().Msg("No team space configured; skipping team message")
	} else {
		outcome.TeamSent = n.send(ctx, n.space, TeamMessage(record, path, verdict.Critical, n.chatURL), true)
	}

	if !verdict.Critical {
		return outcome
	}
	if n.escalationID == "" {
		logger.Warn().Msg("Critical issue found but no escalation recipient configured")
		return outcome
	}
	excerpt := n.classifier.Excerpt(record.Summary)
	outcome.EscalationSent = n.send(ctx, n.escalationID, EscalationMessage(record, path, excerpt, n.chatURL), false)
	if outcome.EscalationSent {
		logger.Info().Msg("Escalation sent")
	}
	return outcome
}

func (n *Notifier) send(ctx context.Context, destination, markdown string, isRoom bool) bool {
	status, err := n.poster.PostMessage(ctx, destination, markdown, isRoom)
	if err != nil {
		log.Error().Err(err).Int("status", status).Bool("room", isRoom).Msg("Failed to send Webex message")
		return false
	}
	return true
}

// TeamMessage is the status message posted to the team space.
func TeamMessage(record *model.AnalysisRecord, path string, critical bool, chatURL string) string {
	status := statusOK
	if critical {
		status = statusCritical
	}
	msg := fmt.Sprintf(`✅ **Network Analysis Completed**
**Device Type**: `+"`%s`"+`  
**Timestamp**: `+"`%s`"+`  
%s  
📁 **Report**: `+"`%s`", record.DeviceType, record.Timestamp, status, path)
	return withChatLink(msg, "Open Le Chat", chatURL)
}

// EscalationMessage is the direct message sent for critical findings.
func EscalationMessage(record *model.AnalysisRecord, path, excerpt, chatURL string) string {
	msg := fmt.Sprintf(`🚨 **Critical Network Issue Detected**
A major issue was found during the analysis of `+"`%s`"+` devices at `+"`%s`"+`.
🔍 **Detected Indicators**:
%s
🗂 **Report**: `+"`%s`", record.DeviceType, record.Timestamp, excerpt, path)
	return withChatLink(msg, "Discuss in Le Chat", chatURL)
}

// withChatLink appends the discussion link line. No URL, no line.
func withChatLink(msg, label, chatURL string) string {
	if chatURL == "" {
		return msg
	}
	return msg + "  \n💬 [" + label + "](" + chatURL + ")"
}
