package formatter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/helmcode/netdiag-ai/pkg/history"
	"github.com/helmcode/netdiag-ai/pkg/model"
	"github.com/helmcode/netdiag-ai/pkg/notify"
	"github.com/helmcode/netdiag-ai/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func init() {
	color.NoColor = true
}

func sampleResults() []pipeline.Result {
	return []pipeline.Result{
		{
			RunID:       "run-1",
			DeviceType:  "iosxe",
			RecordPath:  "output/iosxe/2025-01-01_00-00-00.yaml",
			Record:      &model.AnalysisRecord{Summary: "device1 DOWN"},
			Devices:     1,
			Unreachable: 1,
			Notification: &notify.Outcome{
				Critical: true, TeamSent: true, EscalationSent: true,
			},
		},
		{
			RunID:          "run-1",
			DeviceType:     "nxos",
			RecordPath:     "output/nxos/2025-01-01_00-00-01.yaml",
			Record:         &model.AnalysisRecord{Summary: "Error during analysis"},
			Devices:        2,
			AnalysisFailed: true,
		},
	}
}

func TestDisplayResultsHuman(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DisplayResults(&buf, sampleResults(), "human"))

	out := buf.String()
	assert.Contains(t, out, "DEVICE TYPE: iosxe")
	assert.Contains(t, out, "1 unreachable")
	assert.Contains(t, out, "CRITICAL ISSUES DETECTED")
	assert.Contains(t, out, "device1 DOWN")
	assert.Contains(t, out, "DEVICE TYPE: nxos")
	assert.Contains(t, out, "ANALYSIS FAILED")
}

func TestDisplayResultsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DisplayResults(&buf, sampleResults(), "json"))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "iosxe", decoded[0]["device_type"])
	assert.Equal(t, true, decoded[0]["notification"].(map[string]interface{})["critical"])
	assert.NotContains(t, decoded[1], "notification")
	assert.Equal(t, true, decoded[1]["analysis_failed"])
}

func TestDisplayNotificationYAML(t *testing.T) {
	var buf bytes.Buffer
	outcome := notify.Outcome{Critical: true, Indicators: []string{"Gi0/1 DOWN"}, TeamSent: true}
	require.NoError(t, DisplayNotification(&buf, "output/iosxe/a.yaml", outcome, "yaml"))

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "output/iosxe/a.yaml", decoded["record_path"])
	assert.Equal(t, true, decoded["critical"])
	assert.Equal(t, false, decoded["escalation_sent"])
}

func TestDisplayNotificationHuman(t *testing.T) {
	var buf bytes.Buffer
	outcome := notify.Outcome{Critical: true, Indicators: []string{"Gi0/1 DOWN"}, TeamSent: true}
	require.NoError(t, DisplayNotification(&buf, "output/iosxe/a.yaml", outcome, "human"))

	out := buf.String()
	assert.Contains(t, out, "Gi0/1 DOWN")
	assert.Contains(t, out, "Team message: sent")
	assert.Contains(t, out, "Escalation:   not sent")
}

func TestDisplayHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DisplayHistory(&buf, nil, "human"))
	assert.Contains(t, buf.String(), "No runs recorded yet.")

	buf.Reset()
	runs := []history.Run{{DeviceType: "asa", Timestamp: "2025-01-01_00-00-00", RecordPath: "output/asa/x.yaml", DeviceCount: 3, Critical: true}}
	require.NoError(t, DisplayHistory(&buf, runs, "human"))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "TIMESTAMP"))
	assert.Contains(t, lines[1], "asa")
	assert.Contains(t, lines[1], "yes")
}

func TestDisplayGuidanceAndChoices(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DisplayGuidance(&buf, "Check the trunk on Gi0/1.", "human"))
	assert.Contains(t, buf.String(), "   Check the trunk on Gi0/1.")

	buf.Reset()
	DisplayRecordChoices(&buf, []string{"output/iosxe/b.yaml", "output/iosxe/a.yaml"})
	assert.Contains(t, buf.String(), "1. b.yaml")
	assert.Contains(t, buf.String(), "2. a.yaml")
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four", 12, "  ")
	assert.Equal(t, "  one two\n  three four", got)
	assert.Equal(t, "\n  a", wrapText("\na", 80, "  "))
}
