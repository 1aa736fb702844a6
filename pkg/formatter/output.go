package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/helmcode/netdiag-ai/pkg/history"
	"github.com/helmcode/netdiag-ai/pkg/notify"
	"github.com/helmcode/netdiag-ai/pkg/pipeline"
	"gopkg.in/yaml.v3"
)

// DisplayResults renders the outcome of a collect run.
func DisplayResults(w io.Writer, results []pipeline.Result, format string) error {
	switch format {
	case "json":
		return displayJSON(w, results)
	case "yaml":
		return displayYAML(w, results)
	case "human":
		fallthrough
	default:
		displayResultsHuman(w, results)
	}
	return nil
}

// DisplayNotification renders the outcome of the notify command.
func DisplayNotification(w io.Writer, path string, outcome notify.Outcome, format string) error {
	view := struct {
		RecordPath     string `json:"record_path" yaml:"record_path"`
		notify.Outcome `yaml:",inline"`
	}{path, outcome}

	switch format {
	case "json":
		return displayJSON(w, view)
	case "yaml":
		return displayYAML(w, view)
	}

	fmt.Fprintf(w, "📁 Report: %s\n", path)
	fmt.Fprintf(w, "%s %s\n", getSeverityIcon(outcome.Critical), statusLine(outcome.Critical))
	for _, ind := range outcome.Indicators {
		fmt.Fprintf(w, "   - %s\n", color.YellowString(ind))
	}
	fmt.Fprintf(w, "   Team message: %s\n", sentLabel(outcome.TeamSent))
	if outcome.Critical {
		fmt.Fprintf(w, "   Escalation:   %s\n", sentLabel(outcome.EscalationSent))
	}
	return nil
}

// DisplayRecordChoices lists record files for interactive selection.
func DisplayRecordChoices(w io.Writer, paths []string) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintln(w, "📂 Recent analysis records:")
	for i, p := range paths {
		fmt.Fprintf(w, "   %d. %s\n", i+1, filepath.Base(p))
	}
	fmt.Fprintln(w)
}

// DisplayGuidance renders a reply of the troubleshooting assistant.
func DisplayGuidance(w io.Writer, guidance string, format string) error {
	switch format {
	case "json":
		return displayJSON(w, map[string]string{"guidance": guidance})
	case "yaml":
		return displayYAML(w, map[string]string{"guidance": guidance})
	}

	green := color.New(color.FgGreen, color.Bold)
	fmt.Fprintln(w)
	green.Fprintln(w, "🛠️  TROUBLESHOOTING GUIDANCE:")
	fmt.Fprintln(w, wrapText(guidance, 80, "   "))
	fmt.Fprintln(w)
	return nil
}

// DisplayHistory renders ledger entries, newest first.
func DisplayHistory(w io.Writer, runs []history.Run, format string) error {
	switch format {
	case "json":
		return displayJSON(w, runs)
	case "yaml":
		return displayYAML(w, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, color.HiBlackString("No runs recorded yet."))
		return nil
	}
	white := color.New(color.FgWhite, color.Bold)
	white.Fprintf(w, "%-19s  %-10s  %-7s  %-11s  %-8s  %s\n", "TIMESTAMP", "TYPE", "DEVICES", "UNREACHABLE", "CRITICAL", "REPORT")
	for _, r := range runs {
		critical := "no"
		if r.Critical {
			critical = color.RedString("yes")
		} else if r.AnalysisFailed {
			critical = color.YellowString("failed")
		}
		fmt.Fprintf(w, "%-19s  %-10s  %-7d  %-11d  %-8s  %s\n", r.Timestamp, r.DeviceType, r.DeviceCount, r.UnreachableCount, critical, r.RecordPath)
	}
	return nil
}

func displayJSON(w io.Writer, v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(output))
	return nil
}

func displayYAML(w io.Writer, v interface{}) error {
	output, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Fprint(w, string(output))
	return nil
}

func displayResultsHuman(w io.Writer, results []pipeline.Result) {
	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	white := color.New(color.FgWhite, color.Bold)

	fmt.Fprintln(w)
	for _, res := range results {
		cyan.Fprintf(w, "📊 DEVICE TYPE: %s\n", res.DeviceType)
		fmt.Fprintf(w, "   Devices: %d", res.Devices)
		if res.Unreachable > 0 {
			fmt.Fprintf(w, " (%s)", color.RedString("%d unreachable", res.Unreachable))
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "   Report:  %s\n", res.RecordPath)

		if res.Notification != nil {
			fmt.Fprintf(w, "   %s %s\n", getSeverityIcon(res.Notification.Critical), statusLine(res.Notification.Critical))
		}
		fmt.Fprintln(w)

		if res.AnalysisFailed {
			yellow.Fprintln(w, "⚠️  ANALYSIS FAILED: the summary could not be generated.")
		} else if res.Record != nil {
			white.Fprintln(w, "📄 SUMMARY:")
			fmt.Fprintln(w, wrapText(res.Record.Summary, 80, "   "))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("─", 80))
	fmt.Fprintf(w, "💡 %s\n", color.HiBlackString("Run with -o json or -o yaml for machine-readable output"))
}

func statusLine(critical bool) string {
	if critical {
		return color.New(color.FgRed, color.Bold).Sprint("CRITICAL ISSUES DETECTED")
	}
	return color.GreenString("No major issues detected")
}

func getSeverityIcon(critical bool) string {
	if critical {
		return "🔴"
	}
	return "🟢"
}

func sentLabel(sent bool) string {
	if sent {
		return color.GreenString("sent")
	}
	return color.YellowString("not sent")
}

func wrapText(text string, width int, indent string) string {
	var result strings.Builder
	lines := strings.Split(text, "\n")

	for _, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}

		currentLine := indent
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width {
				result.WriteString(currentLine + "\n")
				currentLine = indent + word
			} else if currentLine == indent {
				currentLine += word
			} else {
				currentLine += " " + word
			}
		}

		if currentLine != indent {
			result.WriteString(currentLine + "\n")
		}
	}

	return strings.TrimSuffix(result.String(), "\n")
}
