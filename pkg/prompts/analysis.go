package prompts

import (
	"fmt"
	"strings"

	"github.com/helmcode/netdiag-ai/pkg/model"
)

const singleDevicePreamble = `You are an expert network, automation, platform engineering, and security engineer. Analyze the following outputs from a single device of type '%[1]s'.

Provide a detailed analysis of this device, including its:

*   Operational state
*   Key configurations
*   Relevant logs
*   Any potential issues or anomalies.

Focus on providing actionable recommendations based on your analysis.`

const multiDevicePreamble = `You are an expert network, automation, platform engineering, and security engineer. Analyze the following outputs from multiple devices of type '%[1]s'.

For each individual device, provide a concise summary of its:

*   Operational state
*   Key configurations
*   Relevant logs
*   Any potential issues or anomalies specific to that device

After summarizing each device individually, provide a combined analysis that identifies:

*   Common configurations and settings across all devices of type '%[1]s'.
*   Any significant deviations from the norm or inconsistencies between devices.
*   Potential security vulnerabilities or misconfigurations that are present in some devices but not others.
*   Suggestions for improving consistency, security, and overall operational efficiency across the '%[1]s' device family.

Focus on providing actionable recommendations based on your analysis.`

// BuildAnalysisPrompt merges every device's command outputs for one device
// type into a single request. Nothing is truncated or filtered.
func BuildAnalysisPrompt(deviceType string, outputs model.BatchOutputs) string {
	var b strings.Builder

	if len(outputs) == 1 {
		fmt.Fprintf(&b, singleDevicePreamble, deviceType)
	} else {
		fmt.Fprintf(&b, multiDevicePreamble, deviceType)
	}

	for _, device := range outputs {
		fmt.Fprintf(&b, "\n\n### %s ###\n", device.Device)
		for _, r := range device.Outputs {
			fmt.Fprintf(&b, "\n\n#### %s ####\n%s", r.Command, r.Output)
		}
	}
	return b.String()
}
