package model

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Device is one inventory entry.
type Device struct {
	Name       string `yaml:"name" json:"name"`
	Address    string `yaml:"ip" json:"ip"`
	Port       int    `yaml:"port,omitempty" json:"port,omitempty"`
	Username   string `yaml:"username" json:"username"`
	Password   string `yaml:"password" json:"-"`
	DeviceType string `yaml:"device_type" json:"device_type"`
}

// CommandResult is the captured text of a single command.
type CommandResult struct {
	Command string `json:"command"`
	Output  string `json:"output"`
}

// CommandOutput holds the results for one device in command-list order.
type CommandOutput []CommandResult

// Get returns the output captured for command.
func (c CommandOutput) Get(command string) (string, bool) {
	for _, r := range c {
		if r.Command == command {
			return r.Output, true
		}
	}
	return "", false
}

// Set replaces the output of an existing command or appends a new one.
func (c *CommandOutput) Set(command, output string) {
	for i := range *c {
		if (*c)[i].Command == command {
			(*c)[i].Output = output
			return
		}
	}
	*c = append(*c, CommandResult{Command: command, Output: output})
}

// Commands lists the command strings in order.
func (c CommandOutput) Commands() []string {
	cmds := make([]string, 0, len(c))
	for _, r := range c {
		cmds = append(cmds, r.Command)
	}
	return cmds
}

func (c CommandOutput) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, r := range c {
		node.Content = append(node.Content, strNode(r.Command), strNode(r.Output))
	}
	return node, nil
}

func (c *CommandOutput) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("command outputs: expected mapping, got %s", kindName(value.Kind))
	}
	out := make(CommandOutput, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var cmd, text string
		if err := value.Content[i].Decode(&cmd); err != nil {
			return fmt.Errorf("command outputs: %w", err)
		}
		if err := value.Content[i+1].Decode(&text); err != nil {
			return fmt.Errorf("command outputs for %q: %w", cmd, err)
		}
		out = append(out, CommandResult{Command: cmd, Output: text})
	}
	*c = out
	return nil
}

// DeviceOutputs pairs a device name with its command results.
type DeviceOutputs struct {
	Device  string        `json:"device"`
	Outputs CommandOutput `json:"outputs"`
}

// BatchOutputs is the per-device-type batch, keyed by device name in
// processing order.
type BatchOutputs []DeviceOutputs

// Get returns the command results for device.
func (b BatchOutputs) Get(device string) (CommandOutput, bool) {
	for _, d := range b {
		if d.Device == device {
			return d.Outputs, true
		}
	}
	return nil, false
}

// Devices lists the device names in order.
func (b BatchOutputs) Devices() []string {
	names := make([]string, 0, len(b))
	for _, d := range b {
		names = append(names, d.Device)
	}
	return names
}

func (b BatchOutputs) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, d := range b {
		inner, err := d.Outputs.MarshalYAML()
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, strNode(d.Device), inner.(*yaml.Node))
	}
	return node, nil
}

func (b *BatchOutputs) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("outputs: expected mapping, got %s", kindName(value.Kind))
	}
	out := make(BatchOutputs, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var name string
		if err := value.Content[i].Decode(&name); err != nil {
			return fmt.Errorf("outputs: %w", err)
		}
		var outputs CommandOutput
		if err := value.Content[i+1].Decode(&outputs); err != nil {
			return fmt.Errorf("outputs for %q: %w", name, err)
		}
		out = append(out, DeviceOutputs{Device: name, Outputs: outputs})
	}
	*b = out
	return nil
}

// AnalysisRecord is the persisted result of one run for one device type.
type AnalysisRecord struct {
	DeviceType string       `yaml:"device_type" json:"device_type"`
	Timestamp  string       `yaml:"timestamp" json:"timestamp"`
	Outputs    BatchOutputs `yaml:"outputs" json:"outputs"`
	Summary    string       `yaml:"summary" json:"summary"`
}

func strNode(s string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	switch {
	case strings.TrimRight(s, "\r\n") == "" && s != "":
		// a literal block holding only line breaks reads back as ""
		n.Style = yaml.DoubleQuotedStyle
	case strings.Contains(s, "\n"):
		n.Style = yaml.LiteralStyle
	}
	return n
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
