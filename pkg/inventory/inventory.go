// Package inventory reads the declarative device list and groups it by
// device type.
package inventory

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/helmcode/netdiag-ai/pkg/model"
	"gopkg.in/yaml.v3"
)

// UnknownType is assigned to entries without a device_type.
const UnknownType = "unknown"

// ErrNoDevices is returned when the file parses but lists no devices.
var ErrNoDevices = errors.New("inventory contains no devices")

type fileFormat struct {
	Devices *[]entry `yaml:"devices"`
}

type entry struct {
	Name       string `yaml:"name"`
	IP         string `yaml:"ip"`
	Address    string `yaml:"address"`
	Port       int    `yaml:"port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	DeviceType string `yaml:"device_type"`
}

// Group is the set of devices sharing a device type.
type Group struct {
	DeviceType string
	Devices    []model.Device
}

// Load reads the inventory file at path.
func Load(path string) ([]model.Device, error) {
	filename := strings.TrimSpace(path)
	if filename == "" {
		return nil, fmt.Errorf("inventory path is empty")
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory %q: %w", filename, err)
	}
	return Parse(data)
}

// Parse decodes inventory YAML.
func Parse(data []byte) ([]model.Device, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse inventory: %w", err)
	}
	if f.Devices == nil {
		return nil, fmt.Errorf("failed to parse inventory: missing top-level %q key", "devices")
	}
	if len(*f.Devices) == 0 {
		return nil, ErrNoDevices
	}

	devices := make([]model.Device, 0, len(*f.Devices))
	seen := make(map[string]bool)
	for i, e := range *f.Devices {
		d := model.Device{
			Name:       strings.TrimSpace(e.Name),
			Address:    strings.TrimSpace(e.IP),
			Port:       e.Port,
			Username:   e.Username,
			Password:   e.Password,
			DeviceType: strings.TrimSpace(e.DeviceType),
		}
		if d.Address == "" {
			d.Address = strings.TrimSpace(e.Address)
		}
		if d.DeviceType == "" {
			d.DeviceType = UnknownType
		}
		if d.Name == "" {
			return nil, fmt.Errorf("inventory entry %d: name is required", i+1)
		}
		if d.Address == "" {
			return nil, fmt.Errorf("inventory entry %q: ip is required", d.Name)
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("inventory entry %q: duplicate device name", d.Name)
		}
		seen[d.Name] = true
		devices = append(devices, d)
	}
	return devices, nil
}

// GroupByType buckets devices by type, keeping the order in which each type
// first appears and the inventory order inside a group.
func GroupByType(devices []model.Device) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, d := range devices {
		i, ok := index[d.DeviceType]
		if !ok {
			i = len(groups)
			index[d.DeviceType] = i
			groups = append(groups, Group{DeviceType: d.DeviceType})
		}
		groups[i].Devices = append(groups[i].Devices, d)
	}
	return groups
}

// Filter keeps only the groups whose type is listed. An empty list keeps all.
func Filter(groups []Group, types []string) ([]Group, error) {
	if len(types) == 0 {
		return groups, nil
	}
	byType := make(map[string]Group, len(groups))
	for _, g := range groups {
		byType[g.DeviceType] = g
	}
	out := make([]Group, 0, len(types))
	for _, t := range types {
		g, ok := byType[t]
		if !ok {
			return nil, fmt.Errorf("no devices of type %q in inventory", t)
		}
		out = append(out, g)
	}
	return out, nil
}
