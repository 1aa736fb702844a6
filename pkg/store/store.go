// Package store persists analysis records as timestamped YAML files under
// <root>/<device_type>/.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/helmcode/netdiag-ai/pkg/model"
	"gopkg.in/yaml.v3"
)

// TimestampFormat names record files; second resolution.
const TimestampFormat = "2006-01-02_15-04-05"

const recordExt = ".yaml"

var (
	ErrNoRecords         = errors.New("no records found")
	ErrInvalidDeviceType = errors.New("invalid device type")
)

// Store reads and writes records below Root.
type Store struct {
	Root string
	Now  func() time.Time
}

func New(root string) *Store {
	return &Store{Root: root, Now: time.Now}
}

// Dir is the directory holding records for deviceType.
func (s *Store) Dir(deviceType string) (string, error) {
	if err := validateDeviceType(deviceType); err != nil {
		return "", err
	}
	return filepath.Join(s.Root, deviceType), nil
}

// Save writes a new record and returns its path. Records written within the
// same second share a name; the later write wins.
func (s *Store) Save(deviceType string, outputs model.BatchOutputs, summary string) (string, *model.AnalysisRecord, error) {
	dir, err := s.Dir(deviceType)
	if err != nil {
		return "", nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create output directory: %w", err)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	record := &model.AnalysisRecord{
		DeviceType: deviceType,
		Timestamp:  now().Format(TimestampFormat),
		Outputs:    outputs,
		Summary:    summary,
	}

	data, err := yaml.Marshal(record)
	if err != nil {
		return "", nil, fmt.Errorf("marshal record: %w", err)
	}

	path := filepath.Join(dir, record.Timestamp+recordExt)
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return "", nil, fmt.Errorf("write record: %w", err)
	}
	return path, record, nil
}

// writeFileAtomic writes to a temp file next to path and renames it into
// place, so readers never see a partial record.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := tmpFile.Chmod(perm); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	cleanup = false
	return nil
}

// Load reads a record file.
func (s *Store) Load(path string) (*model.AnalysisRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record %q: %w", path, err)
	}
	var record model.AnalysisRecord
	if err := yaml.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parse record %q: %w", path, err)
	}
	if record.DeviceType == "" {
		record.DeviceType = "unknown"
	}
	return &record, nil
}

// Latest returns the record file for deviceType with the most recent
// modification time.
func (s *Store) Latest(deviceType string) (string, error) {
	files, err := s.Recent(deviceType, 1)
	if err != nil {
		return "", err
	}
	return files[0], nil
}

// Recent returns up to n record files, newest modification time first.
// Equal times are ordered by name, descending.
func (s *Store) Recent(deviceType string, n int) ([]string, error) {
	dir, err := s.Dir(deviceType)
	if err != nil {
		return nil, err
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*"+recordExt))
	if err != nil {
		return nil, err
	}

	type entry struct {
		path    string
		modTime time.Time
	}
	entries := make([]entry, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		entries = append(entries, entry{path: m, modTime: info.ModTime()})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w for %s in %s", ErrNoRecords, deviceType, dir)
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].modTime.Equal(entries[j].modTime) {
			return entries[i].modTime.After(entries[j].modTime)
		}
		return entries[i].path > entries[j].path
	})

	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.path
	}
	return out, nil
}

func validateDeviceType(deviceType string) error {
	if deviceType == "" || deviceType == "." || deviceType == ".." ||
		strings.ContainsAny(deviceType, `/\`) || strings.Contains(deviceType, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidDeviceType, deviceType)
	}
	return nil
}
