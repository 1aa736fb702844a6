package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/helmcode/netdiag-ai/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ts string) func() time.Time {
	return func() time.Time {
		t, _ := time.ParseInLocation(TimestampFormat, ts, time.Local)
		return t
	}
}

func sampleOutputs() model.BatchOutputs {
	return model.BatchOutputs{
		{Device: "device1", Outputs: model.CommandOutput{
			{Command: "show vrf", Output: "Unable to connect"},
			{Command: "show version", Output: "Cisco IOS XE Software\n Version 17.9\n"},
		}},
		{Device: "device0", Outputs: model.CommandOutput{
			{Command: "show vrf", Output: "Error: command timeout: \"show vrf\" did not finish in time"},
			{Command: "show version", Output: "  leading spaces\ntrailing spaces   \n\n"},
		}},
		{Device: "device2", Outputs: model.CommandOutput{
			{Command: "show vlan", Output: "\n"},
			{Command: "show memory", Output: "\n\n"},
			{Command: "show logging", Output: "\r\n"},
			{Command: "show interface", Output: "line1\r\nline2\r\n"},
			{Command: "show version", Output: "123"},
			{Command: "show vrf", Output: "yes"},
		}},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := &Store{Root: t.TempDir(), Now: fixedClock("2025-03-04_05-06-07")}

	path, rec, err := s.Save("iosxe", sampleOutputs(), "All devices reachable.\nNo issues.")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root, "iosxe", "2025-03-04_05-06-07.yaml"), path)
	assert.Equal(t, "2025-03-04_05-06-07", rec.Timestamp)

	back, err := s.Load(path)
	require.NoError(t, err)
	assert.Equal(t, rec, back)
	assert.Equal(t, []string{"device1", "device0", "device2"}, back.Outputs.Devices())
}

func TestSaveRejectsUnsafeDeviceType(t *testing.T) {
	s := New(t.TempDir())
	for _, dt := range []string{"", "..", "../etc", "a/b", `a\b`} {
		_, _, err := s.Save(dt, nil, "x")
		assert.ErrorIs(t, err, ErrInvalidDeviceType, dt)
	}
}

func TestLatestUsesModificationTime(t *testing.T) {
	s := New(t.TempDir())
	dir := filepath.Join(s.Root, "nxos")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	base := time.Now().Add(-time.Hour)
	files := []struct {
		name string
		mod  time.Time
	}{
		{"2025-12-31_23-59-59.yaml", base},                       // t1, largest name
		{"2025-01-01_00-00-00.yaml", base.Add(20 * time.Minute)}, // t3
		{"2025-06-15_12-00-00.yaml", base.Add(10 * time.Minute)}, // t2
	}
	for _, f := range files {
		p := filepath.Join(dir, f.name)
		require.NoError(t, os.WriteFile(p, []byte("device_type: nxos\n"), 0o644))
		require.NoError(t, os.Chtimes(p, f.mod, f.mod))
	}

	latest, err := s.Latest("nxos")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2025-01-01_00-00-00.yaml"), latest)

	recent, err := s.Recent("nxos", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "2025-01-01_00-00-00.yaml"),
		filepath.Join(dir, "2025-06-15_12-00-00.yaml"),
	}, recent)
}

func TestLatestIgnoresOtherFiles(t *testing.T) {
	s := New(t.TempDir())
	dir := filepath.Join(s.Root, "nxos")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	_, err := s.Latest("nxos")
	assert.ErrorIs(t, err, ErrNoRecords)

	_, err = s.Latest("iosxe")
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestLoadErrors(t *testing.T) {
	s := New(t.TempDir())

	_, err := s.Load(filepath.Join(s.Root, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(s.Root, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("outputs: [1, 2"), 0o644))
	_, err = s.Load(bad)
	assert.ErrorContains(t, err, "parse record")
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := &Store{Root: t.TempDir(), Now: fixedClock("2025-03-04_05-06-07")}
	path, _, err := s.Save("asa", sampleOutputs(), "ok")
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2025-03-04_05-06-07.yaml", entries[0].Name())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestSaveFailureKeepsDirectoryClean(t *testing.T) {
	s := &Store{Root: t.TempDir(), Now: fixedClock("2025-03-04_05-06-07")}
	dir := filepath.Join(s.Root, "asa")
	// a directory in the way makes the final rename fail
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2025-03-04_05-06-07.yaml", "x"), 0o755))

	_, _, err := s.Save("asa", sampleOutputs(), "ok")
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsDir())
}

func TestLatestSkipsInterruptedWrites(t *testing.T) {
	s := New(t.TempDir())
	dir := filepath.Join(s.Root, "iosxe")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	old := filepath.Join(dir, "2025-01-01_00-00-00.yaml")
	require.NoError(t, os.WriteFile(old, []byte("device_type: iosxe\n"), 0o644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2025-01-01_00-00-05.yaml.123.tmp"), []byte("device_ty"), 0o600))

	latest, err := s.Latest("iosxe")
	require.NoError(t, err)
	assert.Equal(t, old, latest)
}
