// Package history keeps a local ledger of pipeline runs in sqlite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS runs(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	device_type TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	record_path TEXT NOT NULL,
	device_count INTEGER NOT NULL,
	unreachable_count INTEGER NOT NULL,
	critical INTEGER NOT NULL,
	analysis_failed INTEGER NOT NULL,
	team_sent INTEGER NOT NULL,
	escalation_sent INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_device_type ON runs(device_type);`

// Run is one analysed device type within a pipeline run.
type Run struct {
	ID               int64     `json:"-" yaml:"-"`
	RunID            string    `json:"run_id" yaml:"run_id"`
	DeviceType       string    `json:"device_type" yaml:"device_type"`
	Timestamp        string    `json:"timestamp" yaml:"timestamp"`
	RecordPath       string    `json:"record_path" yaml:"record_path"`
	DeviceCount      int       `json:"device_count" yaml:"device_count"`
	UnreachableCount int       `json:"unreachable_count" yaml:"unreachable_count"`
	Critical         bool      `json:"critical" yaml:"critical"`
	AnalysisFailed   bool      `json:"analysis_failed" yaml:"analysis_failed"`
	TeamSent         bool      `json:"team_sent" yaml:"team_sent"`
	EscalationSent   bool      `json:"escalation_sent" yaml:"escalation_sent"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
}

type Repo struct{ db *sql.DB }

// Open opens (creating if needed) the ledger at path. ":memory:" is accepted.
func Open(path string) (*Repo, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() error { return r.db.Close() }

// NewRunID returns an identifier shared by all entries of one pipeline run.
func NewRunID() string { return uuid.NewString() }

func (r *Repo) Insert(ctx context.Context, run *Run) error {
	if run.RunID == "" {
		run.RunID = NewRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO runs(run_id,device_type,timestamp,record_path,device_count,unreachable_count,critical,analysis_failed,team_sent,escalation_sent,created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		run.RunID, run.DeviceType, run.Timestamp, run.RecordPath, run.DeviceCount, run.UnreachableCount,
		boolInt(run.Critical), boolInt(run.AnalysisFailed), boolInt(run.TeamSent), boolInt(run.EscalationSent),
		run.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	id, _ := res.LastInsertId()
	run.ID = id
	return nil
}

// ListRecent returns the newest entries first. An empty deviceType lists all.
func (r *Repo) ListRecent(ctx context.Context, deviceType string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT id,run_id,device_type,timestamp,record_path,device_count,unreachable_count,critical,analysis_failed,team_sent,escalation_sent,created_at FROM runs`
	args := []any{}
	if deviceType != "" {
		q += ` WHERE device_type = ?`
		args = append(args, deviceType)
	}
	q += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var list []Run
	for rows.Next() {
		var (
			run                                        Run
			critical, failed, teamSent, escalationSent int
			createdAt                                  string
		)
		if err := rows.Scan(&run.ID, &run.RunID, &run.DeviceType, &run.Timestamp, &run.RecordPath,
			&run.DeviceCount, &run.UnreachableCount, &critical, &failed, &teamSent, &escalationSent, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Critical = critical != 0
		run.AnalysisFailed = failed != 0
		run.TeamSent = teamSent != 0
		run.EscalationSent = escalationSent != 0
		run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		list = append(list, run)
	}
	return list, rows.Err()
}

// Cleanup keeps only the newest maxRows entries. maxRows <= 0 keeps all.
func (r *Repo) Cleanup(ctx context.Context, maxRows int) error {
	if maxRows <= 0 {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE id IN (SELECT id FROM runs ORDER BY id DESC LIMIT -1 OFFSET ?)`, maxRows); err != nil {
		return fmt.Errorf("cleanup runs: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
