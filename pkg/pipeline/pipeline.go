// Package pipeline runs the batch job: collect, aggregate, summarize, store,
// notify and record the run.
package pipeline

import (
	"context"
	"fmt"

	"github.com/helmcode/netdiag-ai/pkg/analyzer"
	"github.com/helmcode/netdiag-ai/pkg/collector"
	"github.com/helmcode/netdiag-ai/pkg/history"
	"github.com/helmcode/netdiag-ai/pkg/inventory"
	"github.com/helmcode/netdiag-ai/pkg/model"
	"github.com/helmcode/netdiag-ai/pkg/notify"
	"github.com/helmcode/netdiag-ai/pkg/prompts"
	"github.com/helmcode/netdiag-ai/pkg/store"
	"github.com/rs/zerolog/log"
)

// Summarizer turns an aggregated prompt into a summary. It never fails; a
// failed call yields analyzer.AnalysisFailed.
type Summarizer interface {
	Summarize(ctx context.Context, aggregated string) string
}

// Notifier delivers the messages for one stored record.
type Notifier interface {
	Notify(ctx context.Context, record *model.AnalysisRecord, path string) notify.Outcome
}

// Ledger records processed device types.
type Ledger interface {
	Insert(ctx context.Context, run *history.Run) error
}

// Result is the outcome for one device type.
type Result struct {
	RunID          string                `json:"run_id" yaml:"run_id"`
	DeviceType     string                `json:"device_type" yaml:"device_type"`
	RecordPath     string                `json:"record_path" yaml:"record_path"`
	Record         *model.AnalysisRecord `json:"-" yaml:"-"`
	Devices        int                   `json:"devices" yaml:"devices"`
	Unreachable    int                   `json:"unreachable" yaml:"unreachable"`
	AnalysisFailed bool                  `json:"analysis_failed" yaml:"analysis_failed"`
	Notification   *notify.Outcome       `json:"notification,omitempty" yaml:"notification,omitempty"`
}

// Runner wires the stages together. Notifier and Ledger are optional.
type Runner struct {
	Collector  *collector.Collector
	Summarizer Summarizer
	Store      *store.Store
	Notifier   Notifier
	Ledger     Ledger

	// Progress, when set, is called before each stage of each group.
	Progress func(deviceType, stage string)
}

// Run processes every group in order. A cancelled ctx or a failure to write
// a record aborts before anything more is saved; the results gathered so far
// are returned with the error.
func (r *Runner) Run(ctx context.Context, groups []inventory.Group) ([]Result, error) {
	runID := history.NewRunID()
	logger := log.With().Str("run_id", runID).Logger()
	logger.Info().Int("device_types", len(groups)).Msg("Starting diagnostic run")

	results := make([]Result, 0, len(groups))
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := r.runGroup(ctx, runID, group)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	logger.Info().Int("records", len(results)).Msg("Diagnostic run finished")
	return results, nil
}

func (r *Runner) runGroup(ctx context.Context, runID string, group inventory.Group) (*Result, error) {
	logger := log.With().Str("run_id", runID).Str("device_type", group.DeviceType).Logger()

	r.progress(group.DeviceType, "collecting")
	outputs := r.Collector.CollectBatch(ctx, group.Devices)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collect %s: %w", group.DeviceType, err)
	}
	unreachable := collector.Unreachable(outputs)
	if unreachable > 0 {
		logger.Warn().Int("unreachable", unreachable).Int("devices", len(outputs)).Msg("Some devices were unreachable")
	}

	r.progress(group.DeviceType, "analyzing")
	summary := r.Summarizer.Summarize(ctx, prompts.BuildAnalysisPrompt(group.DeviceType, outputs))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analyze %s: %w", group.DeviceType, err)
	}

	r.progress(group.DeviceType, "saving")
	path, record, err := r.Store.Save(group.DeviceType, outputs, summary)
	if err != nil {
		return nil, fmt.Errorf("save %s record: %w", group.DeviceType, err)
	}
	logger.Info().Str("path", path).Msg("Record saved")

	res := &Result{
		RunID:          runID,
		DeviceType:     group.DeviceType,
		RecordPath:     path,
		Record:         record,
		Devices:        len(outputs),
		Unreachable:    unreachable,
		AnalysisFailed: summary == analyzer.AnalysisFailed,
	}

	if r.Notifier != nil {
		r.progress(group.DeviceType, "notifying")
		outcome := r.Notifier.Notify(ctx, record, path)
		res.Notification = &outcome
	}

	if r.Ledger != nil {
		entry := &history.Run{
			RunID:            runID,
			DeviceType:       group.DeviceType,
			Timestamp:        record.Timestamp,
			RecordPath:       path,
			DeviceCount:      res.Devices,
			UnreachableCount: unreachable,
			AnalysisFailed:   res.AnalysisFailed,
		}
		if res.Notification != nil {
			entry.Critical = res.Notification.Critical
			entry.TeamSent = res.Notification.TeamSent
			entry.EscalationSent = res.Notification.EscalationSent
		}
		if err := r.Ledger.Insert(ctx, entry); err != nil {
			logger.Warn().Err(err).Msg("Failed to record run history")
		}
	}
	return res, nil
}

// NotifyLatest sends the messages for the most recent record of deviceType.
func (r *Runner) NotifyLatest(ctx context.Context, deviceType string) (string, notify.Outcome, error) {
	if r.Notifier == nil {
		return "", notify.Outcome{}, fmt.Errorf("notifier is not configured")
	}
	path, err := r.Store.Latest(deviceType)
	if err != nil {
		return "", notify.Outcome{}, err
	}
	record, err := r.Store.Load(path)
	if err != nil {
		return "", notify.Outcome{}, err
	}
	log.Info().Str("device_type", deviceType).Str("path", path).Msg("Notifying latest record")
	return path, r.Notifier.Notify(ctx, record, path), nil
}

func (r *Runner) progress(deviceType, stage string) {
	if r.Progress != nil {
		r.Progress(deviceType, stage)
	}
}
