// Package merge reconciles a project folder between the host and a
// device. Each file moves toward the side where it is older or missing;
// timed-out transfers are resolved one file at a time through a RetryFunc.
package merge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/devsync/internal/platform"
	"github.com/sdejongh/devsync/pkg/compare"
	"github.com/sdejongh/devsync/pkg/link"
	"github.com/sdejongh/devsync/pkg/logging"
	"github.com/sdejongh/devsync/pkg/metrics"
	"github.com/sdejongh/devsync/pkg/models"
	"github.com/sdejongh/devsync/pkg/output"
)

// Config holds everything a merge needs
type Config struct {
	// Project is the folder name under both link roots
	Project string
	// Peer describes the remote side in reports
	Peer string

	Local  link.Link
	Remote link.Link

	// Policy decides directions (newer wins with a 1s tolerance when nil)
	Policy compare.Policy
	// Retry resolves timeouts; nil aborts on the first timeout
	Retry RetryFunc

	Sink    output.Sink
	Metrics *metrics.Collector
	Logger  logging.Logger
	// Locks guards concurrent merges (a process-wide set when nil)
	Locks *ProjectLocks
}

// Merger runs merges for one project
type Merger struct {
	cfg    Config
	logger logging.Logger
}

// New validates cfg and creates a merger
func New(cfg Config) (*Merger, error) {
	project, err := platform.CleanRelative(cfg.Project)
	if err != nil {
		return nil, fmt.Errorf("invalid project: %w", err)
	}
	cfg.Project = project

	if cfg.Local == nil || cfg.Remote == nil {
		return nil, errors.New("both local and remote links are required")
	}
	if cfg.Policy == nil {
		cfg.Policy = compare.NewTimestampPolicy(compare.DefaultTolerance)
	}
	if cfg.Sink == nil {
		cfg.Sink = output.NullSink{}
	}
	if cfg.Locks == nil {
		cfg.Locks = defaultLocks
	}

	return &Merger{
		cfg: cfg,
		logger: logging.OrNull(cfg.Logger).WithFields(logging.Fields{
			"component": "merge",
			"project":   project,
		}),
	}, nil
}

// Merge reconciles the project. Paths matching skip are never
// transferred. The returned report is non-nil whenever the merge started;
// an error accompanies every aborted report.
func (m *Merger) Merge(ctx context.Context, skip []string) (*models.MergeReport, error) {
	unlock, ok := m.cfg.Locks.TryLock(m.cfg.Project)
	if !ok {
		return nil, ErrMergeInProgress
	}
	defer unlock()

	report := &models.MergeReport{
		ID:        uuid.NewString(),
		Project:   m.cfg.Project,
		Peer:      m.cfg.Peer,
		StartTime: time.Now(),
	}
	skipList := NewSkipList(skip)
	m.logger.Info(ctx, "merge started", logging.Fields{"merge_id": report.ID, "skip_entries": skipList.Len()})

	plan, err := m.plan(ctx, skipList)
	if err != nil {
		m.cfg.Sink.WriteError(link.Classify(err).Message())
		return m.finish(ctx, report, true), err
	}

	if err := m.cfg.Sink.Start(m.cfg.Project, plan.Transfers(), plan.Bytes()); err != nil {
		m.logger.Warn(ctx, "output start failed", logging.Fields{"error": err.Error()})
	}
	report.Unchanged = plan.Unchanged

	for _, item := range plan.Items {
		if item.Skipped {
			o := models.FileOutcome{Path: item.Path, Direction: item.Direction, Outcome: models.OutcomeSkippedByPolicy}
			report.Add(o)
			m.cfg.Sink.FileFinished(o)
			m.cfg.Metrics.ObserveTransfer(o, 0)
			continue
		}

		m.cfg.Sink.FileStarted(item.Path, item.Direction, item.Size)
		start := time.Now()
		o, err := m.transfer(ctx, item)
		report.Add(o)
		m.cfg.Sink.FileFinished(o)
		m.cfg.Metrics.ObserveTransfer(o, time.Since(start))

		if err != nil {
			return m.finish(ctx, report, true), err
		}
	}

	return m.finish(ctx, report, false), nil
}

func (m *Merger) plan(ctx context.Context, skip *SkipList) (*Plan, error) {
	local, err := m.cfg.Local.ListFiles(ctx, m.cfg.Project)
	if err != nil {
		return nil, fmt.Errorf("failed to list local files: %w", err)
	}
	remote, err := m.cfg.Remote.ListFiles(ctx, m.cfg.Project)
	if err != nil {
		return nil, fmt.Errorf("failed to list device files: %w", err)
	}

	plan := BuildPlan(m.cfg.Project, local, remote, m.cfg.Policy, skip)
	m.logger.Debug(ctx, "merge planned", logging.Fields{
		"local_files":  len(local),
		"remote_files": len(remote),
		"transfers":    plan.Transfers(),
		"unchanged":    plan.Unchanged,
	})
	return plan, nil
}

func (m *Merger) finish(ctx context.Context, report *models.MergeReport, aborted bool) *models.MergeReport {
	report.Finish(aborted)
	if err := m.cfg.Sink.Complete(report); err != nil {
		m.logger.Warn(ctx, "output complete failed", logging.Fields{"error": err.Error()})
	}
	m.cfg.Metrics.ObserveMerge(report)
	m.logger.Info(ctx, "merge finished", logging.Fields{
		"merge_id":   report.ID,
		"status":     string(report.Status),
		"uploaded":   report.Uploaded(),
		"downloaded": report.Downloaded(),
		"unchanged":  report.Unchanged,
		"duration":   report.Duration.String(),
	})
	return report
}

// transfer moves one item, consulting the retry policy on timeouts. A
// non-nil error means the merge must stop.
func (m *Merger) transfer(ctx context.Context, item Item) (models.FileOutcome, error) {
	o := models.FileOutcome{Path: item.Path, Direction: item.Direction}

	for attempt := 0; ; attempt++ {
		o.Attempts = attempt + 1

		n, err := m.copy(link.WithAttempt(ctx, attempt), item)
		if err == nil {
			o.Outcome = models.OutcomeSucceeded
			o.Bytes = n
			return o, nil
		}

		te := link.Classify(err)
		o.Category = te.Category
		o.Error = te.Error()
		m.cfg.Metrics.ObserveError(te.Category)
		m.logger.Warn(ctx, "transfer failed", logging.Fields{
			"path":     item.Path,
			"attempt":  o.Attempts,
			"category": string(te.Category),
			"error":    err.Error(),
		})

		if ctx.Err() != nil {
			o.Outcome = models.OutcomeAborted
			return o, ctx.Err()
		}

		decision := Abort
		if te.Retryable() && m.cfg.Retry != nil {
			decision = m.cfg.Retry(ctx, te, platform.JoinRelative(m.cfg.Project, item.Path))
		}

		switch {
		case te.Retryable() && decision == Retry:
			continue
		case te.Retryable() && decision == Ignore:
			o.Outcome = models.OutcomeSkippedByUser
			return o, nil
		default:
			o.Outcome = models.OutcomeAborted
			m.cfg.Sink.WriteError(te.Message())
			return o, te
		}
	}
}

// copy reads item from its source side and writes it to the other,
// returning the bytes moved
func (m *Merger) copy(ctx context.Context, item Item) (int64, error) {
	from, to := m.cfg.Local, m.cfg.Remote
	if item.Direction == models.DirectionDownload {
		from, to = m.cfg.Remote, m.cfg.Local
	}
	p := platform.JoinRelative(m.cfg.Project, item.Path)

	data, err := from.GetFile(ctx, p)
	if err != nil {
		return 0, err
	}
	if err := to.PutFile(ctx, p, data, item.ModTime); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}
