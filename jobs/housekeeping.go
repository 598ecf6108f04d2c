package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/college-os/college-os/internal/jobs"
)

// SessionPurger deletes session rows that expired before cutoff.
type SessionPurger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditPruner deletes audit records older than cutoff.
type AuditPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionsPurgeJob removes expired login sessions from the database.
type SessionsPurgeJob struct {
	Store   SessionPurger
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSessionsPurgeJob initialises the purge handler.
func NewSessionsPurgeJob(store SessionPurger, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionsPurgeJob {
	return &SessionsPurgeJob{Store: store, Logger: logger, Metrics: metrics, clock: utcNow}
}

// Handle executes one purge.
func (j *SessionsPurgeJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Store == nil {
		return errors.New("sessions purge: handler not configured")
	}
	var payload SessionsPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.Grace < 0 {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskSessionsPurge)
	defer func() { err = tracker.End(err) }()

	cutoff := j.clock().Add(-payload.Grace)
	removed, err := j.Store.PurgeExpired(ctx, cutoff)
	if err != nil {
		logger(j.Logger).Error("purge sessions", slog.Any("error", err))
		return err
	}
	tracker.Removed("sessions", removed)
	logger(j.Logger).Info("purged expired sessions",
		slog.Int64("removed", removed),
		slog.Time("cutoff", cutoff),
	)
	return nil
}

// AuditPruneJob enforces audit log retention.
type AuditPruneJob struct {
	Store   AuditPruner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewAuditPruneJob initialises the prune handler.
func NewAuditPruneJob(store AuditPruner, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditPruneJob {
	return &AuditPruneJob{Store: store, Logger: logger, Metrics: metrics, clock: utcNow}
}

// Handle executes one prune. A zero retention keeps everything.
func (j *AuditPruneJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Store == nil {
		return errors.New("audit prune: handler not configured")
	}
	var payload AuditPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.Retention < 0 {
		return asynq.SkipRetry
	}
	if payload.Retention == 0 {
		return nil
	}

	tracker := j.Metrics.Track(TaskAuditPrune)
	defer func() { err = tracker.End(err) }()

	cutoff := j.clock().Add(-payload.Retention)
	removed, err := j.Store.PruneBefore(ctx, cutoff)
	if err != nil {
		logger(j.Logger).Error("prune audit logs", slog.Any("error", err))
		return err
	}
	tracker.Removed("audit_logs", removed)
	logger(j.Logger).Info("pruned audit logs",
		slog.Int64("removed", removed),
		slog.Time("cutoff", cutoff),
	)
	return nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
