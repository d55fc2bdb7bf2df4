// Package tracestore persists workflow run traces, making the execution
// record durable across process restarts. Pipeline definitions are not
// persisted — only the outcome of runs.
package tracestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/flowkit-dev/flowkit/workflow"
)

// Run statuses stored in RunRecord.Status.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunRecord is one persisted workflow run.
type RunRecord struct {
	ID        string        `gorm:"primaryKey" json:"id"`
	Workflow  string        `gorm:"index" json:"workflow"`
	Status    string        `gorm:"index" json:"status"`
	Output    string        `json:"output,omitempty"`
	Trace     string        `json:"trace"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Store persists run records in SQLite.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open opens (or creates) the store at dsn — a file path or ":memory:" —
// and migrates the schema.
func Open(dsn string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open trace store: %w", err)
	}
	if err := db.AutoMigrate(&RunRecord{}); err != nil {
		return nil, fmt.Errorf("migrate trace store: %w", err)
	}
	return &Store{
		db:     db,
		logger: log.With(zap.String("component", "tracestore")),
	}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveResult persists a successful run and returns the record id.
func (s *Store) SaveResult(ctx context.Context, workflowName string, startedAt time.Time, res *workflow.RunResult) (string, error) {
	rec := RunRecord{
		ID:        uuid.NewString(),
		Workflow:  workflowName,
		Status:    StatusCompleted,
		Output:    marshal(res.Output),
		Trace:     marshal(res.Trace),
		StartedAt: startedAt,
		Duration:  traceDuration(res.Trace),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", fmt.Errorf("save run record: %w", err)
	}
	s.logger.Debug("run record saved", zap.String("id", rec.ID), zap.String("status", rec.Status))
	return rec.ID, nil
}

// SaveFailure persists a failed run and returns the record id.
func (s *Store) SaveFailure(ctx context.Context, workflowName string, startedAt time.Time, runErr *workflow.RunError) (string, error) {
	rec := RunRecord{
		ID:        uuid.NewString(),
		Workflow:  workflowName,
		Status:    StatusFailed,
		Trace:     marshal(runErr.Trace),
		Error:     runErr.Err.Error(),
		StartedAt: startedAt,
		Duration:  traceDuration(runErr.Trace),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", fmt.Errorf("save run record: %w", err)
	}
	s.logger.Debug("run record saved", zap.String("id", rec.ID), zap.String("status", rec.Status))
	return rec.ID, nil
}

// Get returns one run record by id.
func (s *Store) Get(ctx context.Context, id string) (*RunRecord, error) {
	var rec RunRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("get run record %s: %w", id, err)
	}
	return &rec, nil
}

// List returns the most recent records for a workflow, newest first.
// An empty workflowName lists across all workflows.
func (s *Store) List(ctx context.Context, workflowName string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if workflowName != "" {
		q = q.Where("workflow = ?", workflowName)
	}
	var recs []RunRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list run records: %w", err)
	}
	return recs, nil
}

// Entries decodes the persisted trace back into trace entries.
func (r *RunRecord) Entries() ([]workflow.TraceEntry, error) {
	var entries []workflow.TraceEntry
	if err := json.Unmarshal([]byte(r.Trace), &entries); err != nil {
		return nil, fmt.Errorf("decode trace: %w", err)
	}
	return entries, nil
}

func marshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func traceDuration(entries []workflow.TraceEntry) time.Duration {
	var total time.Duration
	for _, e := range entries {
		total += e.Duration
	}
	return total
}
