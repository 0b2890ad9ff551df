package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type FeedbackType string

const (
	FeedbackIncorrect   FeedbackType = "incorrect"
	FeedbackImprovement FeedbackType = "improvement"
	FeedbackGeneral     FeedbackType = "general"
)

func (t FeedbackType) Valid() bool {
	switch t {
	case FeedbackIncorrect, FeedbackImprovement, FeedbackGeneral:
		return true
	}
	return false
}

var ErrInvalidFeedback = errors.New("invalid feedback")

// Feedback is a reader's note on a verdict or on the tool in general.
type Feedback struct {
	ID         uuid.UUID    `json:"id"`
	Type       FeedbackType `json:"type"`
	ClaimID    string       `json:"claim_id,omitempty"`
	ClaimText  string       `json:"claim_text,omitempty"`
	Assessment string       `json:"assessment,omitempty"`
	Message    string       `json:"feedback"`
	CreatedAt  time.Time    `json:"created_at"`
}

// FeedbackStore records feedback. Save fills in ID and CreatedAt.
type FeedbackStore interface {
	Save(ctx context.Context, f *Feedback) error
}

func stamp(f *Feedback) error {
	if !f.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidFeedback, f.Type)
	}
	if f.Message == "" {
		return fmt.Errorf("%w: feedback text is required", ErrInvalidFeedback)
	}
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	return nil
}

// LogFeedbackStore writes feedback to the log only. It is used when no
// database is configured.
type LogFeedbackStore struct {
	logger *zap.Logger
}

func NewLogFeedbackStore(logger *zap.Logger) *LogFeedbackStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogFeedbackStore{logger: logger}
}

func (s *LogFeedbackStore) Save(ctx context.Context, f *Feedback) error {
	if err := stamp(f); err != nil {
		return err
	}
	s.logger.Info("feedback received",
		zap.String("id", f.ID.String()),
		zap.String("type", string(f.Type)),
		zap.String("claim_id", f.ClaimID),
		zap.String("assessment", f.Assessment),
		zap.String("feedback", f.Message))
	return nil
}

type PostgresFeedbackStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresFeedbackStore creates the feedback table if it does not exist.
func NewPostgresFeedbackStore(ctx context.Context, db *sql.DB, logger *zap.Logger) (*PostgresFeedbackStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PostgresFeedbackStore{db: db, logger: logger}
	if err := s.createTables(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresFeedbackStore) createTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS feedback (
		id UUID PRIMARY KEY,
		type VARCHAR(20) NOT NULL,
		claim_id TEXT,
		claim_text TEXT,
		assessment VARCHAR(40),
		feedback TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS feedback_created_at_idx ON feedback (created_at);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating feedback table: %w", err)
	}
	s.logger.Info("Feedback table ready")
	return nil
}

func (s *PostgresFeedbackStore) Save(ctx context.Context, f *Feedback) error {
	if err := stamp(f); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (id, type, claim_id, claim_text, assessment, feedback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, string(f.Type), f.ClaimID, f.ClaimText, f.Assessment, f.Message, f.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			s.logger.Error("feedback insert failed",
				zap.String("code", string(pqErr.Code)), zap.String("detail", pqErr.Detail))
		}
		return fmt.Errorf("saving feedback: %w", err)
	}
	return nil
}

// Ping reports whether the database answers.
func (s *PostgresFeedbackStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}
