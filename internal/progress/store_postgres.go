package progress

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the progress tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("pool is nil")
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create progress schema: %w", err)
	}
	return nil
}

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed progress store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

const selectProgress = `SELECT user_id, completed_lessons, completed_quizzes, completed_modules,
	unlocked_modules, completed_concepts, total_points, learning_streak, join_date
 FROM user_progress`

func (s *PostgresStore) GetProgress(ctx context.Context, userID string) (UserProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	p, err := scanProgress(s.pool.QueryRow(ctx, selectProgress+` WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserProgress{}, fmt.Errorf("user %s: %w", userID, ErrProgressNotFound)
		}
		return UserProgress{}, fmt.Errorf("get progress: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) SaveProgress(ctx context.Context, p UserProgress) error {
	if err := validateProgress(p); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_progress (user_id, completed_lessons, completed_quizzes, completed_modules,
		   unlocked_modules, completed_concepts, total_points, learning_streak, join_date, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET
		   completed_lessons  = EXCLUDED.completed_lessons,
		   completed_quizzes  = EXCLUDED.completed_quizzes,
		   completed_modules  = EXCLUDED.completed_modules,
		   unlocked_modules   = EXCLUDED.unlocked_modules,
		   completed_concepts = EXCLUDED.completed_concepts,
		   total_points       = EXCLUDED.total_points,
		   learning_streak    = EXCLUDED.learning_streak,
		   join_date          = EXCLUDED.join_date,
		   updated_at         = NOW()`,
		p.UserID,
		nonNil(p.CompletedLessons),
		nonNil(p.CompletedQuizzes),
		nonNil(p.CompletedModules),
		nonNil(p.UnlockedModules),
		p.CompletedConcepts,
		p.TotalPoints,
		p.LearningStreak,
		nullIfZeroTime(p.JoinDate),
	)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (s *PostgresStore) ApplyUnlock(ctx context.Context, userID, moduleID string, cost int) (UserProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	p, err := scanProgress(s.pool.QueryRow(ctx,
		`UPDATE user_progress
		 SET total_points = total_points - $3,
		     unlocked_modules = array_append(unlocked_modules, $2),
		     updated_at = NOW()
		 WHERE user_id = $1
		   AND total_points >= $3
		   AND NOT ($2 = ANY(unlocked_modules))
		 RETURNING user_id, completed_lessons, completed_quizzes, completed_modules,
		   unlocked_modules, completed_concepts, total_points, learning_streak, join_date`,
		userID, moduleID, cost,
	))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return UserProgress{}, fmt.Errorf("apply unlock: %w", err)
	}

	// Nothing updated: work out why.
	current, getErr := s.GetProgress(ctx, userID)
	if getErr != nil {
		if errors.Is(getErr, ErrProgressNotFound) {
			if cost > 0 {
				return UserProgress{UserID: userID}, ErrNotUnlockable
			}
			return s.insertUnlocked(ctx, userID, moduleID)
		}
		return UserProgress{}, getErr
	}
	if current.IsUnlocked(moduleID) {
		return current, ErrAlreadyUnlocked
	}
	return current, ErrNotUnlockable
}

// insertUnlocked records a free unlock for a learner with no stored progress.
func (s *PostgresStore) insertUnlocked(ctx context.Context, userID, moduleID string) (UserProgress, error) {
	p, err := scanProgress(s.pool.QueryRow(ctx,
		`INSERT INTO user_progress (user_id, unlocked_modules)
		 VALUES ($1, ARRAY[$2]::TEXT[])
		 ON CONFLICT (user_id) DO NOTHING
		 RETURNING user_id, completed_lessons, completed_quizzes, completed_modules,
		   unlocked_modules, completed_concepts, total_points, learning_streak, join_date`,
		userID, moduleID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		// Created concurrently; retry against the stored row.
		return s.ApplyUnlock(ctx, userID, moduleID, 0)
	}
	if err != nil {
		return UserProgress{}, fmt.Errorf("apply unlock: %w", err)
	}
	return p, nil
}

func scanProgress(row pgx.Row) (UserProgress, error) {
	var p UserProgress
	var joinDate *time.Time
	err := row.Scan(
		&p.UserID,
		&p.CompletedLessons,
		&p.CompletedQuizzes,
		&p.CompletedModules,
		&p.UnlockedModules,
		&p.CompletedConcepts,
		&p.TotalPoints,
		&p.LearningStreak,
		&joinDate,
	)
	if err != nil {
		return UserProgress{}, err
	}
	if joinDate != nil {
		p.JoinDate = *joinDate
	}
	return p, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nullIfZeroTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
