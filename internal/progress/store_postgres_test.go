package progress_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/p-n-ai/pai-finlit/internal/progress"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := t.Context()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("finlit"),
		postgres.WithUsername("finlit"),
		postgres.WithPassword("finlit"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("ConnectionString() error = %v", err)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New() error = %v", err)
	}
	t.Cleanup(pool.Close)

	if err := progress.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return pool
}

func TestPostgresStore(t *testing.T) {
	pool := newTestPool(t)
	ctx := t.Context()

	store, err := progress.NewPostgresStore(pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}

	if _, err := store.GetProgress(ctx, "u1"); !errors.Is(err, progress.ErrProgressNotFound) {
		t.Fatalf("GetProgress() error = %v, want ErrProgressNotFound", err)
	}

	joined := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	in := progress.UserProgress{
		UserID:           "u1",
		CompletedLessons: []string{"budgeting-1", "budgeting-2"},
		CompletedQuizzes: []string{"budgeting_quiz_attempt1"},
		TotalPoints:      600,
		LearningStreak:   4,
		JoinDate:         joined,
	}
	if err := store.SaveProgress(ctx, in); err != nil {
		t.Fatalf("SaveProgress() error = %v", err)
	}

	got, err := store.GetProgress(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProgress() error = %v", err)
	}
	if len(got.CompletedLessons) != 2 || got.TotalPoints != 600 || got.LearningStreak != 4 {
		t.Errorf("GetProgress() = %+v", got)
	}
	if !got.JoinDate.Equal(joined) {
		t.Errorf("JoinDate = %v, want %v", got.JoinDate, joined)
	}
	if got.CompletedConcepts != nil {
		t.Errorf("CompletedConcepts = %v, want nil", got.CompletedConcepts)
	}

	after, err := store.ApplyUnlock(ctx, "u1", "investing", 500)
	if err != nil {
		t.Fatalf("ApplyUnlock() error = %v", err)
	}
	if after.TotalPoints != 100 || !after.IsUnlocked("investing") {
		t.Errorf("ApplyUnlock() = %+v", after)
	}

	if _, err := store.ApplyUnlock(ctx, "u1", "investing", 0); !errors.Is(err, progress.ErrAlreadyUnlocked) {
		t.Errorf("repeat ApplyUnlock() error = %v, want ErrAlreadyUnlocked", err)
	}
	if _, err := store.ApplyUnlock(ctx, "u1", "credit", 101); !errors.Is(err, progress.ErrNotUnlockable) {
		t.Errorf("ApplyUnlock() over balance error = %v, want ErrNotUnlockable", err)
	}
	if _, err := store.ApplyUnlock(ctx, "ghost", "credit", 10); !errors.Is(err, progress.ErrNotUnlockable) {
		t.Errorf("ApplyUnlock() unknown user error = %v, want ErrNotUnlockable", err)
	}
	free, err := store.ApplyUnlock(ctx, "ghost", "intro", 0)
	if err != nil {
		t.Fatalf("free ApplyUnlock() error = %v", err)
	}
	if !free.IsUnlocked("intro") {
		t.Errorf("free ApplyUnlock() = %+v, want intro unlocked", free)
	}
	negative := progress.UserProgress{UserID: "u1", TotalPoints: -5}
	if err := store.SaveProgress(ctx, negative); !errors.Is(err, progress.ErrInvalidProgress) {
		t.Errorf("SaveProgress(negative points) error = %v, want ErrInvalidProgress", err)
	}
}

func TestPostgresEventLogger(t *testing.T) {
	pool := newTestPool(t)
	ctx := t.Context()

	logger := progress.NewPostgresEventLogger(pool)
	err := logger.LogEvent(ctx, progress.Event{
		UserID:    "u1",
		ModuleID:  "investing",
		EventType: progress.EventModuleUnlocked,
		Data:      map[string]any{"cost": 500},
	})
	if err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM progress_events WHERE user_id = $1`, "u1").Scan(&count); err != nil {
		t.Fatalf("counting events: %v", err)
	}
	if count != 1 {
		t.Errorf("event count = %d, want 1", count)
	}
}
