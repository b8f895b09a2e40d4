package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/pai-finlit/internal/catalog"
)

// ErrModuleNotFound is returned when a module id is not in the catalog.
var ErrModuleNotFound = errors.New("module not found")

// ModuleSource provides module definitions. *catalog.Loader satisfies it.
type ModuleSource interface {
	Modules(ctx context.Context) []catalog.Module
	Module(ctx context.Context, id string) (catalog.Module, bool)
}

// ModuleSummary pairs a module's display metadata with its derived status.
type ModuleSummary struct {
	Module catalog.ModuleMetadata `json:"module"`
	Status ModuleStatus           `json:"status"`
}

// Dashboard is the per-learner overview of every module.
type Dashboard struct {
	UserID           string          `json:"userId"`
	Modules          []ModuleSummary `json:"modules"`
	OverallProgress  int             `json:"overallProgress"`
	CompletedLessons int             `json:"completedLessons"`
	TotalPoints      int             `json:"totalPoints"`
}

// Service combines the catalog, the progress store, and the pure engine.
type Service struct {
	modules ModuleSource
	store   Store
	events  EventLogger
}

// NewService creates a progress service. A nil store or event logger falls
// back to the in-memory store and the no-op logger.
func NewService(modules ModuleSource, store Store, events EventLogger) *Service {
	if store == nil {
		store = NewMemoryStore()
	}
	if events == nil {
		events = NopEventLogger{}
	}
	return &Service{
		modules: modules,
		store:   store,
		events:  events,
	}
}

// Progress returns the learner's snapshot. Unknown learners get an empty
// snapshot.
func (s *Service) Progress(ctx context.Context, userID string) (UserProgress, error) {
	p, err := s.store.GetProgress(ctx, userID)
	if errors.Is(err, ErrProgressNotFound) {
		return UserProgress{UserID: userID}, nil
	}
	if err != nil {
		return UserProgress{}, fmt.Errorf("loading progress: %w", err)
	}
	return p, nil
}

// SaveProgress stores a snapshot supplied by the identity layer. Snapshots
// that fail validation are rejected with ErrInvalidProgress before the store
// is touched.
func (s *Service) SaveProgress(ctx context.Context, p UserProgress) error {
	if err := validateProgress(p); err != nil {
		return err
	}
	if err := s.store.SaveProgress(ctx, p); err != nil {
		return fmt.Errorf("saving progress: %w", err)
	}
	return nil
}

// ModuleStatus computes the status of one module for a learner.
func (s *Service) ModuleStatus(ctx context.Context, userID, moduleID string) (ModuleStatus, error) {
	m, ok := s.modules.Module(ctx, moduleID)
	if !ok {
		return ModuleStatus{}, fmt.Errorf("%s: %w", moduleID, ErrModuleNotFound)
	}
	p, err := s.Progress(ctx, userID)
	if err != nil {
		return ModuleStatus{}, err
	}
	return GetModuleStatus(moduleID, m, p), nil
}

// Dashboard computes statuses for every module in catalog order.
func (s *Service) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	p, err := s.Progress(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	return BuildDashboard(s.modules.Modules(ctx), p), nil
}

// BuildDashboard computes a dashboard from a module list and a snapshot.
func BuildDashboard(modules []catalog.Module, p UserProgress) Dashboard {
	d := Dashboard{
		UserID:           p.UserID,
		Modules:          make([]ModuleSummary, 0, len(modules)),
		OverallProgress:  OverallProgress(modules, p),
		CompletedLessons: len(p.CompletedLessons),
		TotalPoints:      p.TotalPoints,
	}
	for _, m := range modules {
		d.Modules = append(d.Modules, ModuleSummary{
			Module: m.Metadata(),
			Status: GetModuleStatus(m.ID, m, p),
		})
	}
	return d
}

// UnlockModule spends the learner's points to unlock a module and returns
// the module's new status.
func (s *Service) UnlockModule(ctx context.Context, userID, moduleID string) (ModuleStatus, error) {
	m, ok := s.modules.Module(ctx, moduleID)
	if !ok {
		return ModuleStatus{}, fmt.Errorf("%s: %w", moduleID, ErrModuleNotFound)
	}
	p, err := s.Progress(ctx, userID)
	if err != nil {
		return ModuleStatus{}, err
	}

	cost, err := UnlockPrice(moduleID, m, p)
	if err != nil {
		s.logEvent(ctx, Event{
			UserID:    userID,
			ModuleID:  moduleID,
			EventType: EventUnlockRejected,
			Data:      map[string]any{"reason": err.Error(), "total_points": p.TotalPoints},
		})
		return GetModuleStatus(moduleID, m, p), err
	}

	next, err := s.store.ApplyUnlock(ctx, userID, moduleID, cost)
	if err != nil {
		if errors.Is(err, ErrNotUnlockable) || errors.Is(err, ErrAlreadyUnlocked) {
			return GetModuleStatus(moduleID, m, next), err
		}
		return ModuleStatus{}, fmt.Errorf("unlocking %s: %w", moduleID, err)
	}

	s.logEvent(ctx, Event{
		UserID:    userID,
		ModuleID:  moduleID,
		EventType: EventModuleUnlocked,
		Data:      map[string]any{"cost": cost, "remaining_points": next.TotalPoints},
	})
	slog.Info("module unlocked", "user_id", userID, "module_id", moduleID, "cost", cost)

	return GetModuleStatus(moduleID, m, next), nil
}

func (s *Service) logEvent(ctx context.Context, e Event) {
	if err := s.events.LogEvent(ctx, e); err != nil {
		slog.Warn("failed to log progress event", "type", e.EventType, "error", err)
	}
}
