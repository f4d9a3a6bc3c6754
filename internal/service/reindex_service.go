package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/logger"
	"github.com/locvowork/hr_onboarding_portal/internal/policy"
	"github.com/locvowork/hr_onboarding_portal/internal/session"
	"github.com/locvowork/hr_onboarding_portal/pkg/dataflow"
)

const (
	reindexBatchSize = 200
	reindexWorkers   = 4
	reindexRetries   = 3
)

// ErrDirectoryDisabled is returned when no search directory is configured.
var ErrDirectoryDisabled = errors.New("search directory is not configured")

// ReindexResult reports a rebuild.
type ReindexResult struct {
	Indexed  int           `json:"indexed"`
	Removed  int           `json:"removed"`
	Duration time.Duration `json:"duration"`
}

// ReindexService rebuilds the directory from the employee store.
type ReindexService struct {
	employees domain.EmployeeRepository
	dir       domain.Directory
	backoff   func(int) time.Duration
}

// NewReindexService creates a ReindexService. dir may be nil, in which case Reindex fails.
func NewReindexService(employees domain.EmployeeRepository, dir domain.Directory) *ReindexService {
	return &ReindexService{
		employees: employees,
		dir:       dir,
		backoff:   func(attempt int) time.Duration { return time.Duration(attempt) * 200 * time.Millisecond },
	}
}

// ReindexAs runs Reindex on behalf of the super admin.
func (s *ReindexService) ReindexAs(ctx context.Context, actor session.Principal) (*ReindexResult, error) {
	if err := policy.RequireSuperAdmin(actor.Actor()); err != nil {
		return nil, err
	}
	return s.Reindex(ctx)
}

// Reindex bulk indexes every account in batches, then deletes index entries whose
// employee no longer exists. Batches that keep failing after retries fail the run.
func (s *ReindexService) Reindex(ctx context.Context) (*ReindexResult, error) {
	if s.dir == nil {
		return nil, ErrDirectoryDisabled
	}
	start := time.Now()

	emps, err := s.employees.List(ctx, domain.EmployeeFilter{})
	if err != nil {
		return nil, err
	}
	live := make(map[string]bool, len(emps))
	for i := range emps {
		live[emps[i].ID] = true
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := dataflow.Map(ctx, dataflow.From(ctx, emps...), func(e domain.Employee) (domain.DirectoryEntry, error) {
		return DirectoryEntry(&e), nil
	}, dataflow.WithBufferSize(reindexBatchSize))
	var indexed int64
	err = dataflow.ForEach(ctx, dataflow.Batch(ctx, entries, reindexBatchSize), func(batch []domain.DirectoryEntry) error {
		if err := s.dir.BulkIndex(ctx, batch); err != nil {
			logger.WarnLog(ctx, "bulk index of %d entries failed: %v", len(batch), err)
			return err
		}
		atomic.AddInt64(&indexed, int64(len(batch)))
		return nil
	}, dataflow.WithWorkers(reindexWorkers), dataflow.WithRetry(reindexRetries, s.backoff))
	if err != nil {
		return nil, fmt.Errorf("failed to reindex directory: %w", err)
	}

	ids, err := s.dir.IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed ids: %w", err)
	}
	var stale []string
	for _, id := range ids {
		if !live[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := s.dir.Delete(ctx, stale); err != nil {
			return nil, fmt.Errorf("failed to prune directory: %w", err)
		}
	}

	res := &ReindexResult{Indexed: int(indexed), Removed: len(stale), Duration: time.Since(start)}
	logger.InfoLog(ctx, "directory reindexed: %d indexed, %d removed in %v", res.Indexed, res.Removed, res.Duration)
	return res, nil
}
