package service

import (
	"context"
	"fmt"
	"time"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/dates"
	"github.com/qctrack/qctrack-backend/internal/projects/domain"
	"github.com/qctrack/qctrack-backend/internal/projects/repository"
)

type ActivityService struct {
	repo *repository.ActivityRepository
	now  func() time.Time
}

func NewActivityService(repo *repository.ActivityRepository) *ActivityService {
	return &ActivityService{repo: repo, now: time.Now}
}

func (s *ActivityService) List(ctx context.Context, f domain.ActivityFilter) ([]domain.Activity, error) {
	if f.Status != nil && !domain.ActivityStatus(*f.Status).Valid() {
		return nil, errs.Invalid(fmt.Sprintf("unknown activity status %q", *f.Status))
	}
	return s.repo.List(ctx, f)
}

func (s *ActivityService) Get(ctx context.Context, id int64) (*domain.Activity, error) {
	return s.repo.Get(ctx, id)
}

func (s *ActivityService) Create(ctx context.Context, in domain.ActivityInput) (*domain.Activity, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in)
}

func (s *ActivityService) Update(ctx context.Context, id int64, in domain.ActivityInput) (*domain.Activity, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, in)
}

func (s *ActivityService) Delete(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}

// ChangeStatus moves an activity along the workflow. The first move to
// InProgress stamps actualStart and the move to Delivered stamps actualEnd.
func (s *ActivityService) ChangeStatus(ctx context.Context, id int64, to domain.ActivityStatus) (*domain.Activity, error) {
	if !to.Valid() {
		return nil, errs.Invalid(fmt.Sprintf("unknown activity status %q", to))
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%s -> %s: %w", current.Status, to, errs.ErrInvalidTransition)
	}

	today := dates.UTC(s.now())
	actualStart, actualEnd := current.ActualStart, current.ActualEnd
	if to == domain.ActivityInProgress && actualStart == nil {
		actualStart = &today
	}
	if to == domain.ActivityDelivered {
		actualEnd = &today
	}
	return s.repo.UpdateStatus(ctx, id, current.Status, to, actualStart, actualEnd)
}
