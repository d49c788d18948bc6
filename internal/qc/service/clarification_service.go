package service

import (
	"context"
	"fmt"
	"time"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/qc/domain"
	"github.com/qctrack/qctrack-backend/internal/qc/repository"
)

type ClarificationService struct {
	repo *repository.ClarificationRepository
	now  func() time.Time
}

func NewClarificationService(repo *repository.ClarificationRepository) *ClarificationService {
	return &ClarificationService{repo: repo, now: time.Now}
}

func (s *ClarificationService) List(ctx context.Context, f domain.ClarificationFilter) ([]domain.Clarification, error) {
	if f.Status != nil && !domain.ClarificationStatus(*f.Status).Valid() {
		return nil, errs.Invalid(fmt.Sprintf("unknown clarification status %q", *f.Status))
	}
	return s.repo.List(ctx, f)
}

func (s *ClarificationService) Get(ctx context.Context, id int64) (*domain.Clarification, error) {
	return s.repo.Get(ctx, id)
}

func (s *ClarificationService) Create(ctx context.Context, in domain.ClarificationInput) (*domain.Clarification, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in, s.now().UTC())
}

func (s *ClarificationService) Update(ctx context.Context, id int64, in domain.ClarificationInput) (*domain.Clarification, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, in)
}

func (s *ClarificationService) Delete(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}

// Respond answers an Open clarification.
func (s *ClarificationService) Respond(ctx context.Context, id int64, in domain.ClarificationResponse) (*domain.Clarification, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	if err := s.expect(ctx, id, domain.ClarificationOpen, domain.ClarificationAnswered); err != nil {
		return nil, err
	}
	return s.repo.Respond(ctx, id, in, s.now().UTC())
}

func (s *ClarificationService) Close(ctx context.Context, id int64) (*domain.Clarification, error) {
	if err := s.expect(ctx, id, domain.ClarificationAnswered, domain.ClarificationClosed); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	return s.repo.UpdateStatus(ctx, id, domain.ClarificationAnswered, domain.ClarificationClosed, &now)
}

// Reopen sends an answered clarification back to Open.
func (s *ClarificationService) Reopen(ctx context.Context, id int64) (*domain.Clarification, error) {
	if err := s.expect(ctx, id, domain.ClarificationAnswered, domain.ClarificationOpen); err != nil {
		return nil, err
	}
	return s.repo.UpdateStatus(ctx, id, domain.ClarificationAnswered, domain.ClarificationOpen, nil)
}

func (s *ClarificationService) expect(ctx context.Context, id int64, from, to domain.ClarificationStatus) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != from {
		return fmt.Errorf("%s -> %s: %w", c.Status, to, errs.ErrInvalidTransition)
	}
	return nil
}
