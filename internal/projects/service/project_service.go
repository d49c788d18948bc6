package service

import (
	"context"
	"fmt"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	lookup "github.com/qctrack/qctrack-backend/internal/lookup/domain"
	"github.com/qctrack/qctrack-backend/internal/projects/domain"
	"github.com/qctrack/qctrack-backend/internal/projects/repository"
)

// Invalidator drops cached lookup lists after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, kinds ...lookup.Kind)
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context, ...lookup.Kind) {}

type ProjectService struct {
	repo *repository.ProjectRepository
	inv  Invalidator
}

func NewProjectService(repo *repository.ProjectRepository, inv Invalidator) *ProjectService {
	if inv == nil {
		inv = nopInvalidator{}
	}
	return &ProjectService{repo: repo, inv: inv}
}

func (s *ProjectService) List(ctx context.Context, f domain.ProjectFilter) ([]domain.Project, error) {
	if f.Status != nil && !domain.ProjectStatus(*f.Status).Valid() {
		return nil, errs.Invalid(fmt.Sprintf("unknown project status %q", *f.Status))
	}
	return s.repo.List(ctx, f)
}

func (s *ProjectService) Get(ctx context.Context, id int64) (*domain.Project, error) {
	return s.repo.Get(ctx, id)
}

func (s *ProjectService) Create(ctx context.Context, in domain.ProjectInput) (*domain.Project, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	p, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.inv.Invalidate(ctx, lookup.KindProjects)
	return p, nil
}

func (s *ProjectService) Update(ctx context.Context, id int64, in domain.ProjectInput) (*domain.Project, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	p, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.inv.Invalidate(ctx, lookup.KindProjects)
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, lookup.KindProjects)
	return nil
}
