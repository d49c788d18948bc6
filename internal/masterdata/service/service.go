package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	lookup "github.com/qctrack/qctrack-backend/internal/lookup/domain"
	"github.com/qctrack/qctrack-backend/internal/masterdata/domain"
	"github.com/qctrack/qctrack-backend/internal/masterdata/repository"
)

// Invalidator drops cached lookup lists after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, kinds ...lookup.Kind)
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context, ...lookup.Kind) {}

func orNop(inv Invalidator) Invalidator {
	if inv == nil {
		return nopInvalidator{}
	}
	return inv
}

// NamedService manages divisions, error categories or resource roles.
type NamedService struct {
	repo *repository.NamedRepository
	kind lookup.Kind
	inv  Invalidator
}

func NewNamedService(repo *repository.NamedRepository, kind lookup.Kind, inv Invalidator) *NamedService {
	return &NamedService{repo: repo, kind: kind, inv: orNop(inv)}
}

func (s *NamedService) List(ctx context.Context, includeInactive bool) ([]domain.Named, error) {
	return s.repo.List(ctx, includeInactive)
}

func (s *NamedService) Get(ctx context.Context, id int64) (*domain.Named, error) {
	return s.repo.Get(ctx, id)
}

func (s *NamedService) Create(ctx context.Context, in domain.NamedInput) (*domain.Named, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	n, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.inv.Invalidate(ctx, s.kind)
	return n, nil
}

func (s *NamedService) Update(ctx context.Context, id int64, in domain.NamedInput) (*domain.Named, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	n, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.inv.Invalidate(ctx, s.kind)
	return n, nil
}

func (s *NamedService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, s.kind)
	return nil
}

type ProductService struct {
	repo *repository.ProductRepository
	inv  Invalidator
}

func NewProductService(repo *repository.ProductRepository, inv Invalidator) *ProductService {
	return &ProductService{repo: repo, inv: orNop(inv)}
}

func (s *ProductService) List(ctx context.Context, f domain.ListFilter) ([]domain.Product, error) {
	return s.repo.List(ctx, f)
}

func (s *ProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *ProductService) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	p, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.inv.Invalidate(ctx, lookup.KindProducts)
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id int64, in domain.ProductInput) (*domain.Product, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	p, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.inv.Invalidate(ctx, lookup.KindProducts)
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, lookup.KindProducts)
	return nil
}

// ErrorSubCategoryService also guards that sub-categories are only created
// under a live category.
type ErrorSubCategoryService struct {
	repo       *repository.ErrorSubCategoryRepository
	categories *repository.NamedRepository
	inv        Invalidator
}

func NewErrorSubCategoryService(repo *repository.ErrorSubCategoryRepository, categories *repository.NamedRepository, inv Invalidator) *ErrorSubCategoryService {
	return &ErrorSubCategoryService{repo: repo, categories: categories, inv: orNop(inv)}
}

func (s *ErrorSubCategoryService) List(ctx context.Context, f domain.ListFilter) ([]domain.ErrorSubCategory, error) {
	return s.repo.List(ctx, f)
}

func (s *ErrorSubCategoryService) Get(ctx context.Context, id int64) (*domain.ErrorSubCategory, error) {
	return s.repo.Get(ctx, id)
}

func (s *ErrorSubCategoryService) Create(ctx context.Context, in domain.ErrorSubCategoryInput) (*domain.ErrorSubCategory, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}

	live, err := s.categories.IsLive(ctx, in.ErrorCategoryID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("error category %d: %w", in.ErrorCategoryID, errs.ErrInvalidReference)
	}
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, fmt.Errorf("error category %d is inactive: %w", in.ErrorCategoryID, errs.ErrInvalidReference)
	}

	e, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.inv.Invalidate(ctx, lookup.KindErrorSubCategories)
	return e, nil
}

func (s *ErrorSubCategoryService) Update(ctx context.Context, id int64, in domain.ErrorSubCategoryInput) (*domain.ErrorSubCategory, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	e, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.inv.Invalidate(ctx, lookup.KindErrorSubCategories)
	return e, nil
}

func (s *ErrorSubCategoryService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, lookup.KindErrorSubCategories)
	return nil
}

type DrawingDescriptionService struct {
	repo *repository.DrawingDescriptionRepository
	inv  Invalidator
}

func NewDrawingDescriptionService(repo *repository.DrawingDescriptionRepository, inv Invalidator) *DrawingDescriptionService {
	return &DrawingDescriptionService{repo: repo, inv: orNop(inv)}
}

func (s *DrawingDescriptionService) List(ctx context.Context, f domain.ListFilter) ([]domain.DrawingDescription, error) {
	return s.repo.List(ctx, f)
}

func (s *DrawingDescriptionService) Get(ctx context.Context, id int64) (*domain.DrawingDescription, error) {
	return s.repo.Get(ctx, id)
}

func (s *DrawingDescriptionService) Create(ctx context.Context, in domain.DrawingDescriptionInput) (*domain.DrawingDescription, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	d, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.inv.Invalidate(ctx, lookup.KindDrawingDescriptions)
	return d, nil
}

func (s *DrawingDescriptionService) Update(ctx context.Context, id int64, in domain.DrawingDescriptionInput) (*domain.DrawingDescription, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	d, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.inv.Invalidate(ctx, lookup.KindDrawingDescriptions)
	return d, nil
}

func (s *DrawingDescriptionService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, lookup.KindDrawingDescriptions)
	return nil
}

type ResourceService struct {
	repo *repository.ResourceRepository
	inv  Invalidator
}

func NewResourceService(repo *repository.ResourceRepository, inv Invalidator) *ResourceService {
	return &ResourceService{repo: repo, inv: orNop(inv)}
}

func (s *ResourceService) List(ctx context.Context, f domain.ResourceFilter) ([]domain.Resource, error) {
	return s.repo.List(ctx, f)
}

func (s *ResourceService) Get(ctx context.Context, id int64) (*domain.Resource, error) {
	return s.repo.Get(ctx, id)
}

func (s *ResourceService) Create(ctx context.Context, in domain.ResourceInput) (*domain.Resource, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	r, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.inv.Invalidate(ctx, lookup.KindResources)
	return r, nil
}

func (s *ResourceService) Update(ctx context.Context, id int64, in domain.ResourceInput) (*domain.Resource, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	r, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.inv.Invalidate(ctx, lookup.KindResources)
	return r, nil
}

func (s *ResourceService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.inv.Invalidate(ctx, lookup.KindResources)
	return nil
}
