package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/qctrack/qctrack-backend/internal/lookup/cache"
	"github.com/qctrack/qctrack-backend/internal/lookup/domain"
	"github.com/qctrack/qctrack-backend/internal/metrics"
)

type Loader interface {
	Load(ctx context.Context, kind domain.Kind, parentID *int64) ([]domain.Option, error)
}

// LookupService serves option lists cache-aside. A nil cache means every read
// goes to the database.
type LookupService struct {
	repo  Loader
	cache *cache.Cache
	log   *zap.Logger
}

func NewLookupService(repo Loader, c *cache.Cache, log *zap.Logger) *LookupService {
	if log == nil {
		log = zap.NewNop()
	}
	return &LookupService{repo: repo, cache: c, log: log}
}

// Options returns the live options of kind. parentID is ignored for kinds
// without a parent.
func (s *LookupService) Options(ctx context.Context, kind domain.Kind, parentID *int64) ([]domain.Option, error) {
	if !kind.HasParent() {
		parentID = nil
	}
	if s.cache == nil {
		return s.repo.Load(ctx, kind, parentID)
	}

	opts, hit, err := s.cache.Get(ctx, kind, parentID)
	switch {
	case err != nil:
		metrics.LookupCacheTotal.WithLabelValues(string(kind), "error").Inc()
		s.log.Warn("lookup cache read failed", zap.String("kind", string(kind)), zap.Error(err))
	case hit:
		metrics.LookupCacheTotal.WithLabelValues(string(kind), "hit").Inc()
		return opts, nil
	default:
		metrics.LookupCacheTotal.WithLabelValues(string(kind), "miss").Inc()
	}

	gen, genErr := s.cache.Generation(ctx, kind)
	opts, err = s.repo.Load(ctx, kind, parentID)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return opts, nil
	}
	// An invalidation that lands while Load runs bumps the generation and the
	// write below is skipped.
	if _, err := s.cache.Set(ctx, kind, parentID, gen, opts); err != nil {
		s.log.Warn("lookup cache write failed", zap.String("kind", string(kind)), zap.Error(err))
	}
	return opts, nil
}

// Invalidate drops the cached lists of every given kind. Failures are logged;
// the database stays the source of truth.
func (s *LookupService) Invalidate(ctx context.Context, kinds ...domain.Kind) {
	if s.cache == nil {
		return
	}
	for _, kind := range kinds {
		removed, err := s.cache.Invalidate(ctx, kind)
		if err != nil {
			s.log.Warn("lookup invalidation failed", zap.String("kind", string(kind)), zap.Error(err))
			continue
		}
		s.log.Debug("lookup invalidated", zap.String("kind", string(kind)), zap.Int("keys", removed))
	}
}

// Warm reloads the unfiltered list of every kind into the cache.
func (s *LookupService) Warm(ctx context.Context) error {
	if s.cache == nil {
		s.log.Info("lookup cache disabled, nothing to warm")
		return nil
	}

	var errs []error
	for _, kind := range domain.Kinds {
		if err := s.warmKind(ctx, kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *LookupService) warmKind(ctx context.Context, kind domain.Kind) error {
	gen, err := s.cache.Generation(ctx, kind)
	if err != nil {
		return fmt.Errorf("warm %s: %w", kind, err)
	}
	opts, err := s.repo.Load(ctx, kind, nil)
	if err != nil {
		return fmt.Errorf("warm %s: %w", kind, err)
	}
	if _, err := s.cache.Set(ctx, kind, nil, gen, opts); err != nil {
		return fmt.Errorf("warm %s: %w", kind, err)
	}
	return nil
}

// Listen re-warms the unfiltered list of each kind announced on the
// invalidation channel until ctx is done. Parent-filtered lists were deleted
// by the invalidation and fill again on their next read.
func (s *LookupService) Listen(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Subscribe(ctx, func(kind domain.Kind) {
		if err := s.warmKind(ctx, kind); err != nil {
			s.log.Warn("lookup re-warm failed", zap.String("kind", string(kind)), zap.Error(err))
		}
	})
}
