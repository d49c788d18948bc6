package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/logging"
	"github.com/qctrack/qctrack-backend/internal/qc/domain"
	"github.com/qctrack/qctrack-backend/internal/qc/repository"
)

// BlobStore keeps attachment files.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string) (string, time.Time, error)
	Delete(ctx context.Context, key string) error
}

// Upload describes an attachment file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type DiscrepancyService struct {
	repo  *repository.DiscrepancyRepository
	blobs BlobStore
	now   func() time.Time
	newID func() string
}

// NewDiscrepancyService builds the service. blobs may be nil when no bucket is
// configured; attachment calls then fail with ErrUnavailable.
func NewDiscrepancyService(repo *repository.DiscrepancyRepository, blobs BlobStore) *DiscrepancyService {
	return &DiscrepancyService{
		repo:  repo,
		blobs: blobs,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

func (s *DiscrepancyService) List(ctx context.Context, f domain.DiscrepancyFilter) ([]domain.Discrepancy, error) {
	if f.Status != nil && !domain.DiscrepancyStatus(*f.Status).Valid() {
		return nil, errs.Invalid(fmt.Sprintf("unknown discrepancy status %q", *f.Status))
	}
	return s.repo.List(ctx, f)
}

func (s *DiscrepancyService) Get(ctx context.Context, id int64) (*domain.Discrepancy, error) {
	return s.repo.Get(ctx, id)
}

func (s *DiscrepancyService) Create(ctx context.Context, in domain.DiscrepancyInput) (*domain.Discrepancy, error) {
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in, s.now().UTC())
}

func (s *DiscrepancyService) Update(ctx context.Context, id int64, in domain.DiscrepancyInput) (*domain.Discrepancy, error) {
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, in)
}

func (s *DiscrepancyService) Delete(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}

// validate normalizes in and checks that the sub-category, when given,
// belongs to the chosen category.
func (s *DiscrepancyService) validate(ctx context.Context, in *domain.DiscrepancyInput) error {
	if err := in.Normalize(); err != nil {
		return err
	}
	if in.ErrorSubCategoryID == nil {
		return nil
	}
	parent, err := s.repo.SubCategoryParent(ctx, *in.ErrorSubCategoryID)
	if errors.Is(err, errs.ErrNotFound) {
		return fmt.Errorf("error sub-category %d: %w", *in.ErrorSubCategoryID, errs.ErrInvalidReference)
	}
	if err != nil {
		return err
	}
	if parent != in.ErrorCategoryID {
		return fmt.Errorf("error sub-category %d does not belong to category %d: %w",
			*in.ErrorSubCategoryID, in.ErrorCategoryID, errs.ErrInvalidReference)
	}
	return nil
}

// ChangeStatus applies a workflow move. Closed and Rejected stamp closedAt;
// reopening clears it.
func (s *DiscrepancyService) ChangeStatus(ctx context.Context, id int64, change domain.DiscrepancyStatusChange) (*domain.Discrepancy, error) {
	if !change.Status.Valid() {
		return nil, errs.Invalid(fmt.Sprintf("unknown discrepancy status %q", change.Status))
	}
	if change.Remarks != nil {
		trimmed := strings.TrimSpace(*change.Remarks)
		change.Remarks = &trimmed
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(change.Status) {
		return nil, fmt.Errorf("%s -> %s: %w", current.Status, change.Status, errs.ErrInvalidTransition)
	}

	var closedAt *time.Time
	if change.Status.Final() {
		now := s.now().UTC()
		closedAt = &now
	}
	return s.repo.UpdateStatus(ctx, id, current.Status, change.Status, change.Remarks, closedAt)
}

// Attach uploads a file for the discrepancy and records its key. A previous
// attachment is removed best-effort.
func (s *DiscrepancyService) Attach(ctx context.Context, id int64, up Upload) (*domain.Discrepancy, error) {
	if s.blobs == nil {
		return nil, fmt.Errorf("attachment storage: %w", errs.ErrUnavailable)
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("discrepancies/%d/%s-%s", id, s.newID(), safeName(up.Filename))
	if err := s.blobs.Put(ctx, key, up.Body, up.Size, up.ContentType); err != nil {
		return nil, err
	}

	log := logging.FromContext(ctx)
	d, err := s.repo.SetAttachment(ctx, id, key)
	if err != nil {
		if derr := s.blobs.Delete(ctx, key); derr != nil {
			log.Warn("orphaned attachment", zap.String("key", key), zap.Error(derr))
		}
		return nil, err
	}
	if current.AttachmentKey != "" && current.AttachmentKey != key {
		if err := s.blobs.Delete(ctx, current.AttachmentKey); err != nil {
			log.Warn("failed to delete replaced attachment",
				zap.Int64("discrepancy_id", id), zap.String("key", current.AttachmentKey), zap.Error(err))
		}
	}
	return d, nil
}

// Attachment returns a presigned download link for the stored file.
func (s *DiscrepancyService) Attachment(ctx context.Context, id int64) (*domain.Attachment, error) {
	if s.blobs == nil {
		return nil, fmt.Errorf("attachment storage: %w", errs.ErrUnavailable)
	}
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.AttachmentKey == "" {
		return nil, fmt.Errorf("discrepancy %d has no attachment: %w", id, errs.ErrNotFound)
	}
	url, expiresAt, err := s.blobs.PresignGet(ctx, d.AttachmentKey)
	if err != nil {
		return nil, err
	}
	return &domain.Attachment{Key: d.AttachmentKey, URL: url, ExpiresAt: expiresAt}, nil
}

func safeName(filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "attachment"
	}
	return strings.ReplaceAll(name, " ", "_")
}
