package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/auth"
	"github.com/qctrack/qctrack-backend/internal/auth/rbac"
	"github.com/qctrack/qctrack-backend/internal/users/domain"
	"github.com/qctrack/qctrack-backend/internal/users/repository"
)

type UserService struct {
	repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) List(ctx context.Context, f domain.UserFilter) ([]domain.User, error) {
	return s.repo.List(ctx, f)
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.Get(ctx, id)
}

func (s *UserService) Create(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in, nil)
}

func (s *UserService) Update(ctx context.Context, id int64, in domain.UserInput) (*domain.User, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, in)
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}

// EnsureFirebaseUser finds the account for a Firebase uid, links an existing
// account with the same verified email on its first sign-in, or provisions a
// new one with the identity's default role. An unverified email never claims
// an address: it cannot link an existing account and is not stored on a new
// one. Every path stamps last_login_at.
func (s *UserService) EnsureFirebaseUser(ctx context.Context, id auth.Identity) (*domain.User, error) {
	uid := strings.TrimSpace(id.UID)
	email := strings.ToLower(strings.TrimSpace(id.Email))
	name := strings.TrimSpace(id.Name)
	defaultRole := id.DefaultRole
	if uid == "" {
		return nil, errs.Invalid("firebase uid is required")
	}

	u, err := s.repo.GetByFirebaseUID(ctx, uid)
	if err == nil {
		return s.repo.TouchLogin(ctx, u.ID, name)
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	if email != "" {
		existing, err := s.repo.GetByEmail(ctx, email)
		switch {
		case err == nil && !id.EmailVerified:
			return nil, fmt.Errorf("email %s must be verified before signing in to existing account %d: %w",
				email, existing.ID, errs.ErrForbidden)
		case err == nil:
			linked, err := s.repo.LinkFirebase(ctx, existing.ID, uid)
			if errors.Is(err, errs.ErrNotFound) {
				return nil, fmt.Errorf("email %s is linked to another account: %w", email, errs.ErrConflict)
			}
			return linked, err
		case !errors.Is(err, errs.ErrNotFound):
			return nil, err
		}
	}
	if email == "" || !id.EmailVerified {
		email = uid + "@users.invalid"
	}

	if !rbac.ValidRole(string(defaultRole)) {
		defaultRole = rbac.RoleUser
	}
	in := domain.UserInput{Email: email, DisplayName: name, Role: string(defaultRole)}
	created, err := s.repo.Create(ctx, in, &uid)
	if errors.Is(err, errs.ErrConflict) {
		// a concurrent first request created it
		u, getErr := s.repo.GetByFirebaseUID(ctx, uid)
		if getErr == nil {
			return u, nil
		}
	}
	return created, err
}

// Resolve implements auth.Resolver.
func (s *UserService) Resolve(ctx context.Context, id auth.Identity) (*auth.Principal, error) {
	u, err := s.EnsureFirebaseUser(ctx, id)
	if err != nil {
		return nil, err
	}
	uid := ""
	if u.FirebaseUID != nil {
		uid = *u.FirebaseUID
	}
	return &auth.Principal{
		UserID:      u.ID,
		FirebaseUID: uid,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		IsLive:      u.IsLive,
	}, nil
}

// Permissions returns the explicit permission rows of a user.
func (s *UserService) Permissions(ctx context.Context, userID int64) ([]rbac.Permission, error) {
	return s.repo.Permissions(ctx, userID)
}

// GetPermissions returns the explicit rows of an existing user.
func (s *UserService) GetPermissions(ctx context.Context, userID int64) ([]rbac.Permission, error) {
	if _, err := s.repo.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.Permissions(ctx, userID)
}

func (s *UserService) ReplacePermissions(ctx context.Context, userID int64, perms []rbac.Permission) ([]rbac.Permission, error) {
	if err := domain.ValidatePermissions(perms); err != nil {
		return nil, err
	}
	if _, err := s.repo.Get(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.ReplacePermissions(ctx, userID, perms); err != nil {
		return nil, err
	}
	return s.repo.Permissions(ctx, userID)
}

// Me returns the caller's profile with the permissions in effect.
func (s *UserService) Me(ctx context.Context, userID int64) (*domain.Profile, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	perms, err := s.repo.Permissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.Profile{User: u, Permissions: rbac.Effective(u.Role, perms)}, nil
}
