package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/auth/rbac"
)

// User is an application account. FirebaseUID is nil until the account has
// signed in at least once.
type User struct {
	ID          int64      `json:"id"`
	FirebaseUID *string    `json:"firebaseUid"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Role        rbac.Role  `json:"role"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
	IsLive      bool       `json:"isLive"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Profile is the caller's own record plus the permissions in effect.
type Profile struct {
	*User
	Permissions []rbac.Permission `json:"permissions"`
}

type UserInput struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	IsLive      *bool  `json:"isLive"`
}

func (in *UserInput) Normalize() error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.Role = strings.TrimSpace(in.Role)
	if in.Role == "" {
		in.Role = string(rbac.RoleUser)
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return errs.Invalid("a valid email is required")
	}
	if !rbac.ValidRole(in.Role) {
		return errs.Invalid(fmt.Sprintf("unknown role %q", in.Role))
	}
	return nil
}

type UserFilter struct {
	IncludeInactive bool
	Role            *string
}

// ValidatePermissions rejects unknown or repeated modules.
func ValidatePermissions(perms []rbac.Permission) error {
	seen := make(map[rbac.Module]bool, len(perms))
	for _, p := range perms {
		if !rbac.ValidModule(string(p.Module)) {
			return errs.Invalid(fmt.Sprintf("unknown module %q", p.Module))
		}
		if seen[p.Module] {
			return errs.Invalid(fmt.Sprintf("module %q listed twice", p.Module))
		}
		seen[p.Module] = true
	}
	return nil
}
