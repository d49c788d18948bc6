package auth

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/qctrack/qctrack-backend/internal/auth/rbac"
)

const CtxPrincipal = "principal"

// Identity is what the caller proved: a Firebase uid plus profile claims.
// DefaultRole is used when a user is provisioned on first sight. Email may
// only be matched against existing accounts when EmailVerified is set.
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
	DefaultRole   rbac.Role
}

// Principal is the authenticated caller as stored in the users table.
type Principal struct {
	UserID      int64     `json:"userId"`
	FirebaseUID string    `json:"firebaseUid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        rbac.Role `json:"role"`
	IsLive      bool      `json:"isLive"`
}

// Resolver maps identities to principals and loads explicit permission rows.
type Resolver interface {
	Resolve(ctx context.Context, id Identity) (*Principal, error)
	Permissions(ctx context.Context, userID int64) ([]rbac.Permission, error)
}

// PrincipalFrom returns the principal stored by Authenticate.
func PrincipalFrom(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(CtxPrincipal)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok && p != nil
}

// UserID returns the caller's users.id, or 0 when unauthenticated.
func UserID(c *gin.Context) int64 {
	if p, ok := PrincipalFrom(c); ok {
		return p.UserID
	}
	return 0
}
