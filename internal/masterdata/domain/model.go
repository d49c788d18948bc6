// Package domain defines the master-data records: divisions, products, error
// categories and sub-categories, drawing descriptions, resources and resource
// roles.
package domain

import (
	"strings"
	"time"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
)

// Named is the shape shared by divisions, error categories and resource roles.
type Named struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsLive      bool      `json:"isLive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type (
	Division      = Named
	ErrorCategory = Named
	ResourceRole  = Named
)

type Product struct {
	ID          int64     `json:"id"`
	DivisionID  int64     `json:"divisionId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsLive      bool      `json:"isLive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ErrorSubCategory struct {
	ID              int64     `json:"id"`
	ErrorCategoryID int64     `json:"errorCategoryId"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	IsLive          bool      `json:"isLive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type DrawingDescription struct {
	ID          int64     `json:"id"`
	ProductID   *int64    `json:"productId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsLive      bool      `json:"isLive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Resource struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	EmployeeCode   string    `json:"employeeCode"`
	ResourceRoleID int64     `json:"resourceRoleId"`
	DivisionID     *int64    `json:"divisionId"`
	IsLive         bool      `json:"isLive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ListFilter narrows a GetAll. ParentID is the division for products, the
// category for sub-categories and the product for drawing descriptions.
type ListFilter struct {
	IncludeInactive bool
	ParentID        *int64
}

type ResourceFilter struct {
	IncludeInactive bool
	ResourceRoleID  *int64
	DivisionID      *int64
}

// Inputs carry the editable fields of a create or update. IsLive is only
// honoured on update; nil keeps the current value.

type NamedInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsLive      *bool  `json:"isLive"`
}

func (in *NamedInput) Normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return errs.Invalid("name is required")
	}
	return nil
}

type ProductInput struct {
	DivisionID  int64  `json:"divisionId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsLive      *bool  `json:"isLive"`
}

func (in *ProductInput) Normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return errs.Invalid("name is required")
	}
	if in.DivisionID <= 0 {
		return errs.Invalid("divisionId is required")
	}
	return nil
}

type ErrorSubCategoryInput struct {
	ErrorCategoryID int64  `json:"errorCategoryId"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	IsLive          *bool  `json:"isLive"`
}

func (in *ErrorSubCategoryInput) Normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return errs.Invalid("name is required")
	}
	if in.ErrorCategoryID <= 0 {
		return errs.Invalid("errorCategoryId is required")
	}
	return nil
}

type DrawingDescriptionInput struct {
	ProductID   *int64 `json:"productId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsLive      *bool  `json:"isLive"`
}

func (in *DrawingDescriptionInput) Normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return errs.Invalid("name is required")
	}
	if in.ProductID != nil && *in.ProductID <= 0 {
		return errs.Invalid("productId must be positive")
	}
	return nil
}

type ResourceInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	EmployeeCode   string `json:"employeeCode"`
	ResourceRoleID int64  `json:"resourceRoleId"`
	DivisionID     *int64 `json:"divisionId"`
	IsLive         *bool  `json:"isLive"`
}

func (in *ResourceInput) Normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.EmployeeCode = strings.TrimSpace(in.EmployeeCode)
	switch {
	case in.Name == "":
		return errs.Invalid("name is required")
	case in.EmployeeCode == "":
		return errs.Invalid("employeeCode is required")
	case in.ResourceRoleID <= 0:
		return errs.Invalid("resourceRoleId is required")
	case in.Email != "" && !strings.Contains(in.Email, "@"):
		return errs.Invalid("email is invalid")
	case in.DivisionID != nil && *in.DivisionID <= 0:
		return errs.Invalid("divisionId must be positive")
	}
	return nil
}
