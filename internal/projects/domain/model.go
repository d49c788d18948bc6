// Package domain defines projects and their drawing activities.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/dates"
)

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "Active"
	ProjectOnHold    ProjectStatus = "OnHold"
	ProjectCompleted ProjectStatus = "Completed"
	ProjectCancelled ProjectStatus = "Cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectOnHold, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

type Project struct {
	ID          int64         `json:"id"`
	ProjectCode string        `json:"projectCode"`
	Name        string        `json:"name"`
	ClientName  string        `json:"clientName"`
	DivisionID  int64         `json:"divisionId"`
	ProductID   *int64        `json:"productId"`
	Status      ProjectStatus `json:"status"`
	StartDate   dates.Date    `json:"startDate"`
	EndDate     *dates.Date   `json:"endDate"`
	Description string        `json:"description"`
	IsLive      bool          `json:"isLive"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type ProjectInput struct {
	ProjectCode string        `json:"projectCode"`
	Name        string        `json:"name"`
	ClientName  string        `json:"clientName"`
	DivisionID  int64         `json:"divisionId"`
	ProductID   *int64        `json:"productId"`
	Status      ProjectStatus `json:"status"`
	StartDate   dates.Date    `json:"startDate"`
	EndDate     *dates.Date   `json:"endDate"`
	Description string        `json:"description"`
	IsLive      *bool         `json:"isLive"`
}

func (in *ProjectInput) Normalize() error {
	in.ProjectCode = strings.TrimSpace(in.ProjectCode)
	in.Name = strings.TrimSpace(in.Name)
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.Description = strings.TrimSpace(in.Description)
	if in.Status == "" {
		in.Status = ProjectActive
	}

	switch {
	case in.ProjectCode == "":
		return errs.Invalid("projectCode is required")
	case in.Name == "":
		return errs.Invalid("name is required")
	case in.DivisionID <= 0:
		return errs.Invalid("divisionId is required")
	case in.ProductID != nil && *in.ProductID <= 0:
		return errs.Invalid("productId must be positive")
	case !in.Status.Valid():
		return errs.Invalid(fmt.Sprintf("unknown project status %q", in.Status))
	case in.StartDate.IsZero():
		return errs.Invalid("startDate is required")
	case in.EndDate != nil && in.EndDate.Before(in.StartDate):
		return errs.Invalid("endDate must not be before startDate")
	}
	return nil
}

type ProjectFilter struct {
	IncludeInactive bool
	DivisionID      *int64
	Status          *string
	Search          *string
}
