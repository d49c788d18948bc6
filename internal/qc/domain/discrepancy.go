// Package domain defines discrepancies (QC errors found on drawings) and
// clarifications raised against projects.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
)

type Severity string

const (
	SeverityMinor    Severity = "Minor"
	SeverityMajor    Severity = "Major"
	SeverityCritical Severity = "Critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityMinor, SeverityMajor, SeverityCritical:
		return true
	}
	return false
}

type DiscrepancyStatus string

const (
	DiscrepancyOpen     DiscrepancyStatus = "Open"
	DiscrepancyFixed    DiscrepancyStatus = "Fixed"
	DiscrepancyClosed   DiscrepancyStatus = "Closed"
	DiscrepancyRejected DiscrepancyStatus = "Rejected"
)

var discrepancyTransitions = map[DiscrepancyStatus][]DiscrepancyStatus{
	DiscrepancyOpen:  {DiscrepancyFixed, DiscrepancyRejected},
	DiscrepancyFixed: {DiscrepancyClosed, DiscrepancyOpen},
}

func (s DiscrepancyStatus) Valid() bool {
	switch s {
	case DiscrepancyOpen, DiscrepancyFixed, DiscrepancyClosed, DiscrepancyRejected:
		return true
	}
	return false
}

func (s DiscrepancyStatus) CanTransitionTo(next DiscrepancyStatus) bool {
	for _, allowed := range discrepancyTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Final reports whether s stamps closedAt.
func (s DiscrepancyStatus) Final() bool {
	return s == DiscrepancyClosed || s == DiscrepancyRejected
}

type Discrepancy struct {
	ID                 int64             `json:"id"`
	ProjectID          int64             `json:"projectId"`
	ProjectActivityID  *int64            `json:"projectActivityId"`
	DrawingNo          string            `json:"drawingNo"`
	ErrorCategoryID    int64             `json:"errorCategoryId"`
	ErrorSubCategoryID *int64            `json:"errorSubCategoryId"`
	Description        string            `json:"description"`
	Severity           Severity          `json:"severity"`
	RaisedByID         int64             `json:"raisedById"`
	ResponsibleID      *int64            `json:"responsibleId"`
	Status             DiscrepancyStatus `json:"status"`
	Remarks            string            `json:"remarks"`
	AttachmentKey      string            `json:"attachmentKey"`
	RaisedAt           time.Time         `json:"raisedAt"`
	ClosedAt           *time.Time        `json:"closedAt"`
	IsLive             bool              `json:"isLive"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

type DiscrepancyInput struct {
	ProjectID          int64    `json:"projectId"`
	ProjectActivityID  *int64   `json:"projectActivityId"`
	DrawingNo          string   `json:"drawingNo"`
	ErrorCategoryID    int64    `json:"errorCategoryId"`
	ErrorSubCategoryID *int64   `json:"errorSubCategoryId"`
	Description        string   `json:"description"`
	Severity           Severity `json:"severity"`
	RaisedByID         int64    `json:"raisedById"`
	ResponsibleID      *int64   `json:"responsibleId"`
	Remarks            string   `json:"remarks"`
	IsLive             *bool    `json:"isLive"`
}

func (in *DiscrepancyInput) Normalize() error {
	in.DrawingNo = strings.TrimSpace(in.DrawingNo)
	in.Description = strings.TrimSpace(in.Description)
	in.Remarks = strings.TrimSpace(in.Remarks)
	if in.Severity == "" {
		in.Severity = SeverityMinor
	}

	switch {
	case in.ProjectID <= 0:
		return errs.Invalid("projectId is required")
	case in.ErrorCategoryID <= 0:
		return errs.Invalid("errorCategoryId is required")
	case in.Description == "":
		return errs.Invalid("description is required")
	case in.RaisedByID <= 0:
		return errs.Invalid("raisedById is required")
	case !in.Severity.Valid():
		return errs.Invalid(fmt.Sprintf("unknown severity %q", in.Severity))
	}
	return positive(map[string]*int64{
		"projectActivityId":  in.ProjectActivityID,
		"errorSubCategoryId": in.ErrorSubCategoryID,
		"responsibleId":      in.ResponsibleID,
	})
}

func positive(refs map[string]*int64) error {
	for name, id := range refs {
		if id != nil && *id <= 0 {
			return errs.Invalid(fmt.Sprintf("%s must be positive", name))
		}
	}
	return nil
}

type DiscrepancyFilter struct {
	IncludeInactive   bool
	ProjectID         *int64
	ProjectActivityID *int64
	Status            *string
	ErrorCategoryID   *int64
	ResponsibleID     *int64
}

type DiscrepancyStatusChange struct {
	Status  DiscrepancyStatus `json:"status"`
	Remarks *string           `json:"remarks"`
}

// Attachment is a time-limited download link for a discrepancy's file.
type Attachment struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
