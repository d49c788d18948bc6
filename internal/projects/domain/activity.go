package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/dates"
)

type ActivityStatus string

const (
	ActivityNotStarted  ActivityStatus = "NotStarted"
	ActivityInProgress  ActivityStatus = "InProgress"
	ActivityQCPending   ActivityStatus = "QCPending"
	ActivityQCCompleted ActivityStatus = "QCCompleted"
	ActivityDelivered   ActivityStatus = "Delivered"
)

var activityTransitions = map[ActivityStatus][]ActivityStatus{
	ActivityNotStarted:  {ActivityInProgress},
	ActivityInProgress:  {ActivityQCPending},
	ActivityQCPending:   {ActivityQCCompleted, ActivityInProgress},
	ActivityQCCompleted: {ActivityDelivered},
}

func (s ActivityStatus) Valid() bool {
	switch s {
	case ActivityNotStarted, ActivityInProgress, ActivityQCPending, ActivityQCCompleted, ActivityDelivered:
		return true
	}
	return false
}

// CanTransitionTo reports whether the workflow allows moving from s to next.
func (s ActivityStatus) CanTransitionTo(next ActivityStatus) bool {
	for _, allowed := range activityTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Activity struct {
	ID                   int64          `json:"id"`
	ProjectID            int64          `json:"projectId"`
	Name                 string         `json:"name"`
	DrawingNo            string         `json:"drawingNo"`
	DrawingDescriptionID *int64         `json:"drawingDescriptionId"`
	DrafterID            *int64         `json:"drafterId"`
	CheckerID            *int64         `json:"checkerId"`
	Status               ActivityStatus `json:"status"`
	SheetCount           int            `json:"sheetCount"`
	PlannedStart         *dates.Date    `json:"plannedStart"`
	PlannedEnd           *dates.Date    `json:"plannedEnd"`
	ActualStart          *dates.Date    `json:"actualStart"`
	ActualEnd            *dates.Date    `json:"actualEnd"`
	IsLive               bool           `json:"isLive"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}

// ActivityInput holds the editable fields. Status only moves through the
// status endpoint.
type ActivityInput struct {
	ProjectID            int64       `json:"projectId"`
	Name                 string      `json:"name"`
	DrawingNo            string      `json:"drawingNo"`
	DrawingDescriptionID *int64      `json:"drawingDescriptionId"`
	DrafterID            *int64      `json:"drafterId"`
	CheckerID            *int64      `json:"checkerId"`
	SheetCount           int         `json:"sheetCount"`
	PlannedStart         *dates.Date `json:"plannedStart"`
	PlannedEnd           *dates.Date `json:"plannedEnd"`
	IsLive               *bool       `json:"isLive"`
}

func (in *ActivityInput) Normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.DrawingNo = strings.TrimSpace(in.DrawingNo)

	switch {
	case in.ProjectID <= 0:
		return errs.Invalid("projectId is required")
	case in.Name == "":
		return errs.Invalid("name is required")
	case in.SheetCount < 0:
		return errs.Invalid("sheetCount must not be negative")
	case in.PlannedStart != nil && in.PlannedEnd != nil && in.PlannedEnd.Before(*in.PlannedStart):
		return errs.Invalid("plannedEnd must not be before plannedStart")
	}
	refs := []struct {
		name string
		id   *int64
	}{
		{"drawingDescriptionId", in.DrawingDescriptionID},
		{"drafterId", in.DrafterID},
		{"checkerId", in.CheckerID},
	}
	for _, ref := range refs {
		if ref.id != nil && *ref.id <= 0 {
			return errs.Invalid(fmt.Sprintf("%s must be positive", ref.name))
		}
	}
	return nil
}

type ActivityFilter struct {
	IncludeInactive bool
	ProjectID       *int64
	Status          *string
}

type StatusChange struct {
	Status ActivityStatus `json:"status"`
}
