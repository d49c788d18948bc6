package domain

import (
	"strings"
	"time"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
)

type ClarificationStatus string

const (
	ClarificationOpen     ClarificationStatus = "Open"
	ClarificationAnswered ClarificationStatus = "Answered"
	ClarificationClosed   ClarificationStatus = "Closed"
)

func (s ClarificationStatus) Valid() bool {
	switch s {
	case ClarificationOpen, ClarificationAnswered, ClarificationClosed:
		return true
	}
	return false
}

type Clarification struct {
	ID                int64               `json:"id"`
	ProjectID         int64               `json:"projectId"`
	ProjectActivityID *int64              `json:"projectActivityId"`
	Subject           string              `json:"subject"`
	Query             string              `json:"query"`
	RaisedByID        int64               `json:"raisedById"`
	Response          string              `json:"response"`
	RespondedByID     *int64              `json:"respondedById"`
	Status            ClarificationStatus `json:"status"`
	RaisedAt          time.Time           `json:"raisedAt"`
	RespondedAt       *time.Time          `json:"respondedAt"`
	ClosedAt          *time.Time          `json:"closedAt"`
	IsLive            bool                `json:"isLive"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

type ClarificationInput struct {
	ProjectID         int64  `json:"projectId"`
	ProjectActivityID *int64 `json:"projectActivityId"`
	Subject           string `json:"subject"`
	Query             string `json:"query"`
	RaisedByID        int64  `json:"raisedById"`
	IsLive            *bool  `json:"isLive"`
}

func (in *ClarificationInput) Normalize() error {
	in.Subject = strings.TrimSpace(in.Subject)
	in.Query = strings.TrimSpace(in.Query)

	switch {
	case in.ProjectID <= 0:
		return errs.Invalid("projectId is required")
	case in.Subject == "":
		return errs.Invalid("subject is required")
	case in.Query == "":
		return errs.Invalid("query is required")
	case in.RaisedByID <= 0:
		return errs.Invalid("raisedById is required")
	}
	return positive(map[string]*int64{"projectActivityId": in.ProjectActivityID})
}

type ClarificationResponse struct {
	Response      string `json:"response"`
	RespondedByID int64  `json:"respondedById"`
}

func (r *ClarificationResponse) Normalize() error {
	r.Response = strings.TrimSpace(r.Response)
	if r.Response == "" {
		return errs.Invalid("response is required")
	}
	if r.RespondedByID <= 0 {
		return errs.Invalid("respondedById is required")
	}
	return nil
}

type ClarificationFilter struct {
	IncludeInactive bool
	ProjectID       *int64
	Status          *string
}
