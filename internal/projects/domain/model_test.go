package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/dates"
)

func TestActivityTransitions(t *testing.T) {
	allowed := [][2]ActivityStatus{
		{ActivityNotStarted, ActivityInProgress},
		{ActivityInProgress, ActivityQCPending},
		{ActivityQCPending, ActivityQCCompleted},
		{ActivityQCPending, ActivityInProgress},
		{ActivityQCCompleted, ActivityDelivered},
	}
	for _, tr := range allowed {
		assert.True(t, tr[0].CanTransitionTo(tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]ActivityStatus{
		{ActivityNotStarted, ActivityQCPending},
		{ActivityInProgress, ActivityDelivered},
		{ActivityDelivered, ActivityInProgress},
		{ActivityQCCompleted, ActivityQCPending},
		{ActivityInProgress, ActivityInProgress},
	}
	for _, tr := range denied {
		assert.False(t, tr[0].CanTransitionTo(tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestProjectInput_Normalize(t *testing.T) {
	start := dates.New(2024, time.May, 1)
	before := dates.New(2024, time.April, 1)

	in := ProjectInput{ProjectCode: " P-1 ", Name: " Bridge ", DivisionID: 1, StartDate: start}
	require.NoError(t, in.Normalize())
	assert.Equal(t, "P-1", in.ProjectCode)
	assert.Equal(t, ProjectActive, in.Status)

	bad := []ProjectInput{
		{Name: "x", DivisionID: 1, StartDate: start},
		{ProjectCode: "P", DivisionID: 1, StartDate: start},
		{ProjectCode: "P", Name: "x", StartDate: start},
		{ProjectCode: "P", Name: "x", DivisionID: 1},
		{ProjectCode: "P", Name: "x", DivisionID: 1, StartDate: start, Status: "Paused"},
		{ProjectCode: "P", Name: "x", DivisionID: 1, StartDate: start, EndDate: &before},
	}
	for _, b := range bad {
		assert.ErrorIs(t, b.Normalize(), errs.ErrValidation, "%+v", b)
	}
}

func TestActivityInput_Normalize(t *testing.T) {
	s, e := dates.New(2024, 2, 10), dates.New(2024, 2, 1)
	zero := int64(0)

	assert.NoError(t, (&ActivityInput{ProjectID: 1, Name: "GA drawing"}).Normalize())
	assert.ErrorIs(t, (&ActivityInput{ProjectID: 1, Name: "x", PlannedStart: &s, PlannedEnd: &e}).Normalize(), errs.ErrValidation)
	assert.ErrorIs(t, (&ActivityInput{ProjectID: 1, Name: "x", SheetCount: -1}).Normalize(), errs.ErrValidation)
	assert.ErrorIs(t, (&ActivityInput{ProjectID: 1, Name: "x", CheckerID: &zero}).Normalize(), errs.ErrValidation)
}
