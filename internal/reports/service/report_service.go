package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/dates"
	"github.com/qctrack/qctrack-backend/internal/reports/domain"
	"github.com/qctrack/qctrack-backend/internal/reports/repository"
)

const (
	DefaultTrendDays = 30
	MaxTrendDays     = 366
)

// reviewedStatuses are the activity statuses whose sheets have been through QC.
var reviewedStatuses = map[string]bool{"QCCompleted": true, "Delivered": true}

type ReportService struct {
	repo *repository.ReportRepository
	now  func() time.Time
}

func NewReportService(repo *repository.ReportRepository) *ReportService {
	return &ReportService{repo: repo, now: time.Now}
}

func (s *ReportService) ProjectSummary(ctx context.Context, projectID int64) (*domain.ProjectSummary, error) {
	code, name, err := s.repo.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := &domain.ProjectSummary{
		ProjectID:          projectID,
		ProjectCode:        code,
		Name:               name,
		ActivitiesByStatus: map[string]int{},
		Discrepancies: domain.DiscrepancyTotal{
			ByStatus:   map[string]int{},
			BySeverity: map[string]int{},
		},
	}

	activities, err := s.repo.ActivityCounts(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("activity counts: %w", err)
	}
	for _, a := range activities {
		out.ActivitiesByStatus[a.Status] = a.Count
		if reviewedStatuses[a.Status] {
			out.ReviewedSheets += a.Sheets
		}
	}

	discrepancies, err := s.repo.DiscrepancyCounts(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("discrepancy counts: %w", err)
	}
	counted := 0
	for _, d := range discrepancies {
		out.Discrepancies.Total += d.Count
		out.Discrepancies.ByStatus[d.Status] += d.Count
		out.Discrepancies.BySeverity[d.Severity] += d.Count
		if d.Status != "Rejected" {
			counted += d.Count
		}
	}

	out.OpenClarifications, err = s.repo.OpenClarifications(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("open clarifications: %w", err)
	}

	if out.ReviewedSheets > 0 {
		out.ErrorRate = math.Round(float64(counted)/float64(out.ReviewedSheets)*1000) / 1000
	}
	return out, nil
}

func (s *ReportService) ErrorCategoryBreakdown(ctx context.Context, projectID *int64) ([]domain.CategoryCount, error) {
	out, err := s.repo.CategoryRows(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.CategoryCount{}
	}
	return out, nil
}

// Trend returns the daily snapshots of the last days days, today included.
func (s *ReportService) Trend(ctx context.Context, projectID int64, days int) ([]domain.Snapshot, error) {
	if days == 0 {
		days = DefaultTrendDays
	}
	if days < 1 || days > MaxTrendDays {
		return nil, errs.Invalid(fmt.Sprintf("days must be between 1 and %d", MaxTrendDays))
	}
	if _, _, err := s.repo.Project(ctx, projectID); err != nil {
		return nil, err
	}
	since := dates.UTC(s.now())
	since.Date = since.AddDays(1 - days)
	return s.repo.Snapshots(ctx, projectID, since)
}

// Snapshot records today's counts for every live project.
func (s *ReportService) Snapshot(ctx context.Context) (int64, error) {
	return s.repo.WriteDailySnapshot(ctx, dates.UTC(s.now()))
}
