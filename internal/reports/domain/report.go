// Package domain defines the read-only QC reports.
package domain

import "github.com/qctrack/qctrack-backend/internal/dates"

type ProjectSummary struct {
	ProjectID          int64            `json:"projectId"`
	ProjectCode        string           `json:"projectCode"`
	Name               string           `json:"name"`
	ActivitiesByStatus map[string]int   `json:"activitiesByStatus"`
	Discrepancies      DiscrepancyTotal `json:"discrepancies"`
	OpenClarifications int              `json:"openClarifications"`
	ReviewedSheets     int              `json:"reviewedSheets"`
	// ErrorRate is non-rejected discrepancies per reviewed sheet.
	ErrorRate float64 `json:"errorRate"`
}

type DiscrepancyTotal struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"byStatus"`
	BySeverity map[string]int `json:"bySeverity"`
}

type CategoryCount struct {
	ErrorCategoryID int64              `json:"errorCategoryId"`
	Name            string             `json:"name"`
	Count           int                `json:"count"`
	SubCategories   []SubCategoryCount `json:"subCategories"`
}

// SubCategoryCount has a nil id for discrepancies filed without a
// sub-category.
type SubCategoryCount struct {
	ErrorSubCategoryID *int64 `json:"errorSubCategoryId"`
	Name               string `json:"name"`
	Count              int    `json:"count"`
}

type Snapshot struct {
	Date                  dates.Date `json:"date"`
	OpenDiscrepancies     int        `json:"openDiscrepancies"`
	FixedDiscrepancies    int        `json:"fixedDiscrepancies"`
	ClosedDiscrepancies   int        `json:"closedDiscrepancies"`
	RejectedDiscrepancies int        `json:"rejectedDiscrepancies"`
	OpenClarifications    int        `json:"openClarifications"`
}
