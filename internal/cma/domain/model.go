package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ReportStatusDraft     = "draft"
	ReportStatusPublished = "published"
)

// Report is a comparative market analysis owned by a single agent. The
// adjustment configuration travels with the report as a JSON column so a
// published report keeps the rates it was built with.
type Report struct {
	ID               int64          `json:"id" gorm:"primaryKey"`
	OwnerID          int64          `json:"owner_id" gorm:"column:owner_id;not null;index"`
	Title            string         `json:"title" gorm:"type:text;not null"`
	Slug             string         `json:"slug" gorm:"type:text;not null;uniqueIndex:ux_cma_reports_slug"`
	SubjectListingID int64          `json:"subject_listing_id" gorm:"not null"`
	Status           string         `json:"status" gorm:"type:text;not null;default:draft"`
	AdjustmentConfig datatypes.JSON `json:"adjustment_config,omitempty" gorm:"type:jsonb"`
	PublishedAt      *time.Time     `json:"published_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Report) TableName() string { return "cma_reports" }

// ReportComparable orders one comparable listing within a report.
type ReportComparable struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	ReportID  int64     `json:"report_id" gorm:"not null;uniqueIndex:ux_cma_report_comps,priority:1"`
	ListingID int64     `json:"listing_id" gorm:"not null;uniqueIndex:ux_cma_report_comps,priority:2"`
	Position  int       `json:"position" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ReportComparable) TableName() string { return "cma_report_comparables" }
