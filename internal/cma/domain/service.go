package domain

import (
	"context"
	"errors"
	"time"

	"github.com/openhaus/atrium/internal/adjustment"
	listingdomain "github.com/openhaus/atrium/internal/listing/domain"
	"github.com/openhaus/atrium/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	// GetPublished resolves a published report by slug for the public
	// portal. Draft reports are not visible through this path.
	GetPublished(ctx context.Context, slug string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, *pagination.PageInfo, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	Publish(ctx context.Context, id string) (*Response, error)

	AddComparable(ctx context.Context, reportID, listingID string) (*Response, error)
	RemoveComparable(ctx context.Context, reportID, listingID string) (*Response, error)
	ReorderComparables(ctx context.Context, reportID string, orderedListingIDs []string) (*Response, error)

	GetAdjustmentConfig(ctx context.Context, reportID string) (*AdjustmentConfig, error)
	PutAdjustmentConfig(ctx context.Context, reportID string, cfg AdjustmentConfig) (*AdjustmentConfig, error)

	// ComputeAdjustments runs the adjustment engine over the report's
	// subject and comparables with its effective rates and overrides.
	ComputeAdjustments(ctx context.Context, reportID string) (*ComputedReport, error)
	// ComputePublished is the public variant, resolved by slug and limited
	// to published reports.
	ComputePublished(ctx context.Context, slug string) (*ComputedReport, error)
	// RenderPDF produces the printable report document.
	RenderPDF(ctx context.Context, reportID string) ([]byte, error)
}

type CreateRequest struct {
	Title            string `json:"title"`
	SubjectListingID string `json:"subject_listing_id"`
}

type UpdateRequest struct {
	ID               string
	Title            *string `json:"title"`
	SubjectListingID *string `json:"subject_listing_id"`
}

type ListRequest struct {
	pagination.Pagination

	Status  string `form:"status"`
	SortBy  string `form:"sort_by"`
	OrderBy string `form:"order_by"`
}

type Response struct {
	ID               string     `json:"id"`
	OwnerID          string     `json:"owner_id"`
	Title            string     `json:"title"`
	Slug             string     `json:"slug"`
	SubjectListingID string     `json:"subject_listing_id"`
	Status           string     `json:"status"`
	Comparables      []string   `json:"comparables"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ComputedReport is the full adjusted-comparable view of a report.
type ComputedReport struct {
	ReportID string                 `json:"report_id"`
	Title    string                 `json:"title"`
	Enabled  bool                   `json:"enabled"`
	Rates    adjustment.Rates       `json:"rates"`
	Subject  listingdomain.Response `json:"subject"`
	Results  []adjustment.Result    `json:"results"`
	Features []string               `json:"features"`
}

var (
	ErrInvalidUser      = errors.New("invalid_user")
	ErrInvalidTitle     = errors.New("invalid_title")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidListing   = errors.New("invalid_listing")
	ErrInvalidPosition  = errors.New("invalid_position")
	ErrInvalidRate      = errors.New("invalid_rate")
	ErrNotFound         = errors.New("not_found")
	ErrAlreadyPublished = errors.New("already_published")
	ErrSubjectIsComp    = errors.New("subject_is_comparable")
	ErrDuplicateComp    = errors.New("duplicate_comparable")
	ErrNoSubject        = errors.New("missing_subject")
)
