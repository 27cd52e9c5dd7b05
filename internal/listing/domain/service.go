package domain

import (
	"context"
	"errors"
	"time"

	"github.com/openhaus/atrium/pkg/db/pagination"
)

type Service interface {
	// Upsert creates or refreshes a listing keyed by MLS number.
	Upsert(ctx context.Context, req UpsertRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	GetByMLSNumber(ctx context.Context, mlsNumber string) (*Response, error)
	Search(ctx context.Context, req SearchRequest) ([]Response, *pagination.PageInfo, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	// RecentlyClosed returns sold listings with a close date at or after
	// the cutoff, newest first.
	RecentlyClosed(ctx context.Context, since time.Time, limit int) ([]Response, error)
}

type UpsertRequest struct {
	MLSNumber  string         `json:"mls_number"`
	Status     string         `json:"status"`
	Attributes map[string]any `json:"attributes"`
}

type UpdateRequest struct {
	ID         string
	Status     *string        `json:"status"`
	ClosePrice *float64       `json:"close_price"`
	CloseDate  *time.Time     `json:"close_date"`
	Attributes map[string]any `json:"attributes"`
}

type SearchRequest struct {
	pagination.Pagination

	City     string  `form:"city"`
	Status   string  `form:"status"`
	MinPrice float64 `form:"min_price"`
	MaxPrice float64 `form:"max_price"`
	MinBeds  float64 `form:"min_beds"`
	MinBaths float64 `form:"min_baths"`
	SortBy   string  `form:"sort_by"`
	OrderBy  string  `form:"order_by"`
}

type Response struct {
	ID                string         `json:"id"`
	MLSNumber         string         `json:"mls_number"`
	Address           string         `json:"address"`
	City              string         `json:"city"`
	StateOrProvince   string         `json:"state_or_province,omitempty"`
	PostalCode        string         `json:"postal_code,omitempty"`
	Status            string         `json:"status"`
	ListPrice         float64        `json:"list_price"`
	ClosePrice        float64        `json:"close_price"`
	LivingArea        float64        `json:"living_area"`
	Bedrooms          float64        `json:"bedrooms"`
	Bathrooms         float64        `json:"bathrooms"`
	GarageSpaces      float64        `json:"garage_spaces"`
	YearBuilt         int            `json:"year_built"`
	LotSizeSquareFeet float64        `json:"lot_size_square_feet"`
	PoolFeatures      string         `json:"pool_features,omitempty"`
	CloseDate         *time.Time     `json:"close_date,omitempty"`
	Attributes        map[string]any `json:"attributes,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

var (
	ErrInvalidMLSNumber = errors.New("invalid_mls_number")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
)
