package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, report *Report) error
	FindByID(ctx context.Context, db *gorm.DB, ownerID, id int64) (*Report, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Report, error)
	FindByOwner(ctx context.Context, db *gorm.DB, ownerID int64, filter ListRequest) ([]Report, error)
	Update(ctx context.Context, db *gorm.DB, report *Report) error
	Delete(ctx context.Context, db *gorm.DB, id int64) error

	FindComparables(ctx context.Context, db *gorm.DB, reportID int64) ([]ReportComparable, error)
	AddComparable(ctx context.Context, db *gorm.DB, comp *ReportComparable) error
	RemoveComparable(ctx context.Context, db *gorm.DB, reportID, listingID int64) error
	ReplacePositions(ctx context.Context, db *gorm.DB, reportID int64, orderedListingIDs []int64) error
}
