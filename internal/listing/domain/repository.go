package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, listing *Listing) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Listing, error)
	FindByMLSNumber(ctx context.Context, db *gorm.DB, mlsNumber string) (*Listing, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]Listing, error)
	Search(ctx context.Context, db *gorm.DB, filter SearchRequest) ([]Listing, error)
	FindClosedSince(ctx context.Context, db *gorm.DB, since time.Time, limit int) ([]Listing, error)
	Update(ctx context.Context, db *gorm.DB, listing *Listing) error
	Delete(ctx context.Context, db *gorm.DB, id int64) error
}
