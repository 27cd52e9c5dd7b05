package repository

import (
	"context"
	"strings"
	"time"

	"github.com/openhaus/atrium/internal/listing/domain"
	"github.com/openhaus/atrium/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, listing *domain.Listing) error {
	return db.WithContext(ctx).Create(listing).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Listing, error) {
	var l domain.Listing
	err := db.WithContext(ctx).Where("id = ?", id).First(&l).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *repo) FindByMLSNumber(ctx context.Context, db *gorm.DB, mlsNumber string) (*domain.Listing, error) {
	var l domain.Listing
	err := db.WithContext(ctx).Where("mls_number = ?", mlsNumber).First(&l).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]domain.Listing, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []domain.Listing
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Search(ctx context.Context, db *gorm.DB, filter domain.SearchRequest) ([]domain.Listing, error) {
	stmt := db.WithContext(ctx).Model(&domain.Listing{})

	if city := strings.TrimSpace(filter.City); city != "" {
		stmt = stmt.Where("LOWER(city) = LOWER(?)", city)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		stmt = stmt.Where("status = ?", status)
	}
	if filter.MinPrice > 0 {
		stmt = option.ApplyOperator(option.Condition{Field: "list_price", Operator: option.GTE, Value: filter.MinPrice}).Apply(stmt)
	}
	if filter.MaxPrice > 0 {
		stmt = option.ApplyOperator(option.Condition{Field: "list_price", Operator: option.LTE, Value: filter.MaxPrice}).Apply(stmt)
	}
	if filter.MinBeds > 0 {
		stmt = option.ApplyOperator(option.Condition{Field: "bedrooms", Operator: option.GTE, Value: filter.MinBeds}).Apply(stmt)
	}
	if filter.MinBaths > 0 {
		stmt = option.ApplyOperator(option.Condition{Field: "bathrooms", Operator: option.GTE, Value: filter.MinBaths}).Apply(stmt)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"updated_at": true,
		"list_price": true,
		"close_date": true,
	})).Apply(stmt)
	stmt = option.ApplyPagination(filter.Pagination).Apply(stmt)

	var items []domain.Listing
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindClosedSince(ctx context.Context, db *gorm.DB, since time.Time, limit int) ([]domain.Listing, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []domain.Listing
	err := db.WithContext(ctx).
		Where("status = ? AND close_date >= ?", domain.StatusSold, since).
		Order("close_date DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, listing *domain.Listing) error {
	if listing == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Save(listing).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Listing{}).Error
}
