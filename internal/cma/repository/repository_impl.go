package repository

import (
	"context"
	"strings"

	"github.com/openhaus/atrium/internal/cma/domain"
	"github.com/openhaus/atrium/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, report *domain.Report) error {
	return db.WithContext(ctx).Create(report).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, ownerID, id int64) (*domain.Report, error) {
	var report domain.Report
	stmt := db.WithContext(ctx).Where("id = ?", id)
	if ownerID != 0 {
		stmt = stmt.Where("owner_id = ?", ownerID)
	}
	if err := stmt.First(&report).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Report, error) {
	var report domain.Report
	err := db.WithContext(ctx).Where("slug = ?", strings.TrimSpace(slug)).First(&report).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

func (r *repo) FindByOwner(ctx context.Context, db *gorm.DB, ownerID int64, filter domain.ListRequest) ([]domain.Report, error) {
	stmt := db.WithContext(ctx).Model(&domain.Report{}).Where("owner_id = ?", ownerID)

	if status := strings.TrimSpace(filter.Status); status != "" {
		stmt = stmt.Where("status = ?", status)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"published_at": true,
		"title":        true,
	})).Apply(stmt)
	stmt = option.ApplyPagination(filter.Pagination).Apply(stmt)

	var reports []domain.Report
	if err := stmt.Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, report *domain.Report) error {
	if report == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Save(report).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", id).Delete(&domain.ReportComparable{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Report{}).Error
	})
}

func (r *repo) FindComparables(ctx context.Context, db *gorm.DB, reportID int64) ([]domain.ReportComparable, error) {
	var comps []domain.ReportComparable
	err := db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("position ASC, id ASC").
		Find(&comps).Error
	if err != nil {
		return nil, err
	}
	return comps, nil
}

func (r *repo) AddComparable(ctx context.Context, db *gorm.DB, comp *domain.ReportComparable) error {
	return db.WithContext(ctx).Create(comp).Error
}

func (r *repo) RemoveComparable(ctx context.Context, db *gorm.DB, reportID, listingID int64) error {
	return db.WithContext(ctx).
		Where("report_id = ? AND listing_id = ?", reportID, listingID).
		Delete(&domain.ReportComparable{}).Error
}

func (r *repo) ReplacePositions(ctx context.Context, db *gorm.DB, reportID int64, orderedListingIDs []int64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for position, listingID := range orderedListingIDs {
			err := tx.Model(&domain.ReportComparable{}).
				Where("report_id = ? AND listing_id = ?", reportID, listingID).
				Update("position", position).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
