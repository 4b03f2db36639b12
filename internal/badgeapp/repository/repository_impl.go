package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/meritup/internal/badgeapp/domain"
	"github.com/smallbiznis/meritup/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, app *domain.BadgeApplication) error {
	return db.WithContext(ctx).Create(app).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, app *domain.BadgeApplication) error {
	return db.WithContext(ctx).Save(app).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.BadgeApplication, error) {
	var app domain.BadgeApplication
	err := db.WithContext(ctx).Where("id = ?", id).First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*domain.BadgeApplication, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var apps []*domain.BadgeApplication
	err := db.WithContext(ctx).
		Model(&domain.BadgeApplication{}).
		Where("id IN ?", ids).
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.BadgeApplication, error) {
	var apps []*domain.BadgeApplication
	stmt := db.WithContext(ctx).Model(&domain.BadgeApplication{})
	if filter.ApplicantID != "" {
		stmt = stmt.Where("applicant_id = ?", filter.ApplicantID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		stmt = stmt.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	limit := page.PageSize
	if limit <= 0 {
		limit = 50
	}
	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit + 1).
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *repo) MarkUsedAll(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return nil
	}
	result := db.WithContext(ctx).
		Model(&domain.BadgeApplication{}).
		Where("id IN ? AND status = ?", ids, domain.StatusAccepted).
		Update("status", domain.StatusUsedInPromotion)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(len(ids)) {
		return fmt.Errorf("marking badges used touched %d of %d applications", result.RowsAffected, len(ids))
	}
	return nil
}

func (r *repo) ReleaseUsed(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Model(&domain.BadgeApplication{}).
		Where("id IN ? AND status = ?", ids, domain.StatusUsedInPromotion).
		Update("status", domain.StatusAccepted).Error
}
