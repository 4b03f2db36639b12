package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/meritup/internal/badgecatalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.CatalogBadge, error) {
	var badge domain.CatalogBadge
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, category, level, status, version, created_at, updated_at
		 FROM catalog_badges WHERE id = ?`,
		id,
	).Scan(&badge).Error
	if err != nil {
		return nil, err
	}
	if badge.ID == 0 {
		return nil, nil
	}
	return &badge, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*domain.CatalogBadge, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var badges []*domain.CatalogBadge
	err := db.WithContext(ctx).
		Model(&domain.CatalogBadge{}).
		Where("id IN ?", ids).
		Find(&badges).Error
	if err != nil {
		return nil, err
	}
	return badges, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListBadgeFilter) ([]*domain.CatalogBadge, error) {
	var badges []*domain.CatalogBadge
	stmt := db.WithContext(ctx).Model(&domain.CatalogBadge{})
	if filter.Category != "" {
		stmt = stmt.Where("category = ?", filter.Category)
	}
	if filter.Level != "" {
		stmt = stmt.Where("level = ?", filter.Level)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	err := stmt.Order("name asc, id asc").Find(&badges).Error
	if err != nil {
		return nil, err
	}
	return badges, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, badge *domain.CatalogBadge) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO catalog_badges (id, name, category, level, status, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		badge.ID,
		badge.Name,
		badge.Category,
		badge.Level,
		badge.Status,
		badge.Version,
		badge.CreatedAt,
		badge.UpdatedAt,
	).Error
}
