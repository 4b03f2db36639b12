package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/meritup/internal/template/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PromotionTemplate, error) {
	var template domain.PromotionTemplate
	err := db.WithContext(ctx).
		Preload("Rules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Where("id = ?", id).
		First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &template, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListTemplateFilter) ([]*domain.PromotionTemplate, error) {
	var templates []*domain.PromotionTemplate
	stmt := db.WithContext(ctx).
		Model(&domain.PromotionTemplate{}).
		Preload("Rules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		})
	if filter.Path != "" {
		stmt = stmt.Where("path = ?", filter.Path)
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}
	err := stmt.Order("path asc, from_level asc, id asc").Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, template *domain.PromotionTemplate) error {
	return db.WithContext(ctx).Create(template).Error
}
