package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PromotionTemplate, error)
	List(ctx context.Context, db *gorm.DB, filter ListTemplateFilter) ([]*PromotionTemplate, error)
	Insert(ctx context.Context, db *gorm.DB, template *PromotionTemplate) error
}
