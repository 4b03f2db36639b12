package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CatalogBadge, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*CatalogBadge, error)
	List(ctx context.Context, db *gorm.DB, filter ListBadgeFilter) ([]*CatalogBadge, error)
	Insert(ctx context.Context, db *gorm.DB, badge *CatalogBadge) error
}
