package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/meritup/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, app *BadgeApplication) error
	Update(ctx context.Context, db *gorm.DB, app *BadgeApplication) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BadgeApplication, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*BadgeApplication, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*BadgeApplication, error)

	// MarkUsedAll flips every listed application from ACCEPTED to
	// USED_IN_PROMOTION and fails unless all of them matched. It exists
	// for promotion submit and must not be reachable from the public
	// badge application surface.
	MarkUsedAll(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error
	// ReleaseUsed reverts the listed applications from USED_IN_PROMOTION
	// back to ACCEPTED. Applications in any other status are left alone,
	// so releasing a draft promotion's badges is a no-op on status.
	ReleaseUsed(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error
}
