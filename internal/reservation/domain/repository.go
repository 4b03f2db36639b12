package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ErrAlreadyReserved reports that the badge application already carries a
// reservation. Callers resolve the owning promotion themselves; the insert
// that failed cannot know it.
var ErrAlreadyReserved = errors.New("badge_application_already_reserved")

// Ledger is the reservation store. Claim relies on the unique index on
// badge_application_id, so two racing claims for the same badge are decided
// by the database, not by a read followed by a write.
type Ledger interface {
	// Claim inserts the reservation. Returns ErrAlreadyReserved when a
	// reservation for the badge application exists, consumed or not.
	Claim(ctx context.Context, db *gorm.DB, reservation *Reservation) error
	FindByBadgeApplicationID(ctx context.Context, db *gorm.DB, badgeApplicationID snowflake.ID) (*Reservation, error)
	ListByPromotionID(ctx context.Context, db *gorm.DB, promotionID snowflake.ID) ([]*Reservation, error)
	// Release deletes the unconsumed reservations a promotion holds on the
	// listed badge applications.
	Release(ctx context.Context, db *gorm.DB, promotionID snowflake.ID, badgeApplicationIDs []snowflake.ID) error
	// ReleaseAll deletes every unconsumed reservation a promotion holds.
	ReleaseAll(ctx context.Context, db *gorm.DB, promotionID snowflake.ID) error
	// ConsumeAll permanently marks every reservation of an approved
	// promotion. Consumed rows are never deleted or reverted.
	ConsumeAll(ctx context.Context, db *gorm.DB, promotionID snowflake.ID) error
}
