// Package domain contains the reservation ledger model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Reservation links one badge application to one promotion while the link
// is live. The unique index on badge_application_id is the mechanism that
// makes concurrent claims safe: an unconsumed row blocks rival promotions,
// and a consumed row is never deleted, so the same index also makes
// consumption permanent.
type Reservation struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	PromotionID        snowflake.ID `gorm:"not null;index" json:"promotion_id"`
	BadgeApplicationID snowflake.ID `gorm:"not null;uniqueIndex:ux_reservations_badge_application" json:"badge_application_id"`
	CreatedBy          snowflake.ID `gorm:"not null" json:"created_by"`
	Consumed           bool         `gorm:"not null;default:false" json:"consumed"`
	CreatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Reservation) TableName() string { return "reservations" }
