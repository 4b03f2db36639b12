// Package domain contains the badge application lifecycle model.
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status is the lifecycle state of a badge application.
type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusSubmitted       Status = "SUBMITTED"
	StatusAccepted        Status = "ACCEPTED"
	StatusRejected        Status = "REJECTED"
	StatusUsedInPromotion Status = "USED_IN_PROMOTION"
)

// transitions enumerates legal status moves. The flips between ACCEPTED and
// USED_IN_PROMOTION are reserved for the promotion lifecycle and never
// exposed through the public service surface.
var transitions = map[Status][]Status{
	StatusDraft:           {StatusSubmitted},
	StatusSubmitted:       {StatusAccepted, StatusRejected},
	StatusAccepted:        {StatusUsedInPromotion},
	StatusUsedInPromotion: {StatusAccepted},
}

// CanTransition reports whether moving from s to target is legal.
func (s Status) CanTransition(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// StatusTransitionError reports an attempted transition from a state that
// does not permit it.
type StatusTransitionError struct {
	Attempted Status `json:"attempted"`
	Actual    Status `json:"actual"`
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition to %s from %s", e.Attempted, e.Actual)
}

// BadgeApplication is one employee's claim to a catalog achievement. The
// catalog badge version is snapshotted at creation and never changes, so a
// decided application keeps its historical meaning even after catalog edits.
type BadgeApplication struct {
	ID                  snowflake.ID      `gorm:"primaryKey" json:"id"`
	ApplicantID         snowflake.ID      `gorm:"not null;index" json:"applicant_id"`
	CatalogBadgeID      snowflake.ID      `gorm:"not null;index" json:"catalog_badge_id"`
	CatalogBadgeVersion int               `gorm:"not null" json:"catalog_badge_version"`
	DateOfApplication   time.Time         `gorm:"not null" json:"date_of_application"`
	DateOfFulfillment   *time.Time        `gorm:"" json:"date_of_fulfillment,omitempty"`
	Justification       *string           `gorm:"type:text" json:"justification,omitempty"`
	Status              Status            `gorm:"type:text;not null;index" json:"status"`
	SubmittedAt         *time.Time        `gorm:"" json:"submitted_at,omitempty"`
	ReviewerID          *snowflake.ID     `gorm:"" json:"reviewer_id,omitempty"`
	ReviewedAt          *time.Time        `gorm:"" json:"reviewed_at,omitempty"`
	ReviewNote          *string           `gorm:"type:text" json:"review_note,omitempty"`
	Metadata            datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt           time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (BadgeApplication) TableName() string { return "badge_applications" }

// Transition moves the application to target or reports the illegal move.
func (a *BadgeApplication) Transition(target Status) error {
	if !a.Status.CanTransition(target) {
		return &StatusTransitionError{Attempted: target, Actual: a.Status}
	}
	a.Status = target
	return nil
}
