// Package domain contains the promotion lifecycle model.
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status is the lifecycle state of a promotion.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

var transitions = map[Status][]Status{
	StatusDraft:     {StatusSubmitted},
	StatusSubmitted: {StatusApproved, StatusRejected},
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

// Promotion is one employee's request to advance between levels on a
// career path. Path and levels are denormalized from the template at
// creation time so later template edits never change an existing
// promotion's comparison basis. Executed is true only once approved.
type Promotion struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	TemplateID      snowflake.ID      `gorm:"not null;index" json:"template_id"`
	CreatorID       snowflake.ID      `gorm:"not null;index" json:"creator_id"`
	Path            string            `gorm:"not null" json:"path"`
	FromLevel       string            `gorm:"not null" json:"from_level"`
	ToLevel         string            `gorm:"not null" json:"to_level"`
	Status          Status            `gorm:"type:text;not null;index" json:"status"`
	Executed        bool              `gorm:"not null;default:false" json:"executed"`
	SubmittedAt     *time.Time        `gorm:"" json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time        `gorm:"" json:"approved_at,omitempty"`
	ApproverID      *snowflake.ID     `gorm:"" json:"approver_id,omitempty"`
	RejectedAt      *time.Time        `gorm:"" json:"rejected_at,omitempty"`
	RejecterID      *snowflake.ID     `gorm:"" json:"rejecter_id,omitempty"`
	RejectionReason *string           `gorm:"type:text" json:"rejection_reason,omitempty"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Promotion) TableName() string { return "promotions" }

// Transition moves the promotion to target or reports the illegal move.
func (p *Promotion) Transition(target Status) error {
	if !p.Status.CanTransition(target) {
		return &StatusTransitionError{Attempted: target, Actual: p.Status}
	}
	p.Status = target
	return nil
}
