package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/meritup/internal/eligibility"
)

var (
	ErrNotFound     = errors.New("promotion_not_found")
	ErrForbidden    = errors.New("promotion_forbidden")
	ErrInvalidID    = errors.New("invalid_promotion_id")
	ErrInvalidActor = errors.New("invalid_actor")
	ErrEmptyReason  = errors.New("empty_rejection_reason")
	// ErrNotDraft reports a badge-set mutation on a promotion that has
	// left draft.
	ErrNotDraft = errors.New("promotion_not_draft")
)

// InvalidBadgeApplicationError reports a badge that cannot be reserved,
// naming the offending application.
type InvalidBadgeApplicationError struct {
	BadgeApplicationID snowflake.ID `json:"badge_application_id"`
	Reason             string       `json:"reason"`
}

func (e *InvalidBadgeApplicationError) Error() string {
	return fmt.Sprintf("badge application %s cannot be reserved: %s", e.BadgeApplicationID, e.Reason)
}

// ReservationConflictError reports a lost reservation race, carrying the
// identity of the winner so the caller can act on it.
type ReservationConflictError struct {
	BadgeApplicationID snowflake.ID `json:"badge_application_id"`
	OwningPromotionID  snowflake.ID `json:"owning_promotion_id"`
}

func (e *ReservationConflictError) Error() string {
	return fmt.Sprintf("badge application %s is already reserved by promotion %s", e.BadgeApplicationID, e.OwningPromotionID)
}

// ValidationFailedError reports a submit whose badge set does not satisfy
// the template. It is an expected outcome; callers adjust the badge set
// and retry.
type ValidationFailedError struct {
	Report eligibility.Report `json:"report"`
}

func (e *ValidationFailedError) Error() string {
	gaps := make([]string, 0, len(e.Report.Missing))
	for _, gap := range e.Report.Missing {
		gaps = append(gaps, fmt.Sprintf("%s/%s missing %d", gap.Category, gap.Level, gap.Missing))
	}
	return "promotion validation failed: " + strings.Join(gaps, ", ")
}
