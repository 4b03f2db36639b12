package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/meritup/pkg/db/pagination"
)

type CreateRequest struct {
	CatalogBadgeID    string         `json:"catalog_badge_id"`
	DateOfApplication time.Time      `json:"date_of_application"`
	DateOfFulfillment *time.Time     `json:"date_of_fulfillment,omitempty"`
	Justification     string         `json:"justification,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

type UpdateRequest struct {
	ID                string     `json:"-"`
	DateOfApplication *time.Time `json:"date_of_application,omitempty"`
	DateOfFulfillment *time.Time `json:"date_of_fulfillment,omitempty"`
	Justification     *string    `json:"justification,omitempty"`
}

type ReviewRequest struct {
	ID   string `json:"-"`
	Note string `json:"note,omitempty"`
}

type ListFilter struct {
	ApplicantID string
	Status      Status
}

type ListRequest struct {
	ApplicantID string
	Status      string
	PageToken   string
	PageSize    int32
}

type ListResponse struct {
	pagination.PageInfo
	BadgeApplications []BadgeApplication `json:"badge_applications"`
}

type Service interface {
	Create(context.Context, CreateRequest) (BadgeApplication, error)
	Update(context.Context, UpdateRequest) (BadgeApplication, error)
	Submit(ctx context.Context, id string) (BadgeApplication, error)
	Accept(context.Context, ReviewRequest) (BadgeApplication, error)
	Reject(context.Context, ReviewRequest) (BadgeApplication, error)
	GetByID(ctx context.Context, id string) (BadgeApplication, error)
	List(context.Context, ListRequest) (ListResponse, error)
}

var (
	ErrNotFound               = errors.New("badge_application_not_found")
	ErrForbidden              = errors.New("badge_application_forbidden")
	ErrInvalidID              = errors.New("invalid_badge_application_id")
	ErrInvalidActor           = errors.New("invalid_actor")
	ErrNotDraft               = errors.New("badge_application_not_draft")
	ErrEmptyReviewNote        = errors.New("empty_review_note")
	ErrInvalidFulfillmentDate = errors.New("invalid_fulfillment_date")
	// ErrCatalogBadgeInactive reports a submit whose referenced catalog
	// badge is no longer active.
	ErrCatalogBadgeInactive = errors.New("catalog_badge_inactive")
)
