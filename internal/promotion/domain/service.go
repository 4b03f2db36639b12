package domain

import (
	"context"

	"github.com/smallbiznis/meritup/internal/eligibility"
	"github.com/smallbiznis/meritup/pkg/db/pagination"
)

type CreateRequest struct {
	TemplateID string `json:"template_id"`
}

type BadgesRequest struct {
	PromotionID         string   `json:"-"`
	BadgeApplicationIDs []string `json:"badge_application_ids"`
}

type RejectRequest struct {
	ID     string `json:"-"`
	Reason string `json:"reason"`
}

type ListFilter struct {
	CreatorID string
	Status    Status
}

type ListRequest struct {
	CreatorID string
	Status    string
	PageToken string
	PageSize  int32
}

type ListResponse struct {
	pagination.PageInfo
	Promotions []Promotion `json:"promotions"`
}

type Service interface {
	Create(context.Context, CreateRequest) (Promotion, error)
	Delete(ctx context.Context, id string) error
	AddBadges(context.Context, BadgesRequest) error
	RemoveBadges(context.Context, BadgesRequest) error
	// Validate is the live preview; it never mutates state and two calls
	// without an intervening mutation return identical reports.
	Validate(ctx context.Context, id string) (eligibility.Report, error)
	Submit(ctx context.Context, id string) (Promotion, error)
	Approve(ctx context.Context, id string) (Promotion, error)
	Reject(context.Context, RejectRequest) (Promotion, error)
	GetByID(ctx context.Context, id string) (Promotion, error)
	List(context.Context, ListRequest) (ListResponse, error)
}
