package domain

import (
	"context"
	"errors"
)

type ListBadgeFilter struct {
	Category BadgeCategory
	Level    BadgeLevel
	Status   CatalogBadgeStatus
}

type ListBadgeRequest struct {
	Category string
	Level    string
	Status   string
}

type Service interface {
	GetByID(context.Context, string) (CatalogBadge, error)
	List(context.Context, ListBadgeRequest) ([]CatalogBadge, error)
}

var (
	ErrNotFound  = errors.New("catalog_badge_not_found")
	ErrInvalidID = errors.New("invalid_catalog_badge_id")
)
