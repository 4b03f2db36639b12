package domain

import (
	"context"
	"errors"
)

type ListTemplateFilter struct {
	Path   string
	Active *bool
}

type ListTemplateRequest struct {
	Path   string
	Active *bool
}

type Service interface {
	// GetActiveByID resolves a template that must currently be active.
	GetActiveByID(context.Context, string) (PromotionTemplate, error)
	// GetByID resolves a template regardless of its active flag.
	GetByID(context.Context, string) (PromotionTemplate, error)
	List(context.Context, ListTemplateRequest) ([]PromotionTemplate, error)
}

var (
	ErrNotFound  = errors.New("template_not_found")
	ErrInactive  = errors.New("template_inactive")
	ErrInvalidID = errors.New("invalid_template_id")
)
