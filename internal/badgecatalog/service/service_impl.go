package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/meritup/internal/badgecatalog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("badgecatalog.service"),
		repo: p.Repo,
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.CatalogBadge, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.CatalogBadge{}, domain.ErrInvalidID
	}

	badge, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.CatalogBadge{}, err
	}
	if badge == nil {
		return domain.CatalogBadge{}, domain.ErrNotFound
	}
	return *badge, nil
}

func (s *Service) List(ctx context.Context, req domain.ListBadgeRequest) ([]domain.CatalogBadge, error) {
	filter := domain.ListBadgeFilter{
		Category: domain.BadgeCategory(strings.ToUpper(strings.TrimSpace(req.Category))),
		Level:    domain.BadgeLevel(strings.ToUpper(strings.TrimSpace(req.Level))),
		Status:   domain.CatalogBadgeStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	badges := make([]domain.CatalogBadge, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		badges = append(badges, *item)
	}
	return badges, nil
}
