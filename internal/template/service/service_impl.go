package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/meritup/internal/template/cache"
	"github.com/smallbiznis/meritup/internal/template/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  domain.Repository
	Cache cache.TemplateCache
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	cache cache.TemplateCache
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("template.service"),
		repo:  p.Repo,
		cache: p.Cache,
	}
}

func (s *Service) GetActiveByID(ctx context.Context, id string) (domain.PromotionTemplate, error) {
	template, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.PromotionTemplate{}, err
	}
	if !template.Active {
		return domain.PromotionTemplate{}, domain.ErrInactive
	}
	return template, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.PromotionTemplate, error) {
	trimmed := strings.TrimSpace(id)
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed == 0 {
		return domain.PromotionTemplate{}, domain.ErrInvalidID
	}

	if cached, ok := s.cache.Get(ctx, trimmed); ok {
		return cached, nil
	}

	template, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.PromotionTemplate{}, err
	}
	if template == nil {
		return domain.PromotionTemplate{}, domain.ErrNotFound
	}

	s.cache.Set(ctx, trimmed, *template)
	return *template, nil
}

func (s *Service) List(ctx context.Context, req domain.ListTemplateRequest) ([]domain.PromotionTemplate, error) {
	items, err := s.repo.List(ctx, s.db, domain.ListTemplateFilter{
		Path:   strings.TrimSpace(req.Path),
		Active: req.Active,
	})
	if err != nil {
		return nil, err
	}

	templates := make([]domain.PromotionTemplate, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		templates = append(templates, *item)
	}
	return templates, nil
}
