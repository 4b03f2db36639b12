package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/meritup/internal/actorctx"
	"github.com/smallbiznis/meritup/internal/badgeapp/domain"
	catalogdomain "github.com/smallbiznis/meritup/internal/badgecatalog/domain"
	"github.com/smallbiznis/meritup/internal/clock"
	"github.com/smallbiznis/meritup/internal/observability/metrics"
	"github.com/smallbiznis/meritup/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	CatalogRepo catalogdomain.Repository
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	catalogRepo catalogdomain.Repository
	metrics     *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("badgeapp.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		catalogRepo: p.CatalogRepo,
		metrics:     p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.BadgeApplication, error) {
	applicantID, ok := actorctx.UserIDFromContext(ctx)
	if !ok || applicantID == 0 {
		return domain.BadgeApplication{}, domain.ErrInvalidActor
	}

	catalogBadgeID, err := snowflake.ParseString(strings.TrimSpace(req.CatalogBadgeID))
	if err != nil || catalogBadgeID == 0 {
		return domain.BadgeApplication{}, catalogdomain.ErrInvalidID
	}

	badge, err := s.catalogRepo.FindByID(ctx, s.db, catalogBadgeID)
	if err != nil {
		return domain.BadgeApplication{}, err
	}
	if badge == nil {
		return domain.BadgeApplication{}, catalogdomain.ErrNotFound
	}

	now := s.clock.Now()
	applicationDate := req.DateOfApplication
	if applicationDate.IsZero() {
		applicationDate = now
	}
	if req.DateOfFulfillment != nil && req.DateOfFulfillment.Before(applicationDate) {
		return domain.BadgeApplication{}, domain.ErrInvalidFulfillmentDate
	}

	var justification *string
	if trimmed := strings.TrimSpace(req.Justification); trimmed != "" {
		justification = &trimmed
	}

	metadata := datatypes.JSONMap{}
	for key, value := range req.Metadata {
		metadata[key] = value
	}

	app := domain.BadgeApplication{
		ID:                  s.genID.Generate(),
		ApplicantID:         applicantID,
		CatalogBadgeID:      catalogBadgeID,
		CatalogBadgeVersion: badge.Version,
		DateOfApplication:   applicationDate,
		DateOfFulfillment:   req.DateOfFulfillment,
		Justification:       justification,
		Status:              domain.StatusDraft,
		Metadata:            metadata,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.repo.Insert(ctx, s.db, &app); err != nil {
		return domain.BadgeApplication{}, err
	}
	return app, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (domain.BadgeApplication, error) {
	app, err := s.loadOwned(ctx, req.ID)
	if err != nil {
		return domain.BadgeApplication{}, err
	}
	if app.Status != domain.StatusDraft {
		return domain.BadgeApplication{}, domain.ErrNotDraft
	}

	if req.DateOfApplication != nil {
		app.DateOfApplication = *req.DateOfApplication
	}
	if req.DateOfFulfillment != nil {
		app.DateOfFulfillment = req.DateOfFulfillment
	}
	if req.Justification != nil {
		trimmed := strings.TrimSpace(*req.Justification)
		if trimmed == "" {
			app.Justification = nil
		} else {
			app.Justification = &trimmed
		}
	}
	if app.DateOfFulfillment != nil && app.DateOfFulfillment.Before(app.DateOfApplication) {
		return domain.BadgeApplication{}, domain.ErrInvalidFulfillmentDate
	}

	app.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, app); err != nil {
		return domain.BadgeApplication{}, err
	}
	return *app, nil
}

func (s *Service) Submit(ctx context.Context, id string) (domain.BadgeApplication, error) {
	app, err := s.loadOwned(ctx, id)
	if err != nil {
		return domain.BadgeApplication{}, err
	}

	badge, err := s.catalogRepo.FindByID(ctx, s.db, app.CatalogBadgeID)
	if err != nil {
		return domain.BadgeApplication{}, err
	}
	if badge == nil || !badge.Active() {
		return domain.BadgeApplication{}, domain.ErrCatalogBadgeInactive
	}

	if err := app.Transition(domain.StatusSubmitted); err != nil {
		return domain.BadgeApplication{}, err
	}
	now := s.clock.Now()
	app.SubmittedAt = &now
	app.UpdatedAt = now

	if err := s.repo.Update(ctx, s.db, app); err != nil {
		return domain.BadgeApplication{}, err
	}
	s.metrics.RecordBadgeAppTransition(ctx, string(domain.StatusSubmitted))
	return *app, nil
}

func (s *Service) Accept(ctx context.Context, req domain.ReviewRequest) (domain.BadgeApplication, error) {
	return s.review(ctx, req, domain.StatusAccepted)
}

func (s *Service) Reject(ctx context.Context, req domain.ReviewRequest) (domain.BadgeApplication, error) {
	if strings.TrimSpace(req.Note) == "" {
		return domain.BadgeApplication{}, domain.ErrEmptyReviewNote
	}
	return s.review(ctx, req, domain.StatusRejected)
}

func (s *Service) review(ctx context.Context, req domain.ReviewRequest, target domain.Status) (domain.BadgeApplication, error) {
	reviewerID, ok := actorctx.UserIDFromContext(ctx)
	if !ok || reviewerID == 0 {
		return domain.BadgeApplication{}, domain.ErrInvalidActor
	}

	app, err := s.load(ctx, req.ID)
	if err != nil {
		return domain.BadgeApplication{}, err
	}

	if err := app.Transition(target); err != nil {
		return domain.BadgeApplication{}, err
	}

	now := s.clock.Now()
	app.ReviewerID = &reviewerID
	app.ReviewedAt = &now
	app.UpdatedAt = now
	if trimmed := strings.TrimSpace(req.Note); trimmed != "" {
		app.ReviewNote = &trimmed
	}

	if err := s.repo.Update(ctx, s.db, app); err != nil {
		return domain.BadgeApplication{}, err
	}
	s.metrics.RecordBadgeAppTransition(ctx, string(target))
	return *app, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.BadgeApplication, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return domain.BadgeApplication{}, err
	}
	return *app, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	filter := domain.ListFilter{
		ApplicantID: strings.TrimSpace(req.ApplicantID),
		Status:      domain.Status(strings.ToUpper(strings.TrimSpace(req.Status))),
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(app *domain.BadgeApplication) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        app.ID.String(),
			CreatedAt: app.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	apps := make([]domain.BadgeApplication, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		apps = append(apps, *item)
	}

	resp := domain.ListResponse{BadgeApplications: apps}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.BadgeApplication, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}
	app, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, domain.ErrNotFound
	}
	return app, nil
}

func (s *Service) loadOwned(ctx context.Context, id string) (*domain.BadgeApplication, error) {
	actorID, ok := actorctx.UserIDFromContext(ctx)
	if !ok || actorID == 0 {
		return nil, domain.ErrInvalidActor
	}
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID != actorID {
		return nil, domain.ErrForbidden
	}
	return app, nil
}
