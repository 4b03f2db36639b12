package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/meritup/internal/actorctx"
	badgeappdomain "github.com/smallbiznis/meritup/internal/badgeapp/domain"
	catalogdomain "github.com/smallbiznis/meritup/internal/badgecatalog/domain"
	"github.com/smallbiznis/meritup/internal/clock"
	"github.com/smallbiznis/meritup/internal/eligibility"
	"github.com/smallbiznis/meritup/internal/observability/metrics"
	"github.com/smallbiznis/meritup/internal/promotion/domain"
	reservationdomain "github.com/smallbiznis/meritup/internal/reservation/domain"
	templatedomain "github.com/smallbiznis/meritup/internal/template/domain"
	"github.com/smallbiznis/meritup/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	Ledger       reservationdomain.Ledger
	BadgeAppRepo badgeappdomain.Repository
	CatalogRepo  catalogdomain.Repository
	Templates    templatedomain.Service
	Metrics      *metrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	ledger       reservationdomain.Ledger
	badgeAppRepo badgeappdomain.Repository
	catalogRepo  catalogdomain.Repository
	templates    templatedomain.Service
	metrics      *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("promotion.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		ledger:       p.Ledger,
		badgeAppRepo: p.BadgeAppRepo,
		catalogRepo:  p.CatalogRepo,
		templates:    p.Templates,
		metrics:      p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.Promotion, error) {
	creatorID, ok := actorctx.UserIDFromContext(ctx)
	if !ok || creatorID == 0 {
		return domain.Promotion{}, domain.ErrInvalidActor
	}

	tpl, err := s.templates.GetActiveByID(ctx, req.TemplateID)
	if err != nil {
		return domain.Promotion{}, err
	}

	now := s.clock.Now()
	promotion := domain.Promotion{
		ID:         s.genID.Generate(),
		TemplateID: tpl.ID,
		CreatorID:  creatorID,
		Path:       tpl.Path,
		FromLevel:  tpl.FromLevel,
		ToLevel:    tpl.ToLevel,
		Status:     domain.StatusDraft,
		Metadata:   datatypes.JSONMap{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Insert(ctx, s.db, &promotion); err != nil {
		return domain.Promotion{}, err
	}
	return promotion, nil
}

// Delete removes a draft promotion and frees every badge it holds. Only the
// creator may delete, and only while the promotion is still in draft.
func (s *Service) Delete(ctx context.Context, id string) error {
	promotion, err := s.loadOwned(ctx, id)
	if err != nil {
		return err
	}
	if promotion.Status != domain.StatusDraft {
		return domain.ErrNotDraft
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.releaseBadges(ctx, tx, promotion.ID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, promotion.ID)
	})
}

// conflictError is the in-transaction marker for a reservation held by
// another promotion. The owning promotion is resolved outside the
// transaction when the losing insert aborted it.
type conflictError struct {
	badgeApplicationID snowflake.ID
	owningPromotionID  snowflake.ID
}

func (e *conflictError) Error() string {
	return fmt.Sprintf("badge application %s already reserved", e.badgeApplicationID)
}

func (s *Service) AddBadges(ctx context.Context, req domain.BadgesRequest) error {
	promotion, err := s.loadOwned(ctx, req.PromotionID)
	if err != nil {
		return err
	}
	if promotion.Status != domain.StatusDraft {
		return domain.ErrNotDraft
	}

	badgeIDs, err := parseIDs(req.BadgeApplicationIDs)
	if err != nil {
		return err
	}
	if len(badgeIDs) == 0 {
		return nil
	}

	actorID, _ := actorctx.UserIDFromContext(ctx)

	claimed := 0
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		apps, err := s.badgeAppRepo.FindByIDs(ctx, tx, badgeIDs)
		if err != nil {
			return err
		}
		byID := make(map[snowflake.ID]*badgeappdomain.BadgeApplication, len(apps))
		for _, app := range apps {
			byID[app.ID] = app
		}

		now := s.clock.Now()
		for _, badgeID := range badgeIDs {
			app, ok := byID[badgeID]
			if !ok {
				return &domain.InvalidBadgeApplicationError{
					BadgeApplicationID: badgeID,
					Reason:             "badge application does not exist",
				}
			}

			existing, err := s.ledger.FindByBadgeApplicationID(ctx, tx, badgeID)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.PromotionID == promotion.ID && !existing.Consumed {
					continue
				}
				return &conflictError{
					badgeApplicationID: badgeID,
					owningPromotionID:  existing.PromotionID,
				}
			}

			if app.Status != badgeappdomain.StatusAccepted {
				return &domain.InvalidBadgeApplicationError{
					BadgeApplicationID: badgeID,
					Reason:             fmt.Sprintf("badge application status is %s, expected %s", app.Status, badgeappdomain.StatusAccepted),
				}
			}

			err = s.ledger.Claim(ctx, tx, &reservationdomain.Reservation{
				ID:                 s.genID.Generate(),
				PromotionID:        promotion.ID,
				BadgeApplicationID: badgeID,
				CreatedBy:          actorID,
				CreatedAt:          now,
				UpdatedAt:          now,
			})
			if err != nil {
				if errors.Is(err, reservationdomain.ErrAlreadyReserved) {
					// Lost the race after the pre-check passed. The owner
					// cannot be read here: the failed insert may have
					// aborted the transaction.
					return &conflictError{badgeApplicationID: badgeID}
				}
				return err
			}
			claimed++
		}
		return nil
	})

	var conflict *conflictError
	if errors.As(txErr, &conflict) {
		s.metrics.RecordReservationConflict(ctx)
		owner := conflict.owningPromotionID
		if owner == 0 {
			if res, err := s.ledger.FindByBadgeApplicationID(ctx, s.db, conflict.badgeApplicationID); err == nil && res != nil {
				owner = res.PromotionID
			}
		}
		return &domain.ReservationConflictError{
			BadgeApplicationID: conflict.badgeApplicationID,
			OwningPromotionID:  owner,
		}
	}
	if txErr != nil {
		return txErr
	}

	s.metrics.RecordReservationClaims(ctx, claimed)
	return nil
}

// RemoveBadges frees the promotion's reservations on the listed badge
// applications. IDs the promotion does not hold are ignored, so removal is
// idempotent.
func (s *Service) RemoveBadges(ctx context.Context, req domain.BadgesRequest) error {
	promotion, err := s.loadOwned(ctx, req.PromotionID)
	if err != nil {
		return err
	}
	if promotion.Status != domain.StatusDraft {
		return domain.ErrNotDraft
	}

	badgeIDs, err := parseIDs(req.BadgeApplicationIDs)
	if err != nil {
		return err
	}
	if len(badgeIDs) == 0 {
		return nil
	}

	return s.ledger.Release(ctx, s.db, promotion.ID, badgeIDs)
}

func (s *Service) Validate(ctx context.Context, id string) (eligibility.Report, error) {
	promotion, err := s.load(ctx, id)
	if err != nil {
		return eligibility.Report{}, err
	}

	tpl, err := s.templates.GetByID(ctx, promotion.TemplateID.String())
	if err != nil {
		return eligibility.Report{}, err
	}

	report, err := s.evaluate(ctx, s.db, promotion, tpl.Rules)
	if err != nil {
		return eligibility.Report{}, err
	}
	s.metrics.RecordEligibilityCheck(ctx, report.Valid)
	return report, nil
}

// Submit validates and transitions in one transaction, so the badge set the
// validator approved is exactly the set that gets marked used.
func (s *Service) Submit(ctx context.Context, id string) (domain.Promotion, error) {
	promotion, err := s.loadOwned(ctx, id)
	if err != nil {
		return domain.Promotion{}, err
	}

	// Resolved ahead of the transaction; templates are immutable once
	// authored, so the rules cannot drift between here and the writes.
	tpl, err := s.templates.GetByID(ctx, promotion.TemplateID.String())
	if err != nil {
		return domain.Promotion{}, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		report, err := s.evaluate(ctx, tx, promotion, tpl.Rules)
		if err != nil {
			return err
		}
		s.metrics.RecordEligibilityCheck(ctx, report.Valid)
		if !report.Valid {
			return &domain.ValidationFailedError{Report: report}
		}

		reservations, err := s.ledger.ListByPromotionID(ctx, tx, promotion.ID)
		if err != nil {
			return err
		}
		badgeIDs := make([]snowflake.ID, 0, len(reservations))
		for _, res := range reservations {
			badgeIDs = append(badgeIDs, res.BadgeApplicationID)
		}
		if err := s.badgeAppRepo.MarkUsedAll(ctx, tx, badgeIDs); err != nil {
			return err
		}

		if err := promotion.Transition(domain.StatusSubmitted); err != nil {
			return err
		}
		now := s.clock.Now()
		promotion.SubmittedAt = &now
		promotion.UpdatedAt = now
		return s.repo.Update(ctx, tx, promotion)
	})
	if err != nil {
		return domain.Promotion{}, err
	}

	s.metrics.RecordPromotionTransition(ctx, string(domain.StatusSubmitted))
	return *promotion, nil
}

// Approve executes the promotion. Reservations are consumed, not released,
// so the badges remain unavailable to any future promotion.
func (s *Service) Approve(ctx context.Context, id string) (domain.Promotion, error) {
	approverID, ok := actorctx.UserIDFromContext(ctx)
	if !ok || approverID == 0 {
		return domain.Promotion{}, domain.ErrInvalidActor
	}

	promotion, err := s.load(ctx, id)
	if err != nil {
		return domain.Promotion{}, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := promotion.Transition(domain.StatusApproved); err != nil {
			return err
		}
		now := s.clock.Now()
		promotion.Executed = true
		promotion.ApprovedAt = &now
		promotion.ApproverID = &approverID
		promotion.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, promotion); err != nil {
			return err
		}
		return s.ledger.ConsumeAll(ctx, tx, promotion.ID)
	})
	if err != nil {
		return domain.Promotion{}, err
	}

	s.metrics.RecordPromotionTransition(ctx, string(domain.StatusApproved))
	return *promotion, nil
}

func (s *Service) Reject(ctx context.Context, req domain.RejectRequest) (domain.Promotion, error) {
	rejecterID, ok := actorctx.UserIDFromContext(ctx)
	if !ok || rejecterID == 0 {
		return domain.Promotion{}, domain.ErrInvalidActor
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return domain.Promotion{}, domain.ErrEmptyReason
	}

	promotion, err := s.load(ctx, req.ID)
	if err != nil {
		return domain.Promotion{}, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := promotion.Transition(domain.StatusRejected); err != nil {
			return err
		}
		now := s.clock.Now()
		promotion.RejectedAt = &now
		promotion.RejecterID = &rejecterID
		promotion.RejectionReason = &reason
		promotion.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, promotion); err != nil {
			return err
		}
		return s.releaseBadges(ctx, tx, promotion.ID)
	})
	if err != nil {
		return domain.Promotion{}, err
	}

	s.metrics.RecordPromotionTransition(ctx, string(domain.StatusRejected))
	return *promotion, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Promotion, error) {
	promotion, err := s.load(ctx, id)
	if err != nil {
		return domain.Promotion{}, err
	}
	return *promotion, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	filter := domain.ListFilter{
		CreatorID: strings.TrimSpace(req.CreatorID),
		Status:    domain.Status(strings.ToUpper(strings.TrimSpace(req.Status))),
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

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(promotion *domain.Promotion) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        promotion.ID.String(),
			CreatedAt: promotion.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	promotions := make([]domain.Promotion, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		promotions = append(promotions, *item)
	}

	resp := domain.ListResponse{Promotions: promotions}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// evaluate gathers the promotion's reserved badges and runs them against
// the template rules. It reads through the supplied handle so submit can
// evaluate inside its own transaction.
func (s *Service) evaluate(ctx context.Context, db *gorm.DB, promotion *domain.Promotion, rules []templatedomain.TemplateRule) (eligibility.Report, error) {
	reservations, err := s.ledger.ListByPromotionID(ctx, db, promotion.ID)
	if err != nil {
		return eligibility.Report{}, err
	}

	badgeIDs := make([]snowflake.ID, 0, len(reservations))
	for _, res := range reservations {
		badgeIDs = append(badgeIDs, res.BadgeApplicationID)
	}

	apps, err := s.badgeAppRepo.FindByIDs(ctx, db, badgeIDs)
	if err != nil {
		return eligibility.Report{}, err
	}

	catalogIDs := make([]snowflake.ID, 0, len(apps))
	for _, app := range apps {
		catalogIDs = append(catalogIDs, app.CatalogBadgeID)
	}
	catalogBadges, err := s.catalogRepo.FindByIDs(ctx, db, catalogIDs)
	if err != nil {
		return eligibility.Report{}, err
	}
	catalogByID := make(map[snowflake.ID]*catalogdomain.CatalogBadge, len(catalogBadges))
	for _, badge := range catalogBadges {
		catalogByID[badge.ID] = badge
	}

	badges := make([]eligibility.Badge, 0, len(apps))
	for _, app := range apps {
		badge, ok := catalogByID[app.CatalogBadgeID]
		if !ok {
			return eligibility.Report{}, fmt.Errorf("catalog badge %s referenced by application %s not found", app.CatalogBadgeID, app.ID)
		}
		badges = append(badges, eligibility.Badge{
			Category: badge.Category,
			Level:    badge.Level,
		})
	}

	return eligibility.Evaluate(rules, badges), nil
}

// releaseBadges is the shared cleanup for delete and reject: used badge
// applications revert to accepted and the promotion's unconsumed
// reservations disappear.
func (s *Service) releaseBadges(ctx context.Context, tx *gorm.DB, promotionID snowflake.ID) error {
	reservations, err := s.ledger.ListByPromotionID(ctx, tx, promotionID)
	if err != nil {
		return err
	}
	badgeIDs := make([]snowflake.ID, 0, len(reservations))
	for _, res := range reservations {
		if res.Consumed {
			continue
		}
		badgeIDs = append(badgeIDs, res.BadgeApplicationID)
	}
	if err := s.badgeAppRepo.ReleaseUsed(ctx, tx, badgeIDs); err != nil {
		return err
	}
	return s.ledger.ReleaseAll(ctx, tx, promotionID)
}

func (s *Service) load(ctx context.Context, id string) (*domain.Promotion, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}
	promotion, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	if promotion == nil {
		return nil, domain.ErrNotFound
	}
	return promotion, nil
}

func (s *Service) loadOwned(ctx context.Context, id string) (*domain.Promotion, error) {
	actorID, ok := actorctx.UserIDFromContext(ctx)
	if !ok || actorID == 0 {
		return nil, domain.ErrInvalidActor
	}
	promotion, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if promotion.CreatorID != actorID {
		return nil, domain.ErrForbidden
	}
	return promotion, nil
}

func parseIDs(raw []string) ([]snowflake.ID, error) {
	seen := make(map[snowflake.ID]struct{}, len(raw))
	ids := make([]snowflake.ID, 0, len(raw))
	for _, value := range raw {
		parsed, err := snowflake.ParseString(strings.TrimSpace(value))
		if err != nil || parsed == 0 {
			return nil, badgeappdomain.ErrInvalidID
		}
		if _, ok := seen[parsed]; ok {
			continue
		}
		seen[parsed] = struct{}{}
		ids = append(ids, parsed)
	}
	return ids, nil
}
