package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/meritup/internal/actorctx"
	badgeappdomain "github.com/smallbiznis/meritup/internal/badgeapp/domain"
	badgeapprepo "github.com/smallbiznis/meritup/internal/badgeapp/repository"
	catalogdomain "github.com/smallbiznis/meritup/internal/badgecatalog/domain"
	catalogrepo "github.com/smallbiznis/meritup/internal/badgecatalog/repository"
	"github.com/smallbiznis/meritup/internal/clock"
	"github.com/smallbiznis/meritup/internal/promotion/domain"
	promotionrepo "github.com/smallbiznis/meritup/internal/promotion/repository"
	reservationdomain "github.com/smallbiznis/meritup/internal/reservation/domain"
	reservationrepo "github.com/smallbiznis/meritup/internal/reservation/repository"
	templatecache "github.com/smallbiznis/meritup/internal/template/cache"
	templatedomain "github.com/smallbiznis/meritup/internal/template/domain"
	templaterepo "github.com/smallbiznis/meritup/internal/template/repository"
	templateservice "github.com/smallbiznis/meritup/internal/template/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type env struct {
	svc    domain.Service
	db     *gorm.DB
	node   *snowflake.Node
	clk    *clock.FakeClock
	ledger reservationdomain.Ledger
}

func setupEnv(t *testing.T) *env {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	_ = conn.Exec("PRAGMA busy_timeout = 5000").Error

	require.NoError(t, conn.AutoMigrate(
		&catalogdomain.CatalogBadge{},
		&templatedomain.PromotionTemplate{},
		&templatedomain.TemplateRule{},
		&badgeappdomain.BadgeApplication{},
		&domain.Promotion{},
		&reservationdomain.Reservation{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	templateSvc := templateservice.New(templateservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		Repo:  templaterepo.Provide(),
		Cache: templatecache.NewMemoryCache(),
	})

	ledger := reservationrepo.Provide()
	svc := New(Params{
		DB:           conn,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        clk,
		Repo:         promotionrepo.Provide(),
		Ledger:       ledger,
		BadgeAppRepo: badgeapprepo.Provide(),
		CatalogRepo:  catalogrepo.Provide(),
		Templates:    templateSvc,
	})

	return &env{svc: svc, db: conn, node: node, clk: clk, ledger: ledger}
}

func (e *env) actor(id snowflake.ID) context.Context {
	return actorctx.WithUserID(context.Background(), id)
}

func (e *env) seedCatalogBadge(t *testing.T, category catalogdomain.BadgeCategory, level catalogdomain.BadgeLevel) snowflake.ID {
	t.Helper()
	now := e.clk.Now()
	badge := catalogdomain.CatalogBadge{
		ID:        e.node.Generate(),
		Name:      fmt.Sprintf("badge-%s", e.node.Generate()),
		Category:  category,
		Level:     level,
		Status:    catalogdomain.CatalogBadgeStatusActive,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.db.Create(&badge).Error)
	return badge.ID
}

type seedRule struct {
	category catalogdomain.BadgeCategory
	level    catalogdomain.BadgeLevel
	count    int
}

func (e *env) seedTemplate(t *testing.T, rules ...seedRule) snowflake.ID {
	t.Helper()
	now := e.clk.Now()
	template := templatedomain.PromotionTemplate{
		ID:        e.node.Generate(),
		Name:      fmt.Sprintf("template-%s", e.node.Generate()),
		Path:      "engineering",
		FromLevel: "L3",
		ToLevel:   "L4",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.db.Create(&template).Error)
	for i, r := range rules {
		rule := templatedomain.TemplateRule{
			ID:         e.node.Generate(),
			TemplateID: template.ID,
			Position:   i + 1,
			Category:   r.category,
			Level:      r.level,
			Count:      r.count,
		}
		require.NoError(t, e.db.Create(&rule).Error)
	}
	return template.ID
}

func (e *env) seedAcceptedBadge(t *testing.T, applicantID, catalogBadgeID snowflake.ID) snowflake.ID {
	t.Helper()
	now := e.clk.Now()
	app := badgeappdomain.BadgeApplication{
		ID:                  e.node.Generate(),
		ApplicantID:         applicantID,
		CatalogBadgeID:      catalogBadgeID,
		CatalogBadgeVersion: 1,
		DateOfApplication:   now,
		Status:              badgeappdomain.StatusAccepted,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	require.NoError(t, e.db.Create(&app).Error)
	return app.ID
}

func (e *env) badgeStatus(t *testing.T, id snowflake.ID) badgeappdomain.Status {
	t.Helper()
	var app badgeappdomain.BadgeApplication
	require.NoError(t, e.db.Where("id = ?", id).First(&app).Error)
	return app.Status
}

func TestValidateReportsMissingRules(t *testing.T) {
	e := setupEnv(t)
	creator := e.node.Generate()
	ctx := e.actor(creator)

	templateID := e.seedTemplate(t,
		seedRule{catalogdomain.CategoryTechnical, catalogdomain.LevelSilver, 6},
		seedRule{catalogdomain.CategoryAny, catalogdomain.LevelGold, 1},
	)
	catalogID := e.seedCatalogBadge(t, catalogdomain.CategoryTechnical, catalogdomain.LevelSilver)

	promo, err := e.svc.Create(ctx, domain.CreateRequest{TemplateID: templateID.String()})
	require.NoError(t, err)

	badgeIDs := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		badgeIDs = append(badgeIDs, e.seedAcceptedBadge(t, creator, catalogID).String())
	}
	require.NoError(t, e.svc.AddBadges(ctx, domain.BadgesRequest{
		PromotionID:         promo.ID.String(),
		BadgeApplicationIDs: badgeIDs,
	}))

	report, err := e.svc.Validate(ctx, promo.ID.String())
	require.NoError(t, err)

	assert.False(t, report.Valid)
	require.Len(t, report.Missing, 2)
	assert.Equal(t, catalogdomain.CategoryTechnical, report.Missing[0].Category)
	assert.Equal(t, catalogdomain.LevelSilver, report.Missing[0].Level)
	assert.Equal(t, 2, report.Missing[0].Missing)
	assert.Equal(t, catalogdomain.CategoryAny, report.Missing[1].Category)
	assert.Equal(t, catalogdomain.LevelGold, report.Missing[1].Level)
	assert.Equal(t, 1, report.Missing[1].Missing)

	// No intervening mutation, so a second run reports the same outcome.
	again, err := e.svc.Validate(ctx, promo.ID.String())
	require.NoError(t, err)
	assert.Equal(t, report, again)
}

func TestAddBadgesConflictNamesWinner(t *testing.T) {
	e := setupEnv(t)
	userA := e.node.Generate()
	userB := e.node.Generate()

	templateID := e.seedTemplate(t, seedRule{catalogdomain.CategoryAny, catalogdomain.LevelGold, 1})
	catalogID := e.seedCatalogBadge(t, catalogdomain.CategoryTechnical, catalogdomain.LevelGold)
	badgeX := e.seedAcceptedBadge(t, userA, catalogID)

	promoA, err := e.svc.Create(e.actor(userA), domain.CreateRequest{TemplateID: templateID.String()})
	require.NoError(t, err)
	promoB, err := e.svc.Create(e.actor(userB), domain.CreateRequest{TemplateID: templateID.String()})
	require.NoError(t, err)

	require.NoError(t, e.svc.AddBadges(e.actor(userA), domain.BadgesRequest{
		PromotionID:         promoA.ID.String(),
		BadgeApplicationIDs: []string{badgeX.String()},
	}))

	err = e.svc.AddBadges(e.actor(userB), domain.BadgesRequest{
		PromotionID:         promoB.ID.String(),
		BadgeApplicationIDs: []string{badgeX.String()},
	})

	var conflict *domain.ReservationConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, badgeX, conflict.BadgeApplicationID)
	assert.Equal(t, promoA.ID, conflict.OwningPromotionID)

	// Re-adding to the owner is an idempotent no-op.
	assert.NoError(t, e.svc.AddBadges(e.actor(userA), domain.BadgesRequest{
		PromotionID:         promoA.ID.String(),
		BadgeApplicationIDs: []string{badgeX.String()},
	}))
}

func TestAddBadgesRequiresAcceptedStatus(t *testing.T) {
	e := setupEnv(t)
	creator := e.node.Generate()
	ctx := e.actor(creator)

	templateID := e.seedTemplate(t, seedRule{catalogdomain.CategoryAny, catalogdomain.LevelGold, 1})
	catalogID := e.seedCatalogBadge(t, catalogdomain.CategoryTechnical, catalogdomain.LevelGold)

	promo, err := e.svc.Create(ctx, domain.CreateRequest{TemplateID: templateID.String()})
	require.NoError(t, err)

	now := e.clk.Now()
	draft := badgeappdomain.BadgeApplication{
		ID:                  e.node.Generate(),
		ApplicantID:         creator,
		CatalogBadgeID:      catalogID,
		CatalogBadgeVersion: 1,
		DateOfApplication:   now,
		Status:              badgeappdomain.StatusDraft,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	require.NoError(t, e.db.Create(&draft).Error)

	err = e.svc.AddBadges(ctx, domain.BadgesRequest{
		PromotionID:         promo.ID.String(),
		BadgeApplicationIDs: []string{draft.ID.String()},
	})

	var invalid *domain.InvalidBadgeApplicationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, draft.ID, invalid.BadgeApplicationID)
}

func TestDeleteDraftReleasesBadges(t *testing.T) {
	e := setupEnv(t)
	creator := e.node.Generate()
	ctx := e.actor(creator)

	templateID := e.seedTemplate(t, seedRule{catalogdomain.CategoryTechnical, catalogdomain.LevelSilver, 3})
	catalogID := e.seedCatalogBadge(t, catalogdomain.CategoryTechnical, catalogdomain.LevelSilver)

	promo, err := e.svc.Create(ctx, domain.CreateRequest{TemplateID: templateID.String()})
	require.NoError(t, err)

	badgeIDs := make([]snowflake.ID, 3)
	strIDs := make([]string, 3)
	for i := range badgeIDs {
		badgeIDs[i] = e.seedAcceptedBadge(t, creator, catalogID)
		strIDs[i] = badgeIDs[i].String()
	}
	require.NoError(t, e.svc.AddBadges(ctx, domain.BadgesRequest{
		PromotionID:         promo.ID.String(),
		BadgeApplicationIDs: strIDs,
	}))

	require.NoError(t, e.svc.Delete(ctx, promo.ID.String()))

	for _, id := range badgeIDs {
		assert.Equal(t, badgeappdomain.StatusAccepted, e.badgeStatus(t, id))
		res, err := e.ledger.FindByBadgeApplicationID(context.Background(), e.db, id)
		require.NoError(t, err)
		assert.Nil(t, res)
	}

	_, err = e.svc.GetByID(ctx, promo.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApproveConsumesReservationsPermanently(t *testing.T) {
	e := setupEnv(t)
	creator := e.node.Generate()
	approver := e.node.Generate()
	rival := e.node.Generate()
	ctx := e.actor(creator)

	templateID := e.seedTemplate(t, seedRule{catalogdomain.CategoryAny, catalogdomain.LevelGold, 1})
	catalogID := e.seedCatalogBadge(t, catalogdomain.CategoryTechnical, catalogdomain.LevelGold)
	badgeID := e.seedAcceptedBadge(t, creator, catalogID)

	promo, err := e.svc.Create(ctx, domain.CreateRequest{TemplateID: templateID.String()})
	require.NoError(t, err)
	require.NoError(t, e.svc.AddBadges(ctx, domain.BadgesRequest{
		PromotionID:         promo.ID.String(),
		BadgeApplicationIDs: []string{badgeID.String()},
	}))

	submitted, err := e.svc.Submit(ctx, promo.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, submitted.Status)
	assert.Equal(t, badgeappdomain.StatusUsedInPromotion, e.badgeStatus(t, badgeID))

	approved, err := e.svc.Approve(e.actor(approver), promo.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	assert.True(t, approved.Executed)
	require.NotNil(t, approved.ApproverID)
	assert.Equal(t, approver, *approved.ApproverID)

	res, err := e.ledger.FindByBadgeApplicationID(context.Background(), e.db, badgeID)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Consumed)

	// The consumed badge stays unavailable to every other promotion.
	rivalPromo, err := e.svc.Create(e.actor(rival), domain.CreateRequest{TemplateID: templateID.String()})
	require.NoError(t, err)
	err = e.svc.AddBadges(e.actor(rival), domain.BadgesRequest{
		PromotionID:         rivalPromo.ID.String(),
		BadgeApplicationIDs: []string{badgeID.String()},
	})
	var conflict *domain.ReservationConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, promo.ID, conflict.OwningPromotionID)
}

func TestRejectRequiresReasonAndReleasesBadges(t *testing.T) {
	e := setupEnv(t)
	creator := e.node.Generate()
	admin := e.node.Generate()
	ctx := e.actor(creator)

	templateID := e.seedTemplate(t, seedRule{catalogdomain.CategoryAny, catalogdomain.LevelGold, 1})
	catalogID := e.seedCatalogBadge(t, catalogdomain.CategoryTechnical, catalogdomain.LevelGold)
	badgeID := e.seedAcceptedBadge(t, creator, catalogID)

	promo, err := e.svc.Create(ctx, domain.CreateRequest{TemplateID: templateID.String()})
	require.NoError(t, err)
	require.NoError(t, e.svc.AddBadges(ctx, domain.BadgesRequest{
		PromotionID:         promo.ID.String(),
		BadgeApplicationIDs: []string{badgeID.String()},
	}))
	_, err = e.svc.Submit(ctx, promo.ID.String())
	require.NoError(t, err)

	_, err = e.svc.Reject(e.actor(admin), domain.RejectRequest{ID: promo.ID.String(), Reason: "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyReason)

	rejected, err := e.svc.Reject(e.actor(admin), domain.RejectRequest{
		ID:     promo.ID.String(),
		Reason: "insufficient evidence",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "insufficient evidence", *rejected.RejectionReason)

	assert.Equal(t, badgeappdomain.StatusAccepted, e.badgeStatus(t, badgeID))
	res, err := e.ledger.FindByBadgeApplicationID(context.Background(), e.db, badgeID)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestSubmitFailsValidationAndLeavesDraft(t *testing.T) {
	e := setupEnv(t)
	creator := e.node.Generate()
	ctx := e.actor(creator)

	templateID := e.seedTemplate(t, seedRule{catalogdomain.CategoryTechnical, catalogdomain.LevelGold, 2})
	catalogID := e.seedCatalogBadge(t, catalogdomain.CategoryTechnical, catalogdomain.LevelGold)
	badgeID := e.seedAcceptedBadge(t, creator, catalogID)

	promo, err := e.svc.Create(ctx, domain.CreateRequest{TemplateID: templateID.String()})
	require.NoError(t, err)
	require.NoError(t, e.svc.AddBadges(ctx, domain.BadgesRequest{
		PromotionID:         promo.ID.String(),
		BadgeApplicationIDs: []string{badgeID.String()},
	}))

	_, err = e.svc.Submit(ctx, promo.ID.String())

	var failed *domain.ValidationFailedError
	require.ErrorAs(t, err, &failed)
	require.Len(t, failed.Report.Missing, 1)
	assert.Equal(t, 1, failed.Report.Missing[0].Missing)

	current, err := e.svc.GetByID(ctx, promo.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, current.Status)
	assert.Equal(t, badgeappdomain.StatusAccepted, e.badgeStatus(t, badgeID))
}

func TestLifecycleGuards(t *testing.T) {
	e := setupEnv(t)
	creator := e.node.Generate()
	stranger := e.node.Generate()
	ctx := e.actor(creator)

	templateID := e.seedTemplate(t, seedRule{catalogdomain.CategoryAny, catalogdomain.LevelGold, 1})
	catalogID := e.seedCatalogBadge(t, catalogdomain.CategoryTechnical, catalogdomain.LevelGold)
	badgeID := e.seedAcceptedBadge(t, creator, catalogID)

	promo, err := e.svc.Create(ctx, domain.CreateRequest{TemplateID: templateID.String()})
	require.NoError(t, err)

	// Only the creator mutates the badge set.
	err = e.svc.AddBadges(e.actor(stranger), domain.BadgesRequest{
		PromotionID:         promo.ID.String(),
		BadgeApplicationIDs: []string{badgeID.String()},
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, e.svc.AddBadges(ctx, domain.BadgesRequest{
		PromotionID:         promo.ID.String(),
		BadgeApplicationIDs: []string{badgeID.String()},
	}))
	_, err = e.svc.Submit(ctx, promo.ID.String())
	require.NoError(t, err)

	// Approving twice is an illegal transition.
	_, err = e.svc.Approve(e.actor(stranger), promo.ID.String())
	require.NoError(t, err)
	_, err = e.svc.Approve(e.actor(stranger), promo.ID.String())
	var transitionErr *domain.StatusTransitionError
	assert.ErrorAs(t, err, &transitionErr)

	// Submitted and approved promotions cannot be deleted or mutated.
	err = e.svc.Delete(ctx, promo.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotDraft)
	err = e.svc.RemoveBadges(ctx, domain.BadgesRequest{
		PromotionID:         promo.ID.String(),
		BadgeApplicationIDs: []string{badgeID.String()},
	})
	assert.ErrorIs(t, err, domain.ErrNotDraft)
}
