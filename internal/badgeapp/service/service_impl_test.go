package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/meritup/internal/actorctx"
	"github.com/smallbiznis/meritup/internal/badgeapp/domain"
	"github.com/smallbiznis/meritup/internal/badgeapp/repository"
	catalogdomain "github.com/smallbiznis/meritup/internal/badgecatalog/domain"
	catalogrepo "github.com/smallbiznis/meritup/internal/badgecatalog/repository"
	"github.com/smallbiznis/meritup/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type env struct {
	svc  domain.Service
	db   *gorm.DB
	node *snowflake.Node
	clk  *clock.FakeClock
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
		&domain.BadgeApplication{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:          conn,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		Repo:        repository.Provide(),
		CatalogRepo: catalogrepo.Provide(),
	})

	return &env{svc: svc, db: conn, node: node, clk: clk}
}

func (e *env) actor(id snowflake.ID) context.Context {
	return actorctx.WithUserID(context.Background(), id)
}

func (e *env) seedCatalogBadge(t *testing.T, status catalogdomain.CatalogBadgeStatus) snowflake.ID {
	t.Helper()
	now := e.clk.Now()
	badge := catalogdomain.CatalogBadge{
		ID:        e.node.Generate(),
		Name:      fmt.Sprintf("badge-%s", e.node.Generate()),
		Category:  catalogdomain.CategoryTechnical,
		Level:     catalogdomain.LevelGold,
		Status:    status,
		Version:   3,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.db.Create(&badge).Error)
	return badge.ID
}

func TestCreateSnapshotsCatalogVersion(t *testing.T) {
	e := setupEnv(t)
	applicant := e.node.Generate()
	catalogID := e.seedCatalogBadge(t, catalogdomain.CatalogBadgeStatusActive)

	app, err := e.svc.Create(e.actor(applicant), domain.CreateRequest{
		CatalogBadgeID: catalogID.String(),
		Justification:  "shipped the thing",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDraft, app.Status)
	assert.Equal(t, applicant, app.ApplicantID)
	assert.Equal(t, 3, app.CatalogBadgeVersion)
	assert.Equal(t, e.clk.Now(), app.DateOfApplication)
	require.NotNil(t, app.Justification)
	assert.Equal(t, "shipped the thing", *app.Justification)
}

func TestCreateRejectsFulfillmentBeforeApplication(t *testing.T) {
	e := setupEnv(t)
	applicant := e.node.Generate()
	catalogID := e.seedCatalogBadge(t, catalogdomain.CatalogBadgeStatusActive)

	early := e.clk.Now().Add(-48 * time.Hour)
	_, err := e.svc.Create(e.actor(applicant), domain.CreateRequest{
		CatalogBadgeID:    catalogID.String(),
		DateOfFulfillment: &early,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidFulfillmentDate)
}

func TestReviewLifecycle(t *testing.T) {
	e := setupEnv(t)
	applicant := e.node.Generate()
	reviewer := e.node.Generate()
	catalogID := e.seedCatalogBadge(t, catalogdomain.CatalogBadgeStatusActive)

	app, err := e.svc.Create(e.actor(applicant), domain.CreateRequest{CatalogBadgeID: catalogID.String()})
	require.NoError(t, err)

	// Accepting a draft skips the submitted state and is illegal.
	_, err = e.svc.Accept(e.actor(reviewer), domain.ReviewRequest{ID: app.ID.String()})
	var transitionErr *domain.StatusTransitionError
	require.ErrorAs(t, err, &transitionErr)

	submitted, err := e.svc.Submit(e.actor(applicant), app.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	// Rejection without a note is refused.
	_, err = e.svc.Reject(e.actor(reviewer), domain.ReviewRequest{ID: app.ID.String(), Note: "  "})
	assert.ErrorIs(t, err, domain.ErrEmptyReviewNote)

	accepted, err := e.svc.Accept(e.actor(reviewer), domain.ReviewRequest{ID: app.ID.String(), Note: "well earned"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, accepted.Status)
	require.NotNil(t, accepted.ReviewerID)
	assert.Equal(t, reviewer, *accepted.ReviewerID)

	// A decided application cannot be submitted again.
	_, err = e.svc.Submit(e.actor(applicant), app.ID.String())
	require.ErrorAs(t, err, &transitionErr)
}

func TestSubmitRequiresActiveCatalogBadge(t *testing.T) {
	e := setupEnv(t)
	applicant := e.node.Generate()
	catalogID := e.seedCatalogBadge(t, catalogdomain.CatalogBadgeStatusActive)

	app, err := e.svc.Create(e.actor(applicant), domain.CreateRequest{CatalogBadgeID: catalogID.String()})
	require.NoError(t, err)

	require.NoError(t, e.db.Model(&catalogdomain.CatalogBadge{}).
		Where("id = ?", catalogID).
		Update("status", catalogdomain.CatalogBadgeStatusArchived).Error)

	_, err = e.svc.Submit(e.actor(applicant), app.ID.String())
	assert.ErrorIs(t, err, domain.ErrCatalogBadgeInactive)
}

func TestUpdateOnlyInDraftAndOnlyByOwner(t *testing.T) {
	e := setupEnv(t)
	applicant := e.node.Generate()
	stranger := e.node.Generate()
	catalogID := e.seedCatalogBadge(t, catalogdomain.CatalogBadgeStatusActive)

	app, err := e.svc.Create(e.actor(applicant), domain.CreateRequest{CatalogBadgeID: catalogID.String()})
	require.NoError(t, err)

	_, err = e.svc.Update(e.actor(stranger), domain.UpdateRequest{ID: app.ID.String()})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	note := "updated justification"
	updated, err := e.svc.Update(e.actor(applicant), domain.UpdateRequest{
		ID:            app.ID.String(),
		Justification: &note,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Justification)
	assert.Equal(t, note, *updated.Justification)

	_, err = e.svc.Submit(e.actor(applicant), app.ID.String())
	require.NoError(t, err)

	_, err = e.svc.Update(e.actor(applicant), domain.UpdateRequest{ID: app.ID.String()})
	assert.ErrorIs(t, err, domain.ErrNotDraft)
}

func TestGetByIDUnknown(t *testing.T) {
	e := setupEnv(t)

	_, err := e.svc.GetByID(context.Background(), e.node.Generate().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.svc.GetByID(context.Background(), "not-a-number")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
