package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/meritup/internal/reservation/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupLedger(t *testing.T) (domain.Ledger, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	_ = conn.Exec("PRAGMA busy_timeout = 5000").Error

	require.NoError(t, conn.AutoMigrate(&domain.Reservation{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return Provide(), conn, node
}

func newReservation(node *snowflake.Node, promotionID, badgeApplicationID snowflake.ID) *domain.Reservation {
	now := time.Now().UTC()
	return &domain.Reservation{
		ID:                 node.Generate(),
		PromotionID:        promotionID,
		BadgeApplicationID: badgeApplicationID,
		CreatedBy:          node.Generate(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func TestClaimRejectsSecondReservation(t *testing.T) {
	ledger, conn, node := setupLedger(t)
	ctx := context.Background()
	badgeID := node.Generate()

	require.NoError(t, ledger.Claim(ctx, conn, newReservation(node, node.Generate(), badgeID)))

	err := ledger.Claim(ctx, conn, newReservation(node, node.Generate(), badgeID))
	assert.ErrorIs(t, err, domain.ErrAlreadyReserved)
}

func TestClaimAfterRelease(t *testing.T) {
	ledger, conn, node := setupLedger(t)
	ctx := context.Background()
	promoA := node.Generate()
	promoB := node.Generate()
	badgeID := node.Generate()

	require.NoError(t, ledger.Claim(ctx, conn, newReservation(node, promoA, badgeID)))
	require.NoError(t, ledger.Release(ctx, conn, promoA, []snowflake.ID{badgeID}))

	assert.NoError(t, ledger.Claim(ctx, conn, newReservation(node, promoB, badgeID)))
}

func TestConsumedReservationsSurviveRelease(t *testing.T) {
	ledger, conn, node := setupLedger(t)
	ctx := context.Background()
	promoID := node.Generate()
	badgeID := node.Generate()

	require.NoError(t, ledger.Claim(ctx, conn, newReservation(node, promoID, badgeID)))
	require.NoError(t, ledger.ConsumeAll(ctx, conn, promoID))

	// Neither targeted nor blanket release may touch a consumed row.
	require.NoError(t, ledger.Release(ctx, conn, promoID, []snowflake.ID{badgeID}))
	require.NoError(t, ledger.ReleaseAll(ctx, conn, promoID))

	res, err := ledger.FindByBadgeApplicationID(ctx, conn, badgeID)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Consumed)

	err = ledger.Claim(ctx, conn, newReservation(node, node.Generate(), badgeID))
	assert.ErrorIs(t, err, domain.ErrAlreadyReserved)
}

func TestReleaseOnlyTouchesOwnPromotion(t *testing.T) {
	ledger, conn, node := setupLedger(t)
	ctx := context.Background()
	promoA := node.Generate()
	promoB := node.Generate()
	badgeA := node.Generate()
	badgeB := node.Generate()

	require.NoError(t, ledger.Claim(ctx, conn, newReservation(node, promoA, badgeA)))
	require.NoError(t, ledger.Claim(ctx, conn, newReservation(node, promoB, badgeB)))

	require.NoError(t, ledger.Release(ctx, conn, promoA, []snowflake.ID{badgeA, badgeB}))

	res, err := ledger.FindByBadgeApplicationID(ctx, conn, badgeA)
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = ledger.FindByBadgeApplicationID(ctx, conn, badgeB)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, promoB, res.PromotionID)
}

func TestConcurrentClaimsSingleWinner(t *testing.T) {
	ledger, conn, node := setupLedger(t)
	ctx := context.Background()
	badgeID := node.Generate()

	const claimers = 8
	var wg sync.WaitGroup
	errs := make([]error, claimers)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = ledger.Claim(ctx, conn, newReservation(node, node.Generate(), badgeID))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyReserved)
	}
	assert.Equal(t, 1, winners)

	var count int64
	require.NoError(t, conn.Model(&domain.Reservation{}).Where("badge_application_id = ?", badgeID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
