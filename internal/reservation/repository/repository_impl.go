package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/meritup/internal/reservation/domain"
	"github.com/smallbiznis/meritup/pkg/db"
	"gorm.io/gorm"
)

type ledger struct{}

func Provide() domain.Ledger {
	return &ledger{}
}

func (l *ledger) Claim(ctx context.Context, conn *gorm.DB, reservation *domain.Reservation) error {
	err := conn.WithContext(ctx).Exec(
		`INSERT INTO reservations (id, promotion_id, badge_application_id, created_by, consumed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		reservation.ID,
		reservation.PromotionID,
		reservation.BadgeApplicationID,
		reservation.CreatedBy,
		reservation.Consumed,
		reservation.CreatedAt,
		reservation.UpdatedAt,
	).Error
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ErrAlreadyReserved
		}
		return err
	}
	return nil
}

func (l *ledger) FindByBadgeApplicationID(ctx context.Context, conn *gorm.DB, badgeApplicationID snowflake.ID) (*domain.Reservation, error) {
	var reservation domain.Reservation
	err := conn.WithContext(ctx).
		Where("badge_application_id = ?", badgeApplicationID).
		First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reservation, nil
}

func (l *ledger) ListByPromotionID(ctx context.Context, conn *gorm.DB, promotionID snowflake.ID) ([]*domain.Reservation, error) {
	var reservations []*domain.Reservation
	err := conn.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("promotion_id = ?", promotionID).
		Order("created_at asc, id asc").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (l *ledger) Release(ctx context.Context, conn *gorm.DB, promotionID snowflake.ID, badgeApplicationIDs []snowflake.ID) error {
	if len(badgeApplicationIDs) == 0 {
		return nil
	}
	return conn.WithContext(ctx).
		Where("promotion_id = ? AND badge_application_id IN ? AND consumed = ?", promotionID, badgeApplicationIDs, false).
		Delete(&domain.Reservation{}).Error
}

func (l *ledger) ReleaseAll(ctx context.Context, conn *gorm.DB, promotionID snowflake.ID) error {
	return conn.WithContext(ctx).
		Where("promotion_id = ? AND consumed = ?", promotionID, false).
		Delete(&domain.Reservation{}).Error
}

func (l *ledger) ConsumeAll(ctx context.Context, conn *gorm.DB, promotionID snowflake.ID) error {
	return conn.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("promotion_id = ?", promotionID).
		Update("consumed", true).Error
}
