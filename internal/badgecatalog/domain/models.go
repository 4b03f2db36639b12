// Package domain contains the badge catalog read model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// BadgeCategory classifies a catalog badge.
type BadgeCategory string

const (
	CategoryTechnical      BadgeCategory = "TECHNICAL"
	CategoryOrganizational BadgeCategory = "ORGANIZATIONAL"
	CategorySoftskilled    BadgeCategory = "SOFTSKILLED"

	// CategoryAny is only valid inside template rules; no catalog badge
	// carries it.
	CategoryAny BadgeCategory = "ANY"
)

// BadgeLevel is the tier of a catalog badge. Levels never substitute for
// one another.
type BadgeLevel string

const (
	LevelGold   BadgeLevel = "GOLD"
	LevelSilver BadgeLevel = "SILVER"
	LevelBronze BadgeLevel = "BRONZE"
)

// CatalogBadgeStatus marks whether a catalog badge can still be claimed.
type CatalogBadgeStatus string

const (
	CatalogBadgeStatusActive   CatalogBadgeStatus = "ACTIVE"
	CatalogBadgeStatusArchived CatalogBadgeStatus = "ARCHIVED"
)

// CatalogBadge is one recognized achievement in the catalog. Content
// management lives outside this service; rows are read-only here.
type CatalogBadge struct {
	ID        snowflake.ID       `gorm:"primaryKey" json:"id"`
	Name      string             `gorm:"not null" json:"name"`
	Category  BadgeCategory      `gorm:"type:text;not null" json:"category"`
	Level     BadgeLevel         `gorm:"type:text;not null" json:"level"`
	Status    CatalogBadgeStatus `gorm:"type:text;not null" json:"status"`
	Version   int                `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CatalogBadge) TableName() string { return "catalog_badges" }

// Active reports whether the badge can currently back a badge application.
func (b CatalogBadge) Active() bool { return b.Status == CatalogBadgeStatusActive }

// ValidCategory reports whether value names a concrete badge category.
func ValidCategory(value BadgeCategory) bool {
	switch value {
	case CategoryTechnical, CategoryOrganizational, CategorySoftskilled:
		return true
	default:
		return false
	}
}

// ValidRuleCategory additionally admits the ANY wildcard.
func ValidRuleCategory(value BadgeCategory) bool {
	return value == CategoryAny || ValidCategory(value)
}

// ValidLevel reports whether value names a badge level.
func ValidLevel(value BadgeLevel) bool {
	switch value {
	case LevelGold, LevelSilver, LevelBronze:
		return true
	default:
		return false
	}
}
