// Package domain contains the promotion template read model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/meritup/internal/badgecatalog/domain"
)

// PromotionTemplate is the immutable rule-set for one level transition on
// one career path. Templates are authored outside this service; promotions
// denormalize path and levels from the template at creation time so later
// template edits never change an existing promotion's comparison basis.
type PromotionTemplate struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Path      string       `gorm:"not null;index" json:"path"`
	FromLevel string       `gorm:"not null" json:"from_level"`
	ToLevel   string       `gorm:"not null" json:"to_level"`
	Active    bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Rules []TemplateRule `gorm:"foreignKey:TemplateID" json:"rules"`
}

// TableName sets the database table name.
func (PromotionTemplate) TableName() string { return "promotion_templates" }

// TemplateRule requires a minimum count of badges at an exact
// (category, level). CategoryAny pools every category at the level.
type TemplateRule struct {
	ID         snowflake.ID                `gorm:"primaryKey" json:"id"`
	TemplateID snowflake.ID                `gorm:"not null;index" json:"template_id"`
	Position   int                         `gorm:"not null" json:"position"`
	Category   catalogdomain.BadgeCategory `gorm:"type:text;not null" json:"category"`
	Level      catalogdomain.BadgeLevel    `gorm:"type:text;not null" json:"level"`
	Count      int                         `gorm:"not null" json:"count"`
}

// TableName sets the database table name.
func (TemplateRule) TableName() string { return "template_rules" }
