// Package seed bootstraps a usable catalog for local and self-hosted
// installs. Every helper is idempotent; rows are matched by name and never
// overwritten.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/meritup/internal/badgecatalog/domain"
	templatedomain "github.com/smallbiznis/meritup/internal/template/domain"
	"gorm.io/gorm"
)

type badgeSeed struct {
	name     string
	category catalogdomain.BadgeCategory
	level    catalogdomain.BadgeLevel
}

var defaultBadges = []badgeSeed{
	{"Distributed Systems Design", catalogdomain.CategoryTechnical, catalogdomain.LevelGold},
	{"Production Incident Command", catalogdomain.CategoryTechnical, catalogdomain.LevelGold},
	{"Code Review Mastery", catalogdomain.CategoryTechnical, catalogdomain.LevelSilver},
	{"Performance Profiling", catalogdomain.CategoryTechnical, catalogdomain.LevelSilver},
	{"Tooling Contribution", catalogdomain.CategoryTechnical, catalogdomain.LevelBronze},
	{"Hiring Committee Service", catalogdomain.CategoryOrganizational, catalogdomain.LevelGold},
	{"Process Improvement", catalogdomain.CategoryOrganizational, catalogdomain.LevelSilver},
	{"Onboarding Buddy", catalogdomain.CategoryOrganizational, catalogdomain.LevelBronze},
	{"Conference Talk", catalogdomain.CategorySoftskilled, catalogdomain.LevelGold},
	{"Mentorship", catalogdomain.CategorySoftskilled, catalogdomain.LevelSilver},
	{"Knowledge Sharing Session", catalogdomain.CategorySoftskilled, catalogdomain.LevelBronze},
}

type ruleSeed struct {
	category catalogdomain.BadgeCategory
	level    catalogdomain.BadgeLevel
	count    int
}

type templateSeed struct {
	name      string
	path      string
	fromLevel string
	toLevel   string
	rules     []ruleSeed
}

var defaultTemplates = []templateSeed{
	{
		name:      "Engineer II to Senior Engineer",
		path:      "engineering",
		fromLevel: "L2",
		toLevel:   "L3",
		rules: []ruleSeed{
			{catalogdomain.CategoryTechnical, catalogdomain.LevelSilver, 2},
			{catalogdomain.CategoryAny, catalogdomain.LevelBronze, 1},
		},
	},
	{
		name:      "Senior Engineer to Staff Engineer",
		path:      "engineering",
		fromLevel: "L3",
		toLevel:   "L4",
		rules: []ruleSeed{
			{catalogdomain.CategoryTechnical, catalogdomain.LevelGold, 2},
			{catalogdomain.CategoryOrganizational, catalogdomain.LevelSilver, 1},
			{catalogdomain.CategoryAny, catalogdomain.LevelSilver, 2},
		},
	},
}

// EnsureDefaultCatalog seeds the built-in catalog badges and promotion
// templates.
func EnsureDefaultCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureBadges(ctx, tx, node); err != nil {
			return err
		}
		return ensureTemplates(ctx, tx, node)
	})
}

func ensureBadges(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	now := time.Now().UTC()
	for _, b := range defaultBadges {
		var existing catalogdomain.CatalogBadge
		err := tx.WithContext(ctx).Where("name = ?", b.name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		badge := catalogdomain.CatalogBadge{
			ID:        node.Generate(),
			Name:      b.name,
			Category:  b.category,
			Level:     b.level,
			Status:    catalogdomain.CatalogBadgeStatusActive,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&badge).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureTemplates(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	now := time.Now().UTC()
	for _, t := range defaultTemplates {
		var existing templatedomain.PromotionTemplate
		err := tx.WithContext(ctx).Where("name = ?", t.name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		template := templatedomain.PromotionTemplate{
			ID:        node.Generate(),
			Name:      t.name,
			Path:      t.path,
			FromLevel: t.fromLevel,
			ToLevel:   t.toLevel,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&template).Error; err != nil {
			return err
		}
		for i, r := range t.rules {
			rule := templatedomain.TemplateRule{
				ID:         node.Generate(),
				TemplateID: template.ID,
				Position:   i + 1,
				Category:   r.category,
				Level:      r.level,
				Count:      r.count,
			}
			if err := tx.WithContext(ctx).Create(&rule).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
