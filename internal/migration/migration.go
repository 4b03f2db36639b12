package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	badgeappdomain "github.com/smallbiznis/meritup/internal/badgeapp/domain"
	catalogdomain "github.com/smallbiznis/meritup/internal/badgecatalog/domain"
	promotiondomain "github.com/smallbiznis/meritup/internal/promotion/domain"
	reservationdomain "github.com/smallbiznis/meritup/internal/reservation/domain"
	templatedomain "github.com/smallbiznis/meritup/internal/template/domain"
	"gorm.io/gorm"
)

//go:embed sql/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "sql"

// RunMigrations applies the embedded SQL migrations. Postgres only; other
// dialects go through AutoMigrate instead.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate creates the schema straight from the models. It covers the
// non-postgres dialects, where the versioned SQL does not apply.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	return db.AutoMigrate(
		&catalogdomain.CatalogBadge{},
		&templatedomain.PromotionTemplate{},
		&templatedomain.TemplateRule{},
		&badgeappdomain.BadgeApplication{},
		&promotiondomain.Promotion{},
		&reservationdomain.Reservation{},
	)
}
