package infra

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and applies the
// idempotent schema patches. Tables themselves come from the SQL migrations
// (see Migrate).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if db.Migrator().HasTable("cash_register") {
		if err := ApplySchemaPatches(db); err != nil {
			return nil, fmt.Errorf("schema patches: %w", err)
		}
	}
	return db, nil
}

// ApplySchemaPatches runs idempotent DDL that GORM AutoMigrate cannot express
// (partial indexes). Every statement is valid on PostgreSQL and SQLite.
func ApplySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// at most one open cash session
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_cash_register_single_open
		    ON cash_register (status) WHERE status = 'open'`,
		`CREATE INDEX IF NOT EXISTS idx_sales_cash_register_paid
		    ON sales (cash_register_id) WHERE payment_status = 'paid'`,
		`CREATE INDEX IF NOT EXISTS idx_bath_grooming_pending
		    ON bath_grooming_appointments (client_id, pet_id, scheduled_at)
		    WHERE status <> 'cancelled'`,
		`CREATE INDEX IF NOT EXISTS idx_hotel_stays_pending
		    ON hotel_stays (client_id, pet_id, check_in)
		    WHERE status <> 'cancelled'`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}

// IsUniqueViolation reports whether err comes from a unique constraint,
// whichever driver raised it.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
