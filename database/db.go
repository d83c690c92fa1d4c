package database

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"smartlib/internal/config"
	"smartlib/internal/httpapi/models"
)

// Connect opens the GORM handle, verifies the connection and applies the
// schema. The handle is returned to the caller for injection; there is no
// package-level connection state.
func Connect(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Verify the connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db, logger); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Connected to the database successfully")
	return db, nil
}

// Migrate applies the schema and the open-loan uniqueness guard.
func Migrate(db *gorm.DB, logger *slog.Logger) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.Transaction{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// At most one open (issued/due) transaction may exist per book. The
	// partial unique index makes the second of two concurrent borrows fail
	// atomically instead of relying on the check-then-insert read.
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_open_loan_per_book
		 ON transactions (book_id)
		 WHERE transaction_status IN ('issued', 'due')`,
	).Error; err != nil {
		return fmt.Errorf("create open-loan index: %w", err)
	}

	logger.Info("Database migrations applied successfully")
	return nil
}
