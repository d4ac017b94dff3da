package pkg

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/guru-digital-pelangi/pelangi-service/internal/config"
	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
)

// InitDatabase opens the PostgreSQL connection, tunes the pool and, when
// enabled, migrates the schema and seeds the default level table.
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.Database.LogQueries {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.ConnectionString()), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	slog.Info("Database connection established", "host", cfg.Database.Host, "name", cfg.Database.Name)

	if cfg.Database.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	if err := SeedLevels(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates every table owned by the service.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.Subject{},
		&models.Student{},
		&models.ClassSubject{},
		&models.ClassTeacherSubject{},
		&models.StudentSubjectEnrollment{},
		&models.Assignment{},
		&models.AssignmentSubmission{},
		&models.Grade{},
		&models.Attendance{},
		&models.Level{},
		&models.StudentXp{},
		&models.Badge{},
		&models.StudentBadge{},
		&models.Challenge{},
		&models.ChallengeParticipant{},
		&models.Activity{},
		&models.Question{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	slog.Info("Database migration completed")
	return nil
}

// SeedLevels inserts the default level table when no level exists yet.
func SeedLevels(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Level{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count levels: %w", err)
	}
	if count > 0 {
		return nil
	}

	levels := models.DefaultLevels()
	if err := db.Create(&levels).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("seed levels: %w", err)
	}
	slog.Info("Seeded default levels", "count", len(levels))
	return nil
}
