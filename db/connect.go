package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"community-server/confs"
	"community-server/entities"
	"community-server/logging"
)

// DSN builds the postgres connection string from DB_URL or the individual
// DB_* settings. Remote hosts get sslmode=require unless one is given.
func DSN(cfg confs.Config) (string, error) {
	if cfg.DBURL != "" {
		dsn := cfg.DBURL
		if !strings.Contains(dsn, "sslmode=") {
			if strings.Contains(dsn, "?") {
				dsn += "&sslmode=require"
			} else {
				dsn += "?sslmode=require"
			}
		}
		return dsn, nil
	}

	if cfg.DBHost == "" || cfg.DBPort == "" || cfg.DBUser == "" || cfg.DBPassword == "" || cfg.DBName == "" {
		return "", fmt.Errorf("missing required database configuration: DB_URL or (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}

	sslMode := "require"
	if cfg.DBHost == "localhost" || cfg.DBHost == "127.0.0.1" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, sslMode), nil
}

// Connect opens the pool and migrates the core tables.
func Connect(ctx context.Context, cfg confs.Config, log logging.Logger) (*GormDatabase, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if cfg.IsDevelopment() {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info(ctx, "database connection established")

	if err := Migrate(db.WithContext(ctx)); err != nil {
		return nil, err
	}
	log.Info(ctx, "database migrations completed")

	return &GormDatabase{DB: db}, nil
}

// Migrate creates the users and subs tables and the case-insensitive
// community name index.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entities.User{}, &entities.Sub{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_subs_name_lower ON subs (lower(name))`).Error; err != nil {
		return fmt.Errorf("failed to create name index: %w", err)
	}
	return nil
}
