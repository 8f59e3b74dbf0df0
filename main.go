package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/prepwise/backend/repository"
	"github.com/prepwise/backend/services"
)

func main() {
	// Setup structured logging with JSON format
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	config := services.LoadConfig()
	server := services.NewServer(config)

	if config.Database.URL != "" {
		gormDB, pool, err := connectDatabase(config)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		// Legacy camelCase columns must be renamed before AutoMigrate,
		// otherwise gorm adds empty snake_case duplicates
		auditor := repository.NewSchemaAuditor(pool)
		if err := auditor.Audit(context.Background()); err != nil {
			slog.Error("Schema audit failed", "error", err)
			os.Exit(1)
		}

		repo := repository.NewGORMRepository(gormDB)
		if err := repo.AutoMigrate(); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("Database migrations completed")

		server.SetDatabase(repo, gormDB)

		if config.Database.Seed {
			seeder := services.NewDatabaseSeeder(repo)
			if err := seeder.SeedDatabase(); err != nil {
				slog.Error("Failed to seed database", "error", err)
			}
		}
	} else {
		slog.Warn("Database URL not configured, running without database")
	}

	if err := server.InitializeServices(); err != nil {
		slog.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}

	server.Start()
}

func connectDatabase(config *services.Config) (*gorm.DB, *pgxpool.Pool, error) {
	gormDB, err := gorm.Open(postgres.Open(config.Database.URL), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(config.Database.LogLevel)),
	})
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, err
	}
	sqlDB.SetMaxIdleConns(config.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.Database.MaxOpenConns)

	pool, err := pgxpool.New(context.Background(), config.Database.URL)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("Connected to database")
	return gormDB, pool, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "info":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Silent
	}
}
