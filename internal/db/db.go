package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ecoverse/backend/internal/logger"
	"github.com/ecoverse/backend/internal/types"
	"github.com/ecoverse/backend/internal/utils"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// New opens the configured database. Sqlite is the default so the service
// runs with zero infrastructure; DB_DRIVER=postgres switches to a DSN
// built from POSTGRES_* variables.
func New(log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	driver := utils.GetEnv("DB_DRIVER", "sqlite", log)

	var (
		conn gorm.Dialector
	)
	switch driver {
	case "postgres":
		host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
		port := utils.GetEnv("POSTGRES_PORT", "5432", log)
		user := utils.GetEnv("POSTGRES_USER", "postgres", log)
		password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
		name := utils.GetEnv("POSTGRES_NAME", "ecoverse", log)
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
		conn = postgres.Open(dsn)
	case "sqlite":
		path := utils.GetEnv("SQLITE_PATH", "ecoverse.db", log)
		conn = sqlite.Open(path)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}

	log.Info("Connecting to database...", "driver", driver)
	gdb, err := gorm.Open(conn, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to database", "driver", driver, "error", err)
		return nil, fmt.Errorf("connect to %s: %w", driver, err)
	}

	return &Service{db: gdb, log: serviceLog}, nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Activity{},
		&types.Insight{},
		&types.Recommendation{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *Service) DB() *gorm.DB {
	return s.db
}
