package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rpupo63/verbavista-backend/config"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

// Open connects to the database selected by DB_TYPE ("postgres", "supa" or
// "sqlite") and registers a read replica when DB_REPLICA_DSN is set.
func Open(c map[string]string) (*gorm.DB, error) {
	dbType := config.GetString(c, "DB_TYPE", "postgres")

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Duration(config.GetInt(c, "DB_SLOW_QUERY_MS", 2000)) * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	gormConfig := &gorm.Config{
		PrepareStmt: false,
		Logger:      newLogger,
	}

	var dialector gorm.Dialector
	switch dbType {
	case "postgres", "supa":
		dialector = postgres.New(postgres.Config{
			DSN:                  postgresDSN(c, dbType),
			PreferSimpleProtocol: true,
		})
	case "sqlite":
		dialector = sqlite.Open(config.GetString(c, "SQLITE_DB_PATH", "./verbavista.db"))
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}

	zlog.Info().Str("dbType", dbType).Msg("connecting to database")
	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dbType, err)
	}

	if replica := config.GetString(c, "DB_REPLICA_DSN", ""); replica != "" && dbType != "sqlite" {
		err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{postgres.New(postgres.Config{
				DSN:                  replica,
				PreferSimpleProtocol: true,
			})},
			Policy: dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("register read replica: %w", err)
		}
		zlog.Info().Msg("read replica registered")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(config.GetInt(c, "DB_MAX_OPEN_CONNS", 20))
	sqlDB.SetMaxIdleConns(config.GetInt(c, "DB_MAX_IDLE_CONNS", 5))
	sqlDB.SetConnMaxLifetime(config.GetDuration(c, "DB_CONN_MAX_LIFETIME", 30*time.Minute))

	return db, nil
}

func postgresDSN(c map[string]string, dbType string) string {
	if dsn := config.GetString(c, "DATABASE_URL", ""); dsn != "" {
		return dsn
	}

	prefix, sslMode := "DB_", "disable"
	if dbType == "supa" {
		prefix, sslMode = "SUPABASE_DB_", "require"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		config.GetString(c, prefix+"HOST", "localhost"),
		config.GetString(c, prefix+"USER", "postgres"),
		config.GetString(c, prefix+"PASSWORD", ""),
		config.GetString(c, prefix+"NAME", "verbavista"),
		config.GetString(c, prefix+"PORT", "5432"),
		config.GetString(c, prefix+"SSLMODE", sslMode),
	)
}
