package database

import (
	"fmt"
	"time"

	"github.com/LeeRude11/delivery/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// PostgresConfig holds connection settings for PostgreSQL.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	TimeZone string
}

// DSN renders the config as a libpq keyword/value string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode, c.TimeZone,
	)
}

// Models lists every table the service owns, in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.MenuItem{},
		&models.OrderInfo{},
		&models.OrderContents{},
		&models.InfoPage{},
	}
}

const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

// ConnectPostgres opens the database, retrying while it comes up, and
// migrates the schema.
func ConnectPostgres(cfg PostgresConfig, logger *zap.Logger) (*gorm.DB, error) {
	var db *gorm.DB
	var err error
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err == nil {
			logger.Info("Connected to PostgreSQL", zap.String("host", cfg.Host), zap.String("db", cfg.DBName))
			if err := db.AutoMigrate(Models()...); err != nil {
				return nil, fmt.Errorf("AutoMigrate failed: %w", err)
			}
			return db, nil
		}
		logger.Warn("PostgreSQL connection failed",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", connectAttempts),
			zap.Error(err),
		)
		time.Sleep(connectBackoff)
	}
	return nil, fmt.Errorf("failed to connect to PostgreSQL after retries: %w", err)
}

// Close closes the database connection gracefully
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}
