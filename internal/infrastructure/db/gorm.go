package db

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func OpenGorm(dsn string, zl *zap.Logger) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn), zl)
}

// OpenGormWithDialector opens, tunes the pool and pings before returning.
func OpenGormWithDialector(dial gorm.Dialector, zl *zap.Logger) (*gorm.DB, error) {
	if zl == nil {
		zl = zap.NewNop()
	}
	cfg := &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Warn),
		DisableAutomaticPing: true,
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	zl.Named("gorm").Info("connected", zap.String("dialect", dial.Name()))
	return db, nil
}
