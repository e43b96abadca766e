package db

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/anzalajra/gearent/internal/config"
)

type Params struct {
	fx.In

	LC  fx.Lifecycle
	Cfg config.Config
	Log *zap.Logger
}

// New opens the primary Postgres connection and registers pool teardown.
func New(p Params) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}
	if !p.Cfg.IsProduction() {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	conn, err := gorm.Open(postgres.Open(p.Cfg.Database.DSN), gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(p.Cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(p.Cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(p.Cfg.Database.ConnMaxLifetime) * time.Second)

	p.LC.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			p.Log.Info("closing database pool")
			return sqlDB.Close()
		},
	})

	return conn, nil
}

var Module = fx.Module("db",
	fx.Provide(New),
)
