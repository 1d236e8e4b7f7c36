package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/dwarvesf/bridge-relayer/internal/utils/config"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
)

// NewPostgresStore postgres init by gorm
func NewPostgresStore(appConfig *config.AppConfig, logger *logger.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(appConfig.Postgres.DSN()),
		&gorm.Config{
			NamingStrategy: schema.NamingStrategy{
				SingularTable: false,
			},
			TranslateError: true,
		})
	if err != nil {
		logger.Error("[NewPostgresStore][gorm.Open]", map[string]string{
			"error": err.Error(),
		})
		return nil, err
	}

	logger.Info("database connected")
	return db, nil
}

// NewPgxPool opens the pool the mint ledger writes through.
func NewPgxPool(ctx context.Context, appConfig *config.AppConfig, logger *logger.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, appConfig.Postgres.DSN())
	if err != nil {
		logger.Error("[NewPgxPool][pgxpool.New]", map[string]string{
			"error": err.Error(),
		})
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("[NewPgxPool][Ping]", map[string]string{
			"error": err.Error(),
		})
		return nil, err
	}
	return pool, nil
}
