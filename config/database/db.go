package database

import (
	"database/sql"
	"fmt"
	"time"

	"promptregistry/config"
	"promptregistry/pkg/logger"

	_ "github.com/lib/pq"
)

// Connect opens the pool and pings it, retrying a few times in case of
// temporary DNS/network blips.
func Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(time.Hour)

	for i := 0; i < cfg.ConnectRetries; i++ {
		if err = db.Ping(); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			return db, nil
		}
		logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", cfg.RetryDelay, err)
		time.Sleep(cfg.RetryDelay)
	}
	db.Close()
	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", cfg.ConnectRetries, err)
}
