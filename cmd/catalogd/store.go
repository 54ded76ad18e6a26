package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/AntonStoeckl/booklending/catalog"
	"github.com/AntonStoeckl/booklending/server/core"
	"github.com/AntonStoeckl/booklending/server/httpapi"
	"github.com/AntonStoeckl/booklending/server/postgres"
	"github.com/AntonStoeckl/booklending/shell/config"
)

const (
	driverPGXPool = "pgxpool"
	driverSQL     = "sql"
	driverSQLX    = "sqlx"
)

// ErrUnknownDBDriver is returned when CATALOGD_DB_DRIVER names no supported driver.
var ErrUnknownDBDriver = errors.New("unknown db driver")

// openStore connects with the configured driver and returns the store and a close func.
func openStore(ctx context.Context, cfg config.ServerConfig, logger catalog.ContextualLogger) (*postgres.Store, func(), error) {
	storeOptions := []postgres.Option{postgres.WithContextualLogger(logger)}

	switch cfg.DBDriver {
	case driverPGXPool:
		pool, err := config.NewPostgresPGXPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect with pgxpool: %w", err)
		}

		store, err := postgres.NewStoreFromPGXPool(pool, storeOptions...)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}

		return store, pool.Close, nil

	case driverSQL:
		db, err := config.NewPostgresSQLDB(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect with database/sql: %w", err)
		}

		store, err := postgres.NewStoreFromSQLDB(db, storeOptions...)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		return store, func() { _ = db.Close() }, nil

	case driverSQLX:
		db, err := config.NewPostgresSQLX(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect with sqlx: %w", err)
		}

		store, err := postgres.NewStoreFromSQLX(db, storeOptions...)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		return store, func() { _ = db.Close() }, nil

	default:
		return nil, nil, errors.Join(ErrUnknownDBDriver, errors.New(cfg.DBDriver))
	}
}

// bootstrapAdmin creates the configured admin account unless it exists already.
func bootstrapAdmin(ctx context.Context, store *postgres.Store, cfg config.ServerConfig) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}

	_, err := store.FindUser(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}

	if !errors.Is(err, core.ErrUserNotFound) {
		return err
	}

	hash, err := httpapi.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	if _, err = store.CreateUser(ctx, cfg.AdminUsername, hash, catalog.RoleAdmin); err != nil && !errors.Is(err, core.ErrUserAlreadyExists) {
		return err
	}

	log.Printf("Admin account %q is ready", cfg.AdminUsername)

	return nil
}
