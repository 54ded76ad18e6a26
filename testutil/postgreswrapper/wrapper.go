package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/booklending/catalog"
	"github.com/AntonStoeckl/booklending/server/core"
	"github.com/AntonStoeckl/booklending/server/postgres"
	"github.com/AntonStoeckl/booklending/shell/config"
)

// Adapter type constants, selected with the ADAPTER_TYPE environment variable.
const (
	typePGXPool = "pgxpool"
	typeSQLDB   = "sqldb"
	typeSQLX    = "sqlx"
)

const cleanUpStatement = "TRUNCATE TABLE actions, books, users RESTART IDENTITY"

// Wrapper abstracts over the different database handles a Store can be built from.
type Wrapper interface {
	GetStore() *postgres.Store
	Exec(ctx context.Context, statement string) error
	QueryCount(ctx context.Context, query string) (int64, error)
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing.
type PGXPoolWrapper struct {
	pool  *pgxpool.Pool
	store *postgres.Store
}

func (w *PGXPoolWrapper) GetStore() *postgres.Store {
	return w.store
}

func (w *PGXPoolWrapper) Exec(ctx context.Context, statement string) error {
	_, err := w.pool.Exec(ctx, statement)
	return err
}

func (w *PGXPoolWrapper) QueryCount(ctx context.Context, query string) (int64, error) {
	var cnt int64
	err := w.pool.QueryRow(ctx, query).Scan(&cnt)
	return cnt, err
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing.
type SQLDBWrapper struct {
	db    *sql.DB
	store *postgres.Store
}

func (w *SQLDBWrapper) GetStore() *postgres.Store {
	return w.store
}

func (w *SQLDBWrapper) Exec(ctx context.Context, statement string) error {
	_, err := w.db.ExecContext(ctx, statement)
	return err
}

func (w *SQLDBWrapper) QueryCount(ctx context.Context, query string) (int64, error) {
	var cnt int64
	err := w.db.QueryRowContext(ctx, query).Scan(&cnt)
	return cnt, err
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx-based testing.
type SQLXWrapper struct {
	db    *sqlx.DB
	store *postgres.Store
}

func (w *SQLXWrapper) GetStore() *postgres.Store {
	return w.store
}

func (w *SQLXWrapper) Exec(ctx context.Context, statement string) error {
	_, err := w.db.ExecContext(ctx, statement)
	return err
}

func (w *SQLXWrapper) QueryCount(ctx context.Context, query string) (int64, error) {
	var cnt int64
	err := w.db.QueryRowxContext(ctx, query).Scan(&cnt)
	return cnt, err
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// TestPostgresConfig returns the connection settings of the test database.
// CATALOGD_TEST_DB_HOST and CATALOGD_TEST_DB_PORT override host and port.
func TestPostgresConfig() config.PostgresConfig {
	cfg := config.PostgresConfig{
		Host:            "localhost",
		Port:            5432,
		User:            "test",
		Password:        "test",
		Name:            "booklending",
		SSLMode:         "disable",
		MaxOpenConns:    20,
		MaxIdleConns:    2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 5 * time.Minute,
		ConnectTimeout:  2 * time.Second,
	}

	if host := os.Getenv("CATALOGD_TEST_DB_HOST"); host != "" {
		cfg.Host = host
	}

	if port := os.Getenv("CATALOGD_TEST_DB_PORT"); port != "" {
		_, _ = fmt.Sscanf(port, "%d", &cfg.Port)
	}

	return cfg
}

// CreateWrapperWithTestConfig connects with the adapter named by ADAPTER_TYPE and applies the schema.
// The test is skipped when the test database is not reachable.
func CreateWrapperWithTestConfig(t testing.TB, opts ...postgres.Option) Wrapper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := TestPostgresConfig()
	adapterTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	var wrapper Wrapper

	switch adapterTypeFromEnv {
	case typePGXPool, "":
		pool, err := config.NewPostgresPGXPool(ctx, cfg)
		if err != nil {
			t.Skipf("test database not reachable: %v", err)
		}

		store, err := postgres.NewStoreFromPGXPool(pool, opts...)
		require.NoError(t, err, "error creating the store in test setup")
		wrapper = &PGXPoolWrapper{pool: pool, store: store}

	case typeSQLDB:
		db, err := config.NewPostgresSQLDB(ctx, cfg)
		if err != nil {
			t.Skipf("test database not reachable: %v", err)
		}

		store, err := postgres.NewStoreFromSQLDB(db, opts...)
		require.NoError(t, err, "error creating the store in test setup")
		wrapper = &SQLDBWrapper{db: db, store: store}

	case typeSQLX:
		db, err := config.NewPostgresSQLX(ctx, cfg)
		if err != nil {
			t.Skipf("test database not reachable: %v", err)
		}

		store, err := postgres.NewStoreFromSQLX(db, opts...)
		require.NoError(t, err, "error creating the store in test setup")
		wrapper = &SQLXWrapper{db: db, store: store}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterTypeFromEnv))
	}

	require.NoError(t, wrapper.GetStore().Migrate(ctx), "error applying the schema in test setup")

	return wrapper
}

// CleanUp empties all catalog tables and resets their sequences.
func CleanUp(t testing.TB, wrapper Wrapper) {
	t.Helper()

	require.NoError(t, wrapper.Exec(context.Background(), cleanUpStatement), "error cleaning up the catalog tables")
}

// GivenUser stores an account with a placeholder password hash.
func GivenUser(t testing.TB, wrapper Wrapper, username string, role catalog.Role) core.User {
	t.Helper()

	user, err := wrapper.GetStore().CreateUser(context.Background(), username, "$2a$04$not-a-real-hash", role)
	require.NoError(t, err, "error in arranging test data")

	return user
}
