package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // register the postgres dialect
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/booklending/catalog"
	"github.com/AntonStoeckl/booklending/server/postgres/internal/adapters"
)

//go:embed schema.sql
var schemaSQL string

// ErrNilDatabaseConnection is returned when a nil database connection is provided.
var ErrNilDatabaseConnection = errors.New("database connection must not be nil")

// ErrBuildingQueryFailed is returned when a SQL statement cannot be built.
var ErrBuildingQueryFailed = errors.New("building query failed")

// ErrQueryingFailed is returned when a statement fails in the database.
var ErrQueryingFailed = errors.New("querying failed")

// ErrScanningRowFailed is returned when a result row cannot be scanned.
var ErrScanningRowFailed = errors.New("scanning db row failed")

// ErrMigrationFailed is returned when the schema cannot be applied.
var ErrMigrationFailed = errors.New("applying schema failed")

const (
	tableBooks   = "books"
	tableUsers   = "users"
	tableActions = "actions"

	colID           = "id"
	colTitle        = "title"
	colAuthor       = "author"
	colISBN         = "isbn"
	colCoverURL     = "cover_url"
	colStatus       = "status"
	colMaxActionID  = "max_action_id"
	colUsername     = "username"
	colPasswordHash = "password_hash"
	colRole         = "role"
	colBookID       = "book_id"
	colUserID       = "user_id"
	colAction       = "action"
	colActionDate   = "action_date"
	colDueDate      = "due_date"

	actionsIDSequence = "actions_id_seq"
	dialectPostgres   = "postgres"

	cteNext       = "next_action"
	cteChanged    = "changed_book"
	cteLogged     = "logged_action"
	aliasActionID = "action_id"
	aliasTotal    = "total"
)

const (
	castBigint      = "?::bigint"
	castText        = "?::text"
	castTimestamptz = "?::timestamptz"
)

// Log message constants.
const (
	logMsgQuery             = "catalog store query"
	logMsgExec              = "catalog store exec"
	logMsgDBError           = "database operation failed"
	logMsgBuildError        = "failed to build query"
	logMsgScanError         = "failed to scan database row"
	logMsgConcurrency       = "concurrency conflict detected"
	logMsgUniqueViolation   = "unique constraint violated"
	logMsgMigrationComplete = "catalog schema applied"
)

// Log attribute constants.
const (
	logAttrQuery       = "query"
	logAttrDurationMS  = "duration_ms"
	logAttrError       = "error"
	logAttrOperation   = "operation"
	logAttrBookID      = "book_id"
	logAttrExpectedMax = "expected_max_action_id"
	logAttrActionType  = "action_type"
)

// Store is a PostgreSQL-backed store for books, users, and the action log.
type Store struct {
	db               adapters.DBAdapter
	logger           catalog.Logger
	contextualLogger catalog.ContextualLogger
}

// Option defines a functional option for configuring Store.
type Option func(*Store) error

// WithLogger sets the logger for the Store.
// The logger will receive SQL statements with timing at debug level and failures at error level.
func WithLogger(logger catalog.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Store.
// It is preferred over the plain logger when both are set.
func WithContextualLogger(logger catalog.ContextualLogger) Option {
	return func(s *Store) error {
		s.contextualLogger = logger
		return nil
	}
}

// NewStoreFromPGXPool creates a new Store using a pgx Pool.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (*Store, error) {
	s := &Store{db: db}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Migrate creates the tables and indexes if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	start := time.Now()

	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		s.logError(ctx, logMsgDBError, logAttrError, err.Error(), logAttrOperation, "migrate")
		return errors.Join(ErrMigrationFailed, err)
	}

	s.logInfo(ctx, logMsgMigrationComplete, logAttrDurationMS, durationMS(start))

	return nil
}

func builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

func bookColumns() []any {
	return []any{
		goqu.C(colID),
		goqu.C(colTitle),
		goqu.C(colAuthor),
		goqu.C(colISBN),
		goqu.C(colCoverURL),
		goqu.C(colStatus),
	}
}

// rowScanner is satisfied by adapters.DBRows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner, extra ...any) (catalog.Record, error) {
	var (
		record catalog.Record
		status string
	)

	dest := append([]any{&record.ID, &record.Title, &record.Author, &record.ISBN, &record.CoverURL, &status}, extra...)
	if err := row.Scan(dest...); err != nil {
		return catalog.Record{}, errors.Join(ErrScanningRowFailed, err)
	}

	parsed, err := catalog.ParseStatus(status)
	if err != nil {
		return catalog.Record{}, errors.Join(ErrScanningRowFailed, err)
	}

	record.Status = parsed

	return record, nil
}

// query runs a statement, logs it with its duration, and hands each row to scan.
func (s *Store) query(ctx context.Context, operation, sqlQuery string, args []any, scan func(adapters.DBRows) error) error {
	start := time.Now()

	rows, err := s.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		s.logError(ctx, logMsgDBError, logAttrError, err.Error(), logAttrOperation, operation, logAttrQuery, sqlQuery)
		return errors.Join(ErrQueryingFailed, err)
	}

	defer s.closeRows(ctx, rows)

	for rows.Next() {
		if scanErr := scan(rows); scanErr != nil {
			s.logError(ctx, logMsgScanError, logAttrError, scanErr.Error(), logAttrOperation, operation)
			return scanErr
		}
	}

	if err = rows.Err(); err != nil {
		s.logError(ctx, logMsgDBError, logAttrError, err.Error(), logAttrOperation, operation, logAttrQuery, sqlQuery)
		return errors.Join(ErrQueryingFailed, err)
	}

	s.logDebug(ctx, logMsgQuery, logAttrOperation, operation, logAttrQuery, sqlQuery, logAttrDurationMS, durationMS(start))

	return nil
}

func (s *Store) exec(ctx context.Context, operation, sqlQuery string, args []any) (int64, error) {
	start := time.Now()

	result, err := s.db.Exec(ctx, sqlQuery, args...)
	if err != nil {
		s.logError(ctx, logMsgDBError, logAttrError, err.Error(), logAttrOperation, operation, logAttrQuery, sqlQuery)
		return 0, errors.Join(ErrQueryingFailed, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Join(ErrQueryingFailed, err)
	}

	s.logDebug(ctx, logMsgExec, logAttrOperation, operation, logAttrQuery, sqlQuery, logAttrDurationMS, durationMS(start))

	return affected, nil
}

func (s *Store) closeRows(ctx context.Context, rows adapters.DBRows) {
	if err := rows.Close(); err != nil {
		s.logError(ctx, logMsgDBError, logAttrError, err.Error(), logAttrOperation, "close_rows")
	}
}

func (s *Store) buildFailed(ctx context.Context, operation string, err error) error {
	s.logError(ctx, logMsgBuildError, logAttrError, err.Error(), logAttrOperation, operation)
	return errors.Join(ErrBuildingQueryFailed, err)
}

// isUniqueViolation detects unique constraint errors from both pgx and lib/pq.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgerrcode.UniqueViolation
	}

	return false
}

func durationMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

func (s *Store) logDebug(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Store) logInfo(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Store) logError(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
