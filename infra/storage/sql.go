package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/mstgnz/thaipay/infra/logger"
	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/payment"
)

type dialect struct {
	name        string
	decimalType string
	jsonType    string
	boolType    string
}

var (
	sqliteDialect   = dialect{name: "sqlite3", decimalType: "TEXT", jsonType: "TEXT", boolType: "INTEGER"}
	postgresDialect = dialect{name: "postgres", decimalType: "NUMERIC(20,4)", jsonType: "JSONB", boolType: "BOOLEAN"}
)

// rebind rewrites ? placeholders for engines that number them.
func (d dialect) rebind(query string) string {
	if d.name != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQL stores every entity in a relational database. Timestamps are kept as
// unix microseconds so windows compare the same way on both engines.
type SQL struct {
	db      *sql.DB
	dialect dialect
}

// OpenSQLite opens (and creates) a SQLite database tuned for concurrent access.
func OpenSQLite(dbPath string) (*SQL, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_timeout=20000&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	s := &SQL{db: db, dialect: sqliteDialect}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA temp_store = memory;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logger.Warn("Failed to apply SQLite pragma", logger.LogContext{
				Fields: map[string]any{"pragma": pragma, "error": err.Error()},
			})
		}
	}

	logger.Info("SQLite storage initialized", logger.LogContext{Fields: map[string]any{"path": dbPath}})
	return s, nil
}

// OpenPostgres connects to PostgreSQL and creates the schema if needed.
func OpenPostgres(dbURL string) (*SQL, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &SQL{db: db, dialect: postgresDialect}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("PostgreSQL storage initialized")
	return s, nil
}

// Close closes the database.
func (s *SQL) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *SQL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQL) Methods() payment.MethodRepository           { return sqlMethods{s} }
func (s *SQL) Transactions() payment.TransactionRepository { return sqlTransactions{s} }
func (s *SQL) Orders() payment.OrderRepository             { return sqlOrders{s} }

func (s *SQL) initSchema() error {
	d := s.dialect
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS payment_methods (
			id TEXT PRIMARY KEY,
			merchant_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			config %[2]s,
			min_amount %[1]s NOT NULL,
			max_amount %[1]s NOT NULL,
			daily_limit %[1]s NOT NULL,
			monthly_limit %[1]s NOT NULL,
			currency TEXT NOT NULL,
			fee_percentage %[1]s NOT NULL,
			fee_fixed %[1]s NOT NULL,
			usage_count BIGINT NOT NULL DEFAULT 0,
			total_volume %[1]s NOT NULL DEFAULT 0,
			last_used_at BIGINT,
			is_enabled %[3]s NOT NULL,
			is_default %[3]s NOT NULL,
			priority INTEGER NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			UNIQUE (merchant_id, provider)
		)`, d.decimalType, d.jsonType, d.boolType),
		`CREATE INDEX IF NOT EXISTS idx_payment_methods_merchant ON payment_methods(merchant_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS transactions (
			transaction_id TEXT PRIMARY KEY,
			merchant_id TEXT NOT NULL,
			order_id TEXT NOT NULL,
			payment_method_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			amount %[1]s NOT NULL,
			fee %[1]s NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			failure_reason TEXT NOT NULL DEFAULT '',
			provider_response %[2]s,
			expires_at BIGINT NOT NULL,
			created_at BIGINT NOT NULL,
			processed_at BIGINT,
			completed_at BIGINT,
			updated_at BIGINT NOT NULL
		)`, d.decimalType, d.jsonType),
		`CREATE INDEX IF NOT EXISTS idx_transactions_merchant ON transactions(merchant_id, status, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_method ON transactions(payment_method_id, created_at)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			order_number TEXT NOT NULL,
			merchant_id TEXT NOT NULL,
			status TEXT NOT NULL,
			subtotal %[1]s NOT NULL,
			tax %[1]s NOT NULL,
			shipping %[1]s NOT NULL,
			discount %[1]s NOT NULL,
			total %[1]s NOT NULL,
			currency TEXT NOT NULL,
			customer %[2]s,
			thai %[2]s,
			notes TEXT NOT NULL DEFAULT '',
			confirmed_at BIGINT,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`, d.decimalType, d.jsonType),
		`CREATE INDEX IF NOT EXISTS idx_orders_merchant ON orders(merchant_id, created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQL) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := retryOperation(ctx, func() error {
		var err error
		res, err = s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
		return err
	}, 3)
	return res, translate(err)
}

func (s *SQL) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

func (s *SQL) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	var rows *sql.Rows
	err := retryOperation(ctx, func() error {
		var err error
		rows, err = s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
		return err
	}, 3)
	return rows, err
}

// retryOperation retries SQLITE_BUSY and SQLITE_LOCKED with exponential
// backoff: 10ms, 20ms, 40ms.
func retryOperation(ctx context.Context, operation func() error, maxRetries int) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		if !isBusy(err) {
			return err
		}
		lastErr = err
		if attempt == maxRetries {
			break
		}
		backoff := time.Duration(10*(1<<attempt)) * time.Millisecond
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

func isBusy(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return false
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique || serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var perr *pq.Error
	if errors.As(err, &perr) {
		return perr.Code == "23505"
	}
	return false
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return model.ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", model.ErrDuplicate, err)
	}
	return err
}

func micros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func nullMicros(t *time.Time) any {
	if t == nil {
		return nil
	}
	return micros(*t)
}

func fromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

func fromNullMicros(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMicros(v.Int64)
	return &t
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

type rowScanner interface {
	Scan(dest ...any) error
}
