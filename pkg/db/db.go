package db

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Open connects to the database named by driver. SQLite DSNs get a busy
// timeout and WAL journal unless they already carry query parameters.
func Open(driver, dsn string) (*sqlx.DB, error) {
	var (
		name string
		err  error
	)
	switch driver {
	case DriverSQLite, "sqlite3":
		name = "sqlite3"
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
		name = "postgres"
	case DriverMySQL:
		name = "mysql"
		dsn, err = mysqlDSN(dsn)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := sqlx.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if name == "sqlite3" && strings.Contains(dsn, ":memory:") {
		// Each connection to :memory: is a separate database.
		conn.SetMaxOpenConns(1)
	}
	return conn, nil
}

func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "uploads.db"
	}
	if strings.Contains(dsn, "?") || strings.Contains(dsn, ":memory:") {
		return dsn
	}
	return "file:" + dsn + "?_busy_timeout=5000&_journal_mode=WAL"
}

// mysqlDSN makes sure timestamps scan into time.Time.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// InitDB runs the embedded migrations for the connection's dialect.
func InitDB(ctx context.Context, conn *sqlx.DB) error {
	file, err := migrationFile(conn.DriverName())
	if err != nil {
		return err
	}
	migrationsSQL, err := migrations.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	stmts := strings.Split(string(migrationsSQL), ";")
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := conn.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func migrationFile(driverName string) (string, error) {
	switch driverName {
	case "sqlite3":
		return "migrations/sqlite.sql", nil
	case "postgres":
		return "migrations/postgres.sql", nil
	case "mysql":
		return "migrations/mysql.sql", nil
	}
	return "", fmt.Errorf("no migrations for driver %q", driverName)
}
