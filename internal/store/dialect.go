package store

import (
	"fmt"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// dialect captures the handful of DDL and insert differences between the
// supported databases. Query placeholders are handled by sqlx.Rebind.
type dialect struct {
	name       string // database/sql driver name
	primaryKey string
	bigint     string
	timestamp  string
	// indexIfNotExists is empty for MySQL, which has no IF NOT EXISTS for
	// CREATE INDEX; duplicate index errors are ignored there instead.
	indexIfNotExists string
	// returning is set when LastInsertId is unsupported and inserts must use
	// INSERT ... RETURNING id.
	returning bool
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "", DriverSQLite:
		return dialect{
			name:             "sqlite",
			primaryKey:       "INTEGER PRIMARY KEY AUTOINCREMENT",
			bigint:           "INTEGER",
			timestamp:        "DATETIME",
			indexIfNotExists: "IF NOT EXISTS ",
		}, nil
	case DriverMySQL:
		return dialect{
			name:       "mysql",
			primaryKey: "BIGINT AUTO_INCREMENT PRIMARY KEY",
			bigint:     "BIGINT",
			timestamp:  "DATETIME(6)",
		}, nil
	case DriverPostgres, "pgx":
		return dialect{
			name:             "pgx",
			primaryKey:       "BIGSERIAL PRIMARY KEY",
			bigint:           "BIGINT",
			timestamp:        "TIMESTAMP",
			indexIfNotExists: "IF NOT EXISTS ",
			returning:        true,
		}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q (use sqlite, mysql or postgres)", driver)
	}
}

// expand substitutes the dialect-specific column types into a DDL template.
func (d dialect) expand(ddl string) string {
	return strings.NewReplacer(
		"{{pk}}", d.primaryKey,
		"{{bigint}}", d.bigint,
		"{{ts}}", d.timestamp,
		"{{ine}}", d.indexIfNotExists,
	).Replace(ddl)
}

// mysqlDSN forces the connection options the store relies on: DATETIME
// columns scanned into time.Time in UTC, and RowsAffected counting matched
// rather than changed rows so that no-op updates are not reported missing.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}
