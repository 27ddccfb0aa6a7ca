package db

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrInvalidTarget marks a DATABASE_URL that can never connect, no matter
// how often it is retried.
var ErrInvalidTarget = errors.New("invalid database target")

// Dialect identifies the SQL flavour spoken by a target.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectMemory   Dialect = "memory"
)

// Target is a parsed DATABASE_URL.
type Target struct {
	Dialect Dialect
	Driver  string // database/sql driver name, empty for memory
	DSN     string // driver specific data source name

	redacted string
}

// Redacted returns the URL with the password masked, for logs.
func (t Target) Redacted() string {
	return t.redacted
}

// IsMemory reports whether the target selects the in-memory store.
func (t Target) IsMemory() bool {
	return t.Dialect == DialectMemory
}

// ParseTarget turns a DATABASE_URL into a driver name and DSN.
//
// Accepted schemes: mysql, mysql+<driver>, postgres, postgresql,
// postgresql+<driver>, sqlite, sqlite3 and memory. The "+<driver>" suffix of
// SQLAlchemy style URLs is ignored.
func ParseTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, fmt.Errorf("%w: empty url", ErrInvalidTarget)
	}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Target{}, fmt.Errorf("%w: missing scheme in %q", ErrInvalidTarget, raw)
	}
	scheme, _, _ = strings.Cut(strings.ToLower(scheme), "+")

	switch scheme {
	case "memory":
		return Target{Dialect: DialectMemory, redacted: "memory://"}, nil
	case "sqlite", "sqlite3":
		return parseSQLite(rest)
	case "mysql", "mariadb":
		return parseMySQL(raw)
	case "postgres", "postgresql", "pgx":
		return parsePostgres(raw)
	default:
		return Target{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidTarget, scheme)
	}
}

func parseSQLite(rest string) (Target, error) {
	// sqlite:///relative.db and sqlite:////absolute.db follow SQLAlchemy
	path := strings.TrimPrefix(rest, "/")
	path, query, _ := strings.Cut(path, "?")
	if path == "" {
		return Target{}, fmt.Errorf("%w: sqlite url has no path", ErrInvalidTarget)
	}

	dsn := path
	if path != ":memory:" {
		dsn += "?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
		if query != "" {
			dsn += "&" + query
		}
	} else if query != "" {
		dsn += "?" + query
	}

	return Target{
		Dialect:  DialectSQLite,
		Driver:   "sqlite3",
		DSN:      dsn,
		redacted: "sqlite://" + path,
	}, nil
}

func parseMySQL(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if u.Host == "" {
		return Target{}, fmt.Errorf("%w: mysql url has no host", ErrInvalidTarget)
	}
	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return Target{}, fmt.Errorf("%w: mysql url has no database name", ErrInvalidTarget)
	}

	addr := u.Host
	if u.Port() == "" {
		addr = u.Host + ":3306"
	} else if _, err := strconv.Atoi(u.Port()); err != nil {
		return Target{}, fmt.Errorf("%w: bad port %q", ErrInvalidTarget, u.Port())
	}

	// Let the driver sort query keys into its own fields so none is written twice.
	query := u.Query()
	if !query.Has("parseTime") {
		query.Set("parseTime", "true")
	}
	cfg, err := mysql.ParseDSN("tcp(" + addr + ")/" + dbName + "?" + query.Encode())
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}

	return Target{
		Dialect:  DialectMySQL,
		Driver:   "mysql",
		DSN:      cfg.FormatDSN(),
		redacted: u.Redacted(),
	}, nil
}

func parsePostgres(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if u.Host == "" {
		return Target{}, fmt.Errorf("%w: postgres url has no host", ErrInvalidTarget)
	}
	if strings.TrimPrefix(u.Path, "/") == "" {
		return Target{}, fmt.Errorf("%w: postgres url has no database name", ErrInvalidTarget)
	}
	// pgx only understands postgres:// and postgresql://
	u.Scheme = "postgres"

	return Target{
		Dialect:  DialectPostgres,
		Driver:   "pgx",
		DSN:      u.String(),
		redacted: u.Redacted(),
	}, nil
}
