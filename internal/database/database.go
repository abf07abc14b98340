// Package database centralises sqlx connection helpers for the primary
// store described by the `database.default` section.  PostgreSQL (lib/pq)
// is the default engine; MySQL and MariaDB go through go-sql-driver/mysql.
//
// Public entry points:
//
//	DSN(cfg)                     – driver name and connection string.
//	Open(ctx, cfg)               – pool with conservative sizes, pinged.
//	ServerVersion(ctx, db)       – "SELECT version()" for --check-db.
//
// Open pings the database before returning so callers can fail fast.
// Callers should Close() the returned *sqlx.DB when no longer needed.
package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/netpulse/devicemngr/internal/config"
)

// ErrUnknownEngine is returned for a DB_ENGINE the package has no driver for.
var ErrUnknownEngine = errors.New("database: unknown engine")

// DSN maps cfg onto a registered driver name and its connection string.
// The string carries the password; never log it.
func DSN(cfg config.Database) (driver, dsn string, err error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	switch cfg.Engine {
	case config.EngineMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = addr
		mc.DBName = cfg.Name
		mc.ParseTime = true
		if cfg.SSLMode == "require" || cfg.SSLMode == "verify-ca" || cfg.SSLMode == "verify-full" {
			mc.TLSConfig = "true"
		}
		return "mysql", mc.FormatDSN(), nil

	case config.EnginePostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(cfg.User, cfg.Password),
			Host:   addr,
			Path:   "/" + cfg.Name,
		}
		q := url.Values{}
		q.Set("sslmode", cfg.SSLMode)
		u.RawQuery = q.Encode()
		return "postgres", u.String(), nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnknownEngine, cfg.Engine)
}

// Open returns a *sqlx.DB with 15 max open and 5 idle connections, and a
// connection lifetime of DB_CONN_MAX_AGE.
func Open(ctx context.Context, cfg config.Database) (*sqlx.DB, error) {
	driver, dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(15)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(cfg.ConnMaxAge)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s@%s: %w", cfg.Name, cfg.Host, err)
	}
	return db, nil
}

// ServerVersion reports the server's version string.  Both engines answer
// the same query.
func ServerVersion(ctx context.Context, db *sqlx.DB) (string, error) {
	var v string
	if err := db.GetContext(ctx, &v, "SELECT version()"); err != nil {
		return "", err
	}
	return v, nil
}
