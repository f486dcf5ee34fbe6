package database

import (
	"context"
	"database/sql"
	"embed"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/epicevents/crm/core"
)

const (
	driverName     = "sqlite"
	migrationsDir  = "migrations"
	MemoryDatabase = ":memory:"
)

//go:embed migrations/*.sql
var migrations embed.FS

func init() {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		panic(err)
	}
}

func dsn(path string, busyTimeout time.Duration) string {
	q := make(url.Values)
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout("+strconv.FormatInt(busyTimeout.Milliseconds(), 10)+")")
	return path + "?" + q.Encode()
}

// OpenPath opens the SQLite database stored at path, MemoryDatabase included.
func OpenPath(path string, busyTimeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn(path, busyTimeout))
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	// a single connection keeps one database per handle, in memory or on disk
	db.SetMaxOpenConns(1)
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Open opens the database file configured for mode. The demo database is recreated from scratch.
func Open(conf *core.Config, mode string) (*sql.DB, error) {
	path, err := conf.Database.DatabaseFile(mode)
	if err != nil {
		return nil, err
	}
	if mode == core.ModeDemo {
		if err = os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "removing demo database")
		}
	}
	return OpenPath(path, conf.Database.BusyTimeout)
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	maxAttempts := 5
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// Run runs a goose command against the embedded migrations.
func Run(ctx context.Context, db *sql.DB, command string, args ...string) error {
	return goose.RunContext(ctx, command, db, migrationsDir, args...)
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *sql.DB) error {
	if err := Run(ctx, db, "up"); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
