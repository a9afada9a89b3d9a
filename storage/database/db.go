package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kat-co/vala"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/trezcool/enrollment/core"
	appfs "github.com/trezcool/enrollment/fs"
)

// sqlite3 serializes writers with BEGIN IMMEDIATE; busy connections wait instead of failing.
const sqliteParams = "_busy_timeout=10000&_foreign_keys=on&_journal_mode=WAL&_txlock=immediate"

func postgresURL(dbName string, admin bool, conf *core.Config) string {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   core.EnginePostgres,
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// SQLiteDSN returns the data source name of a sqlite3 database file.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?%s", path, sqliteParams)
}

func open(dbName string, admin bool, conf *core.Config) (*sqlx.DB, error) {
	switch conf.Database.Engine {
	case core.EnginePostgres:
		err := vala.BeginValidation().Validate(
			vala.StringNotEmpty(conf.Database.Host, "database.host"),
			vala.StringNotEmpty(dbName, "database.name"),
			vala.StringNotEmpty(conf.Database.User, "database.user"),
		).Check()
		if err != nil {
			return nil, errors.Wrap(err, "invalid database config")
		}
		return sqlx.Open(core.EnginePostgres, postgresURL(dbName, admin, conf))
	case core.EngineSQLite:
		if err := vala.BeginValidation().Validate(
			vala.StringNotEmpty(conf.Database.Path, "database.path"),
		).Check(); err != nil {
			return nil, errors.Wrap(err, "invalid database config")
		}
		return sqlx.Open(core.EngineSQLite, SQLiteDSN(conf.Database.Path))
	default:
		return nil, errors.Errorf("unsupported database engine %q", conf.Database.Engine)
	}
}

// Open opens the app database and waits for it to be reachable.
func Open(conf *core.Config) (*sqlx.DB, error) {
	db, err := open(conf.Database.Name, false, conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if conf.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(conf.Database.MaxOpenConns)
	}
	if conf.Database.MaxIdleConns > 0 {
		db.SetMaxIdleConns(conf.Database.MaxIdleConns)
	}
	if err = ping(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	maxAttempts := 30
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

func createAppUser(db *sqlx.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}

	var exists bool
	if err := db.Get(&exists, "SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)", conf.Database.User); err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if !exists {
		q := fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD '%s'", conf.Database.User, conf.Database.Password)
		if _, err := db.Exec(q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createDB(db *sqlx.DB, conf *core.Config) error {
	var exists bool
	if err := db.Get(&exists, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", conf.Database.Name); err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if !exists {
		if _, err := db.Exec(fmt.Sprintf("CREATE DATABASE %s", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// CreateIfNotExist creates the postgres app user and database when missing.
// It is a no-op for sqlite3, whose database file is created on first open.
func CreateIfNotExist(conf *core.Config) error {
	if conf.Database.IsSQLite() {
		return nil
	}

	// connect as admin
	adminDB, err := open("postgres", true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = adminDB.Close() }()

	if err = ping(adminDB.DB); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(adminDB, conf); err != nil {
		return errors.Wrap(err, "creating app user")
	}

	// create DB as app user
	db, err := open("postgres", false, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	if err = createDB(db, conf); err != nil {
		return errors.Wrap(err, "creating database")
	}
	return nil
}

// Migrator applies the embedded migrations of a database engine.
type Migrator struct {
	db  *sql.DB
	dir string
}

func NewMigrator(db *sqlx.DB) (*Migrator, error) {
	if err := goose.SetDialect(db.DriverName()); err != nil {
		return nil, errors.Wrap(err, "setting migrations dialect")
	}
	return &Migrator{db: db.DB, dir: appfs.MigrationsDir(db.DriverName())}, nil
}

func (m *Migrator) Up() error {
	return errors.Wrap(goose.Up(m.db, appfs.FS, m.dir), "migrating database")
}

func (m *Migrator) UpByOne() error {
	return errors.Wrap(goose.UpByOne(m.db, appfs.FS, m.dir), "migrating database up by one")
}

func (m *Migrator) UpTo(version int64) error {
	return errors.Wrap(goose.UpTo(m.db, appfs.FS, m.dir, version), "migrating database up")
}

func (m *Migrator) Down() error {
	return errors.Wrap(goose.Down(m.db, appfs.FS, m.dir), "rolling back migration")
}

func (m *Migrator) DownTo(version int64) error {
	return errors.Wrap(goose.DownTo(m.db, appfs.FS, m.dir, version), "rolling back migrations")
}

func (m *Migrator) Redo() error {
	return errors.Wrap(goose.Redo(m.db, appfs.FS, m.dir), "redoing migration")
}

// Migrate applies every pending migration.
func Migrate(db *sqlx.DB) error {
	m, err := NewMigrator(db)
	if err != nil {
		return err
	}
	return m.Up()
}
