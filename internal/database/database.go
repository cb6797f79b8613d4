package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	// pure Go driver registered as "sqlite"
	_ "modernc.org/sqlite"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Debug           bool
	Silent          bool
}

// Connect opens the database handle. The caller owns it and must release it
// with Close on shutdown.
func Connect(dsn string, opts Options) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:  newLogger(opts),
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}

	if IsPostgresDSN(dsn) {
		log.Println("Connecting to PostgreSQL...")
		db, err := gorm.Open(postgres.Open(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := configurePool(db, opts); err != nil {
			return nil, err
		}
		return db, nil
	}

	dsn = withSQLiteTimeFormat(dsn)
	log.Println("Using SQLite:", dsn)
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		gormCfg,
	)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Single connection: writers are serialized and the pragmas below stick.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("sqlite %q: %w", pragma, err)
		}
	}
	return db, nil
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Dialect returns the name of the SQL dialect behind db.
func Dialect(db *gorm.DB) string {
	return db.Dialector.Name()
}

var postgresKeywords = map[string]bool{
	"host": true, "hostaddr": true, "port": true, "dbname": true,
	"user": true, "password": true, "sslmode": true, "connect_timeout": true,
}

// IsPostgresDSN accepts URL DSNs and libpq keyword DSNs
// ("host=db user=app dbname=booking"). Anything else is a SQLite DSN.
func IsPostgresDSN(dsn string) bool {
	dsn = strings.TrimSpace(dsn)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return true
	}
	if strings.HasPrefix(dsn, "file:") {
		return false
	}
	for _, field := range strings.Fields(dsn) {
		key, _, ok := strings.Cut(field, "=")
		if ok && postgresKeywords[strings.ToLower(key)] {
			return true
		}
	}
	return false
}

// withSQLiteTimeFormat makes the driver store instants as
// "2006-01-02 15:04:05.999999999-07:00". All instants are UTC, so the stored
// text orders the same way as the instants it encodes.
func withSQLiteTimeFormat(dsn string) string {
	if !strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, "_time_format=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_time_format=sqlite"
	}
	return dsn + "?_time_format=sqlite"
}

func configurePool(db *gorm.DB, opts Options) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	return nil
}

func newLogger(opts Options) logger.Interface {
	level := logger.Warn
	switch {
	case opts.Silent:
		level = logger.Silent
	case opts.Debug:
		level = logger.Info
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)
}
