package storage

import (
	"context"
	"database/sql"
	"embed"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	sqlite "github.com/glebarez/sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Driver decide el backend según el esquema de DATABASE_URL.
func Driver(url string) (string, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, nil
	case strings.HasPrefix(url, "sqlite://"):
		return DriverSQLite, nil
	}
	return "", errors.Newf("unsupported DATABASE_URL scheme: %q", redactURL(url))
}

// SQLitePath: "sqlite://data/vouches.db" -> "data/vouches.db"
func SQLitePath(url string) string { return strings.TrimPrefix(url, "sqlite://") }

// Open abre la conexión (pgx stdlib) y verifica health.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, errors.Wrap(err, "db open")
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "db ping")
	}
	return db, nil
}

// Migrate aplica todas las migraciones embebidas.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return errors.Wrap(goose.Up(db, "migrations"), "goose up")
}

// OpenSQLite abre (o crea) la base local y aplica PRAGMAs. Para dev y tests.
func OpenSQLite(path string) (*gorm.DB, error) {
	// el directorio padre tiene que existir, si no sqlite devuelve errores raros
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA busy_timeout=5000;")

	if sqlDB, err := db.DB(); err == nil {
		// sqlite serializa escrituras; un solo writer evita SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&vouchRow{})
}

func redactURL(u string) string {
	if i := strings.Index(u, "@"); i > 0 {
		if j := strings.Index(u, "://"); j > 0 && j < i {
			return u[:j+3] + "***" + u[i:]
		}
	}
	return u
}
