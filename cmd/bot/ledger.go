package main

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"

	"github.com/jose-valero/vouch-bot/internal/app/service"
	"github.com/jose-valero/vouch-bot/internal/infra/storage"
)

type ledgerStore struct {
	driver string
	repo   service.VouchRepo
	db     *sql.DB
}

func (l *ledgerStore) Close() error { return l.db.Close() }

// openLedger elige el backend por el esquema de DATABASE_URL:
// postgres:// con migraciones goose, sqlite:// con automigrate de gorm.
func openLedger(ctx context.Context, url string) (*ledgerStore, error) {
	driver, err := storage.Driver(url)
	if err != nil {
		return nil, err
	}

	switch driver {
	case storage.DriverPostgres:
		db, err := storage.Open(ctx, url)
		if err != nil {
			return nil, err
		}
		if err := storage.Migrate(db); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "migrate")
		}
		return &ledgerStore{driver: driver, repo: storage.NewVouchRepo(db), db: db}, nil

	default:
		gdb, err := storage.OpenSQLite(storage.SQLitePath(url))
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, errors.Wrap(err, "sqlite handle")
		}
		if err := storage.AutoMigrate(gdb); err != nil {
			_ = sqlDB.Close()
			return nil, errors.Wrap(err, "automigrate")
		}
		return &ledgerStore{driver: driver, repo: storage.NewLiteVouchRepo(gdb), db: sqlDB}, nil
	}
}
