package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rentalhub/config"
	"rentalhub/pkg/logger"
	"rentalhub/pkg/xerrors"
	"rentalhub/storage"
)

// DB is the query surface shared by the pool and an open transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Pool interface {
	DB
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

type Store struct {
	pool Pool
	db   DB
	tx   pgx.Tx
	log  logger.ILogger
}

func New(ctx context.Context, cfg config.Config, log logger.ILogger) (*Store, error) {
	url := cfg.PostgresURL()

	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		log.Error("error while parsing Postgres config", logger.Error(err))
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Error("failed to connect Postgres", logger.Error(err))
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		log.Error("failed to ping Postgres", logger.Error(err))
		pool.Close()
		return nil, err
	}

	if err := runMigrations(cfg.MigrationsPath, url, log); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("Postgres connected", logger.String("db", cfg.PostgresDB))

	return NewFromPool(pool, log), nil
}

func NewFromPool(pool Pool, log logger.ILogger) *Store {
	return &Store{pool: pool, db: pool, log: log}
}

func runMigrations(path, url string, log logger.ILogger) error {
	m, err := migrate.New("file://"+path, url)
	if err != nil {
		log.Error("migration init error", logger.Error(err), logger.String("path", path))
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no migrations to apply")
			return nil
		}
		log.Error("migration up error", logger.Error(err))
		return err
	}
	log.Info("migrations applied")
	return nil
}

func (s *Store) Close() {
	if s.tx != nil {
		return
	}
	s.pool.Close()
}

// WithTx commits when fn returns nil and rolls back on error or panic.
// Calls on a store that is already inside a transaction join it.
func (s *Store) WithTx(ctx context.Context, fn func(tx storage.IStorage) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		s.log.Error("failed to begin transaction", logger.Error(err))
		return fmt.Errorf("%w: begin tx: %v", xerrors.ErrInternal, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.log.Error("failed to rollback transaction", logger.Error(rbErr))
			}
			return
		}
		if err = tx.Commit(ctx); err != nil {
			s.log.Error("failed to commit transaction", logger.Error(err))
		}
	}()

	err = fn(&Store{pool: s.pool, db: tx, tx: tx, log: s.log})
	return err
}

// Truncate wipes every domain table.
func (s *Store) Truncate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `TRUNCATE TABLE favorites, notifications, listings, renter_profiles, identities CASCADE`)
	if err != nil {
		s.log.Error("failed to truncate tables", logger.Error(err))
	}
	return err
}

func (s *Store) Identity() storage.IIdentityStorage         { return NewIdentityRepo(s.db, s.log) }
func (s *Store) Profile() storage.IProfileStorage           { return NewProfileRepo(s.db, s.log) }
func (s *Store) Listing() storage.IListingStorage           { return NewListingRepo(s.db, s.log) }
func (s *Store) Notification() storage.INotificationStorage { return NewNotificationRepo(s.db, s.log) }
func (s *Store) Favorite() storage.IFavoriteStorage         { return NewFavoriteRepo(s.db, s.log) }

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return xerrors.ErrNotFound
	case xerrors.IsInvalidTextRepresentation(err):
		// A malformed id cannot name any row.
		return xerrors.ErrNotFound
	case xerrors.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %v", xerrors.ErrNotFound, err)
	case xerrors.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", xerrors.ErrConflict, err)
	default:
		return err
	}
}

// execOne runs a single-row write and reports ErrNotFound when no row matched.
func execOne(ctx context.Context, db DB, log logger.ILogger, msg, query string, args ...any) error {
	tag, err := db.Exec(ctx, query, args...)
	if err != nil {
		return readError(log, msg, err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func readError(log logger.ILogger, msg string, err error) error {
	mapped := mapError(err)
	if !errors.Is(mapped, xerrors.ErrNotFound) {
		log.Error(msg, logger.Error(err))
	}
	return mapped
}

// absentOrError is readError for writes that report a miss as false rather
// than ErrNotFound: it returns nil when the error only means no row matched.
func absentOrError(log logger.ILogger, msg string, err error) error {
	mapped := readError(log, msg, err)
	if errors.Is(mapped, xerrors.ErrNotFound) {
		return nil
	}
	return mapped
}
