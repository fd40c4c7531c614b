package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/tapvote/internal/domain/entity"
	"github.com/oksasatya/tapvote/internal/domain/repository"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const uniqueViolation = "23505"

// mapErr translates driver errors into domain errors where one applies.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return entity.ErrConflict
	}
	return err
}

// Store is the pgx-backed repository.Store.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Users() repository.UserRepository { return &UserRepository{q: s.pool} }
func (s *Store) Polls() repository.PollRepository { return &PollRepository{q: s.pool} }

func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&txStore{tx: tx})
	})
}

// txStore reads rows FOR UPDATE so concurrent transactions on the same
// record queue behind each other.
type txStore struct {
	tx pgx.Tx
}

func (t *txStore) Users() repository.UserRepository {
	return &UserRepository{q: t.tx, forUpdate: true}
}

func (t *txStore) Polls() repository.PollRepository {
	return &PollRepository{q: t.tx, forUpdate: true}
}

func (t *txStore) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return fn(t)
}

func lockClause(forUpdate bool) string {
	if forUpdate {
		return " FOR UPDATE"
	}
	return ""
}

var _ repository.Store = (*Store)(nil)
