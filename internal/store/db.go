package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Beginner starts database transactions.
type Beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// Queries groups every statement used by the cart services.
type Queries struct {
	db DBTX
}

// New binds queries to the provided connection, pool or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// UnitOfWork is a transaction with the full query set bound to it. Every
// statement issued through it runs inside the same transaction.
type UnitOfWork struct {
	*Queries
	tx pgx.Tx
}

// Begin opens a unit of work on db.
func Begin(ctx context.Context, db Beginner) (*UnitOfWork, error) {
	if db == nil {
		return nil, errors.New("store: database not configured")
	}
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &UnitOfWork{Queries: New(tx), tx: tx}, nil
}

// Commit finalises the unit of work.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	return u.tx.Commit(ctx)
}

// Rollback aborts the unit of work. Calling it after Commit is a no-op.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	err := u.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
