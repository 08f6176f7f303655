package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx satisfied by both a pool and a transaction,
// letting the same repository code run inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles the repositories over one database handle and scopes a
// unit of work: everything done through the Store passed to WithinTx
// commits or rolls back as one atomic unit. Ticket mutations and their
// audit log entries are always paired inside such a unit.
type Store interface {
	Tickets() TicketRepository
	Logs() TicketLogRepository
	Users() UserRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

type pgStore struct {
	db      DBTX
	pool    *pgxpool.Pool
	tickets TicketRepository
	logs    TicketLogRepository
	users   UserRepository
}

// NewStore builds a Postgres-backed Store on the given pool.
func NewStore(pool *pgxpool.Pool) Store {
	return newPgStore(pool, pool)
}

func newPgStore(db DBTX, pool *pgxpool.Pool) *pgStore {
	return &pgStore{
		db:      db,
		pool:    pool,
		tickets: &ticketRepository{db: db},
		logs:    &ticketLogRepository{db: db},
		users:   &userRepository{db: db},
	}
}

func (s *pgStore) Tickets() TicketRepository { return s.tickets }
func (s *pgStore) Logs() TicketLogRepository { return s.logs }
func (s *pgStore) Users() UserRepository { return s.users }

// WithinTx runs fn against transaction-bound repositories. A failure
// anywhere inside fn rolls the whole unit back. Nested calls reuse the
// enclosing transaction.
func (s *pgStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if _, alreadyTx := s.db.(pgx.Tx); alreadyTx {
		return fn(s)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(newPgStore(tx, s.pool))
	})
}
