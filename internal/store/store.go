// Package store provides user-scoped access to the assistant's relational
// data: users, card deliveries, transactions, bills, repayments and
// collections. Every read and write is scoped by user id; the handlers never
// touch SQL directly.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	errx "github.com/Cardassist-core-poc/server/internal/core/error"
)

// defaultQueryTimeout bounds a single statement when no explicit timeout is
// configured.
const defaultQueryTimeout = 5 * time.Second

// Querier is the minimal database contract the repositories need. It is
// satisfied by *pgxpool.Pool and by pgxmock in tests.
type Querier interface {
	pgxscan.Querier
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// qb builds PostgreSQL-flavoured statements.
var qb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Store bundles all per-table repositories over one Querier.
type Store struct {
	Users        *UserRepository
	Deliveries   *DeliveryRepository
	Transactions *TransactionRepository
	Bills        *BillRepository
	Repayments   *RepaymentRepository
	Collections  *CollectionRepository
}

// New wires every repository to the given Querier. queryTimeout bounds each
// statement; zero picks the default.
func New(q Querier, queryTimeout time.Duration) *Store {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	s := &Store{
		Users:        NewUserRepository(q),
		Deliveries:   NewDeliveryRepository(q),
		Transactions: NewTransactionRepository(q),
		Bills:        NewBillRepository(q),
		Repayments:   NewRepaymentRepository(q),
		Collections:  NewCollectionRepository(q),
	}
	s.Users.timeout = queryTimeout
	s.Deliveries.timeout = queryTimeout
	s.Transactions.timeout = queryTimeout
	s.Bills.timeout = queryTimeout
	s.Repayments.timeout = queryTimeout
	s.Collections.timeout = queryTimeout
	return s
}

func requireUserID(userID string) error {
	if userID == "" {
		return errx.InvalidInput("user id is required")
	}
	return nil
}

func bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func exec(ctx context.Context, q Querier, timeout time.Duration, sq squirrel.Sqlizer) error {
	sql, args, err := sq.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	ctx, cancel := bound(ctx, timeout)
	defer cancel()
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return errx.WrapPg(err)
	}
	if tag.RowsAffected() == 0 {
		return errx.NotFound(nil, "no matching record")
	}
	return nil
}

func get[T any](ctx context.Context, q Querier, timeout time.Duration, sq squirrel.Sqlizer) (*T, error) {
	sql, args, err := sq.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	ctx, cancel := bound(ctx, timeout)
	defer cancel()
	var dst T
	if err := pgxscan.Get(ctx, q, &dst, sql, args...); err != nil {
		return nil, errx.WrapPg(err)
	}
	return &dst, nil
}

func list[T any](ctx context.Context, q Querier, timeout time.Duration, sq squirrel.Sqlizer) ([]T, error) {
	sql, args, err := sq.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	ctx, cancel := bound(ctx, timeout)
	defer cancel()
	var dst []T
	if err := pgxscan.Select(ctx, q, &dst, sql, args...); err != nil {
		return nil, errx.WrapPg(err)
	}
	return dst, nil
}
