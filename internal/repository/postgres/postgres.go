package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FordLabs/PeopleMover/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.SpaceRepository      = (*Repository)(nil)
	_ repository.UserSpaceRepository  = (*Repository)(nil)
	_ repository.PersonRepository     = (*Repository)(nil)
	_ repository.ProductRepository    = (*Repository)(nil)
	_ repository.RoleRepository       = (*Repository)(nil)
	_ repository.ColorRepository      = (*Repository)(nil)
	_ repository.TagRepository        = (*Repository)(nil)
	_ repository.AssignmentRepository = (*Repository)(nil)
)

// Ping verifies database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *Repository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// touchSpace bumps the space's last modified timestamp; every space-scoped write calls it.
func touchSpace(ctx context.Context, q querier, spaceUUID string) error {
	tag, err := q.Exec(ctx, `UPDATE spaces SET last_modified_date = NOW() WHERE uuid = $1`, spaceUUID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return repository.ErrConflict
		case "23503":
			return repository.ErrNotFound
		case "23514", "22P02":
			return repository.ErrInvalidArgument
		}
	}
	return err
}

func expectAffected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func nilIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
