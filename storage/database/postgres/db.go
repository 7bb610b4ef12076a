// Package pgrepos implements the repositories on PostgreSQL with sqlx.
package pgrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolcal/core/invite"
	"github.com/trezcool/schoolcal/core/notification"
	"github.com/trezcool/schoolcal/core/user"
	"github.com/trezcool/schoolcal/core/workspace"
)

// postgres error codes
const (
	codeUniqueViolation = "23505"
	codeInvalidTextRepr = "22P02" // e.g. a malformed UUID
)

// DB wraps the connection pool.
type DB struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *DB {
	return &DB{db: db}
}

func (d *DB) PingContext(ctx context.Context) error { return d.db.PingContext(ctx) }

func (d *DB) Stores() *Stores {
	return &Stores{q: d.db}
}

// WithTx runs fn in a transaction, committed only when fn returns nil.
func (d *DB) WithTx(ctx context.Context, fn func(stores *Stores) error) (err error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&Stores{q: tx}); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// Stores gives access to every repository, on the pool or on a transaction.
type Stores struct {
	q sqlx.ExtContext
}

var _ invite.Stores = (*Stores)(nil) // interface compliance check

func (s *Stores) Users() user.Repository                 { return &userRepository{s.q} }
func (s *Stores) Workspaces() workspace.Repository       { return &workspaceRepository{s.q} }
func (s *Stores) Invites() invite.Repository             { return &inviteRepository{s.q} }
func (s *Stores) Notifications() notification.Repository { return &notificationRepository{s.q} }

// WorkspaceTx adapts WithTx to workspace.TxRunner.
func (d *DB) WorkspaceTx() workspace.TxRunner { return workspaceTxRunner{d} }

// InviteTx adapts WithTx to invite.TxRunner.
func (d *DB) InviteTx() invite.TxRunner { return inviteTxRunner{d} }

type workspaceTxRunner struct{ d *DB }

func (r workspaceTxRunner) WithTx(ctx context.Context, fn func(repo workspace.Repository) error) error {
	return r.d.WithTx(ctx, func(stores *Stores) error { return fn(stores.Workspaces()) })
}

type inviteTxRunner struct{ d *DB }

func (r inviteTxRunner) WithTx(ctx context.Context, fn func(stores invite.Stores) error) error {
	return r.d.WithTx(ctx, func(stores *Stores) error { return fn(stores) })
}

func pqCode(err error) string {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return string(pqErr.Code)
	}
	return ""
}

// notFound maps "no row" errors, malformed ids included, to sentinel.
func notFound(err, sentinel error) error {
	if errors.Cause(err) == sql.ErrNoRows || pqCode(err) == codeInvalidTextRepr {
		return sentinel
	}
	return err
}

// execOne runs a statement that must touch exactly one row.
func execOne(ctx context.Context, q sqlx.ExecerContext, sentinel error, query string, args ...interface{}) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return notFound(err, sentinel)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel
	}
	return nil
}
