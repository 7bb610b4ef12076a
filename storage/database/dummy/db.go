// Package dummydb keeps every table in memory. It backs the tests and the
// `STORAGE=memory` mode of the API.
package dummydb

import (
	"context"
	"sync"

	"github.com/trezcool/schoolcal/core/invite"
	"github.com/trezcool/schoolcal/core/notification"
	"github.com/trezcool/schoolcal/core/user"
	"github.com/trezcool/schoolcal/core/workspace"
)

type (
	DB struct {
		mu     sync.Mutex
		tables *tables
	}

	memberKey struct {
		workspaceID string
		userID      string
	}

	tables struct {
		users         map[string]user.User
		workspaces    map[string]workspace.Workspace
		members       map[memberKey]workspace.Member
		links         map[string]invite.Link
		invites       map[string]invite.Invite
		notifications map[string]notification.Notification
	}
)

func newTables() *tables {
	return &tables{
		users:         make(map[string]user.User),
		workspaces:    make(map[string]workspace.Workspace),
		members:       make(map[memberKey]workspace.Member),
		links:         make(map[string]invite.Link),
		invites:       make(map[string]invite.Invite),
		notifications: make(map[string]notification.Notification),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.workspaces {
		c.workspaces[k] = v
	}
	for k, v := range t.members {
		c.members[k] = v
	}
	for k, v := range t.links {
		c.links[k] = v
	}
	for k, v := range t.invites {
		c.invites[k] = v
	}
	for k, v := range t.notifications {
		v.Channels = append([]string(nil), v.Channels...)
		c.notifications[k] = v
	}
	return c
}

func Open() *DB {
	return &DB{tables: newTables()}
}

func (db *DB) PingContext(context.Context) error { return nil }

func (db *DB) Close() error { return nil }

// Stores returns repositories that lock the DB on every call.
func (db *DB) Stores() *Stores {
	return &Stores{db: db}
}

// WithTx runs fn with exclusive access to the DB.
// Every write fn made is discarded when it returns an error.
func (db *DB) WithTx(ctx context.Context, fn func(stores *Stores) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := db.tables.clone()
	if err := fn(&Stores{db: db, inTx: true}); err != nil {
		db.tables = snapshot
		return err
	}
	return nil
}

// Stores gives access to every repository of the DB.
type Stores struct {
	db   *DB
	inTx bool
}

var (
	_ invite.Stores = (*Stores)(nil) // interface compliance check
)

func (s *Stores) do(fn func(t *tables)) {
	if !s.inTx {
		s.db.mu.Lock()
		defer s.db.mu.Unlock()
	}
	fn(s.db.tables)
}

func (s *Stores) Users() user.Repository                 { return &userRepository{s} }
func (s *Stores) Workspaces() workspace.Repository       { return &workspaceRepository{s} }
func (s *Stores) Invites() invite.Repository             { return &inviteRepository{s} }
func (s *Stores) Notifications() notification.Repository { return &notificationRepository{s} }

// WorkspaceTx adapts WithTx to workspace.TxRunner.
func (db *DB) WorkspaceTx() workspace.TxRunner { return workspaceTxRunner{db} }

// InviteTx adapts WithTx to invite.TxRunner.
func (db *DB) InviteTx() invite.TxRunner { return inviteTxRunner{db} }

type workspaceTxRunner struct{ db *DB }

func (r workspaceTxRunner) WithTx(ctx context.Context, fn func(repo workspace.Repository) error) error {
	return r.db.WithTx(ctx, func(stores *Stores) error { return fn(stores.Workspaces()) })
}

type inviteTxRunner struct{ db *DB }

func (r inviteTxRunner) WithTx(ctx context.Context, fn func(stores invite.Stores) error) error {
	return r.db.WithTx(ctx, func(stores *Stores) error { return fn(stores) })
}
