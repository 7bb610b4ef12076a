package dummydb_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schoolcal/core/invite"
	"github.com/trezcool/schoolcal/core/notification"
	"github.com/trezcool/schoolcal/core/user"
	"github.com/trezcool/schoolcal/core/workspace"
	dummydb "github.com/trezcool/schoolcal/storage/database/dummy"
	"github.com/trezcool/schoolcal/tests"
)

func TestDB_WithTx(t *testing.T) {
	db := dummydb.Open()
	stores := db.Stores()
	ctx := context.Background()
	owner := testutil.CreateUser(t, stores.Users(), "Owner", "owner@example.com")
	ws := testutil.CreateWorkspace(t, stores.Workspaces(), owner, "Class A")
	boom := errors.New("boom")

	t.Run("rollback", func(t *testing.T) {
		err := db.WithTx(ctx, func(tx *dummydb.Stores) error {
			m := workspace.Member{WorkspaceID: ws.ID, UserID: owner.ID, Role: workspace.RoleAdmin, JoinedAt: time.Now()}
			require.NoError(t, tx.Workspaces().CreateMember(ctx, m))
			n := notification.New(owner.ID, notification.TypeGeneral, "t", "m", null.String{})
			require.NoError(t, tx.Notifications().CreateNotification(ctx, n))
			return boom
		})
		assert.Equal(t, boom, err)

		count, err := stores.Workspaces().CountMembers(ctx, ws.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
		unread, err := stores.Notifications().CountUnread(ctx, owner.ID)
		require.NoError(t, err)
		assert.Zero(t, unread)
	})

	t.Run("commit", func(t *testing.T) {
		err := db.WithTx(ctx, func(tx *dummydb.Stores) error {
			m := workspace.Member{WorkspaceID: ws.ID, UserID: owner.ID, Role: workspace.RoleAdmin, JoinedAt: time.Now()}
			return tx.Workspaces().CreateMember(ctx, m)
		})
		require.NoError(t, err)

		count, err := stores.Workspaces().CountMembers(ctx, ws.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestRepositories(t *testing.T) {
	db := dummydb.Open()
	stores := db.Stores()
	ctx := context.Background()
	owner := testutil.CreateUser(t, stores.Users(), "Owner", "owner@example.com")
	ws := testutil.CreateWorkspace(t, stores.Workspaces(), owner, "Class A")

	t.Run("unique email", func(t *testing.T) {
		_, err := stores.Users().CreateUser(ctx, user.User{ID: "other", Email: owner.Email})
		assert.Equal(t, user.ErrEmailExists, errors.Cause(err))
	})

	t.Run("unique membership", func(t *testing.T) {
		usr := testutil.CreateUser(t, stores.Users(), "U", "u@example.com")
		testutil.AddMember(t, stores.Workspaces(), ws, usr, workspace.RoleUser)
		err := stores.Workspaces().CreateMember(ctx, workspace.Member{WorkspaceID: ws.ID, UserID: usr.ID, Role: workspace.RoleAdmin})
		assert.Equal(t, workspace.ErrAlreadyMember, errors.Cause(err))

		m, err := stores.Workspaces().GetMember(ctx, ws.ID, usr.ID)
		require.NoError(t, err)
		assert.Equal(t, workspace.RoleUser, m.Role)
		assert.Equal(t, usr.Email, m.Email)
	})

	t.Run("consume link", func(t *testing.T) {
		now := time.Now()
		l := testutil.CreateLink(t, stores.Invites(), ws, owner, 2, 1, now.Add(time.Hour))

		ok, err := stores.Invites().ConsumeLink(ctx, l.ID, now)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = stores.Invites().ConsumeLink(ctx, l.ID, now)
		require.NoError(t, err)
		assert.False(t, ok, "exhausted")

		l2 := testutil.CreateLink(t, stores.Invites(), ws, owner, 2, 0, now.Add(time.Hour))
		ok, err = stores.Invites().ConsumeLink(ctx, l2.ID, now.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, ok, "expired")
	})

	t.Run("upsert invite keeps its id", func(t *testing.T) {
		now := time.Now().UTC()
		first, err := stores.Invites().UpsertInvite(ctx, invite.Invite{ID: "first", WorkspaceID: ws.ID, Email: "x@y.com", Status: invite.StatusDeclined, CreatedAt: now, UpdatedAt: now})
		require.NoError(t, err)
		second, err := stores.Invites().UpsertInvite(ctx, invite.Invite{ID: "second", WorkspaceID: ws.ID, Email: "x@y.com", Status: invite.StatusPending, CreatedAt: now, UpdatedAt: now})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, invite.StatusPending, second.Status)

		_, err = stores.Invites().UpsertInvite(ctx, invite.Invite{ID: "third", WorkspaceID: ws.ID, Email: "x@y.com", Status: invite.StatusPending, CreatedAt: now, UpdatedAt: now})
		assert.Equal(t, invite.ErrInvitePending, errors.Cause(err))
	})

	t.Run("workspace deletion cascades", func(t *testing.T) {
		other := testutil.CreateWorkspace(t, stores.Workspaces(), owner, "Class B")
		l := testutil.CreateLink(t, stores.Invites(), other, owner, 2, 0, time.Time{})
		require.NoError(t, stores.Workspaces().DeleteWorkspace(ctx, other.ID))

		_, err := stores.Invites().GetLinkByCode(ctx, l.Code)
		assert.Equal(t, invite.ErrLinkNotFound, errors.Cause(err))
	})
}
