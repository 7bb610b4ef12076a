package pgrepos_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schoolcal/core"
	"github.com/trezcool/schoolcal/core/invite"
	"github.com/trezcool/schoolcal/core/notification"
	"github.com/trezcool/schoolcal/core/user"
	"github.com/trezcool/schoolcal/core/workspace"
	"github.com/trezcool/schoolcal/storage/database"
	pgrepos "github.com/trezcool/schoolcal/storage/database/postgres"
	"github.com/trezcool/schoolcal/tests"
)

// openDB connects to TEST_DATABASE_URL, migrates it and empties every table.
func openDB(t *testing.T) *pgrepos.DB {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	db, err := sqlx.Open("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db))
	_, err = db.Exec(`TRUNCATE "user", workspace, workspace_member, workspace_invite_link, workspace_invite, notification CASCADE`)
	require.NoError(t, err)
	return pgrepos.New(db)
}

func TestUserRepository(t *testing.T) {
	db := openDB(t)
	repo := db.Stores().Users()
	ctx := context.Background()
	usr := testutil.CreateUser(t, repo, "Jane", "jane@example.com")

	got, err := repo.GetUserByEmail(ctx, usr.Email)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)
	assert.Equal(t, usr.PasswordHash, got.PasswordHash)

	_, err = repo.CreateUser(ctx, user.User{ID: uuid.NewString(), Name: "Dup", Email: usr.Email, PasswordHash: []byte("x"), CreatedAt: time.Now(), UpdatedAt: time.Now()})
	assert.Equal(t, user.ErrEmailExists, errors.Cause(err))

	_, err = repo.GetUserByID(ctx, "not-a-uuid")
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))

	require.NoError(t, repo.SetLastLogin(ctx, usr.ID, time.Now()))
}

func TestWorkspaceRepository(t *testing.T) {
	db := openDB(t)
	stores := db.Stores()
	repo := stores.Workspaces()
	ctx := context.Background()

	owner := testutil.CreateUser(t, stores.Users(), "Owner", "owner@example.com")
	usr := testutil.CreateUser(t, stores.Users(), "User", "user@example.com")
	ws := testutil.CreateWorkspace(t, repo, owner, "Class A")
	testutil.AddMember(t, repo, ws, usr, workspace.RoleUser)

	err := repo.CreateMember(ctx, workspace.Member{WorkspaceID: ws.ID, UserID: usr.ID, Role: workspace.RoleAdmin, JoinedAt: time.Now()})
	assert.Equal(t, workspace.ErrAlreadyMember, errors.Cause(err))

	summaries, err := repo.QueryUserWorkspaces(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].MemberCount)
	assert.Empty(t, summaries[0].MemberRole)

	summaries, err = repo.QueryUserWorkspaces(ctx, usr.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, workspace.RoleUser, summaries[0].MemberRole)

	members, err := repo.QueryMembers(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, usr.Email, members[0].Email)

	_, err = repo.GetWorkspace(ctx, "not-a-uuid")
	assert.Equal(t, workspace.ErrNotFound, errors.Cause(err))
	err = repo.DeleteMember(ctx, ws.ID, owner.ID)
	assert.Equal(t, workspace.ErrMemberNotFound, errors.Cause(err))
}

func TestNotificationRepository(t *testing.T) {
	db := openDB(t)
	stores := db.Stores()
	repo := stores.Notifications()
	ctx := context.Background()
	usr := testutil.CreateUser(t, stores.Users(), "User", "user@example.com")

	n := notification.New(usr.ID, notification.TypeWorkspaceInvite, "t", "m", null.StringFrom(uuid.NewString()), notification.ChannelPush, notification.ChannelEmail)
	require.NoError(t, repo.CreateNotification(ctx, n))

	got, err := repo.GetNotification(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.Channels, got.Channels)
	assert.Equal(t, n.ReferenceID, got.ReferenceID)
	assert.False(t, got.Read)

	count, err := repo.MarkAllRead(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	notifs, err := repo.QueryUserNotifications(ctx, usr.ID, notification.QueryFilter{UnreadOnly: true, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, notifs)
}

func TestDB_WithTx(t *testing.T) {
	db := openDB(t)
	stores := db.Stores()
	ctx := context.Background()
	owner := testutil.CreateUser(t, stores.Users(), "Owner", "owner@example.com")
	ws := testutil.CreateWorkspace(t, stores.Workspaces(), owner, "Class A")
	boom := errors.New("boom")

	err := db.WithTx(ctx, func(tx *pgrepos.Stores) error {
		m := workspace.Member{WorkspaceID: ws.ID, UserID: owner.ID, Role: workspace.RoleAdmin, JoinedAt: time.Now()}
		if err := tx.Workspaces().CreateMember(ctx, m); err != nil {
			return err
		}
		return boom
	})
	assert.Equal(t, boom, err)

	count, err := stores.Workspaces().CountMembers(ctx, ws.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAcceptLink_concurrent(t *testing.T) {
	db := openDB(t)
	stores := db.Stores()
	ctx := context.Background()
	conf := core.NewTestConfig()
	svc := invite.NewService(stores, db.InviteTx(), nil, conf)

	owner := testutil.CreateUser(t, stores.Users(), "Owner", "owner@example.com")
	ws := testutil.CreateWorkspace(t, stores.Workspaces(), owner, "Class A")
	l := testutil.CreateLink(t, stores.Invites(), ws, owner, 5, 2, time.Time{})

	users := make([]user.User, 10)
	for i := range users {
		users[i] = testutil.CreateUser(t, stores.Users(), "U", uuid.NewString()+"@example.com")
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		joined  int
		unknown []error
	)
	for _, u := range users {
		wg.Add(1)
		go func(u user.User) {
			defer wg.Done()
			_, err := svc.AcceptLink(ctx, u.ID, l.Code)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case errors.Cause(err) != invite.ErrLinkExhausted:
				unknown = append(unknown, err)
			}
		}(u)
	}
	wg.Wait()

	// the conditional update re-checks uses under READ COMMITTED
	assert.Empty(t, unknown)
	assert.Equal(t, 3, joined)
	count, err := stores.Workspaces().CountMembers(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, joined, count)

	got, err := stores.Invites().GetLinkByCode(ctx, l.Code)
	require.NoError(t, err)
	assert.Equal(t, 2+joined, got.Uses)
	assert.LessOrEqual(t, got.Uses, got.MaxUses)
}

func TestCreateInvite_concurrent(t *testing.T) {
	db := openDB(t)
	stores := db.Stores()
	ctx := context.Background()
	svc := invite.NewService(stores, db.InviteTx(), nil, core.NewTestConfig())

	owner := testutil.CreateUser(t, stores.Users(), "Owner", "owner@example.com")
	invitee := testutil.CreateUser(t, stores.Users(), "Invitee", "invitee@example.com")
	ws := testutil.CreateWorkspace(t, stores.Workspaces(), owner, "Class A")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		unknown []error
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateInvite(ctx, owner, ws.ID, invite.NewInvite{Email: invitee.Email})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Cause(err) != invite.ErrInvitePending:
				unknown = append(unknown, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, unknown)
	assert.Equal(t, 1, created)

	invites, err := stores.Invites().QueryWorkspaceInvites(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, invites, 1)
	assert.Equal(t, invite.StatusPending, invites[0].Status)

	unread, err := stores.Notifications().CountUnread(ctx, invitee.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}
