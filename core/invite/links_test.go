package invite_test

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolcal/core"
	"github.com/trezcool/schoolcal/core/invite"
	"github.com/trezcool/schoolcal/core/user"
	"github.com/trezcool/schoolcal/core/workspace"
	appfs "github.com/trezcool/schoolcal/fs"
	emailsvc "github.com/trezcool/schoolcal/services/email"
	logsvc "github.com/trezcool/schoolcal/services/logger"
	dummydb "github.com/trezcool/schoolcal/storage/database/dummy"
	"github.com/trezcool/schoolcal/tests"
)

type fixture struct {
	db      *dummydb.DB
	stores  *dummydb.Stores
	svc     *invite.Service
	mailSvc *emailsvc.ConsoleServiceMock
	conf    *core.Config

	owner user.User
	ws    workspace.Workspace
}

func setup(t *testing.T) *fixture {
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)
	core.ParseEmailTemplates(conf, appfs.FS, logger)

	db := dummydb.Open()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	f := &fixture{
		db:      db,
		stores:  db.Stores(),
		svc:     invite.NewService(db.Stores(), db.InviteTx(), mailSvc, conf),
		mailSvc: mailSvc,
		conf:    conf,
	}
	f.owner = testutil.CreateUser(t, f.stores.Users(), "Owner", "owner@example.com")
	f.ws = testutil.CreateWorkspace(t, f.stores.Workspaces(), f.owner, "Class A")
	return f
}

func (f *fixture) user(t *testing.T, name, email string) user.User {
	return testutil.CreateUser(t, f.stores.Users(), name, email)
}

func (f *fixture) memberCount(t *testing.T) int {
	count, err := f.stores.Workspaces().CountMembers(context.Background(), f.ws.ID)
	require.NoError(t, err)
	return count
}

func (f *fixture) link(t *testing.T, code string) invite.Link {
	l, err := f.stores.Invites().GetLinkByCode(context.Background(), code)
	require.NoError(t, err)
	return l
}

func intPtr(i int) *int { return &i }

func TestNewLink_Validate(t *testing.T) {
	tests := []struct {
		name      string
		data      invite.NewLink
		wantField string
	}{
		{"defaults", invite.NewLink{}, ""},
		{"bounds", invite.NewLink{MaxUses: intPtr(100), ExpiresInDays: intPtr(30)}, ""},
		{"maxUses too low", invite.NewLink{MaxUses: intPtr(0)}, "maxUses"},
		{"maxUses too high", invite.NewLink{MaxUses: intPtr(101)}, "maxUses"},
		{"expiresInDays too low", invite.NewLink{ExpiresInDays: intPtr(0)}, "expiresInDays"},
		{"expiresInDays too high", invite.NewLink{ExpiresInDays: intPtr(31)}, "expiresInDays"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *core.ValidationError
			if assert.True(t, errors.As(err, &vErr)) {
				assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
			}
		})
	}
}

func TestService_CreateLink(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		l, err := f.svc.CreateLink(ctx, f.owner.ID, f.ws.ID, invite.NewLink{})
		require.NoError(t, err)
		assert.Equal(t, invite.DefaultMaxUses, l.MaxUses)
		assert.Equal(t, 0, l.Uses)
		assert.False(t, l.ExpiresAt.Valid)
		assert.NotEmpty(t, l.Code)
		assert.Equal(t, f.conf.FrontendBaseURL+"/invite/"+l.Code, f.svc.InviteURL(l))
	})

	t.Run("expiry is computed at creation", func(t *testing.T) {
		now := time.Now().UTC()
		invite.NowFunc = func() time.Time { return now }
		defer func() { invite.NowFunc = time.Now }()

		l, err := f.svc.CreateLink(ctx, f.owner.ID, f.ws.ID, invite.NewLink{MaxUses: intPtr(5), ExpiresInDays: intPtr(7)})
		require.NoError(t, err)
		assert.Equal(t, 5, l.MaxUses)
		assert.True(t, l.ExpiresAt.Time.Equal(now.AddDate(0, 0, 7)))
	})

	t.Run("unknown workspace", func(t *testing.T) {
		_, err := f.svc.CreateLink(ctx, f.owner.ID, "unknown", invite.NewLink{})
		assert.Equal(t, workspace.ErrNotFound, errors.Cause(err))
	})

	t.Run("list annotates state", func(t *testing.T) {
		exhausted := testutil.CreateLink(t, f.stores.Invites(), f.ws, f.owner, 2, 2, time.Time{})
		expired := testutil.CreateLink(t, f.stores.Invites(), f.ws, f.owner, 2, 0, time.Now().Add(-time.Hour))

		links, err := f.svc.ListLinks(ctx, f.ws.ID)
		require.NoError(t, err)
		require.Len(t, links, 4)
		for _, l := range links {
			assert.Equal(t, l.ID == exhausted.ID, l.IsExhausted, l.ID)
			assert.Equal(t, l.ID == expired.ID, l.IsExpired, l.ID)
		}
	})
}

func TestService_ResolveLink(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.AddMember(t, f.stores.Workspaces(), f.ws, f.owner, workspace.RoleAdmin)

	active := testutil.CreateLink(t, f.stores.Invites(), f.ws, f.owner, 5, 2, time.Now().Add(time.Hour))
	exhausted := testutil.CreateLink(t, f.stores.Invites(), f.ws, f.owner, 3, 3, time.Time{})
	expired := testutil.CreateLink(t, f.stores.Invites(), f.ws, f.owner, 5, 0, time.Now().Add(-time.Minute))

	t.Run("active", func(t *testing.T) {
		preview, err := f.svc.ResolveLink(ctx, active.Code)
		require.NoError(t, err)
		assert.Equal(t, f.ws.ID, preview.Workspace.ID)
		assert.Equal(t, f.ws.Name, preview.Workspace.Name)
		assert.Equal(t, 1, preview.Workspace.MemberCount)
		assert.Equal(t, 3, preview.UsesRemaining)
	})

	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{"not found", "nope", invite.ErrLinkNotFound},
		{"exhausted", exhausted.Code, invite.ErrLinkExhausted},
		{"expired with uses left", expired.Code, invite.ErrLinkExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ResolveLink(ctx, tt.code)
			assert.Equal(t, tt.wantErr, errors.Cause(err))
		})
	}
}

func TestService_AcceptLink(t *testing.T) {
	ctx := context.Background()

	t.Run("single use link", func(t *testing.T) {
		f := setup(t)
		l := testutil.CreateLink(t, f.stores.Invites(), f.ws, f.owner, 1, 0, time.Time{})
		b := f.user(t, "B", "b@example.com")
		c := f.user(t, "C", "c@example.com")

		res, err := f.svc.AcceptLink(ctx, b.ID, l.Code)
		require.NoError(t, err)
		assert.Equal(t, invite.JoinResult{WorkspaceID: f.ws.ID}, res)
		assert.Equal(t, 1, f.link(t, l.Code).Uses)

		m, err := f.stores.Workspaces().GetMember(ctx, f.ws.ID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, workspace.RoleUser, m.Role)

		_, err = f.svc.AcceptLink(ctx, c.ID, l.Code)
		assert.Equal(t, invite.ErrLinkExhausted, errors.Cause(err))
		_, err = f.stores.Workspaces().GetMember(ctx, f.ws.ID, c.ID)
		assert.Equal(t, workspace.ErrMemberNotFound, errors.Cause(err))
	})

	t.Run("already a member twice", func(t *testing.T) {
		f := setup(t)
		l := testutil.CreateLink(t, f.stores.Invites(), f.ws, f.owner, 5, 0, time.Time{})
		b := f.user(t, "B", "b@example.com")

		_, err := f.svc.AcceptLink(ctx, b.ID, l.Code)
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			res, err := f.svc.AcceptLink(ctx, b.ID, l.Code)
			require.NoError(t, err)
			assert.True(t, res.AlreadyMember)
			assert.Equal(t, f.ws.ID, res.WorkspaceID)
		}
		assert.Equal(t, 1, f.memberCount(t))
		assert.Equal(t, 1, f.link(t, l.Code).Uses)
	})

	t.Run("owner is already a member", func(t *testing.T) {
		f := setup(t)
		l := testutil.CreateLink(t, f.stores.Invites(), f.ws, f.owner, 5, 0, time.Time{})

		res, err := f.svc.AcceptLink(ctx, f.owner.ID, l.Code)
		require.NoError(t, err)
		assert.True(t, res.AlreadyMember)
		assert.Equal(t, 0, f.memberCount(t))
	})

	t.Run("expired link with uses left", func(t *testing.T) {
		f := setup(t)
		l := testutil.CreateLink(t, f.stores.Invites(), f.ws, f.owner, 5, 0, time.Now().Add(time.Hour))
		b := f.user(t, "B", "b@example.com")

		invite.NowFunc = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { invite.NowFunc = time.Now }()

		_, err := f.svc.ResolveLink(ctx, l.Code)
		assert.Equal(t, invite.ErrLinkExpired, errors.Cause(err))
		_, err = f.svc.AcceptLink(ctx, b.ID, l.Code)
		assert.Equal(t, invite.ErrLinkExpired, errors.Cause(err))
		assert.Equal(t, 0, f.memberCount(t))
		assert.Equal(t, 0, f.link(t, l.Code).Uses)
	})

	t.Run("concurrent accepts never exceed maxUses", func(t *testing.T) {
		f := setup(t)
		l := testutil.CreateLink(t, f.stores.Invites(), f.ws, f.owner, 5, 2, time.Time{})

		const attempts = 10
		users := make([]user.User, attempts)
		for i := range users {
			users[i] = f.user(t, "User", string(rune('a'+i))+"@example.com")
		}

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for _, usr := range users {
			wg.Add(1)
			go func(usr user.User) {
				defer wg.Done()
				_, err := f.svc.AcceptLink(ctx, usr.ID, l.Code)
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
					return
				}
				assert.Equal(t, invite.ErrLinkExhausted, errors.Cause(err))
			}(usr)
		}
		wg.Wait()

		assert.Equal(t, 3, succeeded)
		assert.Equal(t, 3, f.memberCount(t))
		assert.Equal(t, 5, f.link(t, l.Code).Uses)
	})
}

func TestService_DeleteLink(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := testutil.CreateWorkspace(t, f.stores.Workspaces(), f.owner, "Class B")
	l := testutil.CreateLink(t, f.stores.Invites(), f.ws, f.owner, 5, 0, time.Time{})
	b := f.user(t, "B", "b@example.com")
	_, err := f.svc.AcceptLink(ctx, b.ID, l.Code)
	require.NoError(t, err)

	err = f.svc.DeleteLink(ctx, other.ID, l.ID)
	assert.Equal(t, invite.ErrLinkNotFound, errors.Cause(err))

	require.NoError(t, f.svc.DeleteLink(ctx, f.ws.ID, l.ID))
	_, err = f.svc.ResolveLink(ctx, l.Code)
	assert.Equal(t, invite.ErrLinkNotFound, errors.Cause(err))

	// members who joined through the link stay
	assert.Equal(t, 1, f.memberCount(t))
}
