package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schoolcal/core/notification"
	dummydb "github.com/trezcool/schoolcal/storage/database/dummy"
	"github.com/trezcool/schoolcal/tests"
)

func TestQueryFilter_Clean(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, 50},
		{-3, 50},
		{1, 1},
		{100, 100},
		{500, 100},
	}
	for _, tt := range tests {
		qf := notification.QueryFilter{Limit: tt.limit}
		qf.Clean()
		assert.Equal(t, tt.want, qf.Limit, "limit %d", tt.limit)
	}
}

func TestService(t *testing.T) {
	db := dummydb.Open()
	stores := db.Stores()
	svc := notification.NewService(stores.Notifications())
	ctx := context.Background()

	alice := testutil.CreateUser(t, stores.Users(), "Alice", "alice@example.com")
	bob := testutil.CreateUser(t, stores.Users(), "Bob", "bob@example.com")

	// distinct creation times so the order is stable
	base := time.Now().UTC()
	var created []notification.Notification
	for i := 0; i < 3; i++ {
		notification.NowFunc = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		created = append(created, testutil.CreateNotification(t, stores.Notifications(), alice, notification.TypeGeneral, null.String{}))
	}
	notification.NowFunc = time.Now // reset
	bobs := testutil.CreateNotification(t, stores.Notifications(), bob, notification.TypeGeneral, null.String{})

	ids := func(notifs []notification.Notification) []string {
		out := make([]string, 0, len(notifs))
		for _, n := range notifs {
			out = append(out, n.ID)
		}
		return out
	}

	t.Run("list newest first", func(t *testing.T) {
		inbox, err := svc.List(ctx, alice.ID, notification.QueryFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{created[2].ID, created[1].ID, created[0].ID}, ids(inbox.Notifications))
		assert.Equal(t, 3, inbox.UnreadCount)
	})

	t.Run("limit", func(t *testing.T) {
		inbox, err := svc.List(ctx, alice.ID, notification.QueryFilter{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{created[2].ID, created[1].ID}, ids(inbox.Notifications))
		assert.Equal(t, 3, inbox.UnreadCount)
	})

	t.Run("cannot touch someone else's notification", func(t *testing.T) {
		_, err := svc.Get(ctx, alice.ID, bobs.ID)
		assert.Equal(t, notification.ErrNotFound, errors.Cause(err))
		_, err = svc.MarkRead(ctx, alice.ID, bobs.ID)
		assert.Equal(t, notification.ErrNotFound, errors.Cause(err))
		err = svc.Delete(ctx, alice.ID, bobs.ID)
		assert.Equal(t, notification.ErrNotFound, errors.Cause(err))

		n, err := svc.Get(ctx, bob.ID, bobs.ID)
		require.NoError(t, err)
		assert.False(t, n.Read)
	})

	t.Run("mark read", func(t *testing.T) {
		n, err := svc.MarkRead(ctx, alice.ID, created[1].ID)
		require.NoError(t, err)
		assert.True(t, n.Read)

		inbox, err := svc.List(ctx, alice.ID, notification.QueryFilter{UnreadOnly: true})
		require.NoError(t, err)
		assert.Equal(t, []string{created[2].ID, created[0].ID}, ids(inbox.Notifications))
		assert.Equal(t, 2, inbox.UnreadCount)
	})

	t.Run("mark all read", func(t *testing.T) {
		count, err := svc.MarkAllRead(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		inbox, err := svc.List(ctx, alice.ID, notification.QueryFilter{UnreadOnly: true})
		require.NoError(t, err)
		assert.Empty(t, inbox.Notifications)
		assert.NotNil(t, inbox.Notifications)
		assert.Zero(t, inbox.UnreadCount)

		unread, err := stores.Notifications().CountUnread(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, unread)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, alice.ID, created[0].ID))
		_, err := svc.Get(ctx, alice.ID, created[0].ID)
		assert.Equal(t, notification.ErrNotFound, errors.Cause(err))

		inbox, err := svc.List(ctx, alice.ID, notification.QueryFilter{})
		require.NoError(t, err)
		assert.Len(t, inbox.Notifications, 2)
	})
}
