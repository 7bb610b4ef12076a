package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/schoolcal/core/notification"
)

type notificationRepository struct {
	s *Stores
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func (repo *notificationRepository) CreateNotification(_ context.Context, n notification.Notification) error {
	repo.s.do(func(t *tables) {
		n.Channels = append([]string(nil), n.Channels...)
		t.notifications[n.ID] = n
	})
	return nil
}

func (repo *notificationRepository) GetNotification(_ context.Context, id string) (n notification.Notification, err error) {
	repo.s.do(func(t *tables) {
		var ok bool
		if n, ok = t.notifications[id]; !ok {
			err = notification.ErrNotFound
		}
	})
	return n, err
}

func (repo *notificationRepository) QueryUserNotifications(_ context.Context, userID string, filter notification.QueryFilter) (notifs []notification.Notification, err error) {
	repo.s.do(func(t *tables) {
		for _, n := range t.notifications {
			if n.UserID != userID || (filter.UnreadOnly && n.Read) {
				continue
			}
			notifs = append(notifs, n)
		}
	})
	sort.Slice(notifs, func(i, j int) bool {
		if notifs[i].CreatedAt.Equal(notifs[j].CreatedAt) {
			return notifs[i].ID > notifs[j].ID
		}
		return notifs[i].CreatedAt.After(notifs[j].CreatedAt)
	})
	if filter.Limit > 0 && len(notifs) > filter.Limit {
		notifs = notifs[:filter.Limit]
	}
	return notifs, nil
}

func (repo *notificationRepository) CountUnread(_ context.Context, userID string) (count int, err error) {
	repo.s.do(func(t *tables) {
		for _, n := range t.notifications {
			if n.UserID == userID && !n.Read {
				count++
			}
		}
	})
	return count, nil
}

func (repo *notificationRepository) MarkRead(_ context.Context, id string) (err error) {
	repo.s.do(func(t *tables) {
		n, ok := t.notifications[id]
		if !ok {
			err = notification.ErrNotFound
			return
		}
		n.Read = true
		t.notifications[id] = n
	})
	return err
}

func (repo *notificationRepository) MarkAllRead(_ context.Context, userID string) (count int, err error) {
	repo.s.do(func(t *tables) {
		for id, n := range t.notifications {
			if n.UserID == userID && !n.Read {
				n.Read = true
				t.notifications[id] = n
				count++
			}
		}
	})
	return count, nil
}

func (repo *notificationRepository) DeleteNotification(_ context.Context, id string) (err error) {
	repo.s.do(func(t *tables) {
		if _, ok := t.notifications[id]; !ok {
			err = notification.ErrNotFound
			return
		}
		delete(t.notifications, id)
	})
	return err
}
