package notification

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolcal/core"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("notification not found")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) error
		GetNotification(ctx context.Context, id string) (Notification, error)
		// QueryUserNotifications returns the notifications of userID, newest first.
		QueryUserNotifications(ctx context.Context, userID string, filter QueryFilter) ([]Notification, error)
		CountUnread(ctx context.Context, userID string) (int, error)
		MarkRead(ctx context.Context, id string) error
		MarkAllRead(ctx context.Context, userID string) (int, error)
		DeleteNotification(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) List(ctx context.Context, userID string, filter QueryFilter) (Inbox, error) {
	filter.Clean()
	notifs, err := svc.repo.QueryUserNotifications(ctx, userID, filter)
	if err != nil {
		return Inbox{}, errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []Notification{}
	}
	unread, err := svc.repo.CountUnread(ctx, userID)
	if err != nil {
		return Inbox{}, errors.Wrap(err, "counting unread notifications")
	}
	return Inbox{Notifications: notifs, UnreadCount: unread}, nil
}

// Get returns the notification only when it belongs to userID.
func (svc *Service) Get(ctx context.Context, userID, id string) (Notification, error) {
	return Owned(ctx, svc.repo, userID, id)
}

func (svc *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	count, err := svc.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "marking all notifications read")
	}
	return count, nil
}

func (svc *Service) MarkRead(ctx context.Context, userID, id string) (Notification, error) {
	n, err := Owned(ctx, svc.repo, userID, id)
	if err != nil {
		return Notification{}, err
	}
	if !n.Read {
		if err = svc.repo.MarkRead(ctx, id); err != nil {
			return Notification{}, errors.Wrap(err, "marking notification read")
		}
		n.Read = true
	}
	return n, nil
}

func (svc *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := Owned(ctx, svc.repo, userID, id); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteNotification(ctx, id), "deleting notification")
}

// Owned loads a notification through repo, hiding the ones userID does not own.
func Owned(ctx context.Context, repo Repository, userID, id string) (Notification, error) {
	n, err := repo.GetNotification(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if n.UserID != userID {
		return Notification{}, ErrNotFound
	}
	return n, nil
}
