package pgrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schoolcal/core/notification"
)

const notificationColumns = `id, user_id, type, title, message, read, reference_id, channels, created_at`

type notificationRow struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	Type        string         `db:"type"`
	Title       string         `db:"title"`
	Message     string         `db:"message"`
	Read        bool           `db:"read"`
	ReferenceID null.String    `db:"reference_id"`
	Channels    pq.StringArray `db:"channels"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r notificationRow) toNotification() notification.Notification {
	return notification.Notification{
		ID:          r.ID,
		UserID:      r.UserID,
		Type:        r.Type,
		Title:       r.Title,
		Message:     r.Message,
		Read:        r.Read,
		ReferenceID: r.ReferenceID,
		Channels:    []string(r.Channels),
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type notificationRepository struct {
	q sqlx.ExtContext
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) error {
	channels := n.Channels
	if channels == nil {
		channels = []string{}
	}
	_, err := repo.q.ExecContext(ctx, `
		INSERT INTO notification (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.Read, n.ReferenceID, pq.StringArray(channels), n.CreatedAt,
	)
	return errors.Wrap(err, "inserting notification")
}

func (repo *notificationRepository) GetNotification(ctx context.Context, id string) (notification.Notification, error) {
	var row notificationRow
	err := sqlx.GetContext(ctx, repo.q, &row, `SELECT `+notificationColumns+` FROM notification WHERE id = $1`, id)
	if err != nil {
		return notification.Notification{}, notFound(err, notification.ErrNotFound)
	}
	return row.toNotification(), nil
}

func (repo *notificationRepository) QueryUserNotifications(ctx context.Context, userID string, filter notification.QueryFilter) ([]notification.Notification, error) {
	var rows []notificationRow
	err := sqlx.SelectContext(ctx, repo.q, &rows, `
		SELECT `+notificationColumns+` FROM notification
		WHERE user_id = $1 AND (NOT $2 OR NOT read)
		ORDER BY created_at DESC, id DESC
		LIMIT $3`,
		userID, filter.UnreadOnly, filter.Limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "selecting notifications")
	}

	notifs := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		notifs = append(notifs, row.toNotification())
	}
	return notifs, nil
}

func (repo *notificationRepository) CountUnread(ctx context.Context, userID string) (count int, err error) {
	err = sqlx.GetContext(ctx, repo.q, &count, `SELECT COUNT(*) FROM notification WHERE user_id = $1 AND NOT read`, userID)
	return count, errors.Wrap(err, "counting unread notifications")
}

func (repo *notificationRepository) MarkRead(ctx context.Context, id string) error {
	return execOne(ctx, repo.q, notification.ErrNotFound, `UPDATE notification SET read = TRUE WHERE id = $1`, id)
}

func (repo *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	res, err := repo.q.ExecContext(ctx, `UPDATE notification SET read = TRUE WHERE user_id = $1 AND NOT read`, userID)
	if err != nil {
		return 0, errors.Wrap(err, "updating notifications")
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (repo *notificationRepository) DeleteNotification(ctx context.Context, id string) error {
	return execOne(ctx, repo.q, notification.ErrNotFound, `DELETE FROM notification WHERE id = $1`, id)
}
