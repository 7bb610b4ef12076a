package invite

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolcal/core/notification"
	"github.com/trezcool/schoolcal/core/workspace"
)

// Respond accepts or declines the invite a WORKSPACE_INVITE notification points at.
// Every write (membership, invite status, notification read flag) happens in one transaction.
// A notification whose invite vanished is deleted and ErrInviteGone is returned.
func (svc *Service) Respond(ctx context.Context, userID, notificationID string, na NotificationAction) (ActionResult, error) {
	var (
		res      = ActionResult{Action: na.Action}
		orphaned bool
	)

	err := svc.tx.WithTx(ctx, func(stores Stores) error {
		n, err := notification.Owned(ctx, stores.Notifications(), userID, notificationID)
		if err != nil {
			return err
		}
		if !n.HasAction() {
			return ErrNoAction
		}

		var inv Invite
		if n.ReferenceID.Valid {
			inv, err = stores.Invites().GetInvite(ctx, n.ReferenceID.String)
		} else {
			err = ErrInviteNotFound
		}
		if err != nil {
			if errors.Cause(err) != ErrInviteNotFound {
				return errors.Wrap(err, "getting invite")
			}
			orphaned = true
			return errors.Wrap(stores.Notifications().DeleteNotification(ctx, n.ID), "deleting orphaned notification")
		}
		if inv.Status != StatusPending {
			return ErrInviteAnswered
		}
		res.WorkspaceID = inv.WorkspaceID

		now := NowFunc().UTC()
		status := StatusDeclined
		if na.Action == ActionAccept {
			status = StatusAccepted
			if res.AlreadyMember, err = join(ctx, stores.Workspaces(), inv.WorkspaceID, userID, now); err != nil {
				return err
			}
		}

		if err = stores.Invites().SetInviteStatus(ctx, inv.ID, status, now); err != nil {
			return errors.Wrap(err, "setting invite status")
		}
		if err = stores.Notifications().MarkRead(ctx, n.ID); err != nil {
			return errors.Wrap(err, "marking notification read")
		}
		n.Read = true
		res.Notification = n
		return nil
	})
	if err != nil {
		return ActionResult{}, err
	}
	if orphaned {
		return ActionResult{}, ErrInviteGone
	}
	return res, nil
}

// join adds userID as a USER member of workspaceID.
// It reports true, and writes nothing, when they already belong to it.
func join(ctx context.Context, repo workspace.Repository, workspaceID, userID string, now time.Time) (bool, error) {
	role, err := workspace.RoleIn(ctx, repo, userID, workspaceID)
	if err != nil || role != "" {
		return role != "", err
	}

	m := workspace.Member{WorkspaceID: workspaceID, UserID: userID, Role: workspace.RoleUser, JoinedAt: now}
	if err = repo.CreateMember(ctx, m); err != nil {
		if errors.Cause(err) == workspace.ErrAlreadyMember {
			return true, nil
		}
		return false, errors.Wrap(err, "inserting member")
	}
	return false, nil
}
