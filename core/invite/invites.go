package invite

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schoolcal/core"
	"github.com/trezcool/schoolcal/core/notification"
	"github.com/trezcool/schoolcal/core/user"
	"github.com/trezcool/schoolcal/core/workspace"
)

const inviteEmailTemplate = "workspace_invite"

// CreateInvite invites ni.Email to workspaceID on behalf of inviter.
// A PENDING invite for the same email is rejected; any other status is reset to PENDING.
// When the email belongs to a user, they get a WORKSPACE_INVITE notification in the same transaction.
func (svc *Service) CreateInvite(ctx context.Context, inviter user.User, workspaceID string, ni NewInvite) (CreatedInvite, error) {
	ws, err := svc.stores.Workspaces().GetWorkspace(ctx, workspaceID)
	if err != nil {
		return CreatedInvite{}, err
	}

	var res CreatedInvite
	invitee, err := svc.stores.Users().GetUserByEmail(ctx, ni.Email)
	switch {
	case err == nil:
		res.UserExists = true
		role, err := workspace.RoleIn(ctx, svc.stores.Workspaces(), invitee.ID, ws.ID)
		if err != nil {
			return CreatedInvite{}, err
		}
		if role != "" {
			return CreatedInvite{}, workspace.ErrAlreadyMember
		}
	case errors.Cause(err) != user.ErrNotFound:
		return CreatedInvite{}, errors.Wrap(err, "finding user by email")
	}

	err = svc.tx.WithTx(ctx, func(stores Stores) error {
		existing, err := stores.Invites().GetInviteByEmail(ctx, ws.ID, ni.Email)
		switch {
		case err == nil:
			if existing.Status == StatusPending {
				return ErrInvitePending
			}
		case errors.Cause(err) != ErrInviteNotFound:
			return errors.Wrap(err, "finding invite by email")
		}

		now := NowFunc().UTC()
		inv, err := stores.Invites().UpsertInvite(ctx, Invite{
			ID:          uuid.NewString(),
			WorkspaceID: ws.ID,
			Email:       ni.Email,
			Status:      StatusPending,
			InvitedBy:   null.StringFrom(inviter.ID),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return errors.Wrap(err, "upserting invite")
		}
		res.Invite = inv

		if !res.UserExists {
			return nil
		}
		n := notification.New(
			invitee.ID,
			notification.TypeWorkspaceInvite,
			"Workspace invitation",
			fmt.Sprintf("%s invited you to join %s", inviter.Name, ws.Name),
			null.StringFrom(inv.ID),
			notification.ChannelPush, notification.ChannelEmail,
		)
		return errors.Wrap(stores.Notifications().CreateNotification(ctx, n), "inserting notification")
	})
	if err != nil {
		return CreatedInvite{}, err
	}

	svc.sendInviteEmail(inviter, ws, res)
	return res, nil
}

func (svc *Service) sendInviteEmail(inviter user.User, ws workspace.Workspace, res CreatedInvite) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: res.Invite.Email}},
		Subject:      fmt.Sprintf("You are invited to join %s", ws.Name),
		TemplateName: inviteEmailTemplate,
		TemplateData: map[string]interface{}{
			"InviterName":   inviter.Name,
			"WorkspaceName": ws.Name,
			"UserExists":    res.UserExists,
		},
	})
}

func (svc *Service) ListInvites(ctx context.Context, workspaceID string) ([]Invite, error) {
	invites, err := svc.stores.Invites().QueryWorkspaceInvites(ctx, workspaceID)
	if err != nil {
		return nil, errors.Wrap(err, "querying invites")
	}
	if invites == nil {
		invites = []Invite{}
	}
	return invites, nil
}

// DeleteInvite removes an invite whatever its status.
func (svc *Service) DeleteInvite(ctx context.Context, workspaceID, id string) error {
	return svc.stores.Invites().DeleteInvite(ctx, workspaceID, id)
}
