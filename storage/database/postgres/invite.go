package pgrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolcal/core/invite"
)

const (
	linkColumns   = `id, workspace_id, code, max_uses, uses, expires_at, created_by, created_at`
	inviteColumns = `id, workspace_id, email, status, invited_by, created_at, updated_at`
)

type inviteRepository struct {
	q sqlx.ExtContext
}

var _ invite.Repository = (*inviteRepository)(nil) // interface compliance check

func (repo *inviteRepository) CreateLink(ctx context.Context, l invite.Link) error {
	_, err := repo.q.ExecContext(ctx, `
		INSERT INTO workspace_invite_link (`+linkColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID, l.WorkspaceID, l.Code, l.MaxUses, l.Uses, l.ExpiresAt, l.CreatedBy, l.CreatedAt,
	)
	return errors.Wrap(err, "inserting invite link")
}

func (repo *inviteRepository) GetLinkByCode(ctx context.Context, code string) (l invite.Link, err error) {
	err = sqlx.GetContext(ctx, repo.q, &l, `SELECT `+linkColumns+` FROM workspace_invite_link WHERE code = $1`, code)
	return l, notFound(err, invite.ErrLinkNotFound)
}

func (repo *inviteRepository) QueryWorkspaceLinks(ctx context.Context, workspaceID string) ([]invite.Link, error) {
	links := make([]invite.Link, 0)
	err := sqlx.SelectContext(ctx, repo.q, &links, `
		SELECT `+linkColumns+` FROM workspace_invite_link
		WHERE workspace_id = $1
		ORDER BY created_at DESC`,
		workspaceID,
	)
	return links, errors.Wrap(err, "selecting invite links")
}

// ConsumeLink checks usability and increments in one statement, so concurrent joins
// can never push uses past max_uses.
func (repo *inviteRepository) ConsumeLink(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := repo.q.ExecContext(ctx, `
		UPDATE workspace_invite_link SET uses = uses + 1
		WHERE id = $1 AND uses < max_uses AND (expires_at IS NULL OR expires_at > $2)`,
		id, now,
	)
	if err != nil {
		return false, errors.Wrap(err, "updating invite link uses")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (repo *inviteRepository) DeleteLink(ctx context.Context, workspaceID, id string) error {
	return execOne(ctx, repo.q, invite.ErrLinkNotFound,
		`DELETE FROM workspace_invite_link WHERE id = $1 AND workspace_id = $2`,
		id, workspaceID,
	)
}

func (repo *inviteRepository) GetInvite(ctx context.Context, id string) (inv invite.Invite, err error) {
	err = sqlx.GetContext(ctx, repo.q, &inv, `SELECT `+inviteColumns+` FROM workspace_invite WHERE id = $1`, id)
	return inv, notFound(err, invite.ErrInviteNotFound)
}

func (repo *inviteRepository) GetInviteByEmail(ctx context.Context, workspaceID, email string) (inv invite.Invite, err error) {
	err = sqlx.GetContext(ctx, repo.q, &inv, `
		SELECT `+inviteColumns+` FROM workspace_invite
		WHERE workspace_id = $1 AND email = $2`,
		workspaceID, email,
	)
	return inv, notFound(err, invite.ErrInviteNotFound)
}

// UpsertInvite leaves a PENDING row alone: the conflicting update re-reads the row
// committed by a concurrent invite and returns no row, reported as invite.ErrInvitePending.
func (repo *inviteRepository) UpsertInvite(ctx context.Context, inv invite.Invite) (stored invite.Invite, err error) {
	err = sqlx.GetContext(ctx, repo.q, &stored, `
		INSERT INTO workspace_invite (`+inviteColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (workspace_id, email) DO UPDATE
		SET status = EXCLUDED.status, invited_by = EXCLUDED.invited_by, updated_at = EXCLUDED.updated_at
		WHERE workspace_invite.status <> $8
		RETURNING `+inviteColumns,
		inv.ID, inv.WorkspaceID, inv.Email, inv.Status, inv.InvitedBy, inv.CreatedAt, inv.UpdatedAt,
		invite.StatusPending,
	)
	if errors.Cause(err) == sql.ErrNoRows {
		return invite.Invite{}, invite.ErrInvitePending
	}
	return stored, errors.Wrap(err, "upserting invite")
}

func (repo *inviteRepository) QueryWorkspaceInvites(ctx context.Context, workspaceID string) ([]invite.Invite, error) {
	invites := make([]invite.Invite, 0)
	err := sqlx.SelectContext(ctx, repo.q, &invites, `
		SELECT `+inviteColumns+` FROM workspace_invite
		WHERE workspace_id = $1
		ORDER BY created_at DESC`,
		workspaceID,
	)
	return invites, errors.Wrap(err, "selecting invites")
}

func (repo *inviteRepository) SetInviteStatus(ctx context.Context, id, status string, at time.Time) error {
	return execOne(ctx, repo.q, invite.ErrInviteNotFound,
		`UPDATE workspace_invite SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, at,
	)
}

func (repo *inviteRepository) DeleteInvite(ctx context.Context, workspaceID, id string) error {
	return execOne(ctx, repo.q, invite.ErrInviteNotFound,
		`DELETE FROM workspace_invite WHERE id = $1 AND workspace_id = $2`,
		id, workspaceID,
	)
}
