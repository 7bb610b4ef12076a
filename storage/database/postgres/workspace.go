package pgrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolcal/core/workspace"
)

const (
	workspaceColumns = `w.id, w.name, w.description, w.voting_enabled, w.owner_id, w.created_at, w.updated_at`
	memberSelect     = `
		SELECT m.workspace_id, m.user_id, m.role, m.joined_at, u.name, u.email
		FROM workspace_member m
		JOIN "user" u ON u.id = m.user_id`
)

type workspaceRepository struct {
	q sqlx.ExtContext
}

var _ workspace.Repository = (*workspaceRepository)(nil) // interface compliance check

func (repo *workspaceRepository) CreateWorkspace(ctx context.Context, ws workspace.Workspace) error {
	_, err := repo.q.ExecContext(ctx, `
		INSERT INTO workspace (id, name, description, voting_enabled, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ws.ID, ws.Name, ws.Description, ws.VotingEnabled, ws.OwnerID, ws.CreatedAt, ws.UpdatedAt,
	)
	return errors.Wrap(err, "inserting workspace")
}

func (repo *workspaceRepository) GetWorkspace(ctx context.Context, id string) (ws workspace.Workspace, err error) {
	err = sqlx.GetContext(ctx, repo.q, &ws, `SELECT `+workspaceColumns+` FROM workspace w WHERE w.id = $1`, id)
	return ws, notFound(err, workspace.ErrNotFound)
}

func (repo *workspaceRepository) UpdateWorkspace(ctx context.Context, ws workspace.Workspace) error {
	return execOne(ctx, repo.q, workspace.ErrNotFound, `
		UPDATE workspace SET name = $2, description = $3, voting_enabled = $4, updated_at = $5
		WHERE id = $1`,
		ws.ID, ws.Name, ws.Description, ws.VotingEnabled, ws.UpdatedAt,
	)
}

func (repo *workspaceRepository) DeleteWorkspace(ctx context.Context, id string) error {
	return execOne(ctx, repo.q, workspace.ErrNotFound, `DELETE FROM workspace WHERE id = $1`, id)
}

func (repo *workspaceRepository) QueryUserWorkspaces(ctx context.Context, userID string) ([]workspace.Summary, error) {
	summaries := make([]workspace.Summary, 0)
	err := sqlx.SelectContext(ctx, repo.q, &summaries, `
		SELECT `+workspaceColumns+`,
			COALESCE(m.role, '') AS member_role,
			(SELECT COUNT(*) FROM workspace_member c WHERE c.workspace_id = w.id) AS member_count
		FROM workspace w
		LEFT JOIN workspace_member m ON m.workspace_id = w.id AND m.user_id = $1
		WHERE w.owner_id = $1 OR m.user_id IS NOT NULL
		ORDER BY w.created_at DESC`,
		userID,
	)
	if err != nil {
		if pqCode(err) == codeInvalidTextRepr {
			return []workspace.Summary{}, nil
		}
		return nil, errors.Wrap(err, "selecting user workspaces")
	}
	return summaries, nil
}

func (repo *workspaceRepository) CountMembers(ctx context.Context, workspaceID string) (count int, err error) {
	err = sqlx.GetContext(ctx, repo.q, &count, `SELECT COUNT(*) FROM workspace_member WHERE workspace_id = $1`, workspaceID)
	return count, errors.Wrap(err, "counting members")
}

// CreateMember relies on ON CONFLICT so that a duplicate does not abort the enclosing transaction.
func (repo *workspaceRepository) CreateMember(ctx context.Context, m workspace.Member) error {
	res, err := repo.q.ExecContext(ctx, `
		INSERT INTO workspace_member (workspace_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (workspace_id, user_id) DO NOTHING`,
		m.WorkspaceID, m.UserID, m.Role, m.JoinedAt,
	)
	if err != nil {
		return errors.Wrap(err, "inserting member")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return workspace.ErrAlreadyMember
	}
	return nil
}

func (repo *workspaceRepository) GetMember(ctx context.Context, workspaceID, userID string) (m workspace.Member, err error) {
	err = sqlx.GetContext(ctx, repo.q, &m, memberSelect+` WHERE m.workspace_id = $1 AND m.user_id = $2`, workspaceID, userID)
	return m, notFound(err, workspace.ErrMemberNotFound)
}

func (repo *workspaceRepository) QueryMembers(ctx context.Context, workspaceID string) ([]workspace.Member, error) {
	members := make([]workspace.Member, 0)
	err := sqlx.SelectContext(ctx, repo.q, &members, memberSelect+`
		WHERE m.workspace_id = $1
		ORDER BY m.joined_at, m.user_id`,
		workspaceID,
	)
	if err != nil {
		if pqCode(err) == codeInvalidTextRepr {
			return []workspace.Member{}, nil
		}
		return nil, err
	}
	return members, nil
}

func (repo *workspaceRepository) UpdateMemberRole(ctx context.Context, workspaceID, userID, role string) error {
	return execOne(ctx, repo.q, workspace.ErrMemberNotFound,
		`UPDATE workspace_member SET role = $3 WHERE workspace_id = $1 AND user_id = $2`,
		workspaceID, userID, role,
	)
}

func (repo *workspaceRepository) DeleteMember(ctx context.Context, workspaceID, userID string) error {
	return execOne(ctx, repo.q, workspace.ErrMemberNotFound,
		`DELETE FROM workspace_member WHERE workspace_id = $1 AND user_id = $2`,
		workspaceID, userID,
	)
}
