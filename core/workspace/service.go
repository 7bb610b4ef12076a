package workspace

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolcal/core"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("workspace not found")
	ErrMemberNotFound  = core.NewNotFoundError("member not found")
	ErrAlreadyMember   = core.NewInvalidError("user is already a member of this workspace")
	ErrOwnerProtected  = core.NewInvalidError("the workspace owner cannot be modified")
	ErrOwnerOnly       = core.NewForbiddenError("only the workspace owner can do this")
	errBlankName       = errors.New("this field cannot be blank")
	errRoleNotSettable = errors.New("role must be one of ADMIN USER")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateWorkspace(ctx context.Context, ws Workspace) error
		GetWorkspace(ctx context.Context, id string) (Workspace, error)
		UpdateWorkspace(ctx context.Context, ws Workspace) error
		DeleteWorkspace(ctx context.Context, id string) error
		// QueryUserWorkspaces returns the workspaces userID owns or is a member of, newest first.
		QueryUserWorkspaces(ctx context.Context, userID string) ([]Summary, error)
		CountMembers(ctx context.Context, workspaceID string) (int, error)

		// CreateMember must fail with ErrAlreadyMember when the (workspace, user) pair exists.
		CreateMember(ctx context.Context, m Member) error
		GetMember(ctx context.Context, workspaceID, userID string) (Member, error)
		QueryMembers(ctx context.Context, workspaceID string) ([]Member, error)
		UpdateMemberRole(ctx context.Context, workspaceID, userID, role string) error
		DeleteMember(ctx context.Context, workspaceID, userID string) error
	}

	// TxRunner runs fn in one transaction, with a Repository bound to it.
	TxRunner interface {
		WithTx(ctx context.Context, fn func(repo Repository) error) error
	}

	Service struct {
		repo Repository
		tx   TxRunner
	}
)

func NewService(repo Repository, tx TxRunner) *Service {
	return &Service{repo: repo, tx: tx}
}

// Create inserts a Workspace together with the ADMIN membership of its owner.
func (svc *Service) Create(ctx context.Context, ownerID string, nw NewWorkspace) (Summary, error) {
	now := NowFunc().UTC()
	ws := Workspace{
		ID:            uuid.New().String(),
		Name:          nw.Name,
		Description:   nw.Description,
		VotingEnabled: nw.VotingEnabled,
		OwnerID:       ownerID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := svc.tx.WithTx(ctx, func(repo Repository) error {
		if err := repo.CreateWorkspace(ctx, ws); err != nil {
			return errors.Wrap(err, "inserting workspace")
		}
		m := Member{WorkspaceID: ws.ID, UserID: ownerID, Role: RoleAdmin, JoinedAt: now}
		return errors.Wrap(repo.CreateMember(ctx, m), "inserting owner membership")
	})
	if err != nil {
		return Summary{}, err
	}
	return Summary{Workspace: ws, Role: RoleOwner, MemberCount: 1}, nil
}

// ListForUser returns every workspace userID owns or belongs to, with their role in each.
func (svc *Service) ListForUser(ctx context.Context, userID string) ([]Summary, error) {
	summaries, err := svc.repo.QueryUserWorkspaces(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying user workspaces")
	}
	for i := range summaries {
		summaries[i].Role = resolveRole(summaries[i].Workspace, userID, summaries[i].MemberRole)
	}
	return summaries, nil
}

// Summary returns the workspace as seen by userID.
func (svc *Service) Summary(ctx context.Context, userID, id string) (Summary, error) {
	ws, err := svc.repo.GetWorkspace(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	count, err := svc.repo.CountMembers(ctx, id)
	if err != nil {
		return Summary{}, errors.Wrap(err, "counting members")
	}
	role, err := svc.Role(ctx, userID, id)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Workspace: ws, Role: role, MemberCount: count}, nil
}

func (svc *Service) Update(ctx context.Context, id string, uw UpdateWorkspace) (Workspace, error) {
	ws, err := svc.repo.GetWorkspace(ctx, id)
	if err != nil {
		return Workspace{}, err
	}
	ws = uw.apply(ws)
	ws.UpdatedAt = NowFunc().UTC()
	if err = svc.repo.UpdateWorkspace(ctx, ws); err != nil {
		return Workspace{}, errors.Wrap(err, "updating workspace")
	}
	return ws, nil
}

// Delete removes a workspace; only its owner may do it.
func (svc *Service) Delete(ctx context.Context, userID, id string) error {
	ws, err := svc.repo.GetWorkspace(ctx, id)
	if err != nil {
		return err
	}
	if ws.OwnerID != userID {
		return ErrOwnerOnly
	}
	return errors.Wrap(svc.repo.DeleteWorkspace(ctx, id), "deleting workspace")
}

func (svc *Service) Members(ctx context.Context, id string) ([]Member, error) {
	members, err := svc.repo.QueryMembers(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "querying members")
	}
	return members, nil
}

// UpdateMemberRole changes the role of a member. The owner's row is never touched.
func (svc *Service) UpdateMemberRole(ctx context.Context, id, userID string, um UpdateMember) (Member, error) {
	if um.Role != RoleAdmin && um.Role != RoleUser {
		return Member{}, core.NewValidationError(errRoleNotSettable, core.FieldError{Field: "role", Error: errRoleNotSettable.Error()})
	}
	m, err := svc.protectedMember(ctx, id, userID)
	if err != nil {
		return Member{}, err
	}
	if err = svc.repo.UpdateMemberRole(ctx, id, userID, um.Role); err != nil {
		return Member{}, errors.Wrap(err, "updating member role")
	}
	m.Role = um.Role
	return m, nil
}

// RemoveMember deletes a membership. The owner's row is never deleted.
func (svc *Service) RemoveMember(ctx context.Context, id, userID string) error {
	if _, err := svc.protectedMember(ctx, id, userID); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteMember(ctx, id, userID), "deleting member")
}

func (svc *Service) protectedMember(ctx context.Context, id, userID string) (Member, error) {
	ws, err := svc.repo.GetWorkspace(ctx, id)
	if err != nil {
		return Member{}, err
	}
	if ws.OwnerID == userID {
		return Member{}, ErrOwnerProtected
	}
	return svc.repo.GetMember(ctx, id, userID)
}
