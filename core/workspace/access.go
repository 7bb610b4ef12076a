package workspace

import (
	"context"

	"github.com/pkg/errors"
)

// IsMember reports whether a membership row exists for (userID, workspaceID).
// Owners get no shortcut here.
func (svc *Service) IsMember(ctx context.Context, userID, workspaceID string) (bool, error) {
	if _, err := svc.repo.GetMember(ctx, workspaceID, userID); err != nil {
		if errors.Cause(err) == ErrMemberNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "getting member")
	}
	return true, nil
}

// IsAdmin reports whether userID owns workspaceID or holds an ADMIN membership in it.
func (svc *Service) IsAdmin(ctx context.Context, userID, workspaceID string) (bool, error) {
	role, err := svc.Role(ctx, userID, workspaceID)
	if err != nil {
		return false, err
	}
	return role == RoleOwner || role == RoleAdmin, nil
}

// Role returns OWNER, ADMIN, USER or "" when userID has no access to workspaceID.
// Unknown workspaces yield "".
func (svc *Service) Role(ctx context.Context, userID, workspaceID string) (string, error) {
	return RoleIn(ctx, svc.repo, userID, workspaceID)
}

// RoleIn resolves the role of userID in workspaceID through repo, which may be bound to a transaction.
// The owner wins over any membership row.
func RoleIn(ctx context.Context, repo Repository, userID, workspaceID string) (string, error) {
	ws, err := repo.GetWorkspace(ctx, workspaceID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return "", nil
		}
		return "", errors.Wrap(err, "getting workspace")
	}
	// the owner needs no membership row
	if ws.OwnerID == userID {
		return RoleOwner, nil
	}

	m, err := repo.GetMember(ctx, workspaceID, userID)
	if err != nil {
		if errors.Cause(err) == ErrMemberNotFound {
			return "", nil
		}
		return "", errors.Wrap(err, "getting member")
	}
	return resolveRole(ws, userID, m.Role), nil
}

func resolveRole(ws Workspace, userID, memberRole string) string {
	switch {
	case ws.OwnerID == userID:
		return RoleOwner
	case memberRole == RoleAdmin:
		return RoleAdmin
	case memberRole == RoleUser:
		return RoleUser
	default:
		return ""
	}
}

// HasAccess reports whether role grants at least the wanted one.
func HasAccess(role, wanted string) bool {
	switch wanted {
	case RoleOwner:
		return role == RoleOwner
	case RoleAdmin:
		return role == RoleOwner || role == RoleAdmin
	case RoleUser:
		return role == RoleOwner || role == RoleAdmin || role == RoleUser
	}
	return false
}
