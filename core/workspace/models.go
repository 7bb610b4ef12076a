package workspace

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/schoolcal/core"
)

// Roles
const (
	RoleOwner = "OWNER" // derived from Workspace.OwnerID, never stored on a Member
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type Workspace struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description" db:"description"`
	VotingEnabled bool      `json:"votingEnabled" db:"voting_enabled"`
	OwnerID       string    `json:"ownerId" db:"owner_id"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"` // UTC
}

// Member is a WorkspaceMember row, joined with the user it points to.
type Member struct {
	WorkspaceID string    `json:"workspaceId" db:"workspace_id"`
	UserID      string    `json:"userId" db:"user_id"`
	Role        string    `json:"role" db:"role"`
	JoinedAt    time.Time `json:"joinedAt" db:"joined_at"` // UTC
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email" db:"email"`
}

// Summary is a Workspace as seen by one user.
type Summary struct {
	Workspace
	Role        string `json:"role"`
	MemberCount int    `json:"memberCount" db:"member_count"`
	MemberRole  string `json:"-" db:"member_role"` // role on the user's membership row, if any
}

// NewWorkspace contains information needed to create a new Workspace.
type NewWorkspace struct {
	Name          string `json:"name" validate:"required,notblank,max=100"`
	Description   string `json:"description" validate:"max=2000"`
	VotingEnabled bool   `json:"votingEnabled"`
}

func (nw *NewWorkspace) Validate(validate *validator.Validate) error {
	nw.Name = core.CleanString(nw.Name)
	nw.Description = core.CleanString(nw.Description)
	return validate.Struct(nw)
}

// UpdateWorkspace defines what information may be provided to modify an existing Workspace.
type UpdateWorkspace struct {
	Name          *string `json:"name" validate:"omitempty,max=100"`
	Description   *string `json:"description" validate:"omitempty,max=2000"`
	VotingEnabled *bool   `json:"votingEnabled"`
}

func (uw *UpdateWorkspace) Validate(validate *validator.Validate) error {
	if uw.Name != nil {
		name := core.CleanString(*uw.Name)
		uw.Name = &name
		if name == "" {
			return core.NewValidationError(errBlankName, core.FieldError{Field: "name", Error: errBlankName.Error()})
		}
	}
	if uw.Description != nil {
		desc := core.CleanString(*uw.Description)
		uw.Description = &desc
	}
	return validate.Struct(uw)
}

func (uw UpdateWorkspace) apply(ws Workspace) Workspace {
	if uw.Name != nil {
		ws.Name = *uw.Name
	}
	if uw.Description != nil {
		ws.Description = *uw.Description
	}
	if uw.VotingEnabled != nil {
		ws.VotingEnabled = *uw.VotingEnabled
	}
	return ws
}

type UpdateMember struct {
	Role string `json:"role" validate:"required,oneof=ADMIN USER"`
}

func (um *UpdateMember) Validate(validate *validator.Validate) error {
	um.Role = core.CleanString(um.Role)
	return validate.Struct(um)
}
