package invite

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schoolcal/core"
	"github.com/trezcool/schoolcal/core/notification"
)

// Invite statuses
const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusDeclined = "DECLINED"
)

// Link states, computed on read
const (
	LinkActive    = "ACTIVE"
	LinkExpired   = "EXPIRED"
	LinkExhausted = "EXHAUSTED"
)

// Notification actions
const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
)

const (
	DefaultMaxUses   = 10
	maxUsesLimit     = 100
	maxExpiresInDays = 30
)

var (
	errMaxUsesRange       = errors.New("maxUses must be between 1 and 100")
	errExpiresInDaysRange = errors.New("expiresInDays must be between 1 and 30")
)

// Link is a shareable WorkspaceInviteLink.
type Link struct {
	ID          string    `json:"id" db:"id"`
	WorkspaceID string    `json:"workspaceId" db:"workspace_id"`
	Code        string    `json:"code" db:"code"`
	MaxUses     int       `json:"maxUses" db:"max_uses"`
	Uses        int       `json:"uses" db:"uses"`
	ExpiresAt   null.Time `json:"expiresAt" db:"expires_at"` // UTC; null means no expiry
	CreatedBy   string    `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"` // UTC
}

// IsExpired reports whether now is at or past the link's expiry.
func (l Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt.Valid && !now.Before(l.ExpiresAt.Time)
}

func (l Link) IsExhausted() bool {
	return l.Uses >= l.MaxUses
}

func (l Link) State(now time.Time) string {
	switch {
	case l.IsExpired(now):
		return LinkExpired
	case l.IsExhausted():
		return LinkExhausted
	default:
		return LinkActive
	}
}

func (l Link) UsesRemaining() int {
	if l.IsExhausted() {
		return 0
	}
	return l.MaxUses - l.Uses
}

// LinkStatus is a Link annotated with its computed state.
type LinkStatus struct {
	Link
	IsExpired   bool `json:"isExpired"`
	IsExhausted bool `json:"isExhausted"`
}

// NewLink contains information needed to create a new Link.
type NewLink struct {
	MaxUses       *int `json:"maxUses"`
	ExpiresInDays *int `json:"expiresInDays"`
}

func (nl *NewLink) Validate() error {
	var flds []core.FieldError
	if nl.MaxUses != nil && (*nl.MaxUses < 1 || *nl.MaxUses > maxUsesLimit) {
		flds = append(flds, core.FieldError{Field: "maxUses", Error: errMaxUsesRange.Error()})
	}
	if nl.ExpiresInDays != nil && (*nl.ExpiresInDays < 1 || *nl.ExpiresInDays > maxExpiresInDays) {
		flds = append(flds, core.FieldError{Field: "expiresInDays", Error: errExpiresInDaysRange.Error()})
	}
	if len(flds) > 0 {
		return core.NewValidationError(errors.New("invalid invite link"), flds...)
	}
	return nil
}

// Invite is a directed WorkspaceInvite, unique per (workspace, email).
type Invite struct {
	ID          string      `json:"id" db:"id"`
	WorkspaceID string      `json:"workspaceId" db:"workspace_id"`
	Email       string      `json:"email" db:"email"`
	Status      string      `json:"status" db:"status"`
	InvitedBy   null.String `json:"invitedBy" db:"invited_by"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updatedAt" db:"updated_at"` // UTC
}

// NewInvite contains information needed to invite someone by email.
type NewInvite struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

func (ni *NewInvite) Validate(validate *validator.Validate) error {
	ni.Email = core.CleanString(ni.Email, true /* lower */)
	return validate.Struct(ni)
}

type NotificationAction struct {
	Action string `json:"action" validate:"required,oneof=accept decline"`
}

func (na *NotificationAction) Validate(validate *validator.Validate) error {
	na.Action = core.CleanString(na.Action, true /* lower */)
	return validate.Struct(na)
}

type (
	WorkspacePreview struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		MemberCount int    `json:"memberCount"`
	}

	// LinkPreview is what the public invite landing page shows.
	LinkPreview struct {
		Workspace     WorkspacePreview `json:"workspace"`
		UsesRemaining int              `json:"usesRemaining"`
		ExpiresAt     null.Time        `json:"expiresAt"`
	}

	// JoinResult is the outcome of accepting a Link.
	JoinResult struct {
		WorkspaceID   string
		AlreadyMember bool
	}

	// CreatedInvite is the outcome of inviting an email.
	CreatedInvite struct {
		Invite     Invite
		UserExists bool
	}

	// ActionResult is the outcome of accepting or declining an invite notification.
	ActionResult struct {
		Action        string
		WorkspaceID   string
		AlreadyMember bool
		Notification  notification.Notification
	}
)
