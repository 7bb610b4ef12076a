package invite

import (
	"context"
	"time"

	"github.com/trezcool/schoolcal/core"
	"github.com/trezcool/schoolcal/core/notification"
	"github.com/trezcool/schoolcal/core/user"
	"github.com/trezcool/schoolcal/core/workspace"
)

var (
	// errors
	ErrLinkNotFound   = core.NewNotFoundError("invite link not found")
	ErrLinkExpired    = core.NewGoneError("invite link has expired")
	ErrLinkExhausted  = core.NewGoneError("invite link has reached its maximum number of uses")
	ErrInviteNotFound = core.NewNotFoundError("invitation not found")
	ErrInvitePending  = core.NewInvalidError("an invitation is already pending for this email")
	ErrInviteGone     = core.NewGoneError("the invitation no longer exists")
	ErrInviteAnswered = core.NewInvalidError("invitation has already been answered")
	ErrNoAction       = core.NewInvalidError("this notification has no action")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateLink(ctx context.Context, l Link) error
		GetLinkByCode(ctx context.Context, code string) (Link, error)
		// QueryWorkspaceLinks returns the links of a workspace, newest first.
		QueryWorkspaceLinks(ctx context.Context, workspaceID string) ([]Link, error)
		// ConsumeLink adds one use to the link if it is still usable at now.
		// It reports false, without error, when the link is expired or exhausted.
		ConsumeLink(ctx context.Context, id string, now time.Time) (bool, error)
		// DeleteLink fails with ErrLinkNotFound unless the link belongs to workspaceID.
		DeleteLink(ctx context.Context, workspaceID, id string) error

		GetInvite(ctx context.Context, id string) (Invite, error)
		GetInviteByEmail(ctx context.Context, workspaceID, email string) (Invite, error)
		// UpsertInvite inserts inv, or overwrites the status, inviter and update time of
		// the existing (workspace, email) row. It returns the stored row, or ErrInvitePending
		// when the existing row is still PENDING.
		UpsertInvite(ctx context.Context, inv Invite) (Invite, error)
		// QueryWorkspaceInvites returns every invite of a workspace, newest first.
		QueryWorkspaceInvites(ctx context.Context, workspaceID string) ([]Invite, error)
		SetInviteStatus(ctx context.Context, id, status string, at time.Time) error
		// DeleteInvite fails with ErrInviteNotFound unless the invite belongs to workspaceID.
		DeleteInvite(ctx context.Context, workspaceID, id string) error
	}

	// Stores exposes the repositories invitation workflows touch.
	Stores interface {
		Users() user.Repository
		Workspaces() workspace.Repository
		Invites() Repository
		Notifications() notification.Repository
	}

	// TxRunner runs fn in one transaction, with Stores bound to it.
	TxRunner interface {
		WithTx(ctx context.Context, fn func(stores Stores) error) error
	}

	Service struct {
		stores  Stores
		tx      TxRunner
		mailSvc core.EmailService
		conf    *core.Config
	}
)

func NewService(stores Stores, tx TxRunner, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		stores:  stores,
		tx:      tx,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

// InviteURL is the public URL of a link.
func (svc *Service) InviteURL(l Link) string {
	return svc.conf.InviteURL(l.Code)
}
