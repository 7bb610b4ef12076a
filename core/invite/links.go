package invite

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

func newLinkCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CreateLink creates a Link for workspaceID from validated data.
func (svc *Service) CreateLink(ctx context.Context, userID, workspaceID string, nl NewLink) (Link, error) {
	if _, err := svc.stores.Workspaces().GetWorkspace(ctx, workspaceID); err != nil {
		return Link{}, err
	}

	now := NowFunc().UTC()
	l := Link{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Code:        newLinkCode(),
		MaxUses:     DefaultMaxUses,
		CreatedBy:   userID,
		CreatedAt:   now,
	}
	if nl.MaxUses != nil {
		l.MaxUses = *nl.MaxUses
	}
	if nl.ExpiresInDays != nil {
		l.ExpiresAt = null.TimeFrom(now.Add(time.Duration(*nl.ExpiresInDays) * 24 * time.Hour))
	}

	if err := svc.stores.Invites().CreateLink(ctx, l); err != nil {
		return Link{}, errors.Wrap(err, "inserting invite link")
	}
	return l, nil
}

func (svc *Service) ListLinks(ctx context.Context, workspaceID string) ([]LinkStatus, error) {
	links, err := svc.stores.Invites().QueryWorkspaceLinks(ctx, workspaceID)
	if err != nil {
		return nil, errors.Wrap(err, "querying invite links")
	}

	now := NowFunc()
	statuses := make([]LinkStatus, 0, len(links))
	for _, l := range links {
		statuses = append(statuses, LinkStatus{
			Link:        l,
			IsExpired:   l.IsExpired(now),
			IsExhausted: l.IsExhausted(),
		})
	}
	return statuses, nil
}

func (svc *Service) DeleteLink(ctx context.Context, workspaceID, id string) error {
	return svc.stores.Invites().DeleteLink(ctx, workspaceID, id)
}

func checkUsable(l Link, now time.Time) error {
	switch l.State(now) {
	case LinkExpired:
		return ErrLinkExpired
	case LinkExhausted:
		return ErrLinkExhausted
	}
	return nil
}

// ResolveLink returns what an anonymous visitor may learn about a usable link.
func (svc *Service) ResolveLink(ctx context.Context, code string) (LinkPreview, error) {
	l, err := svc.stores.Invites().GetLinkByCode(ctx, code)
	if err != nil {
		return LinkPreview{}, err
	}
	if err = checkUsable(l, NowFunc()); err != nil {
		return LinkPreview{}, err
	}

	ws, err := svc.stores.Workspaces().GetWorkspace(ctx, l.WorkspaceID)
	if err != nil {
		return LinkPreview{}, errors.Wrap(err, "getting workspace")
	}
	count, err := svc.stores.Workspaces().CountMembers(ctx, ws.ID)
	if err != nil {
		return LinkPreview{}, errors.Wrap(err, "counting members")
	}

	return LinkPreview{
		Workspace: WorkspacePreview{
			ID:          ws.ID,
			Name:        ws.Name,
			Description: ws.Description,
			MemberCount: count,
		},
		UsesRemaining: l.UsesRemaining(),
		ExpiresAt:     l.ExpiresAt,
	}, nil
}

// AcceptLink makes userID a USER member of the link's workspace and consumes one use,
// both in the same transaction.
func (svc *Service) AcceptLink(ctx context.Context, userID, code string) (JoinResult, error) {
	var res JoinResult
	err := svc.tx.WithTx(ctx, func(stores Stores) error {
		now := NowFunc()
		l, err := stores.Invites().GetLinkByCode(ctx, code)
		if err != nil {
			return err
		}
		// state may have changed since the link was resolved
		if err = checkUsable(l, now); err != nil {
			return err
		}
		res.WorkspaceID = l.WorkspaceID

		if res.AlreadyMember, err = join(ctx, stores.Workspaces(), l.WorkspaceID, userID, now.UTC()); err != nil || res.AlreadyMember {
			return err
		}

		consumed, err := stores.Invites().ConsumeLink(ctx, l.ID, now)
		if err != nil {
			return errors.Wrap(err, "consuming invite link")
		}
		if !consumed {
			// a concurrent join took the last use, or the link just expired
			if l.IsExpired(NowFunc()) {
				return ErrLinkExpired
			}
			return ErrLinkExhausted
		}
		return nil
	})
	if err != nil {
		return JoinResult{}, err
	}
	return res, nil
}
