package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/schoolcal/core/invite"
)

type inviteRepository struct {
	s *Stores
}

var _ invite.Repository = (*inviteRepository)(nil) // interface compliance check

func (repo *inviteRepository) CreateLink(_ context.Context, l invite.Link) error {
	repo.s.do(func(t *tables) {
		t.links[l.ID] = l
	})
	return nil
}

func (repo *inviteRepository) GetLinkByCode(_ context.Context, code string) (l invite.Link, err error) {
	err = invite.ErrLinkNotFound
	repo.s.do(func(t *tables) {
		for _, link := range t.links {
			if link.Code == code {
				l, err = link, nil
				return
			}
		}
	})
	return l, err
}

func (repo *inviteRepository) QueryWorkspaceLinks(_ context.Context, workspaceID string) (links []invite.Link, err error) {
	repo.s.do(func(t *tables) {
		for _, l := range t.links {
			if l.WorkspaceID == workspaceID {
				links = append(links, l)
			}
		}
	})
	sort.Slice(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})
	return links, nil
}

func (repo *inviteRepository) ConsumeLink(_ context.Context, id string, now time.Time) (consumed bool, err error) {
	repo.s.do(func(t *tables) {
		l, ok := t.links[id]
		if !ok || l.State(now) != invite.LinkActive {
			return
		}
		l.Uses++
		t.links[id] = l
		consumed = true
	})
	return consumed, nil
}

func (repo *inviteRepository) DeleteLink(_ context.Context, workspaceID, id string) (err error) {
	repo.s.do(func(t *tables) {
		if l, ok := t.links[id]; !ok || l.WorkspaceID != workspaceID {
			err = invite.ErrLinkNotFound
			return
		}
		delete(t.links, id)
	})
	return err
}

func (repo *inviteRepository) GetInvite(_ context.Context, id string) (inv invite.Invite, err error) {
	repo.s.do(func(t *tables) {
		var ok bool
		if inv, ok = t.invites[id]; !ok {
			err = invite.ErrInviteNotFound
		}
	})
	return inv, err
}

func findInvite(t *tables, workspaceID, email string) (invite.Invite, bool) {
	for _, inv := range t.invites {
		if inv.WorkspaceID == workspaceID && inv.Email == email {
			return inv, true
		}
	}
	return invite.Invite{}, false
}

func (repo *inviteRepository) GetInviteByEmail(_ context.Context, workspaceID, email string) (inv invite.Invite, err error) {
	repo.s.do(func(t *tables) {
		var ok bool
		if inv, ok = findInvite(t, workspaceID, email); !ok {
			err = invite.ErrInviteNotFound
		}
	})
	return inv, err
}

func (repo *inviteRepository) UpsertInvite(_ context.Context, inv invite.Invite) (invite.Invite, error) {
	var err error
	repo.s.do(func(t *tables) {
		if existing, ok := findInvite(t, inv.WorkspaceID, inv.Email); ok {
			if existing.Status == invite.StatusPending {
				err = invite.ErrInvitePending
				return
			}
			existing.Status = inv.Status
			existing.InvitedBy = inv.InvitedBy
			existing.UpdatedAt = inv.UpdatedAt
			inv = existing
		}
		t.invites[inv.ID] = inv
	})
	if err != nil {
		return invite.Invite{}, err
	}
	return inv, nil
}

func (repo *inviteRepository) QueryWorkspaceInvites(_ context.Context, workspaceID string) (invites []invite.Invite, err error) {
	repo.s.do(func(t *tables) {
		for _, inv := range t.invites {
			if inv.WorkspaceID == workspaceID {
				invites = append(invites, inv)
			}
		}
	})
	sort.Slice(invites, func(i, j int) bool {
		return invites[i].CreatedAt.After(invites[j].CreatedAt)
	})
	return invites, nil
}

func (repo *inviteRepository) SetInviteStatus(_ context.Context, id, status string, at time.Time) (err error) {
	repo.s.do(func(t *tables) {
		inv, ok := t.invites[id]
		if !ok {
			err = invite.ErrInviteNotFound
			return
		}
		inv.Status = status
		inv.UpdatedAt = at
		t.invites[id] = inv
	})
	return err
}

func (repo *inviteRepository) DeleteInvite(_ context.Context, workspaceID, id string) (err error) {
	repo.s.do(func(t *tables) {
		if inv, ok := t.invites[id]; !ok || inv.WorkspaceID != workspaceID {
			err = invite.ErrInviteNotFound
			return
		}
		delete(t.invites, id)
	})
	return err
}
