package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/schoolcal/core/workspace"
)

type workspaceRepository struct {
	s *Stores
}

var _ workspace.Repository = (*workspaceRepository)(nil) // interface compliance check

func (repo *workspaceRepository) CreateWorkspace(_ context.Context, ws workspace.Workspace) error {
	repo.s.do(func(t *tables) {
		t.workspaces[ws.ID] = ws
	})
	return nil
}

func (repo *workspaceRepository) GetWorkspace(_ context.Context, id string) (ws workspace.Workspace, err error) {
	repo.s.do(func(t *tables) {
		var ok bool
		if ws, ok = t.workspaces[id]; !ok {
			err = workspace.ErrNotFound
		}
	})
	return ws, err
}

func (repo *workspaceRepository) UpdateWorkspace(_ context.Context, ws workspace.Workspace) (err error) {
	repo.s.do(func(t *tables) {
		if _, ok := t.workspaces[ws.ID]; !ok {
			err = workspace.ErrNotFound
			return
		}
		t.workspaces[ws.ID] = ws
	})
	return err
}

// DeleteWorkspace cascades to members, links and invites, like the SQL schema does.
func (repo *workspaceRepository) DeleteWorkspace(_ context.Context, id string) (err error) {
	repo.s.do(func(t *tables) {
		if _, ok := t.workspaces[id]; !ok {
			err = workspace.ErrNotFound
			return
		}
		delete(t.workspaces, id)
		for k := range t.members {
			if k.workspaceID == id {
				delete(t.members, k)
			}
		}
		for k, l := range t.links {
			if l.WorkspaceID == id {
				delete(t.links, k)
			}
		}
		for k, inv := range t.invites {
			if inv.WorkspaceID == id {
				delete(t.invites, k)
			}
		}
	})
	return err
}

func (repo *workspaceRepository) QueryUserWorkspaces(_ context.Context, userID string) (summaries []workspace.Summary, err error) {
	repo.s.do(func(t *tables) {
		for _, ws := range t.workspaces {
			m, isMember := t.members[memberKey{ws.ID, userID}]
			if !isMember && ws.OwnerID != userID {
				continue
			}
			summaries = append(summaries, workspace.Summary{
				Workspace:   ws,
				MemberCount: countMembers(t, ws.ID),
				MemberRole:  m.Role,
			})
		}
	})
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func countMembers(t *tables, workspaceID string) (count int) {
	for k := range t.members {
		if k.workspaceID == workspaceID {
			count++
		}
	}
	return count
}

func (repo *workspaceRepository) CountMembers(_ context.Context, workspaceID string) (count int, err error) {
	repo.s.do(func(t *tables) {
		count = countMembers(t, workspaceID)
	})
	return count, nil
}

func (repo *workspaceRepository) CreateMember(_ context.Context, m workspace.Member) (err error) {
	repo.s.do(func(t *tables) {
		key := memberKey{m.WorkspaceID, m.UserID}
		if _, ok := t.members[key]; ok {
			err = workspace.ErrAlreadyMember
			return
		}
		m.Name, m.Email = "", ""
		t.members[key] = m
	})
	return err
}

// withUser fills the user columns a SQL join would return.
func withUser(t *tables, m workspace.Member) workspace.Member {
	if usr, ok := t.users[m.UserID]; ok {
		m.Name, m.Email = usr.Name, usr.Email
	}
	return m
}

func (repo *workspaceRepository) GetMember(_ context.Context, workspaceID, userID string) (m workspace.Member, err error) {
	repo.s.do(func(t *tables) {
		var ok bool
		if m, ok = t.members[memberKey{workspaceID, userID}]; !ok {
			err = workspace.ErrMemberNotFound
			return
		}
		m = withUser(t, m)
	})
	return m, err
}

func (repo *workspaceRepository) QueryMembers(_ context.Context, workspaceID string) (members []workspace.Member, err error) {
	members = []workspace.Member{}
	repo.s.do(func(t *tables) {
		for k, m := range t.members {
			if k.workspaceID == workspaceID {
				members = append(members, withUser(t, m))
			}
		}
	})
	sort.Slice(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].UserID < members[j].UserID
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members, nil
}

func (repo *workspaceRepository) UpdateMemberRole(_ context.Context, workspaceID, userID, role string) (err error) {
	repo.s.do(func(t *tables) {
		key := memberKey{workspaceID, userID}
		m, ok := t.members[key]
		if !ok {
			err = workspace.ErrMemberNotFound
			return
		}
		m.Role = role
		t.members[key] = m
	})
	return err
}

func (repo *workspaceRepository) DeleteMember(_ context.Context, workspaceID, userID string) (err error) {
	repo.s.do(func(t *tables) {
		key := memberKey{workspaceID, userID}
		if _, ok := t.members[key]; !ok {
			err = workspace.ErrMemberNotFound
			return
		}
		delete(t.members, key)
	})
	return err
}
