// Package testutil holds fixtures shared by the tests of every package.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schoolcal/core/invite"
	"github.com/trezcool/schoolcal/core/notification"
	"github.com/trezcool/schoolcal/core/user"
	"github.com/trezcool/schoolcal/core/workspace"
)

// Password is the password of every user created by CreateUser.
const Password = "s3cur3-Pa55"

func CreateUser(t *testing.T, repo user.Repository, name, email string, createdAt ...time.Time) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if err := usr.SetPassword(Password); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateWorkspace inserts a workspace owned by owner, without any membership row.
func CreateWorkspace(t *testing.T, repo workspace.Repository, owner user.User, name string) workspace.Workspace {
	t.Helper()
	now := time.Now().UTC()
	ws := workspace.Workspace{
		ID:        uuid.New().String(),
		Name:      name,
		OwnerID:   owner.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateWorkspace(context.Background(), ws); err != nil {
		t.Fatalf("CreateWorkspace() failed: %v", err)
	}
	return ws
}

func AddMember(t *testing.T, repo workspace.Repository, ws workspace.Workspace, usr user.User, role string) {
	t.Helper()
	m := workspace.Member{WorkspaceID: ws.ID, UserID: usr.ID, Role: role, JoinedAt: time.Now().UTC()}
	if err := repo.CreateMember(context.Background(), m); err != nil {
		t.Fatalf("AddMember() failed: %v", err)
	}
}

// CreateLink inserts an invite link. A zero expiresAt means no expiry.
func CreateLink(t *testing.T, repo invite.Repository, ws workspace.Workspace, creator user.User, maxUses, uses int, expiresAt time.Time) invite.Link {
	t.Helper()
	l := invite.Link{
		ID:          uuid.New().String(),
		WorkspaceID: ws.ID,
		Code:        uuid.New().String(),
		MaxUses:     maxUses,
		Uses:        uses,
		CreatedBy:   creator.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if !expiresAt.IsZero() {
		l.ExpiresAt = null.TimeFrom(expiresAt.UTC())
	}
	if err := repo.CreateLink(context.Background(), l); err != nil {
		t.Fatalf("CreateLink() failed: %v", err)
	}
	return l
}

func CreateNotification(t *testing.T, repo notification.Repository, usr user.User, typ string, referenceID null.String) notification.Notification {
	t.Helper()
	n := notification.New(usr.ID, typ, "Title", "Message", referenceID)
	if err := repo.CreateNotification(context.Background(), n); err != nil {
		t.Fatalf("CreateNotification() failed: %v", err)
	}
	return n
}
