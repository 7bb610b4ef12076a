package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Types
const (
	TypeGeneral         = "GENERAL"
	TypeWorkspaceInvite = "WORKSPACE_INVITE"
)

// Channels
const (
	ChannelInApp = "IN_APP"
	ChannelPush  = "PUSH"
	ChannelEmail = "EMAIL"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

type Notification struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	Type        string      `json:"type"`
	Title       string      `json:"title"`
	Message     string      `json:"message"`
	Read        bool        `json:"read"`
	ReferenceID null.String `json:"referenceId"`
	Channels    []string    `json:"channels"`
	CreatedAt   time.Time   `json:"createdAt"` // UTC
}

// New builds an unread Notification for userID.
func New(userID, typ, title, message string, referenceID null.String, channels ...string) Notification {
	if len(channels) == 0 {
		channels = []string{ChannelInApp}
	}
	return Notification{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        typ,
		Title:       title,
		Message:     message,
		ReferenceID: referenceID,
		Channels:    channels,
		CreatedAt:   NowFunc().UTC(),
	}
}

// HasAction reports whether the notification can be accepted or declined.
func (n Notification) HasAction() bool {
	return n.Type == TypeWorkspaceInvite
}

type QueryFilter struct {
	UnreadOnly bool `query:"unreadOnly"`
	Limit      int  `query:"limit"`
}

// Clean applies the default limit and caps it.
func (qf *QueryFilter) Clean() {
	switch {
	case qf.Limit <= 0:
		qf.Limit = defaultLimit
	case qf.Limit > maxLimit:
		qf.Limit = maxLimit
	}
}

// Inbox is a page of a user's notifications plus their total unread count.
type Inbox struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}
