package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Logger is implemented by every logging backend of the app.
// expected args: error, map[string]interface{}, user.User, RequestInfo
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// RequestInfo describes the HTTP request an entry was logged for.
type RequestInfo struct {
	Method      string
	Route       string // registered path, e.g. /api/workspaces/:id
	Path        string
	RemoteIP    string
	WorkspaceID string
	Role        string // caller's role in WorkspaceID, when resolved
}
