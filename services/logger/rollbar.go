package logsvc

import (
	"fmt"
	"log"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/schoolcal/core"
	"github.com/trezcool/schoolcal/core/user"
)

// RollbarLogger reports to rollbar and echoes every entry to a std logger.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Close waits for queued reports to be sent.
func (l RollbarLogger) Close() {
	rollbar.Close()
}

// entry is what one log call carries once its args are sorted out.
type entry struct {
	msg    string
	err    error
	usr    *user.User
	req    *core.RequestInfo
	extras map[string]interface{}
	other  []interface{} // printed only
}

func newEntry(msg string, args []interface{}) entry {
	e := entry{msg: msg}
	for _, arg := range args {
		switch v := arg.(type) {
		case user.User:
			if e.usr == nil { // only the first User counts
				usr := v
				e.usr = &usr
			}
		case core.RequestInfo:
			req := v
			e.req = &req
		case map[string]interface{}:
			// rollbar keeps a single extras map, so they are merged
			if e.extras == nil {
				e.extras = make(map[string]interface{}, len(v))
			}
			for k, val := range v {
				e.extras[k] = val
			}
			e.other = append(e.other, v)
		case error:
			if e.err == nil {
				e.err = v
			} else {
				e.other = append(e.other, v)
			}
		default:
			e.other = append(e.other, v)
		}
	}

	if e.req != nil {
		if e.extras == nil {
			e.extras = make(map[string]interface{}, 2)
		}
		e.extras["request"] = map[string]interface{}{
			"method":   e.req.Method,
			"route":    e.req.Route,
			"path":     e.req.Path,
			"remoteIp": e.req.RemoteIP,
		}
		if e.req.WorkspaceID != "" {
			e.extras["workspace"] = map[string]interface{}{"id": e.req.WorkspaceID, "role": e.req.Role}
		}
	}
	return e
}

// rollbarArgs sets the person and returns the args rollbar understands: msg, error, extras.
func (e entry) rollbarArgs() []interface{} {
	if e.usr != nil {
		rollbar.SetPerson(e.usr.ID, e.usr.Name, e.usr.Email)
	} else {
		rollbar.ClearPerson()
	}

	args := []interface{}{e.msg}
	if e.err != nil {
		args = append(args, e.err)
	}
	if e.extras != nil {
		args = append(args, e.extras)
	}
	return args
}

func (e entry) lines() []string {
	var head strings.Builder
	head.WriteString(e.msg)
	if e.req != nil {
		_, _ = fmt.Fprintf(&head, " [%s %s]", e.req.Method, e.req.Path)
		if e.req.WorkspaceID != "" {
			_, _ = fmt.Fprintf(&head, " workspace=%s", e.req.WorkspaceID)
		}
	}
	if e.usr != nil {
		_, _ = fmt.Fprintf(&head, " user=%s", e.usr.ID)
	}

	lines := []string{head.String()}
	if e.err != nil {
		lines = append(lines, fmt.Sprintf("%+v", e.err))
	}
	for _, o := range e.other {
		lines = append(lines, fmt.Sprintf("%+v", o))
	}
	return lines
}

func (l RollbarLogger) print(e entry) {
	for _, line := range e.lines() {
		l.std.Println(line)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	e := newEntry(msg, args)
	rollbar.Debug(e.rollbarArgs()...)
	l.print(e)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	e := newEntry(msg, args)
	rollbar.Info(e.rollbarArgs()...)
	l.print(e)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	e := newEntry(msg, args)
	rollbar.Warning(e.rollbarArgs()...)
	l.print(e)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	e := newEntry(msg, args)
	rollbar.Error(e.rollbarArgs()...)
	l.print(e)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	e := newEntry(msg, args)
	rollbar.Critical(e.rollbarArgs()...)
	l.print(e)
	l.std.Fatal(msg)
}
