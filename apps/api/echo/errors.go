package echoapi

import (
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolcal/core"
	"github.com/trezcool/schoolcal/core/user"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")
	errInvalidBody   = echo.NewHTTPError(http.StatusBadRequest, "invalid request body")

	msgValidationFailed = "invalid request"
)

// httpError is the body of every error response.
type httpError struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

var kindCodes = map[core.ErrorKind]int{
	core.KindInvalid:   http.StatusBadRequest,
	core.KindForbidden: http.StatusForbidden,
	core.KindNotFound:  http.StatusNotFound,
	core.KindGone:      http.StatusGone,
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code int
			body httpError
		)

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if msg, ok := origErr.Message.(string); ok {
				body.Error = msg
			} else {
				body.Error = http.StatusText(code)
			}
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			body = httpError{Error: msgValidationFailed, Details: fldErrs}
		case *core.ValidationError:
			code = http.StatusBadRequest
			body.Error = msgValidationFailed
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				body.Details = fldErrs
			} else if msg := origErr.Error(); msg != "" {
				body.Error = msg
			}
		case *core.Error:
			code = kindCodes[origErr.Kind]
			if code == 0 {
				code = http.StatusBadRequest
			}
			body.Error = origErr.Message
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			body.Error = msg

			usr, _ := ctx.Get(contextUserKey).(user.User)
			logger.Error(msg, errors.Wrap(err, msg), usr, requestInfo(ctx))

			if ctx.Echo().Debug {
				body.Details = err.Error()
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func requestInfo(ctx echo.Context) core.RequestInfo {
	req := ctx.Request()
	info := core.RequestInfo{
		Method:   req.Method,
		Route:    ctx.Path(),
		Path:     req.URL.Path,
		RemoteIP: ctx.RealIP(),
	}
	if strings.HasPrefix(info.Route, "/api/workspaces/:id") {
		info.WorkspaceID = ctx.Param("id")
		info.Role = getContextRole(ctx)
	}
	return info
}
