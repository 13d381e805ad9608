package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/brighttutor/brightdesk/core"
	"github.com/brighttutor/brightdesk/core/registration"
	"github.com/brighttutor/brightdesk/core/task"
	"github.com/brighttutor/brightdesk/core/user"
)

var (
	errUnauthorized   = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errTokenRevoked   = echo.NewHTTPError(http.StatusUnauthorized, "session has ended")
	errRefreshExpired = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpNotFound   = echo.NewHTTPError(http.StatusNotFound, "not found")
	errHttpConflict   = echo.NewHTTPError(http.StatusConflict, "this application has already been submitted")
)

// Retry prompts shown to users when an unexpected error happens.
const (
	msgAddTask    = "Failed to add the task. Please try again."
	msgUpdateTask = "Failed to update task status. Please try again."
	msgDeleteTask = "Failed to delete the task. Please try again."
	msgRealtime   = "Could not fetch tasks in real-time. Please check your connection."
	msgSignOut    = "Failed to sign out. Please try again."
	msgSubmit     = "Failed to submit the application. Please try again."
)

// failure attaches the message users see when err is a server error.
type failure struct {
	msg string
	err error
}

func withRetry(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &failure{msg: msg, err: err}
}

func (f *failure) Error() string { return f.msg + ": " + f.err.Error() }
func (f *failure) Cause() error  { return f.err }
func (f *failure) Unwrap() error { return f.err }

func isNotFound(err error) bool {
	switch errors.Cause(err) {
	case user.ErrNotFound, task.ErrNotFound, registration.ErrNotFound:
		return true
	}
	return false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *user.AuthError:
			code = http.StatusBadRequest
			if origErr.Code == user.CodeUserDisabled {
				code = http.StatusForbidden
			}
			message = echo.Map{"code": origErr.Code, "error": origErr.Error()}
		default:
			switch {
			case isNotFound(err):
				code = http.StatusNotFound
				message = errHttpNotFound.Message
			case errors.Cause(err) == registration.ErrSubmitted:
				code = http.StatusConflict
				message = errHttpConflict.Message
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				var f *failure
				if errors.As(err, &f) {
					msg = f.msg
				}
				message = msg

				var usr user.User
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					usr.ID = claims.Subject
					usr.Email = claims.Email
				}
				logger.Error(msg, errors.Wrap(err, ctx.Path()), usr)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
