package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/brighttutor/brightdesk/core"
	"github.com/brighttutor/brightdesk/core/user"
)

var errNoTokenID = errors.New("token has no ID")

type sessionApi struct {
	conf     *core.Config
	revoked  *revocations
	svc      user.ServiceInterface
	validate *validator.Validate
}

func registerSessionAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	conf *core.Config,
	revoked *revocations,
	svc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := sessionApi{
		conf:     conf,
		revoked:  revoked,
		svc:      svc,
		validate: validate,
	}

	ug := g.Group("/users")

	// un-authed endpoints
	// TODO: rate limit `/sign-in`, `/password-reset` & `/password-reset-confirm`
	ug.POST("/sign-up", api.signUp)
	ug.POST("/sign-in", api.signIn)
	ug.POST("/password-reset", api.resetPassword)
	ug.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.POST("/sign-out", api.signOut)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("/me", api.me)
}

// Handlers

func (api *sessionApi) newSession(ctx echo.Context, code int, usr user.User) error {
	token, err := GenerateToken(api.conf, GetUserClaims(api.conf, usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(code, SessionResponse{Token: token, User: usr})
}

func (api *sessionApi) signUp(ctx echo.Context) error {
	var data user.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}

	usr, err := api.svc.SignUp(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "signing up")
	}
	return api.newSession(ctx, http.StatusCreated, usr)
}

func (api *sessionApi) signIn(ctx echo.Context) error {
	var data user.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}

	usr, err := api.svc.SignIn(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "signing in")
	}
	return api.newSession(ctx, http.StatusOK, usr)
}

func (api *sessionApi) signOut(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.Id == "" {
		return withRetry(errNoTokenID, msgSignOut)
	}
	api.revoked.revoke(claims)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *sessionApi) refreshToken(ctx echo.Context) error {
	token, usr, err := refreshToken(ctx, api.conf, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	if claims, err := getContextClaims(ctx); err == nil && claims.Id != "" {
		api.revoked.revoke(claims)
	}
	return ctx.JSON(http.StatusOK, SessionResponse{Token: token, User: usr})
}

func (api *sessionApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !usr.IsActive {
		return user.NewAuthError(user.CodeUserDisabled)
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *sessionApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *sessionApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPassword")
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

type (
	SessionResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
