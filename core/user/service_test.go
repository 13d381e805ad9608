package user_test

import (
	"bytes"
	"context"
	"log"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brighttutor/brightdesk/core"
	"github.com/brighttutor/brightdesk/core/user"
	"github.com/brighttutor/brightdesk/services/email"
	"github.com/brighttutor/brightdesk/services/logger"
	"github.com/brighttutor/brightdesk/storage/database/inmem"
)

const (
	email = "jane@example.com"
	pwd   = "Str0ng-Pa55!"
)

type fixture struct {
	conf *core.Config
	repo user.Repository
	mail *emailsvc.ConsoleServiceMock
	svc  user.ServiceInterface
}

func setup(t *testing.T) fixture {
	t.Helper()
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(new(bytes.Buffer), "", 0), conf)
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	repo := inmemdb.NewUserRepository(inmemdb.Open())
	mail := emailsvc.NewConsoleServiceMock(conf, logger)
	return fixture{
		conf: conf,
		repo: repo,
		mail: mail,
		svc:  user.NewServiceMock(conf, repo, mail, validate),
	}
}

func authCode(t *testing.T, err error) string {
	t.Helper()
	aErr, ok := user.AsAuthError(err)
	if !assert.True(t, ok, "expected an auth error, got %v", err) {
		return ""
	}
	return aErr.Code
}

func TestService_SignUp(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	usr, err := f.svc.SignUp(ctx, user.Credentials{Email: "  Jane@Example.com ", Password: pwd})
	require.NoError(t, err)
	assert.Equal(t, email, usr.Email)
	assert.True(t, usr.IsActive)
	assert.False(t, usr.LastLogin.IsZero())
	assert.NoError(t, usr.CheckPassword(pwd))

	tests := []struct {
		name  string
		creds user.Credentials
		code  string
	}{
		{"missing email", user.Credentials{Password: pwd}, user.CodeMissingCredentials},
		{"missing password", user.Credentials{Email: "bob@example.com"}, user.CodeMissingCredentials},
		{"invalid email", user.Credentials{Email: "bob", Password: pwd}, user.CodeInvalidEmail},
		{"weak password", user.Credentials{Email: "bob@example.com", Password: "abc"}, user.CodeWeakPassword},
		{"too similar", user.Credentials{Email: "bobby.tables@example.com", Password: "bobbytables"}, user.CodePasswordTooSimilar},
		{"email in use", user.Credentials{Email: email, Password: pwd}, user.CodeEmailInUse},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.SignUp(ctx, tc.creds)
			assert.Equal(t, tc.code, authCode(t, err))
		})
	}
}

func TestService_SignIn(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.SignUp(ctx, user.Credentials{Email: email, Password: pwd})
	require.NoError(t, err)

	usr, err := f.svc.SignIn(ctx, user.Credentials{Email: "JANE@example.com", Password: pwd})
	require.NoError(t, err)
	assert.Equal(t, created.ID, usr.ID)
	assert.False(t, usr.LastLogin.Before(created.LastLogin))

	_, err = f.svc.SignIn(ctx, user.Credentials{Email: "bob@example.com", Password: pwd})
	assert.Equal(t, user.CodeUserNotFound, authCode(t, err))

	_, err = f.svc.SignIn(ctx, user.Credentials{Email: email, Password: "wrong-password"})
	assert.Equal(t, user.CodeWrongPassword, authCode(t, err))

	require.NoError(t, f.svc.SetActive(ctx, email, false))
	_, err = f.svc.SignIn(ctx, user.Credentials{Email: email, Password: pwd})
	assert.Equal(t, user.CodeUserDisabled, authCode(t, err))

	require.NoError(t, f.svc.SetActive(ctx, email, true))
	_, err = f.svc.SignIn(ctx, user.Credentials{Email: email, Password: pwd})
	assert.NoError(t, err)
}

func TestService_PasswordReset(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	usr, err := f.svc.SignUp(ctx, user.Credentials{Email: email, Password: pwd})
	require.NoError(t, err)

	assert.Equal(t, user.ErrNotFound, f.svc.RequestPasswordReset(ctx, "bob@example.com"))
	assert.Empty(t, f.mail.Sent())

	require.NoError(t, f.svc.RequestPasswordReset(ctx, email))
	sent := f.mail.Sent()
	if assert.Len(t, sent, 1) {
		assert.Equal(t, "password_reset", sent[0].TemplateName)
		assert.Equal(t, email, sent[0].To[0].Address)
	}

	token := user.MakeResetToken(f.conf, usr)
	uid := user.EncodeUID(usr)

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name string
			data user.ResetPassword
		}{
			{"missing fields", user.ResetPassword{}},
			{"mismatch", user.ResetPassword{UID: uid, Token: token, Password: "n3w-Secret", PasswordConfirm: "other"}},
			{"weak", user.ResetPassword{UID: uid, Token: token, Password: "abc", PasswordConfirm: "abc"}},
			{"bad uid", user.ResetPassword{UID: "???", Token: token, Password: "n3w-Secret", PasswordConfirm: "n3w-Secret"}},
			{"bad token", user.ResetPassword{UID: uid, Token: "1-abc", Password: "n3w-Secret", PasswordConfirm: "n3w-Secret"}},
			{"too similar", user.ResetPassword{UID: uid, Token: token, Password: "jane@example", PasswordConfirm: "jane@example"}},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				assert.Error(t, f.svc.ResetPassword(ctx, tc.data))
			})
		}
	})

	t.Run("valid", func(t *testing.T) {
		data := user.ResetPassword{UID: uid, Token: token, Password: "n3w-Secret", PasswordConfirm: "n3w-Secret"}
		require.NoError(t, f.svc.ResetPassword(ctx, data))

		_, err := f.svc.SignIn(ctx, user.Credentials{Email: email, Password: "n3w-Secret"})
		assert.NoError(t, err)

		// signing in changed lastLogin, so the token cannot be reused
		assert.Error(t, f.svc.ResetPassword(ctx, data))
	})

	t.Run("inactive", func(t *testing.T) {
		require.NoError(t, f.svc.SetActive(ctx, email, false))
		assert.Equal(t, user.ErrNotFound, f.svc.RequestPasswordReset(ctx, email))
	})
}

func TestService_SetPassword(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, user.Credentials{Email: email, Password: pwd})
	require.NoError(t, err)

	assert.Equal(t, user.ErrNotFound, f.svc.SetPassword(ctx, "bob@example.com", "n3w-Secret"))
	assert.Equal(t, user.CodeWeakPassword, authCode(t, f.svc.SetPassword(ctx, email, "abc")))

	require.NoError(t, f.svc.SetPassword(ctx, email, "n3w-Secret"))
	usr, err := f.repo.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword("n3w-Secret"))
}
