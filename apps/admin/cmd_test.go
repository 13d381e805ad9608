package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brighttutor/brightdesk/core"
	"github.com/brighttutor/brightdesk/core/user"
	emailsvc "github.com/brighttutor/brightdesk/services/email"
	logsvc "github.com/brighttutor/brightdesk/services/logger"
	inmemdb "github.com/brighttutor/brightdesk/storage/database/inmem"
)

const pwd = "Sup3rS3cret!"

func setup(t *testing.T) (*commandLine, user.Repository) {
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(new(bytes.Buffer), "", 0), conf)
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	usrRepo := inmemdb.NewUserRepository(inmemdb.Open())
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)

	// start CLI
	return &commandLine{usrSvc: user.NewService(conf, usrRepo, mailSvc, validate)}, usrRepo
}

func mockPassword(t *testing.T, pwd string) {
	t.Cleanup(func(orig func(int) ([]byte, error)) func() {
		return func() { readPasswordFunc = orig }
	}(readPasswordFunc))
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(t, tt.pwd)
			err := cli.run(append([]string{"admin"}, tt.args...))
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	origMigrate := migrateFunc
	t.Cleanup(func() { migrateFunc = origMigrate })
	migrateFunc = func(db *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []struct {
		name       string
		args       []string
		wantErrStr string
	}{
		{name: "no subcommand", args: []string{"migrate"}, wantErrStr: errHelp.Error()},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			if tt.wantErrStr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErrStr)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, usrRepo := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no email", args: []string{"adduser"}, pwd: pwd, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-email", "awe@test.et"}, wantErr: errHelp},
		{name: "ok", args: []string{"adduser", "-email", "Awe@Test.et"}, pwd: pwd},
	})

	usr, err := usrRepo.GetUserByEmail(context.Background(), "awe@test.et")
	require.NoError(t, err)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword(pwd))

	mockPassword(t, pwd)
	err = cli.run([]string{"admin", "adduser", "-email", "awe@test.et"})
	authErr, ok := user.AsAuthError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, user.CodeEmailInUse, authErr.Code)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, usrRepo := setup(t)
	ctx := context.Background()
	_, err := cli.usrSvc.SignUp(ctx, user.Credentials{Email: "awe@test.et", Password: pwd})
	require.NoError(t, err)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "awe@test.et"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.et"}, pwd: "n3wPassw0rd", wantErr: user.ErrNotFound},
		{name: "ok", args: []string{"resetpassword", "-email", "awe@test.et"}, pwd: "n3wPassw0rd"},
	})

	usr, err := usrRepo.GetUserByEmail(ctx, "awe@test.et")
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword("n3wPassw0rd"))
}

func Test_commandLine_setActive(t *testing.T) {
	cli, usrRepo := setup(t)
	ctx := context.Background()
	_, err := cli.usrSvc.SignUp(ctx, user.Credentials{Email: "awe@test.et", Password: pwd})
	require.NoError(t, err)

	runCLITests(t, cli, []cliTest{
		{name: "no email", args: []string{"disableuser"}, wantErr: errHelp},
		{name: "user not found", args: []string{"disableuser", "-email", "lol@test.et"}, wantErr: user.ErrNotFound},
		{name: "disable", args: []string{"disableuser", "-email", "awe@test.et"}},
	})
	usr, err := usrRepo.GetUserByEmail(ctx, "awe@test.et")
	require.NoError(t, err)
	assert.False(t, usr.IsActive)

	runCLITests(t, cli, []cliTest{
		{name: "enable", args: []string{"enableuser", "-email", "awe@test.et"}},
	})
	usr, err = usrRepo.GetUserByEmail(ctx, "awe@test.et")
	require.NoError(t, err)
	assert.True(t, usr.IsActive)
}
