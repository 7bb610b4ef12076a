package main

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolcal/core"
	"github.com/trezcool/schoolcal/core/user"
	dummydb "github.com/trezcool/schoolcal/storage/database/dummy"
	testutil "github.com/trezcool/schoolcal/tests"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	usrRepo = dummydb.Open().Stores().Users()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	return &commandLine{
		usrSvc:     user.NewService(usrRepo),
		validate:   validate,
		translator: translator,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
}

func checkErr(t *testing.T, err error, tt cliTest) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(_ *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "calendar", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, cli.run(args), tt)
		})
	}
}

func Test_commandLine_createUser(t *testing.T) {
	cli := setup(t)
	testutil.CreateUser(t, usrRepo, "Taken", "taken@test.cd")

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"createuser"}, wantErr: errHelp},
		{name: "no email", args: []string{"createuser", "-name", "Jane"}, wantErr: errHelp},
		{name: "no password", args: []string{"createuser", "-name", "Jane", "-email", "jane@test.cd"}, wantErr: errHelp},
		{
			name:       "invalid email",
			args:       []string{"createuser", "-name", "Jane", "-email", "jane"},
			extra:      extra{pwd: "s3cur3-Pa55"},
			wantErrStr: "email: email must be a valid email address",
		},
		{
			name:       "weak password",
			args:       []string{"createuser", "-name", "Jane", "-email", "jane@test.cd"},
			extra:      extra{pwd: "12345678"},
			wantErrStr: "password: password cannot be entirely numeric",
		},
		{
			name:       "email taken",
			args:       []string{"createuser", "-name", "Jane", "-email", "TAKEN@test.cd"},
			extra:      extra{pwd: "s3cur3-Pa55"},
			wantErrStr: "email: a user with this email already exists",
		},
		{name: "create", args: []string{"createuser", "-name", " Jane ", "-email", "Jane@Test.cd"}, extra: extra{pwd: "s3cur3-Pa55"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		pwd := ""
		if extra, ok := tt.extra.(extra); ok {
			pwd = extra.pwd
		}

		t.Run(tt.name, func(t *testing.T) {
			mockPassword(pwd)
			checkErr(t, cli.run(args), tt)
		})
	}

	usr, err := usrRepo.GetUserByEmail(context.Background(), "jane@test.cd")
	require.NoError(t, err)
	assert.Equal(t, "Jane", usr.Name)
	assert.NoError(t, usr.CheckPassword("s3cur3-Pa55"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "Awe", "awe@test.cd")

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "awe@test.cd"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, extra: extra{pwd: "n3w-Pa55w0rd"}, wantErr: user.ErrNotFound},
		{
			name:       "too short",
			args:       []string{"resetpassword", "-email", "awe@test.cd"},
			extra:      extra{pwd: "lol"},
			wantErrStr: "newPassword: password must contain at least 8 characters",
		},
		{name: "reset", args: []string{"resetpassword", "-email", "awe@test.cd"}, extra: extra{pwd: "n3w-Pa55w0rd"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		pwd := ""
		if extra, ok := tt.extra.(extra); ok {
			pwd = extra.pwd
		}

		t.Run(tt.name, func(t *testing.T) {
			mockPassword(pwd)
			err := cli.run(args)
			checkErr(t, err, tt)

			refreshed, gErr := usrRepo.GetUserByID(context.Background(), usr.ID)
			require.NoError(t, gErr)
			if err == nil {
				assert.False(t, bytes.Equal(refreshed.PasswordHash, usr.PasswordHash), "password not updated")
				assert.NoError(t, refreshed.CheckPassword(pwd))
			} else {
				assert.True(t, bytes.Equal(refreshed.PasswordHash, usr.PasswordHash), "password updated")
			}
		})
	}
}
