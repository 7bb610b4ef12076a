package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/schoolcal/core"
	"github.com/trezcool/schoolcal/core/user"
	"github.com/trezcool/schoolcal/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword        // mockable
	gooseRunFunc     = database.RunMigrations // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sqlx.DB
	usrSvc     *user.Service
	validate   *validator.Validate
	translator ut.Translator
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose command (up, up-by-one, up-to, down, down-to, redo, reset, status, version, create, fix)")
	fmt.Println("  createuser -name NAME -email EMAIL - create a user; the password will be prompted")
	fmt.Println("  resetpassword -email EMAIL - reset a user's password; the new one will be prompted")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createUserCmd := flag.NewFlagSet("createuser", flag.ContinueOnError)
	createUserName := createUserCmd.String("name", "", "The user's full name.")
	createUserEmail := createUserCmd.String("email", "", "The user's email. The password will be prompted next.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return gooseRunFunc(cli.db, args[2], args[3:]...)

	case "createuser":
		if err := createUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createUserName == "" || *createUserEmail == "" {
			createUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			createUserCmd.Usage()
			return errHelp
		}
		return cli.createUser(*createUserName, *createUserEmail, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// validationError flattens validation failures into one readable error.
func (cli *commandLine) validationError(err error) error {
	var msgs []string
	switch vErr := err.(type) {
	case validator.ValidationErrors:
		for _, fe := range vErr {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Translate(cli.translator)))
		}
	case *core.ValidationError:
		for _, fe := range vErr.Fields {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Error))
		}
	default:
		return err
	}
	return errors.New(strings.Join(msgs, "; "))
}

func (cli *commandLine) createUser(name, email, pwd string) error {
	ctx := context.Background()
	nu := user.NewUser{Name: name, Email: email, Password: pwd}
	if err := nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
		return cli.validationError(err)
	}
	usr, err := cli.usrSvc.Create(ctx, nu)
	if err != nil {
		return err
	}
	fmt.Printf("User %s <%s> created.\n", usr.Name, usr.Email)
	return nil
}

// resetPassword sets a new password, the password policy still applies.
func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	cp := user.ChangePassword{CurrentPassword: "-", NewPassword: pwd}
	if err = cp.Validate(usr, cli.validate); err != nil {
		return cli.validationError(err)
	}
	return cli.usrSvc.SetPassword(ctx, usr, pwd)
}
