package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/brighttutor/brightdesk/core/user"
	"github.com/brighttutor/brightdesk/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword         // mockable
	migrateFunc      = database.RunMigrations // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db     *sqlx.DB
	usrSvc user.ServiceInterface
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose command: up, up-by-one, up-to, down, down-to, redo, reset, status, version")
	fmt.Println("  adduser -email EMAIL - create a user account, the password is prompted")
	fmt.Println("  resetpassword -email EMAIL - set a user's password, the password is prompted")
	fmt.Println("  disableuser -email EMAIL - disable a user account")
	fmt.Println("  enableuser -email EMAIL - enable a user account")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return migrateFunc(cli.db, args[2], args[3:]...)

	case "adduser":
		email, pwd, err := parseEmailAndPassword(args)
		if err != nil {
			return err
		}
		return cli.addUser(ctx, email, pwd)

	case "resetpassword":
		email, pwd, err := parseEmailAndPassword(args)
		if err != nil {
			return err
		}
		return cli.usrSvc.SetPassword(ctx, email, pwd)

	case "disableuser", "enableuser":
		email, err := parseEmail(args)
		if err != nil {
			return err
		}
		return cli.usrSvc.SetActive(ctx, email, args[1] == "enableuser")

	default:
		cli.printUsage()
		return errHelp
	}
}

func newEmailFlagSet(name string) (*flag.FlagSet, *string) {
	cmd := flag.NewFlagSet(name, flag.ContinueOnError)
	email := cmd.String("email", "", "The user's email.")
	return cmd, email
}

func parseEmail(args []string) (string, error) {
	cmd, email := newEmailFlagSet(args[1])
	if err := cmd.Parse(args[2:]); err != nil {
		return "", errHelp
	}
	if *email == "" {
		cmd.Usage()
		return "", errHelp
	}
	return *email, nil
}

func parseEmailAndPassword(args []string) (string, string, error) {
	email, err := parseEmail(args)
	if err != nil {
		return "", "", err
	}

	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", "", err
	}
	if len(pwd) == 0 {
		return "", "", errHelp
	}
	return email, string(pwd), nil
}

// addUser creates an active user account.
func (cli *commandLine) addUser(ctx context.Context, email, pwd string) error {
	usr, err := cli.usrSvc.SignUp(ctx, user.Credentials{Email: email, Password: pwd})
	if err != nil {
		return err
	}
	fmt.Printf("user %s created (%s)\n", usr.Email, usr.ID)
	return nil
}
