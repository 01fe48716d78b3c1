package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/cascade"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	usrSvc  *user.Service
	deleter *cascade.Deleter
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  deleteuser -id ID|-email EMAIL [-role ROLE] - delete a user and everything referencing it")
	fmt.Fprintln(cli.out, "  setpassword -email EMAIL - set a user's password")
	fmt.Fprintln(cli.out, "  inviteuser -email EMAIL -name NAME [-role ROLE] [-subjects S1,S2] - invite a user")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	deleteUserCmd := cli.newFlagSet("deleteuser")
	deleteUserID := deleteUserCmd.String("id", "", "The user's ID.")
	deleteUserEmail := deleteUserCmd.String("email", "", "The user's email, if no ID is given.")
	deleteUserRole := deleteUserCmd.String("role", "", "The user's role, only used if the user has no profile.")

	setPasswordCmd := cli.newFlagSet("setpassword")
	setPasswordEmail := setPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	inviteUserCmd := cli.newFlagSet("inviteuser")
	inviteUserEmail := inviteUserCmd.String("email", "", "The user's email.")
	inviteUserName := inviteUserCmd.String("name", "", "The user's full name.")
	inviteUserRole := inviteUserCmd.String("role", string(user.RoleStudent), "The user's role: student, teacher or admin.")
	inviteUserSubjects := inviteUserCmd.String("subjects", "", "Comma separated subjects to enroll a student in.")

	switch args[1] {
	case "deleteuser":
		if err := deleteUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		identifier := *deleteUserID
		if identifier == "" {
			identifier = *deleteUserEmail
		}
		if identifier == "" {
			deleteUserCmd.Usage()
			return errHelp
		}
		return cli.deleteUser(identifier, *deleteUserRole)

	case "setpassword":
		if err := setPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setPasswordEmail == "" {
			setPasswordCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			setPasswordCmd.Usage()
			return errHelp
		}
		return cli.setPassword(*setPasswordEmail, string(pwd))

	case "inviteuser":
		if err := inviteUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *inviteUserEmail == "" || *inviteUserName == "" {
			inviteUserCmd.Usage()
			return errHelp
		}
		return cli.inviteUser(*inviteUserEmail, *inviteUserName, *inviteUserRole, *inviteUserSubjects)

	default:
		cli.printUsage()
		return errHelp
	}
}
