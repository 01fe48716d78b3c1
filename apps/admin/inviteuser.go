package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

// inviteUser creates a user and emails them a password setup link.
func (cli *commandLine) inviteUser(email, name, role, subjects string) error {
	ns := user.NewStudent{
		Email:    email,
		FullName: name,
		Role:     user.Role(role),
	}
	if subjects != "" {
		ns.Subjects = strings.Split(subjects, ",")
	}
	prof, err := cli.usrSvc.Invite(context.Background(), ns)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "invited %s <%s> (%s)\n", prof.ID, prof.Email, prof.Role)
	return nil
}
