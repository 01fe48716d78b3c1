package main

import (
	"context"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

func (cli *commandLine) setPassword(email, pwd string) error {
	return cli.usrSvc.SetPassword(context.Background(), user.GetFilter{Email: email}, pwd)
}
