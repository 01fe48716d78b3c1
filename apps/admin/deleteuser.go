package main

import (
	"context"
	"fmt"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/cascade"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

// deleteUser runs the cascading deletion of a user and prints the outcome of every step.
func (cli *commandLine) deleteUser(identifier, role string) error {
	res, err := cli.deleter.Delete(context.Background(), identifier, user.ParseRole(role))
	if res.UserID != "" {
		fmt.Fprintf(cli.out, "user %s <%s> (%s)\n", res.UserID, res.Email, roleLabel(res.Role))
	}
	for _, step := range res.Steps {
		printStep(cli, step)
	}
	if err != nil {
		return err
	}
	if res.Partial() {
		fmt.Fprintf(cli.out, "deleted, %d cleanup steps failed\n", len(res.Failed()))
	} else {
		fmt.Fprintln(cli.out, "deleted")
	}
	return nil
}

func printStep(cli *commandLine, step cascade.StepOutcome) {
	line := fmt.Sprintf("  %-36s %-8s %d", step.Name, step.Status, step.Rows)
	if step.Error != "" {
		line += "  " + step.Error
	}
	fmt.Fprintln(cli.out, line)
}

func roleLabel(r user.Role) string {
	if r == "" {
		return "no role"
	}
	return string(r)
}
