package main

import (
	"context"
	"fmt"

	"github.com/trezcool/tadesk/core/user"
)

// addUser validates nu like the registration form does, then creates the user.
func (cli *commandLine) addUser(nu user.NewUser) error {
	ctx := context.Background()
	if err := nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(ctx, nu, cli.lang)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "created %s <%s>\n", usr.DisplayName, usr.Email)
	return nil
}
