package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"
)

func (cli *commandLine) listUsers() error {
	users, err := cli.usrSvc.QueryAll(context.Background())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "EMAIL\tNAME\tDEPARTMENT\tTITLE\tCREATED")
	for _, usr := range users {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			usr.Email, usr.Name, usr.Department, usr.Title, usr.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
