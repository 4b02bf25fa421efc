// Package admin implements direct-store administration: accounts, API
// tokens, and the IP denylist.
package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"filevault/internal/auth"
	"filevault/internal/db"
	"filevault/internal/setup"
	"filevault/internal/validate"
)

func Run(args []string) error {
	if len(args) < 1 {
		usage()
		return errors.New("missing admin subcommand")
	}
	switch args[0] {
	case "user":
		return runUser(args[1:])
	case "ban":
		return runBan(args[1:])
	default:
		usage()
		return fmt.Errorf("unknown admin subcommand: %s", args[0])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "filevault admin user <add|list|token> [flags]")
	fmt.Fprintln(os.Stderr, "filevault admin ban <add|remove|list> [flags]")
}

func openDB(path string) (*db.DB, context.Context, error) {
	ctx := context.Background()
	d, err := db.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return d, ctx, nil
}

func runUser(args []string) error {
	if len(args) < 1 {
		usage()
		return errors.New("missing user verb")
	}
	verb, rest := args[0], args[1:]

	fs := flag.NewFlagSet("admin user "+verb, flag.ContinueOnError)
	dbPath := fs.String("db", "./data/filevault.db", "sqlite database path")
	username := fs.String("username", "", "account username")
	email := fs.String("email", "", "account email")
	isAdmin := fs.Bool("admin", false, "grant the administrator flag")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	d, ctx, err := openDB(*dbPath)
	if err != nil {
		return err
	}
	defer d.Close()

	switch verb {
	case "add":
		if err := validate.Username(*username); err != nil {
			return err
		}
		password, err := setup.PromptPassword(*username)
		if err != nil {
			return err
		}
		hash, err := auth.HashPassword(password, auth.DefaultArgon2Params())
		if err != nil {
			return err
		}
		id, err := d.CreateUser(ctx, *username, hash, *email, *isAdmin)
		if err != nil {
			return err
		}
		fmt.Printf("created user %q (id %d)\n", *username, id)
		return nil
	case "token":
		u, ok, err := d.GetUserByUsername(ctx, *username)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no such user: %s", *username)
		}
		token, err := auth.NewToken(32)
		if err != nil {
			return err
		}
		if err := d.SetUserAPIKey(ctx, u.ID, token); err != nil {
			return err
		}
		fmt.Printf("api token for %s: %s\n", u.Username, token)
		return nil
	case "list":
		users, err := d.ListUsers(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tADMIN\tTOKEN")
		for _, u := range users {
			hasToken := "-"
			if u.APIKey != "" {
				hasToken = "set"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%v\t%s\n", u.ID, u.Username, u.Email, u.IsAdmin, hasToken)
		}
		return tw.Flush()
	default:
		usage()
		return fmt.Errorf("unknown user verb: %s", verb)
	}
}

func runBan(args []string) error {
	if len(args) < 1 {
		usage()
		return errors.New("missing ban verb")
	}
	verb, rest := args[0], args[1:]

	fs := flag.NewFlagSet("admin ban "+verb, flag.ContinueOnError)
	dbPath := fs.String("db", "./data/filevault.db", "sqlite database path")
	ip := fs.String("ip", "", "IP address (exact string, no CIDR)")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	d, ctx, err := openDB(*dbPath)
	if err != nil {
		return err
	}
	defer d.Close()

	switch verb {
	case "add":
		if *ip == "" {
			return errors.New("-ip is required")
		}
		if _, err := d.AddBannedIP(ctx, *ip); err != nil {
			return err
		}
		fmt.Printf("banned %s\n", *ip)
		return nil
	case "remove":
		if *ip == "" {
			return errors.New("-ip is required")
		}
		n, err := d.RemoveBannedIP(ctx, *ip)
		if err != nil {
			return err
		}
		fmt.Printf("removed %d entries for %s\n", n, *ip)
		return nil
	case "list":
		entries, err := d.ListBannedIPs(ctx)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%d\t%s\n", e.ID, e.IP)
		}
		return nil
	default:
		usage()
		return fmt.Errorf("unknown ban verb: %s", verb)
	}
}
