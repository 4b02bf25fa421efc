package setup

import (
	"context"
	"flag"

	isetup "filevault/internal/setup"
)

type Options struct {
	DBPath   string
	DataDir  string
	Username string
	Email    string
}

func Run(args []string) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	var opt Options
	fs.StringVar(&opt.DBPath, "db", "./data/filevault.db", "sqlite database path")
	fs.StringVar(&opt.DataDir, "data-dir", "./data", "data directory (blobs)")
	fs.StringVar(&opt.Username, "username", "admin", "initial admin username")
	fs.StringVar(&opt.Email, "email", "", "initial admin email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return isetup.Run(context.Background(), isetup.Options{
		DBPath:   opt.DBPath,
		DataDir:  opt.DataDir,
		Username: opt.Username,
		Email:    opt.Email,
	})
}
