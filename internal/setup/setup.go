// Package setup creates the schema and the first administrator account.
package setup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"filevault/internal/auth"
	"filevault/internal/db"
	"filevault/internal/validate"

	"golang.org/x/term"
)

type Options struct {
	DBPath   string
	DataDir  string
	Username string
	Email    string
}

func Run(ctx context.Context, opt Options) error {
	if opt.DBPath == "" {
		return errors.New("db path is required")
	}
	if opt.DataDir == "" {
		return errors.New("data-dir is required")
	}
	if err := validate.Username(opt.Username); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(opt.DBPath), 0o700); err != nil {
		return err
	}
	if err := os.MkdirAll(opt.DataDir, 0o700); err != nil {
		return err
	}

	d, err := db.Open(ctx, opt.DBPath)
	if err != nil {
		return err
	}
	defer d.Close()
	_ = os.Chmod(opt.DBPath, 0o600)

	_, exists, err := d.GetUserByUsername(ctx, opt.Username)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("user %q already exists", opt.Username)
	}

	password, err := PromptPassword(opt.Username)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password, auth.DefaultArgon2Params())
	if err != nil {
		return err
	}
	id, err := d.CreateUser(ctx, opt.Username, hash, opt.Email, true)
	if err != nil {
		return err
	}

	token, err := auth.NewToken(32)
	if err != nil {
		return err
	}
	if err := d.SetUserAPIKey(ctx, id, token); err != nil {
		return err
	}

	fmt.Printf("created admin user %q (id %d)\n", opt.Username, id)
	fmt.Printf("api token: %s\n", token)
	return nil
}

// PromptPassword reads a password twice from the terminal without echo.
func PromptPassword(username string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("password prompt requires a terminal")
	}
	fmt.Printf("password for %s: ", username)
	p1, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	fmt.Print("repeat password: ")
	p2, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if string(p1) != string(p2) {
		return "", errors.New("passwords do not match")
	}
	if len(p1) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}
	return string(p1), nil
}
