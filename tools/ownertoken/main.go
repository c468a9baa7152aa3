// Package main issues a designer bearer token signed with the server's
// owner secret. The secret is read from OWNER_SECRET (or .env).
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/atinyakov/mockshare/internal/ownerauth"
)

func main() {
	subject := flag.String("sub", "designer", "token subject")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
		os.Exit(1)
	}
	if err := run(os.Stdout, os.Getenv("OWNER_SECRET"), *subject, *ttl); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(w io.Writer, secret, subject string, ttl time.Duration) error {
	if secret == "" {
		return errors.New("OWNER_SECRET is not set")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", ttl)
	}
	token, err := ownerauth.Issue(secret, subject, ttl)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	_, err = fmt.Fprintln(w, token)
	return err
}
