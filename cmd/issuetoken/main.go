// Command issuetoken mints a bearer token for a link owner, for local use
// against the API.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shortlinks/internal/app"
	"github.com/sundayezeilo/shortlinks/internal/config"
	"github.com/sundayezeilo/shortlinks/internal/httpx"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("issuetoken", flag.ContinueOnError)
	ownerFlag := fs.String("owner", "", "owner id (uuid); a new one is generated when empty")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	owner := uuid.New()
	if *ownerFlag != "" {
		var err error
		if owner, err = uuid.Parse(*ownerFlag); err != nil {
			return fmt.Errorf("invalid owner id: %w", err)
		}
	}

	app.LoadEnv(".env", "../.env")
	cfg, err := config.LoadAuth()
	if err != nil {
		return err
	}

	token, err := httpx.IssueToken([]byte(cfg.JWTSecret), cfg.JWTIssuer, owner, *ttl)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "owner: %s\n", owner)
	fmt.Println(token)
	return nil
}
