// Command migrate applies, rolls back and inspects schema migrations.
//
// Usage:
//
//	migrate up|down|status|seed [-dir migrations]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"vernis.app/internal/migrate"
	"vernis.app/internal/store/pg"
)

func main() {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dir := fs.String("dir", "migrations", "directory holding *.up.sql/*.down.sql files")
	timeout := fs.Duration("timeout", 60*time.Second, "overall command timeout")

	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	command := args[0]
	_ = fs.Parse(args[1:])

	dsn := strings.TrimSpace(os.Getenv("VERNIS_PG_DSN"))
	if dsn == "" {
		log.Fatal("VERNIS_PG_DSN is required")
	}
	store, err := pg.Open(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() { _ = store.Close() }()

	mgr := migrate.NewManager(store.DB(), os.DirFS(*dir), os.DirFS(filepath.Join(*dir, "seeds")))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch command {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "seed":
		err = mgr.Seed(ctx)
	case "status":
		var applied []string
		applied, err = mgr.Status(ctx)
		if err == nil {
			if len(applied) == 0 {
				fmt.Println("no migrations applied")
			}
			for _, name := range applied {
				fmt.Println(name)
			}
		}
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", command, err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate up|down|status|seed [-dir migrations] [-timeout 60s]")
}
