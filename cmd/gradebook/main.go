package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/conorfennell/gradebook/internal/archive"
	"github.com/conorfennell/gradebook/internal/config"
	"github.com/conorfennell/gradebook/internal/logging"
	"github.com/conorfennell/gradebook/internal/shell"
	"github.com/conorfennell/gradebook/internal/storage"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "gradebook: %v\n", err)
		os.Exit(2)
	}

	closer := logging.Apply(cfg.Log, cfg.DBPath)

	err = run(cfg)
	closer.Close()
	if err != nil {
		os.Exit(1)
	}
}

// run owns the database handle for the life of the process so that it is
// closed on every return path.
func run(cfg *config.Config) error {
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("Failed to open database")
		return err
	}
	defer db.Close()
	log.Debug().Str("path", db.Path()).Msg("Database opened")

	if err := db.EnsureSchema(); err != nil {
		log.Error().Err(err).Msg("Failed to create schema")
		return err
	}

	if cfg.Snapshot {
		hash, err := archive.Snapshot(db, cfg.Archive.Dir, time.Now())
		if err != nil {
			log.Error().Err(err).Str("dir", cfg.Archive.Dir).Msg("Snapshot failed")
			return err
		}
		if hash == "" {
			fmt.Println("Roster unchanged; nothing to commit.")
		} else {
			fmt.Printf("Roster snapshot committed: %s\n", hash)
		}
		return nil
	}

	if err := shell.Run(db, os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("Shell stopped")
		return err
	}
	return nil
}
