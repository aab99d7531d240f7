package main

import (
	"flag"
	"os"

	"github.com/noah-isme/festbook-cart/internal/config"
	"github.com/noah-isme/festbook-cart/internal/obs"
	"github.com/noah-isme/festbook-cart/internal/store"
)

func main() {
	dir := flag.String("dir", "db/migrations", "migrations directory")
	steps := flag.Int("steps", 1, "migrations to revert with down")
	flag.Parse()

	cfg := config.MustLoad()
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("component", "migrate").Logger()

	migrator, err := store.NewMigrator(cfg.DatabaseURL, *dir)
	if err != nil {
		logger.Fatal().Err(err).Msg("open migrations")
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			logger.Error().Err(err).Msg("close migrations")
		}
	}()

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "up"
	}
	switch cmd {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Down(*steps)
	case "version":
	default:
		logger.Error().Str("command", cmd).Msg("unknown command, expected up, down or version")
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("command", cmd).Msg("migration failed")
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		logger.Fatal().Err(err).Msg("read schema version")
	}
	logger.Info().Str("command", cmd).Uint("version", version).Bool("dirty", dirty).Msg("schema ready")
}
