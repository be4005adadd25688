// cmd/migrate/main.go: applies or rolls back the embedded SQL migrations.
// Usage: go run ./cmd/migrate [up|down [steps]|version]
package main

import (
	"os"
	"strconv"

	"petzap/internal/config"
	"petzap/internal/infra"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		if err := infra.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("migrate up failed")
		}
		log.Info().Msg("migrations applied")
	case "down":
		steps := 1
		if len(os.Args) > 2 {
			if steps, err = strconv.Atoi(os.Args[2]); err != nil {
				log.Fatal().Str("steps", os.Args[2]).Msg("steps must be an integer")
			}
		}
		if err := infra.MigrateDown(cfg.DatabaseURL, steps); err != nil {
			log.Fatal().Err(err).Msg("migrate down failed")
		}
		log.Info().Int("steps", steps).Msg("migrations rolled back")
	case "version":
		v, dirty, err := infra.MigrationVersion(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read version")
		}
		log.Info().Uint("version", v).Bool("dirty", dirty).Msg("schema version")
	default:
		log.Fatal().Str("command", cmd).Msg("unknown command (up | down [steps] | version)")
	}
}
