// main.go
//
// Process entrypoint for the crossword game backend.
// Loads .env, configures zerolog, and hands off to the cobra CLI
// (serve / import / report).

package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/idziarhai/crossword/internal/cli"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := cli.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
