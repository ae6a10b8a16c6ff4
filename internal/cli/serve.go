// internal/cli/serve.go
//
// The serve command: opens and migrates both databases, imports the
// question seed (idempotent), and starts the shell API.

package cli

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/idziarhai/crossword/internal/config"
	"github.com/idziarhai/crossword/internal/db"
	"github.com/idziarhai/crossword/internal/httpserver"
	"github.com/idziarhai/crossword/internal/player"
	"github.com/idziarhai/crossword/internal/question"
	"github.com/idziarhai/crossword/internal/store"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the crossword shell API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	playersDB, err := db.Open(cfg.Storage.PlayersDB)
	if err != nil {
		return err
	}
	defer playersDB.Close()
	if err := db.MigratePlayers(playersDB); err != nil {
		return err
	}

	questionsDB, err := db.Open(cfg.Storage.QuestionsDB)
	if err != nil {
		return err
	}
	defer questionsDB.Close()
	if err := db.MigrateQuestions(questionsDB); err != nil {
		return err
	}

	questions := question.NewStore(questionsDB)

	// Seed the catalog on every start; duplicates are skipped.
	seed, err := question.LoadSeed(cfg.Questions.SeedPath)
	if err != nil {
		return err
	}
	added, err := questions.Import(ctx, seed)
	if err != nil {
		return err
	}
	total, _ := questions.Count(ctx)
	log.Info().Int("added", added).Int("total", total).Msg("question catalog ready")

	srv := httpserver.New(
		store.NewMemoryRegistry(),
		player.NewStore(playersDB),
		questions,
		cfg.Auth.JWTSecret,
		cfg.TokenTTL(2*time.Hour),
	)
	log.Info().Str("port", cfg.Server.Port).Msg("starting crossword shell API")
	return srv.Start(":" + cfg.Server.Port)
}
