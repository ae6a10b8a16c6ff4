// internal/cli/import.go
//
// The import command: bulk-loads a question JSON file into the catalog.
// Importing the same file twice adds zero new records the second time.

package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/idziarhai/crossword/internal/config"
	"github.com/idziarhai/crossword/internal/db"
	"github.com/idziarhai/crossword/internal/question"
)

func newImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import questions from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			conn, err := db.Open(cfg.Storage.QuestionsDB)
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := db.MigrateQuestions(conn); err != nil {
				return err
			}

			records, err := question.LoadSeed(args[0])
			if err != nil {
				return err
			}

			qs := question.NewStore(conn)
			added, err := qs.Import(cmd.Context(), records)
			if err != nil {
				return err
			}
			total, _ := qs.Count(cmd.Context())
			log.Info().Int("added", added).Int("total", total).Str("file", args[0]).Msg("questions imported")
			return nil
		},
	}
}
