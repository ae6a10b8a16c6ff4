// internal/cli/report.go
//
// The report command: writes the registered-players roster as a PDF.

package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/idziarhai/crossword/internal/config"
	"github.com/idziarhai/crossword/internal/db"
	"github.com/idziarhai/crossword/internal/player"
	"github.com/idziarhai/crossword/internal/report"
)

func newReportCmd(configPath *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the player roster PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			conn, err := db.Open(cfg.Storage.PlayersDB)
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := db.MigratePlayers(conn); err != nil {
				return err
			}

			players, err := player.NewStore(conn).List(cmd.Context())
			if err != nil {
				return err
			}
			pdf, err := report.PlayerRoster(players)
			if err != nil {
				return err
			}

			if out == "" {
				out = fmt.Sprintf("players_list_%s.pdf", time.Now().Format("20060102_150405"))
			}
			if err := os.WriteFile(out, pdf, 0o644); err != nil {
				return err
			}
			log.Info().Str("file", out).Int("players", len(players)).Msg("roster PDF written")
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default players_list_<timestamp>.pdf)")
	return cmd
}
