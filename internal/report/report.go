// internal/report/report.go
//
// PDF rendering of game results and the player roster.
// Layout: a titled header, metadata lines, and one bordered table per
// document, with a page-number footer. Renderers return the document
// bytes; callers decide whether to write a file or stream a response.

package report

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/idziarhai/crossword/internal/game"
	"github.com/idziarhai/crossword/internal/player"
)

func newDoc() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Arial", "B", 15)
		pdf.CellFormat(0, 10, "Crossword Game Report", "", 1, "C", false, 0, "")
		pdf.Ln(10)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	return pdf
}

// SessionOutcome renders an ended session into a summary document:
// difficulty, mode, date, and a player/score/status table in ranking
// order.
func SessionOutcome(oc *game.Outcome) ([]byte, error) {
	pdf := newDoc()
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 15, "Game Summary Report", "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, "Difficulty: "+string(oc.Difficulty), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, "Game Mode: "+string(oc.Mode), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, "Date: "+time.Now().Format("2006-01-02 15:04:05"), "", 1, "L", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "Final Scores:", "", 1, "L", false, 0, "")
	pdf.Ln(5)

	colW := []float64{60, 40, 50}
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(colW[0], 10, "Player Name", "1", 0, "C", false, 0, "")
	pdf.CellFormat(colW[1], 10, "Score", "1", 0, "C", false, 0, "")
	pdf.CellFormat(colW[2], 10, "Status", "1", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	for _, entry := range oc.Ranking {
		status := "Participant"
		if entry.Winner {
			status = "Winner!"
		} else if len(oc.Winners) == 0 {
			status = "No points"
		}
		pdf.CellFormat(colW[0], 10, entry.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[1], 10, strconv.Itoa(entry.Score), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[2], 10, status, "1", 1, "C", false, 0, "")
	}

	return output(pdf)
}

// PlayerRoster renders the registered players with their cumulative
// statistics, sorted by name.
func PlayerRoster(players []player.Player) ([]byte, error) {
	pdf := newDoc()
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 15, "Registered Players List", "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, "Date: "+time.Now().Format("2006-01-02 15:04:05"), "", 1, "L", false, 0, "")
	pdf.Ln(10)

	if len(players) == 0 {
		pdf.SetFont("Arial", "", 14)
		pdf.CellFormat(0, 10, "No players registered yet.", "", 1, "C", false, 0, "")
		return output(pdf)
	}

	sorted := make([]player.Player, len(players))
	copy(sorted, players)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(bytes.ToLower([]byte(sorted[i].Name)), bytes.ToLower([]byte(sorted[j].Name))) < 0
	})

	colW := []float64{60, 30, 30, 30}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(colW[0], 10, "Name", "1", 0, "C", false, 0, "")
	pdf.CellFormat(colW[1], 10, "Games", "1", 0, "C", false, 0, "")
	pdf.CellFormat(colW[2], 10, "Wins", "1", 0, "C", false, 0, "")
	pdf.CellFormat(colW[3], 10, "Losses", "1", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, p := range sorted {
		pdf.CellFormat(colW[0], 10, p.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[1], 10, strconv.Itoa(p.GamesPlayed), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[2], 10, strconv.Itoa(p.Wins), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[3], 10, strconv.Itoa(p.Losses), "1", 1, "C", false, 0, "")
	}

	return output(pdf)
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
