// internal/question/question.go
//
// Question catalog types and seed loading.
//
// Responsibilities:
//   - Define the immutable catalog entry (clue, answer, difficulty, category).
//   - Parse seed files (JSON array) into catalog entries.
//   - Fall back to a small embedded seed so the game runs without any
//     external question file configured.
//
// Categories are question-language codes ("en", "pl"). Difficulties are
// "Easy", "Medium", "Hard".

package question

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Question is an immutable catalog entry. Entries are created by bulk
// import and never mutated or deleted.
type Question struct {
	Text       string `json:"question"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty"`
	Category   string `json:"category"`
}

//go:embed seed/default_questions.json
var embeddedSeed []byte

// LoadSeed reads questions from path, or from the embedded default seed
// when path is empty.
func LoadSeed(path string) ([]Question, error) {
	data := embeddedSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed %s: %w", path, err)
		}
		data = b
	}
	return parseSeed(data)
}

// parseSeed decodes a JSON array of questions, dropping entries with any
// blank field.
func parseSeed(data []byte) ([]Question, error) {
	var raw []Question
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	out := make([]Question, 0, len(raw))
	for _, q := range raw {
		if strings.TrimSpace(q.Text) == "" || strings.TrimSpace(q.Answer) == "" ||
			strings.TrimSpace(q.Difficulty) == "" || strings.TrimSpace(q.Category) == "" {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}
