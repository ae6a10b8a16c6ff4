// internal/game/types.go
//
// Core type definitions for the crossword game session.
// Defines:
//   - Mode: end-condition rules for a session (timed / until-mistake).
//   - Difficulty: question tier; also selects the time budget in timed mode.
//   - Status, Verdict: observable session state and answer results.
//   - Config: immutable session configuration fixed before construction.
//   - Outcome, Snapshot: the finalized result and the observable state
//     published to subscribers.

package game

import (
	"errors"
	"fmt"
	"strings"
)

// SampleSize is the maximum number of questions drawn into one session.
const SampleSize = 10

// PointsPerAnswer is awarded for every correct answer. Scores only ever
// grow in whole increments of this value.
const PointsPerAnswer = 10

// Mode governs end conditions and timer presence.
type Mode string

const (
	// ModeTimed runs against a countdown; wrong answers may be retried.
	ModeTimed Mode = "timed"
	// ModeUntilMistake has no timer; every answer advances the queue.
	ModeUntilMistake Mode = "until-mistake"
)

// Difficulty selects the question tier and, in timed mode, the time budget.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// TimeBudgetSeconds returns the initial countdown for timed sessions.
// Harder games get less time.
func (d Difficulty) TimeBudgetSeconds() int {
	switch d {
	case DifficultyHard:
		return 8 * 60
	case DifficultyMedium:
		return 10 * 60
	default:
		return 12 * 60
	}
}

// ParseMode maps an API string onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeTimed:
		return ModeTimed, nil
	case ModeUntilMistake:
		return ModeUntilMistake, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// ParseDifficulty maps an API string onto a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy, nil
	case "medium":
		return DifficultyMedium, nil
	case "hard":
		return DifficultyHard, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Status is the coarse session state.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusEnded      Status = "ended"
)

// Verdict is the result of an answer submission.
type Verdict string

const (
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
	// VerdictIgnored is returned for blank submissions, which change no
	// state at all.
	VerdictIgnored Verdict = "ignored"
)

// End reasons exposed in snapshots and outcomes.
const (
	ReasonAllAnswered = "all questions answered"
	ReasonTimeUp      = "time's up"
	ReasonNoQuestions = "no questions answered"
)

var (
	// ErrSessionEnded is returned for actions attempted after the session
	// reached its terminal state.
	ErrSessionEnded = errors.New("session has ended")
	// ErrSessionPaused is returned for answer/give-up attempts while a
	// timed session is paused.
	ErrSessionPaused = errors.New("session is paused")
)

// Config is the immutable configuration a session is constructed with.
// It is owned by the presentation shell until handoff.
type Config struct {
	Participants []string   // ordered, 1-4 names; order = turn order
	Difficulty   Difficulty
	Mode         Mode
	Category     string // question-language code ("en", "pl")
}

// Validate checks participant count, name emptiness, and enum values.
func (c Config) Validate() error {
	if len(c.Participants) < 1 || len(c.Participants) > 4 {
		return fmt.Errorf("participant count must be 1-4, got %d", len(c.Participants))
	}
	for _, name := range c.Participants {
		if strings.TrimSpace(name) == "" {
			return errors.New("participant name must not be empty")
		}
	}
	switch c.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return fmt.Errorf("unknown difficulty %q", c.Difficulty)
	}
	switch c.Mode {
	case ModeTimed, ModeUntilMistake:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	return nil
}

// RankEntry is one row of the finalized ranking.
type RankEntry struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Winner bool   `json:"winner"`
}

// Outcome is the hardened result of an ended session: stable ranking by
// score descending, the winner set (possibly empty or multiple), and the
// configuration needed to persist and report it.
type Outcome struct {
	SessionID  string         `json:"sessionId"`
	Reason     string         `json:"reason"`
	Scores     map[string]int `json:"scores"`
	Ranking    []RankEntry    `json:"ranking"`
	Winners    []string       `json:"winners"`
	Difficulty Difficulty     `json:"difficulty"`
	Mode       Mode           `json:"mode"`
}

// Snapshot is the observable state published to subscribers after every
// mutation. The shell renders from snapshots; the core never reaches into
// presentation state.
type Snapshot struct {
	ID              string         `json:"id"`
	Status          Status         `json:"status"`
	Mode            Mode           `json:"mode"`
	Difficulty      Difficulty     `json:"difficulty"`
	CurrentPlayer   string         `json:"currentPlayer,omitempty"`
	QuestionText    string         `json:"question,omitempty"`
	AnswerLength    int            `json:"answerLength,omitempty"`
	Scores          map[string]int `json:"scores"`
	Remaining       int            `json:"remaining"`
	TimeLeftSeconds int            `json:"timeLeftSeconds,omitempty"`
	Paused          bool           `json:"paused"`
	EndReason       string         `json:"endReason,omitempty"`
	Outcome         *Outcome       `json:"outcome,omitempty"`
}
