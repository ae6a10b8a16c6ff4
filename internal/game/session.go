// internal/game/session.go
//
// Session state machine for a single crossword game.
// Responsibilities:
//   - Own the live aggregate: question queue, turn rotation, scores,
//     countdown, pause state.
//   - Drive transitions: answer/give-up advance the queue, the timer ends
//     timed games, the queue running dry ends every game.
//   - Finalize exactly once into an Outcome (stable ranking + winner set).
//   - Publish snapshots to subscribers after every mutation.
//
// All mutations are serialized by the session mutex, so the machine is
// safe to drive from both the shell's request handlers and the timer
// goroutine.

package game

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/idziarhai/crossword/internal/question"
)

// Session holds one in-progress or ended game. Construct with New; a
// Session is destroyed by Close once its outcome has been consumed.
type Session struct {
	mu sync.Mutex

	id  string
	cfg Config

	scores   map[string]int
	queue    []question.Question
	current  *question.Question
	turn     int // index into cfg.Participants
	paused   bool
	timeLeft int // seconds, timed mode only
	status   Status

	endReason string
	outcome   *Outcome

	timerOn bool
	stopped bool
	done    chan struct{}

	subs map[chan Snapshot]struct{}
}

// New constructs a session from a fixed configuration and a pre-drawn
// question sample. If the sample is empty the session is already Ended
// with reason "no questions answered" when New returns.
func New(cfg Config, questions []question.Question) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		id:     uuid.NewString(),
		cfg:    cfg,
		scores: make(map[string]int, len(cfg.Participants)),
		status: StatusInProgress,
		done:   make(chan struct{}),
		subs:   make(map[chan Snapshot]struct{}),
	}
	for _, name := range cfg.Participants {
		s.scores[name] = 0
	}
	if cfg.Mode == ModeTimed {
		s.timeLeft = cfg.Difficulty.TimeBudgetSeconds()
	}

	if len(questions) == 0 {
		s.endLocked(ReasonNoQuestions)
		return s, nil
	}
	s.current = &questions[0]
	s.queue = questions[1:]
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// SubmitAnswer checks text against the current question.
//
// Blank input after trimming is a no-op and returns VerdictIgnored.
// Comparison is a case-insensitive exact match. A correct answer awards
// points to the current participant and advances; an incorrect answer
// advances only in until-mistake mode. Under the timer the participant
// keeps retrying the same question.
func (s *Session) SubmitAnswer(text string) (Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusEnded {
		return "", ErrSessionEnded
	}
	if s.cfg.Mode == ModeTimed && s.paused {
		return "", ErrSessionPaused
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return VerdictIgnored, nil
	}

	if strings.EqualFold(text, s.current.Answer) {
		s.scores[s.cfg.Participants[s.turn]] += PointsPerAnswer
		s.advanceLocked()
		s.broadcastLocked()
		return VerdictCorrect, nil
	}

	if s.cfg.Mode == ModeUntilMistake {
		s.advanceLocked()
	}
	s.broadcastLocked()
	return VerdictIncorrect, nil
}

// GiveUp skips the current question without awarding points. It advances
// in both modes.
func (s *Session) GiveUp() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusEnded {
		return ErrSessionEnded
	}
	if s.cfg.Mode == ModeTimed && s.paused {
		return ErrSessionPaused
	}

	s.advanceLocked()
	s.broadcastLocked()
	return nil
}

// advanceLocked pops the next question, or ends the session when the
// queue is empty. Turn rotation happens only in multi-participant games
// and only when there is a next question to rotate onto.
func (s *Session) advanceLocked() {
	if len(s.queue) == 0 {
		s.endLocked(ReasonAllAnswered)
		return
	}
	s.current = &s.queue[0]
	s.queue = s.queue[1:]
	if len(s.cfg.Participants) > 1 {
		s.turn = (s.turn + 1) % len(s.cfg.Participants)
	}
}

// Tick advances the countdown by one second. It is a no-op outside timed
// mode, after the session ended, and while paused (no time is charged
// while paused). Reaching zero ends the session even mid-question.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Mode != ModeTimed || s.status == StatusEnded || s.paused {
		return
	}
	s.timeLeft--
	if s.timeLeft <= 0 {
		s.timeLeft = 0
		s.endLocked(ReasonTimeUp)
	}
	s.broadcastLocked()
}

// TogglePause flips the pause state. Outside timed mode it fails silently.
// Pausing suspends the countdown and disables SubmitAnswer/GiveUp.
func (s *Session) TogglePause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Mode != ModeTimed || s.status == StatusEnded {
		return
	}
	s.paused = !s.paused
	s.broadcastLocked()
}

// endLocked transitions to Ended exactly once: it stops the timer and
// hardens the outcome. The session is immutable afterwards.
func (s *Session) endLocked(reason string) {
	if s.status == StatusEnded {
		return
	}
	s.status = StatusEnded
	s.endReason = reason
	s.current = nil
	s.stopLocked()
	s.outcome = s.finalizeLocked()
}

// finalizeLocked computes the stable ranking and winner set. A participant
// wins iff their score equals the maximum and the maximum is positive, so
// the winner set is empty exactly when nobody scored.
func (s *Session) finalizeLocked() *Outcome {
	maxScore := 0
	for _, sc := range s.scores {
		if sc > maxScore {
			maxScore = sc
		}
	}

	ranking := make([]RankEntry, 0, len(s.cfg.Participants))
	for _, name := range s.cfg.Participants {
		ranking = append(ranking, RankEntry{Name: name, Score: s.scores[name]})
	}
	// Stable: ties keep participant order.
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Score > ranking[j].Score
	})

	var winners []string
	for i := range ranking {
		if ranking[i].Score == maxScore && maxScore > 0 {
			ranking[i].Winner = true
			winners = append(winners, ranking[i].Name)
		}
	}

	scores := make(map[string]int, len(s.scores))
	for name, sc := range s.scores {
		scores[name] = sc
	}

	return &Outcome{
		SessionID:  s.id,
		Reason:     s.endReason,
		Scores:     scores,
		Ranking:    ranking,
		Winners:    winners,
		Difficulty: s.cfg.Difficulty,
		Mode:       s.cfg.Mode,
	}
}

// Outcome returns the finalized outcome, or nil while the session is in
// progress.
func (s *Session) Outcome() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// ------------------------------ timer ---------------------------------

// StartTimer begins the once-per-second countdown goroutine. It only
// applies to in-progress timed sessions and is idempotent. The goroutine
// exits when the session ends or is closed.
func (s *Session) StartTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.Mode != ModeTimed || s.status != StatusInProgress || s.timerOn || s.stopped {
		return
	}
	s.timerOn = true
	go s.runTimer()
}

func (s *Session) runTimer() {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.Tick()
		case <-s.done:
			return
		}
	}
}

// stopLocked cancels the pending timer goroutine, once.
func (s *Session) stopLocked() {
	if !s.stopped {
		s.stopped = true
		close(s.done)
	}
}

// Close abandons the session: the timer is cancelled, subscribers are
// released, and no outcome is finalized. Used when the user returns to
// the menu mid-game.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	for ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}

// ---------------------------- observation -----------------------------

// Snapshot returns the current observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every state
// change. The caller must invoke cancel to avoid leaks.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	s.mu.Lock()
	if s.subs == nil {
		// Session already closed; hand back a drained channel.
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// broadcastLocked pushes the current snapshot to every subscriber,
// dropping the oldest buffered snapshot for slow consumers rather than
// blocking the state machine.
func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:         s.id,
		Status:     s.status,
		Mode:       s.cfg.Mode,
		Difficulty: s.cfg.Difficulty,
		Remaining:  len(s.queue),
		Paused:     s.paused,
		EndReason:  s.endReason,
		Outcome:    s.outcome,
	}
	snap.Scores = make(map[string]int, len(s.scores))
	for name, sc := range s.scores {
		snap.Scores[name] = sc
	}
	if s.status == StatusInProgress {
		snap.CurrentPlayer = s.cfg.Participants[s.turn]
		snap.QuestionText = s.current.Text
		snap.AnswerLength = len([]rune(s.current.Answer))
	}
	if s.cfg.Mode == ModeTimed {
		snap.TimeLeftSeconds = s.timeLeft
	}
	return snap
}
