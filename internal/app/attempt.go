package app

import (
	"sync"
	"time"

	"timed-quiz-service/internal/domain"
)

// Attempt is one pass through a quiz. It starts in progress at the first
// question and is graded exactly once, by Submit or by TimeUp, whichever
// arrives first. Rejected transitions are no-ops that report false.
type Attempt struct {
	id        string
	quiz      domain.Quiz
	maxScore  int
	startedAt time.Time

	mu            sync.RWMutex
	phase         domain.Phase
	currentIndex  int
	selections    map[string][]string
	textResponses map[string]string
	remaining     int
	score         int
	gradedBy      domain.GradeTrigger
	closed        bool
	subscribers   map[chan domain.AttemptState]struct{}
	onGraded      func(domain.AttemptState)
	onClose       func(*Attempt)

	timerMu   sync.Mutex
	stopTimer func()
}

// NewAttempt creates an in-progress attempt over a snapshot of quiz.
func NewAttempt(id string, quiz domain.Quiz) *Attempt {
	return NewAttemptWithClock(id, quiz, time.Now)
}

// NewAttemptWithClock allows deterministic timestamps in tests.
func NewAttemptWithClock(id string, quiz domain.Quiz, now func() time.Time) *Attempt {
	snapshot := quiz.Clone()
	return &Attempt{
		id:            id,
		quiz:          snapshot,
		maxScore:      MaxScore(snapshot),
		startedAt:     now(),
		phase:         domain.PhaseInProgress,
		selections:    make(map[string][]string),
		textResponses: make(map[string]string),
		remaining:     snapshot.Duration * 60,
		subscribers:   make(map[chan domain.AttemptState]struct{}),
	}
}

// ID returns the attempt id.
func (a *Attempt) ID() string {
	return a.id
}

// Quiz returns a copy of the quiz the attempt runs over.
func (a *Attempt) Quiz() domain.Quiz {
	return a.quiz.Clone()
}

// StartedAt is when the attempt was created.
func (a *Attempt) StartedAt() time.Time {
	return a.startedAt
}

// State returns the current snapshot.
func (a *Attempt) State() domain.AttemptState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshotLocked()
}

// CurrentScore reports the recorded score once the attempt is graded.
func (a *Attempt) CurrentScore() (int, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.phase != domain.PhaseGraded {
		return 0, false
	}
	return a.score, true
}

// CurrentQuestion returns the question under the pointer.
func (a *Attempt) CurrentQuestion() (domain.Question, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.currentIndex < 0 || a.currentIndex >= len(a.quiz.Questions) {
		return domain.Question{}, false
	}
	return a.quiz.Questions[a.currentIndex], true
}

// SelectSingle replaces the selection of a single-choice question with answerID.
func (a *Attempt) SelectSingle(questionID, answerID string) (domain.AttemptState, bool) {
	return a.answer(questionID, domain.SingleChoice, func() {
		a.selections[questionID] = []string{answerID}
	})
}

// ToggleMultiple adds or removes answerID from the selection set of a
// multiple-choice question.
func (a *Attempt) ToggleMultiple(questionID, answerID string, included bool) (domain.AttemptState, bool) {
	return a.answer(questionID, domain.MultipleChoice, func() {
		current := a.selections[questionID]
		pos := indexOf(current, answerID)
		switch {
		case included && pos < 0:
			a.selections[questionID] = append(append([]string(nil), current...), answerID)
		case !included && pos >= 0:
			next := make([]string, 0, len(current)-1)
			next = append(next, current[:pos]...)
			a.selections[questionID] = append(next, current[pos+1:]...)
		}
	})
}

// SetText overwrites the response of a text-input question.
func (a *Attempt) SetText(questionID, text string) (domain.AttemptState, bool) {
	return a.answer(questionID, domain.TextInput, func() {
		a.textResponses[questionID] = text
	})
}

// Next moves to the following question; it never wraps.
func (a *Attempt) Next() (domain.AttemptState, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.acceptingLocked() || a.currentIndex >= len(a.quiz.Questions)-1 {
		return a.snapshotLocked(), false
	}
	a.currentIndex++
	return a.broadcastLocked(), true
}

// Previous moves to the preceding question.
func (a *Attempt) Previous() (domain.AttemptState, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.acceptingLocked() || a.currentIndex <= 0 {
		return a.snapshotLocked(), false
	}
	a.currentIndex--
	return a.broadcastLocked(), true
}

// Submit grades every question, wherever the pointer is, and cancels the countdown.
func (a *Attempt) Submit() (domain.AttemptState, bool) {
	state, ok := a.grade(domain.TriggerSubmit)
	if ok {
		a.stopCountdown()
	}
	return state, ok
}

// TimeUp grades the attempt on countdown expiry.
func (a *Attempt) TimeUp() (domain.AttemptState, bool) {
	return a.grade(domain.TriggerTimeUp)
}

// Close discards the attempt: the countdown is cancelled, subscribers are
// released and the owner is notified. Close is idempotent.
func (a *Attempt) Close() {
	// The countdown must be stopped without holding mu: a tick callback in
	// flight needs mu to finish.
	a.stopCountdown()

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	for ch := range a.subscribers {
		delete(a.subscribers, ch)
		close(ch)
	}
	hook := a.onClose
	a.mu.Unlock()

	if hook != nil {
		hook(a)
	}
}

// Subscribe returns a channel of snapshots, primed with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (a *Attempt) Subscribe() (<-chan domain.AttemptState, func()) {
	ch := make(chan domain.AttemptState, 8)

	a.mu.Lock()
	if a.closed {
		ch <- a.snapshotLocked()
		close(ch)
		a.mu.Unlock()
		return ch, func() {}
	}
	a.subscribers[ch] = struct{}{}
	ch <- a.snapshotLocked()
	a.mu.Unlock()

	cancel := func() {
		a.mu.Lock()
		if _, ok := a.subscribers[ch]; ok {
			delete(a.subscribers, ch)
			close(ch)
		}
		a.mu.Unlock()
	}
	return ch, cancel
}

// tick records the remaining countdown seconds.
func (a *Attempt) tick(remaining int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.acceptingLocked() {
		return
	}
	a.remaining = remaining
	a.broadcastLocked()
}

// attachCountdown registers the disposer of the attempt's countdown.
func (a *Attempt) attachCountdown(stop func()) {
	a.mu.RLock()
	finished := a.closed || a.phase == domain.PhaseGraded
	a.mu.RUnlock()
	if finished {
		stop()
		return
	}
	a.timerMu.Lock()
	a.stopTimer = stop
	a.timerMu.Unlock()
}

func (a *Attempt) stopCountdown() {
	a.timerMu.Lock()
	stop := a.stopTimer
	a.stopTimer = nil
	a.timerMu.Unlock()
	if stop != nil {
		stop()
	}
}

func (a *Attempt) grade(trigger domain.GradeTrigger) (domain.AttemptState, bool) {
	a.mu.Lock()
	if !a.acceptingLocked() {
		state := a.snapshotLocked()
		a.mu.Unlock()
		return state, false
	}
	a.score = Score(a.quiz, a.selections, a.textResponses)
	a.phase = domain.PhaseGraded
	a.gradedBy = trigger
	if trigger == domain.TriggerTimeUp {
		a.remaining = 0
	}
	state := a.broadcastLocked()
	hook := a.onGraded
	a.mu.Unlock()

	if hook != nil {
		hook(state)
	}
	return state, true
}

// answer applies a mutation only when questionID names a question of the
// given type; anything else is a rejected no-op.
func (a *Attempt) answer(questionID string, questionType domain.QuestionType, apply func()) (domain.AttemptState, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.quiz.QuestionIndex(questionID)
	if !a.acceptingLocked() || idx < 0 || a.quiz.Questions[idx].Type != questionType {
		return a.snapshotLocked(), false
	}
	apply()
	return a.broadcastLocked(), true
}

func (a *Attempt) acceptingLocked() bool {
	return !a.closed && a.phase == domain.PhaseInProgress
}

func (a *Attempt) broadcastLocked() domain.AttemptState {
	state := a.snapshotLocked()
	for ch := range a.subscribers {
		select {
		case ch <- state:
		default:
			// Slow reader: replace its oldest snapshot with the newest.
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
	return state
}

func (a *Attempt) snapshotLocked() domain.AttemptState {
	selections := make(map[string][]string, len(a.selections))
	for id, ids := range a.selections {
		selections[id] = append([]string(nil), ids...)
	}
	texts := make(map[string]string, len(a.textResponses))
	for id, text := range a.textResponses {
		texts[id] = text
	}

	state := domain.AttemptState{
		AttemptID:        a.id,
		QuizID:           a.quiz.ID,
		Title:            a.quiz.Title,
		Phase:            a.phase,
		CurrentIndex:     a.currentIndex,
		QuestionCount:    len(a.quiz.Questions),
		RemainingSeconds: a.remaining,
		Selections:       selections,
		TextResponses:    texts,
		MaxScore:         a.maxScore,
		GradedBy:         a.gradedBy,
		Closed:           a.closed,
	}
	if a.phase == domain.PhaseGraded {
		score := a.score
		state.Score = &score
	}
	return state
}

func indexOf(ids []string, id string) int {
	for i, candidate := range ids {
		if candidate == id {
			return i
		}
	}
	return -1
}
