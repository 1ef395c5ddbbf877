package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"timed-quiz-service/internal/domain"
)

const (
	// DefaultDurationMinutes applies to quizzes saved without a usable duration.
	DefaultDurationMinutes = 30
	// DefaultPoints applies to questions saved without a usable weight.
	DefaultPoints = 1
)

// QuizRepository reads and writes the quiz collection as a whole.
type QuizRepository interface {
	LoadAll(ctx context.Context) ([]domain.Quiz, error)
	SaveAll(ctx context.Context, quizzes []domain.Quiz) error
	FindByID(ctx context.Context, id string) (domain.Quiz, error)
}

// AttemptRepository abstracts where live attempts are registered (in-memory, Redis, etc).
type AttemptRepository interface {
	Put(attempt *Attempt)
	Get(attemptID string) (*Attempt, bool)
	Delete(attemptID string)
	Count() int
}

// AttemptObserver is notified about attempt lifecycle events. AttemptGraded
// runs on the grading goroutine after the attempt lock is released, so it may
// call back into the attempt.
type AttemptObserver interface {
	AttemptStarted(quizID string)
	AttemptGraded(state domain.AttemptState)
	AttemptClosed(quizID string)
}

type nopObserver struct{}

func (nopObserver) AttemptStarted(string) {}
func (nopObserver) AttemptGraded(domain.AttemptState) {}
func (nopObserver) AttemptClosed(string) {}

// Option customises a QuizService.
type Option func(*QuizService)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *QuizService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver sets the attempt lifecycle observer.
func WithObserver(observer AttemptObserver) Option {
	return func(s *QuizService) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// WithTicker replaces the countdown tick source and interval. Each tick counts
// as one second of the attempt, so intervals other than time.Second only make
// sense for tests.
func WithTicker(ticker TickerFunc, interval time.Duration) Option {
	return func(s *QuizService) {
		if ticker != nil {
			s.ticker = ticker
		}
		if interval > 0 {
			s.tickInterval = interval
		}
	}
}

// WithIDGenerator replaces NewID, mostly for tests.
func WithIDGenerator(newID func() string) Option {
	return func(s *QuizService) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// QuizService contains the quiz catalog and attempt use cases.
type QuizService struct {
	quizzes  QuizRepository
	attempts AttemptRepository
	observer AttemptObserver
	logger   *zap.Logger

	ticker       TickerFunc
	tickInterval time.Duration
	newID        func() string

	// writeMu serialises read-modify-write cycles on the collection.
	writeMu sync.Mutex
}

func NewQuizService(quizzes QuizRepository, attempts AttemptRepository, opts ...Option) *QuizService {
	s := &QuizService{
		quizzes:      quizzes,
		attempts:     attempts,
		observer:     nopObserver{},
		logger:       zap.NewNop(),
		ticker:       SystemTicker,
		tickInterval: time.Second,
		newID:        NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListQuizzes returns every stored quiz.
func (s *QuizService) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.quizzes.LoadAll(ctx)
}

// GetQuiz returns one quiz or domain.ErrQuizNotFound.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.FindByID(ctx, quizID)
}

// SearchQuizzes filters quizzes by a case-insensitive title substring.
// An empty term matches everything.
func (s *QuizService) SearchQuizzes(ctx context.Context, term string) ([]domain.Quiz, error) {
	quizzes, err := s.quizzes.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if term == "" {
		return quizzes, nil
	}
	needle := strings.ToLower(term)
	matches := make([]domain.Quiz, 0, len(quizzes))
	for _, quiz := range quizzes {
		if strings.Contains(strings.ToLower(quiz.Title), needle) {
			matches = append(matches, quiz)
		}
	}
	return matches, nil
}

// CreateQuiz appends a new quiz with freshly assigned ids.
func (s *QuizService) CreateQuiz(ctx context.Context, draft domain.Quiz) (domain.Quiz, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	quizzes, err := s.quizzes.LoadAll(ctx)
	if err != nil {
		return domain.Quiz{}, err
	}
	draft.ID = s.newID()
	quiz := s.normalize(draft)
	if err := s.quizzes.SaveAll(ctx, append(quizzes, quiz)); err != nil {
		return domain.Quiz{}, err
	}
	s.logger.Info("quiz created", zap.String("quiz_id", quiz.ID), zap.Int("questions", len(quiz.Questions)))
	return quiz, nil
}

// UpdateQuiz replaces the quiz stored under quizID, keeping its position.
func (s *QuizService) UpdateQuiz(ctx context.Context, quizID string, quiz domain.Quiz) (domain.Quiz, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	quizzes, err := s.quizzes.LoadAll(ctx)
	if err != nil {
		return domain.Quiz{}, err
	}
	idx := indexOfQuiz(quizzes, quizID)
	if idx < 0 {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz.ID = quizID
	quiz = s.normalize(quiz)
	quizzes[idx] = quiz
	if err := s.quizzes.SaveAll(ctx, quizzes); err != nil {
		return domain.Quiz{}, err
	}
	s.logger.Info("quiz updated", zap.String("quiz_id", quizID))
	return quiz, nil
}

// DeleteQuiz removes a quiz from the collection.
func (s *QuizService) DeleteQuiz(ctx context.Context, quizID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	quizzes, err := s.quizzes.LoadAll(ctx)
	if err != nil {
		return err
	}
	idx := indexOfQuiz(quizzes, quizID)
	if idx < 0 {
		return domain.ErrQuizNotFound
	}
	quizzes = append(quizzes[:idx], quizzes[idx+1:]...)
	if err := s.quizzes.SaveAll(ctx, quizzes); err != nil {
		return err
	}
	s.logger.Info("quiz deleted", zap.String("quiz_id", quizID))
	return nil
}

// ChangeQuestionType switches one question of a stored quiz to another type.
func (s *QuizService) ChangeQuestionType(ctx context.Context, quizID, questionID string, questionType domain.QuestionType) (domain.Quiz, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	quizzes, err := s.quizzes.LoadAll(ctx)
	if err != nil {
		return domain.Quiz{}, err
	}
	idx := indexOfQuiz(quizzes, quizID)
	if idx < 0 {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz := quizzes[idx].Clone()
	qIdx := quiz.QuestionIndex(questionID)
	if qIdx < 0 {
		return domain.Quiz{}, domain.ErrQuestionNotFound
	}
	quiz.Questions[qIdx] = quiz.Questions[qIdx].WithType(questionType, s.newID)
	quizzes[idx] = quiz
	if err := s.quizzes.SaveAll(ctx, quizzes); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// StartAttempt opens a quiz for taking and starts its countdown. Unknown quiz
// ids return domain.ErrQuizNotFound.
func (s *QuizService) StartAttempt(ctx context.Context, quizID string) (*Attempt, error) {
	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		return nil, err
	}

	attempt := NewAttempt(s.newID(), quiz)
	attempt.onGraded = func(state domain.AttemptState) {
		s.observer.AttemptGraded(state)
		s.logger.Info("attempt graded",
			zap.String("attempt_id", state.AttemptID),
			zap.String("quiz_id", state.QuizID),
			zap.String("trigger", string(state.GradedBy)),
			zap.Int("score", *state.Score),
			zap.Int("max_score", state.MaxScore))
	}
	attempt.onClose = func(a *Attempt) {
		s.attempts.Delete(a.ID())
		s.observer.AttemptClosed(quiz.ID)
		s.logger.Debug("attempt closed", zap.String("attempt_id", a.ID()))
	}
	s.attempts.Put(attempt)
	s.observer.AttemptStarted(quiz.ID)

	countdown := StartCountdown(quiz.Duration, CountdownConfig{
		Interval: s.tickInterval,
		Ticker:   s.ticker,
		OnTick:   attempt.tick,
		OnExpire: func() { attempt.TimeUp() },
	})
	attempt.attachCountdown(countdown.Stop)

	s.logger.Info("attempt started",
		zap.String("attempt_id", attempt.ID()),
		zap.String("quiz_id", quiz.ID),
		zap.Int("duration_minutes", quiz.Duration))
	return attempt, nil
}

// GetAttempt returns a live attempt.
func (s *QuizService) GetAttempt(attemptID string) (*Attempt, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

// ActiveAttempts reports how many attempts are registered.
func (s *QuizService) ActiveAttempts() int {
	return s.attempts.Count()
}

// normalize fills ids and defaults the editor may have left empty.
func (s *QuizService) normalize(quiz domain.Quiz) domain.Quiz {
	out := quiz.Clone()
	if out.Duration < 1 {
		out.Duration = DefaultDurationMinutes
	}
	if out.Questions == nil {
		out.Questions = []domain.Question{}
	}
	for i := range out.Questions {
		question := &out.Questions[i]
		if question.ID == "" {
			question.ID = s.newID()
		}
		if question.Type == "" {
			question.Type = domain.SingleChoice
		}
		if question.Points < 1 {
			question.Points = DefaultPoints
		}
		if question.Answers == nil {
			question.Answers = []domain.Answer{}
		}
		for j := range question.Answers {
			if question.Answers[j].ID == "" {
				question.Answers[j].ID = s.newID()
			}
		}
	}
	return out
}

func indexOfQuiz(quizzes []domain.Quiz, quizID string) int {
	for i := range quizzes {
		if quizzes[i].ID == quizID {
			return i
		}
	}
	return -1
}
