package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
)

// WSHandler runs the take-quiz view: one attempt per connection.
type WSHandler struct {
	service  *app.QuizService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	AnswerID   string `json:"answerId"`
	Included   bool   `json:"included"`
	Text       string `json:"text"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type redirectPayload struct {
	Path string `json:"path"`
}

// answerView hides correctness from the taker.
type answerView struct {
	ID   string `json:"id"`
	Text string `json:"answerText"`
}

type questionView struct {
	ID     string              `json:"id"`
	Text   string              `json:"questionText"`
	Type   domain.QuestionType `json:"questionType"`
	Points int                 `json:"points"`
	// Answers is empty for text input questions.
	Answers []answerView `json:"answers"`
}

type statePayload struct {
	domain.AttemptState
	Remaining string        `json:"remaining"`
	Question  *questionView `json:"question,omitempty"`
}

func newStatePayload(quiz domain.Quiz, state domain.AttemptState) statePayload {
	payload := statePayload{
		AttemptState: state,
		Remaining:    app.FormatRemaining(state.RemainingSeconds),
	}
	if state.CurrentIndex >= 0 && state.CurrentIndex < len(quiz.Questions) {
		q := quiz.Questions[state.CurrentIndex]
		view := questionView{ID: q.ID, Text: q.Text, Type: q.Type, Points: q.Points, Answers: []answerView{}}
		for _, a := range q.Answers {
			view.Answers = append(view.Answers, answerView{ID: a.ID, Text: a.Text})
		}
		payload.Question = &view
	}
	return payload
}

// ServeTake starts an attempt for the quiz in the path and streams its state.
// Unknown quizzes are redirected to the list view before the upgrade; the
// attempt and its countdown only start once the upgrade has succeeded.
func (h *WSHandler) ServeTake(w http.ResponseWriter, r *http.Request) {
	quizID := mux.Vars(r)["quizId"]
	if _, err := h.service.GetQuiz(r.Context(), quizID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	attempt, err := h.service.StartAttempt(r.Context(), quizID)
	if err != nil {
		// The quiz disappeared between the lookup and the start.
		h.logger.Warn("start attempt failed", zap.String("quiz_id", quizID), zap.Error(err))
		_ = conn.WriteJSON(outboundMessage[redirectPayload]{Type: "redirect", Payload: redirectPayload{Path: ListPath}})
		return
	}
	// Leaving the view for any reason discards the attempt and its countdown.
	defer attempt.Close()

	quiz := attempt.Quiz()
	updates, cancel := attempt.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: newStatePayload(quiz, update)}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	reply := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

read:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var payload answerPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid payload"}})
				continue
			}
		}
		switch inbound.Type {
		case "selectSingle":
			attempt.SelectSingle(payload.QuestionID, payload.AnswerID)
		case "toggleMultiple":
			attempt.ToggleMultiple(payload.QuestionID, payload.AnswerID, payload.Included)
		case "setText":
			attempt.SetText(payload.QuestionID, payload.Text)
		case "next":
			attempt.Next()
		case "previous":
			attempt.Previous()
		case "submit":
			attempt.Submit()
		case "close":
			attempt.Close()
			reply(outboundMessage[any]{Type: "redirect", Payload: redirectPayload{Path: ListPath}})
			break read
		default:
			reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
