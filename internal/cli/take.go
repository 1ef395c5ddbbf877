package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/logging"
)

// NewTakeCmd runs one attempt in the terminal.
func NewTakeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "take <quizId>",
		Short: "Take a quiz in the terminal against its countdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Log.Level, cfg.Log.File)
			defer logger.Sync()

			b, err := openBackend(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			service := newService(b, logger, nil)
			return runTake(cmd.Context(), service, args[0], os.Stdin, cmd.OutOrStdout())
		},
	}
}

const takeHelp = `Commands: a letter picks an answer (toggles on multiple choice), any other
line answers a text question, :n next, :p previous, :s submit, :q quit.`

// runTake drives an attempt from line input. Unknown quizzes fall back to the list view.
func runTake(ctx context.Context, service *app.QuizService, quizID string, in io.Reader, out io.Writer) error {
	attempt, err := service.StartAttempt(ctx, quizID)
	if errors.Is(err, domain.ErrQuizNotFound) {
		fmt.Fprintf(out, "Quiz %s not found.\n\n", quizID)
		return runList(ctx, service, "", out)
	}
	if err != nil {
		return err
	}
	defer attempt.Close()

	updates, cancel := attempt.Subscribe()
	defer cancel()

	lines := make(chan string)
	finished := make(chan struct{})
	defer close(finished)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-finished:
				return
			}
		}
	}()

	quiz := attempt.Quiz()
	fmt.Fprintf(out, "%s (%d questions, %d min)\n%s\n", quiz.Title, len(quiz.Questions), quiz.Duration, takeHelp)
	printCurrent(out, quiz, attempt.State())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case state, ok := <-updates:
			if !ok {
				return nil
			}
			if state.Phase == domain.PhaseGraded {
				printResult(out, state)
				return nil
			}
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out, "Input closed, attempt discarded.")
				return nil
			}
			state, quit := applyLine(attempt, line)
			if quit {
				fmt.Fprintln(out, "Attempt discarded.")
				return nil
			}
			if state.Phase == domain.PhaseGraded {
				printResult(out, state)
				return nil
			}
			printCurrent(out, quiz, state)
		}
	}
}

func applyLine(attempt *app.Attempt, line string) (domain.AttemptState, bool) {
	switch strings.TrimSpace(line) {
	case ":n":
		state, _ := attempt.Next()
		return state, false
	case ":p":
		state, _ := attempt.Previous()
		return state, false
	case ":s":
		state, _ := attempt.Submit()
		return state, false
	case ":q":
		return attempt.State(), true
	}

	question, ok := attempt.CurrentQuestion()
	if !ok {
		return attempt.State(), false
	}
	if question.Type == domain.TextInput {
		state, _ := attempt.SetText(question.ID, line)
		return state, false
	}

	idx, ok := letterIndex(line, len(question.Answers))
	if !ok {
		return attempt.State(), false
	}
	answerID := question.Answers[idx].ID
	if question.Type == domain.MultipleChoice {
		selected := containsID(attempt.State().Selections[question.ID], answerID)
		state, _ := attempt.ToggleMultiple(question.ID, answerID, !selected)
		return state, false
	}
	state, _ := attempt.SelectSingle(question.ID, answerID)
	return state, false
}

func printCurrent(out io.Writer, quiz domain.Quiz, state domain.AttemptState) {
	if state.CurrentIndex >= len(quiz.Questions) {
		fmt.Fprintf(out, "\nNo questions. Time left %s. :s to submit.\n", app.FormatRemaining(state.RemainingSeconds))
		return
	}
	q := quiz.Questions[state.CurrentIndex]
	fmt.Fprintf(out, "\n[%s left] Q%d/%d (%d pts): %s\n",
		app.FormatRemaining(state.RemainingSeconds), state.CurrentIndex+1, len(quiz.Questions), q.Points, q.Text)
	if q.Type == domain.TextInput {
		if text, ok := state.TextResponses[q.ID]; ok {
			fmt.Fprintf(out, "   answer: %s\n", text)
		}
		return
	}
	selected := state.Selections[q.ID]
	for i, a := range q.Answers {
		mark := " "
		if containsID(selected, a.ID) {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %c. %s\n", mark, 'A'+i, a.Text)
	}
}

func printResult(out io.Writer, state domain.AttemptState) {
	if state.GradedBy == domain.TriggerTimeUp {
		fmt.Fprintln(out, "\nTime is up!")
	}
	fmt.Fprintf(out, "\nScore: %d/%d\n", *state.Score, state.MaxScore)
}

func letterIndex(line string, count int) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(line))
	if len(s) != 1 || count < 1 {
		return -1, false
	}
	idx := int(s[0]) - 'A'
	if idx < 0 || idx >= count {
		return -1, false
	}
	return idx, true
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
