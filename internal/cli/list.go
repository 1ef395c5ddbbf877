package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/logging"
)

// NewListCmd prints stored quizzes.
func NewListCmd(configPath *string) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quizzes, optionally filtered by title",
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

			return runList(cmd.Context(), newService(b, logger, nil), search, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive title filter")
	return cmd
}

func runList(ctx context.Context, service *app.QuizService, search string, out io.Writer) error {
	quizzes, err := service.SearchQuizzes(ctx, search)
	if err != nil {
		return err
	}
	if len(quizzes) == 0 {
		fmt.Fprintln(out, "No quizzes.")
		return nil
	}
	for _, quiz := range quizzes {
		fmt.Fprintf(out, "%s  %s (%d questions, %d min)\n", quiz.ID, quiz.Title, len(quiz.Questions), quiz.Duration)
	}
	return nil
}
