package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"quiz-testing-service/internal/app"
	"quiz-testing-service/internal/config"
	"quiz-testing-service/internal/logger"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type importOptions struct {
	file         string
	title        string
	description  string
	timeLimit    int
	creatorEmail string
}

// NewImportCmd creates a test from a question CSV file.
func NewImportCmd(configPath *string) *cobra.Command {
	opts := importOptions{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create a test from a question CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), *configPath, opts)
		},
	}
	cmd.Flags().StringVar(&opts.file, "file", "", "path to the question CSV")
	cmd.Flags().StringVar(&opts.title, "title", "", "test title")
	cmd.Flags().StringVar(&opts.description, "description", "", "test description")
	cmd.Flags().IntVar(&opts.timeLimit, "time-limit", 30, "time limit in minutes")
	cmd.Flags().StringVar(&opts.creatorEmail, "creator", "", "email of the admin account that owns the test")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("creator")
	return cmd
}

func runImport(ctx context.Context, configPath string, opts importOptions) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured; import needs persistent storage")
	}

	f, err := os.Open(opts.file)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	creator, err := b.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(opts.creatorEmail)))
	if err != nil {
		return fmt.Errorf("creator %s: %w", opts.creatorEmail, err)
	}
	if !creator.IsAdmin {
		return fmt.Errorf("creator %s is not an admin", opts.creatorEmail)
	}

	description := opts.description
	if description == "" {
		description = opts.title
	}
	catalog := app.NewCatalogService(b.store, b.tests, b.store, b.tests)
	test, report, err := catalog.Import(ctx, app.ImportInput{
		Title:       opts.title,
		Description: description,
		TimeLimit:   opts.timeLimit,
		CreatedBy:   creator.ID,
		CSV:         f,
	})
	if report != nil {
		for _, rowErr := range report.Errors {
			log.Warn().Int("row", rowErr.Row).Str("error", rowErr.Error).Msg("rejected row")
		}
	}
	if err != nil {
		return err
	}
	log.Info().Str("testID", test.ID).Int("questions", len(test.Questions)).Msg("test imported")
	return nil
}
