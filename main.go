package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/study-helper/internal/app"
	"github.com/RubachokBoss/study-helper/internal/config"
	"github.com/RubachokBoss/study-helper/internal/database"
	"github.com/RubachokBoss/study-helper/internal/models"
	"github.com/RubachokBoss/study-helper/internal/service"
	"github.com/RubachokBoss/study-helper/pkg/logger"
)

const usage = `usage: studyhelper <command> [flags]

commands:
  serve     run the companion HTTP server (default)
  upload    upload an image and wait for processing
  status    poll a document until it reaches a terminal status
  retry     retry processing of a failed document
  recent    list recently uploaded documents
  analysis  show the analysis or a summary of a document
  delete    delete a document and its local exports
  quiz      load or generate a quiz for a document
  export    export a document as PDF
  purge     drop local export history and archived files
  migrate   apply or roll back export history migrations
`

func main() {
	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.NewWithConfig(cfg.Logging.Level, cfg.Logging.Pretty, cfg.Logging.NoColor)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "serve":
		err = runServe(ctx, cfg, log)
	case "upload":
		err = runUpload(ctx, cfg, log, args)
	case "status":
		err = runStatus(ctx, cfg, log, args)
	case "retry":
		err = runRetry(ctx, cfg, log, args)
	case "recent":
		err = runRecent(ctx, cfg, log, args)
	case "analysis":
		err = runAnalysis(ctx, cfg, log, args)
	case "delete":
		err = runDelete(ctx, cfg, log, args)
	case "quiz":
		err = runQuiz(ctx, cfg, log, args)
	case "export":
		err = runExport(ctx, cfg, log, args)
	case "purge":
		err = runPurge(ctx, cfg, log, args)
	case "migrate":
		err = runMigrations(ctx, cfg, log, args)
	case "help", "-h", "--help":
		fmt.Fprint(os.Stderr, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Error().Err(err).Str("command", cmd).Msg("Command failed")
		os.Exit(1)
	}
}

func runServe(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Run()
	}()

	log.Info().
		Str("address", cfg.Server.Address).
		Str("backend", cfg.API.BaseURL).
		Msg("Study helper started")

	select {
	case err := <-errCh:
		application.Close()
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down study helper...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown gracefully")
	}

	log.Info().Msg("Study helper stopped")
	return nil
}

func runUpload(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string) error {
	uploadCmd := flag.NewFlagSet("upload", flag.ExitOnError)
	path := uploadCmd.String("file", "", "path to the image to upload")
	prompt := uploadCmd.String("prompt", "", "what to do with the document")
	uploadCmd.Parse(args)

	if *path == "" {
		return errors.New("-file is required")
	}
	data, err := os.ReadFile(*path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer application.Close()

	lastProgress := -1
	unsubscribe := application.Upload().Subscribe(func(s service.UploadSnapshot) {
		if s.State == service.UploadUploading && s.Progress != lastProgress {
			lastProgress = s.Progress
			log.Info().Int("progress", s.Progress).Msg("Uploading")
			return
		}
		if s.Polling {
			log.Info().Str("state", string(s.State)).Int("attempt", s.Attempts).Msg("Processing")
		}
	})
	defer unsubscribe()

	doc, err := application.Upload().Upload(ctx, models.UploadFile{
		Name: filepath.Base(*path),
		Data: data,
	}, *prompt)
	if err != nil {
		return err
	}
	return printJSON(doc)
}

func runStatus(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string) error {
	statusCmd := flag.NewFlagSet("status", flag.ExitOnError)
	id := statusCmd.String("id", "", "document id")
	statusCmd.Parse(args)

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer application.Close()

	doc, err := application.Upload().PollStatus(ctx, *id)
	if err != nil {
		return err
	}
	return printJSON(doc)
}

func runRetry(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string) error {
	retryCmd := flag.NewFlagSet("retry", flag.ExitOnError)
	id := retryCmd.String("id", "", "document id")
	retryCmd.Parse(args)

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer application.Close()

	doc, err := application.Upload().Retry(ctx, *id)
	if err != nil {
		return err
	}
	return printJSON(doc)
}

func runRecent(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string) error {
	recentCmd := flag.NewFlagSet("recent", flag.ExitOnError)
	limit := recentCmd.Int("limit", 10, "maximum number of documents")
	recentCmd.Parse(args)

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer application.Close()

	docs, err := application.Documents().Recent(ctx, *limit)
	if err != nil {
		return err
	}
	return printJSON(docs)
}

func runAnalysis(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string) error {
	analysisCmd := flag.NewFlagSet("analysis", flag.ExitOnError)
	id := analysisCmd.String("id", "", "document id")
	summary := analysisCmd.String("summary", "", "print only a summary of this length (short, medium, long)")
	analysisCmd.Parse(args)

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer application.Close()

	if *summary != "" {
		s, err := application.Documents().Summary(ctx, *id, *summary)
		if err != nil {
			return err
		}
		return printJSON(s)
	}

	doc, err := application.Documents().Analysis(ctx, *id)
	if err != nil {
		return err
	}
	return printJSON(doc)
}

func runDelete(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string) error {
	deleteCmd := flag.NewFlagSet("delete", flag.ExitOnError)
	id := deleteCmd.String("id", "", "document id")
	deleteCmd.Parse(args)

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer application.Close()

	return application.Documents().Delete(ctx, *id)
}

func runPurge(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string) error {
	purgeCmd := flag.NewFlagSet("purge", flag.ExitOnError)
	ids := purgeCmd.String("ids", "", "comma separated document ids")
	all := purgeCmd.Bool("all", false, "purge exports of every document")
	purgeCmd.Parse(args)

	documentIDs := splitList(*ids)
	if len(documentIDs) == 0 && !*all {
		return errors.New("-ids or -all is required")
	}
	if *all {
		documentIDs = nil
	}

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer application.Close()

	n, err := application.Export().Purge(ctx, documentIDs...)
	if err != nil {
		return err
	}
	log.Info().Int("exports", n).Msg("Local exports purged")
	return nil
}

func runQuiz(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string) error {
	quizCmd := flag.NewFlagSet("quiz", flag.ExitOnError)
	id := quizCmd.String("id", "", "document id")
	generate := quizCmd.Bool("generate", false, "generate a custom quiz instead of loading the stored one")
	difficulty := quizCmd.String("difficulty", "", "difficulty (easy, medium, hard, mixed)")
	count := quizCmd.Int("count", 0, "number of questions")
	types := quizCmd.String("types", "", "comma separated question types")
	topics := quizCmd.String("topics", "", "comma separated focus topics")
	quizCmd.Parse(args)

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer application.Close()

	var questions []models.QuizQuestion
	if *generate {
		questions, err = application.Quiz().Generate(ctx, *id, models.GenerateQuizOptions{
			Difficulty:    *difficulty,
			QuestionCount: *count,
			QuestionTypes: splitList(*types),
			FocusTopics:   splitList(*topics),
		})
	} else {
		questions, err = application.Quiz().Load(ctx, *id, models.QuizFilters{
			Difficulty:   *difficulty,
			QuestionType: *types,
			Count:        *count,
		})
	}
	if err != nil {
		return err
	}
	return printJSON(questions)
}

func runExport(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string) error {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	id := exportCmd.String("id", "", "document id")
	exportType := exportCmd.String("type", string(models.ExportAnalysis), "analysis, quiz, flashcards or summary")
	out := exportCmd.String("out", "", "write the PDF to this directory")
	exportCmd.Parse(args)

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer application.Close()

	result, err := application.Export().Export(ctx, *id, *exportType, models.ExportOptions{})
	if err != nil {
		return err
	}

	if *out != "" {
		file, err := application.Export().Download(ctx, result.Filename)
		if err != nil {
			return err
		}
		target := filepath.Join(*out, filepath.Base(file.Filename))
		if err := os.WriteFile(target, file.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		log.Info().Str("path", target).Msg("Export saved")
	}

	return printJSON(result)
}

func runMigrations(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string) error {
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	direction := migrateCmd.String("direction", "up", "direction of migration (up/down)")
	migrateCmd.Parse(args)

	if !cfg.Database.Enabled() {
		return errors.New("database.host is not configured")
	}

	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db, cfg.Database.MigrationsPath, log)
	if err != nil {
		return err
	}
	defer migrator.Close()

	switch *direction {
	case "up":
		return migrator.Up()
	case "down":
		return migrator.Down()
	default:
		return fmt.Errorf("invalid migration direction %q, use 'up' or 'down'", *direction)
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
