package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/study-helper/internal/config"
	"github.com/RubachokBoss/study-helper/internal/database"
	"github.com/RubachokBoss/study-helper/internal/delivery/httpd"
	"github.com/RubachokBoss/study-helper/internal/middleware"
	"github.com/RubachokBoss/study-helper/internal/proxy"
	"github.com/RubachokBoss/study-helper/internal/repository"
	"github.com/RubachokBoss/study-helper/internal/server"
	"github.com/RubachokBoss/study-helper/internal/service"
	"github.com/RubachokBoss/study-helper/internal/service/integration"
	"github.com/RubachokBoss/study-helper/internal/service/storage"
	"github.com/RubachokBoss/study-helper/internal/store"
)

type App struct {
	config *config.Config
	logger zerolog.Logger

	db       *sql.DB
	notifier integration.StatusNotifier
	server   *server.Server

	store     *store.Store
	upload    *service.UploadController
	quiz      *service.QuizController
	chat      *service.ChatController
	export    *service.ExportService
	videos    *service.VideoService
	documents *service.DocumentService
}

// New wires the backend clients, controllers and the companion server.
// Optional infrastructure (database, MinIO, RabbitMQ) is only connected when
// configured; RabbitMQ and MinIO failures degrade to no-ops.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{
		config: cfg,
		logger: log,
		store:  store.New(),
	}

	httpClient := integration.NewHTTPClient(cfg.API.MaxIdleConns, cfg.API.IdleConnTimeout)
	gw := integration.NewGateway(cfg.API.BaseURL, httpClient, log)

	policy, err := service.NewUploadPolicy(cfg.Upload)
	if err != nil {
		return nil, err
	}

	a.notifier = a.newNotifier()

	history, err := a.newHistoryRepository(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.upload = service.NewUploadController(
		integration.NewUploadClient(gw, log),
		policy,
		cfg.Polling,
		cfg.Upload.ProcessType,
		a.store,
		a.notifier,
		log,
	)
	a.quiz = service.NewQuizController(integration.NewAnalysisClient(gw, log), cfg.Quiz, log)
	a.chat = service.NewChatController(integration.NewChatClient(gw, log), cfg.Chat, a.store, log)
	a.export = service.NewExportService(integration.NewExportClient(gw, log), history, a.newSink(), log)
	a.videos = service.NewVideoService(integration.NewVideoClient(gw, log), log)
	a.documents = service.NewDocumentService(
		integration.NewUploadClient(gw, log),
		integration.NewAnalysisClient(gw, log),
		a.export,
		a.store,
		log,
	)

	apiProxy, err := proxy.NewProxy(cfg.API.BaseURL, "/api", log)
	if err != nil {
		a.Close()
		return nil, err
	}

	handler := httpd.NewHandler(a.store, a.upload, a.quiz, a.chat, a.export, a.videos, a.documents, cfg.Upload.MaxFileSize, log)
	router := chi.NewRouter()

	a.server = server.NewServer(cfg.Server, router, log)
	a.server.SetupMiddleware(
		middleware.RequestID,
		middleware.NewCORS(cfg.CORS),
		middleware.RequestLogger(log),
		middleware.Recovery(log),
	)

	// routes go on the inner router after the middleware chain is set
	handler.RegisterRoutes(router, apiProxy)

	return a, nil
}

func (a *App) newNotifier() integration.StatusNotifier {
	if !a.config.RabbitMQ.Enabled() {
		return integration.NewNopNotifier()
	}

	notifier, err := integration.NewRabbitMQNotifier(
		a.config.RabbitMQ.URL,
		a.config.RabbitMQ.Exchange,
		a.config.RabbitMQ.RoutingKey,
		a.logger,
	)
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to create RabbitMQ notifier, status events disabled")
		return integration.NewNopNotifier()
	}
	return notifier
}

func (a *App) newHistoryRepository(ctx context.Context) (repository.ExportHistoryRepository, error) {
	if !a.config.Database.Enabled() {
		a.logger.Info().Msg("No database configured, export history kept in memory")
		return repository.NewMemoryExportRepository(), nil
	}

	db, err := database.NewPostgres(ctx, a.config.Database, a.logger)
	if err != nil {
		return nil, err
	}
	a.db = db

	repo := repository.NewExportRepository(db, a.logger)
	if err := repo.Ping(ctx); err != nil {
		if !errors.Is(err, repository.ErrSchemaMissing) {
			return nil, fmt.Errorf("failed to check export history: %w", err)
		}
		a.logger.Warn().Err(err).Msg("Export history table missing, run the migrate command")
	}
	return repo, nil
}

func (a *App) newSink() storage.ExportSink {
	if a.config.Storage.Enabled() {
		sink, err := storage.NewMinIOSink(storage.MinIOConfig{
			Endpoint:       a.config.Storage.Endpoint,
			AccessKey:      a.config.Storage.AccessKey,
			SecretKey:      a.config.Storage.SecretKey,
			Bucket:         a.config.Storage.Bucket,
			Region:         a.config.Storage.Region,
			UseSSL:         a.config.Storage.UseSSL,
			ConnectTimeout: a.config.Storage.ConnectTimeout,
		}, a.logger)
		if err == nil {
			return sink
		}
		a.logger.Error().Err(err).Msg("Failed to create MinIO sink, falling back to export directory")
	}

	if a.config.Export.Directory == "" {
		return nil
	}

	sink, err := storage.NewFileSystemSink(a.config.Export.Directory, a.logger)
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to create export directory, archiving disabled")
		return nil
	}
	return sink
}

func (a *App) Store() *store.Store { return a.store }
func (a *App) Upload() *service.UploadController { return a.upload }
func (a *App) Quiz() *service.QuizController { return a.quiz }
func (a *App) Chat() *service.ChatController { return a.chat }
func (a *App) Export() *service.ExportService { return a.export }
func (a *App) Videos() *service.VideoService { return a.videos }
func (a *App) Documents() *service.DocumentService { return a.documents }
func (a *App) Server() *server.Server { return a.server }

func (a *App) Run() error {
	return a.server.Start()
}

// Shutdown stops the server, detaches background polling and releases
// connections.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	a.upload.Cancel()
	if endErr := a.chat.End(ctx); endErr != nil {
		a.logger.Warn().Err(endErr).Msg("Failed to end chat session")
	}
	return errors.Join(err, a.Close())
}

// Close releases the notifier and database connection.
func (a *App) Close() error {
	var errs []error

	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close notifier: %w", err))
		}
		a.notifier = nil
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
		a.db = nil
	}

	return errors.Join(errs...)
}
