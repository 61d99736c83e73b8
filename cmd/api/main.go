package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finance-chat/internal/advice"
	"github.com/dvloznov/finance-chat/internal/api/handlers"
	"github.com/dvloznov/finance-chat/internal/api/middleware"
	"github.com/dvloznov/finance-chat/internal/config"
	"github.com/dvloznov/finance-chat/internal/export"
	"github.com/dvloznov/finance-chat/internal/jobs"
	"github.com/dvloznov/finance-chat/internal/jobs/inmemory"
	"github.com/dvloznov/finance-chat/internal/llm"
	"github.com/dvloznov/finance-chat/internal/logger"
	"github.com/dvloznov/finance-chat/internal/pipeline"
	"github.com/dvloznov/finance-chat/internal/router"
	"github.com/dvloznov/finance-chat/internal/store/backend"
)

func main() {
	configDir := flag.String("config", ".", "Directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.NewWithOptions(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	ctx := logger.WithContext(context.Background(), log)

	if cfg.LLM.APIKey == "" {
		log.Warn().Msg("No LLM API key configured - using rule-based parsing and advice only")
	}

	querier, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		Timeout:  cfg.LLM.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create LLM client")
	}

	txStore, err := backend.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("Failed to open transaction store")
	}
	defer txStore.Close()

	var advisorOpts []advice.Option
	if cfg.Redis.URL != "" {
		tipCache, err := advice.NewRedisTipCache(cfg.Redis.URL, cfg.Redis.TipsTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create tips cache")
		}
		defer tipCache.Close()
		advisorOpts = append(advisorOpts, advice.WithTipCache(tipCache))
	}
	advisor := advice.NewAdvisor(querier, advisorOpts...)
	chatRouter := router.New(pipeline.NewTransactionParser(querier), advisor)

	// Export uploads run on the in-process job queue.
	jobStore := inmemory.NewStore()
	var (
		publisher jobs.Publisher
		jobQueue  *inmemory.Queue
	)
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if cfg.Export.Bucket == "" {
		log.Warn().Msg("No export bucket configured - export uploads will be disabled")
	} else {
		uploader, err := export.NewGCSUploader(ctx, cfg.Export.Bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create export uploader")
		}
		defer uploader.Close()

		jobQueue = inmemory.NewQueue(100, 5, jobStore)
		if err := jobQueue.Start(workerCtx, export.UploadJobHandler(txStore, uploader, time.Local)); err != nil {
			log.Fatal().Err(err).Msg("Failed to start export workers")
		}
		publisher = jobQueue
	}

	chatHandler := handlers.NewChatHandler(chatRouter, txStore, log)
	transactionsHandler := handlers.NewTransactionsHandler(txStore, advisor, log)
	exportHandler := handlers.NewExportHandler(txStore, publisher, jobStore, time.Local, log)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/chat", chatHandler.Chat)

	mux.HandleFunc("GET /api/transactions", transactionsHandler.ListTransactions)
	mux.HandleFunc("POST /api/transactions", transactionsHandler.CreateTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", transactionsHandler.UpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", transactionsHandler.DeleteTransaction)
	mux.HandleFunc("GET /api/summary", transactionsHandler.GetSummary)
	mux.HandleFunc("GET /api/tips", transactionsHandler.GetTips)

	mux.HandleFunc("GET /api/export", exportHandler.Export)
	mux.HandleFunc("GET /api/export/jobs", exportHandler.ListJobs)
	mux.HandleFunc("GET /api/export/jobs/{id}", exportHandler.GetJob)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(
					middleware.UserID(cfg.Assistant.DefaultUser)(mux),
				),
			),
		),
	)

	// The chat path may wait on the model for up to llm.timeout.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LLM.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("llm_provider", cfg.LLM.Provider).
			Str("store", cfg.Store.Backend).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let in-flight uploads finish before the store closes.
	if jobQueue != nil {
		if err := jobQueue.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error stopping job queue")
		}
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
