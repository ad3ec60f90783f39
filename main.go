package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	featurechat "graft/features/chat"
	featurefacts "graft/features/facts"
	featureingest "graft/features/ingest"
	featurestats "graft/features/stats"
	"graft/internal/adapter/gemini"
	wstore "graft/internal/adapter/weaviate"
	"graft/internal/config"
	"graft/internal/facts"
	"graft/internal/ingest"
	"graft/internal/logger"
	"graft/internal/middleware"
	"graft/internal/retrieval"
	"graft/internal/websearch"
)

func main() {
	// Structured logger with correlation id propagation
	log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil)))
	slog.SetDefault(log)

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// 2. Database Connection
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("failed to open db connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Retry connection
	for i := 0; i < 10; i++ {
		if err := db.Ping(); err == nil {
			break
		}
		slog.Warn("failed to ping db, retrying...", "attempt", i+1, "max_attempts", 10)
		time.Sleep(2 * time.Second)
	}

	if err := db.Ping(); err != nil {
		slog.Error("failed to ping db after retries", "error", err)
		os.Exit(1)
	}

	// 3. Run Migrations
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		slog.Error("failed to create migration driver", "error", err)
		os.Exit(1)
	}

	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationPath, "postgres", driver)
	if err != nil {
		slog.Error("failed to create migration instance", "error", err)
		os.Exit(1)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied successfully")

	// 4. Weaviate Connection
	wClient, err := weaviate.NewClient(weaviate.Config{
		Host:   cfg.WeaviateHost,
		Scheme: cfg.WeaviateScheme,
	})
	if err != nil {
		slog.Error("failed to create weaviate client", "error", err)
		os.Exit(1)
	}
	vecStore := wstore.NewStore(wClient)

	// 5. Gemini Adapters
	ctx := context.Background()

	embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbedModel)
	if err != nil {
		slog.Error("failed to create gemini embedder", "error", err)
		os.Exit(1)
	}
	defer embedder.Close()

	llm, err := gemini.NewChat(ctx, cfg.GeminiAPIKey, cfg.ChatModel)
	if err != nil {
		slog.Error("failed to create gemini chat client", "error", err)
		os.Exit(1)
	}
	defer llm.Close()

	// 6. NSQ Producer (optional)
	var pub ingest.EventPublisher
	if cfg.NSQDHost != "" {
		producer, err := nsq.NewProducer(cfg.NSQDHost, nsq.NewConfig())
		if err != nil {
			slog.Error("failed to create NSQ producer", "error", err)
			os.Exit(1)
		}
		defer producer.Stop()
		pub = producer
		slog.Info("NSQ producer connected", "host", cfg.NSQDHost)
	}

	// 7. Services
	ingestService := ingest.NewService(embedder, vecStore, nil, pub,
		cfg.ChunkTargetWords, cfg.ChunkOverlapSentences)

	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	retrievalService := retrieval.NewService(embedder, vecStore, queryLogger)

	searchClient := websearch.NewClient()

	factsService := facts.NewService(facts.NewPostgresRepo(db))

	chatService := featurechat.NewService(retrievalService, searchClient, llm, factsService,
		cfg.RetrieveTopK, cfg.SearchResultCount)

	// 8. Handlers
	ingestHandler := featureingest.NewHandler(ingestService, retrievalService)
	chatHandler := featurechat.NewHandler(chatService)
	factsHandler := featurefacts.NewHandler(factsService)
	statsHandler := featurestats.NewHandler(retrievalService, vecStore)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /ingest", middleware.CorrelationID(enableCORS(ingestHandler.Ingest)))

	mux.Handle("POST /chat", middleware.CorrelationID(enableCORS(chatHandler.Chat)))
	mux.Handle("GET /chat/citations", middleware.CorrelationID(enableCORS(chatHandler.Citations)))
	mux.Handle("POST /chat/reset", middleware.CorrelationID(enableCORS(chatHandler.Reset)))

	mux.Handle("POST /facts", middleware.CorrelationID(enableCORS(factsHandler.Create)))
	mux.Handle("GET /facts", middleware.CorrelationID(enableCORS(factsHandler.List)))
	mux.Handle("GET /facts/{id}", middleware.CorrelationID(enableCORS(factsHandler.Get)))
	mux.Handle("DELETE /facts/{id}", middleware.CorrelationID(enableCORS(factsHandler.Delete)))

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// 9. Start Server
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	slog.Info("server starting", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
