package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/buildware/kbase/features/knowledge"
	"github.com/buildware/kbase/features/mcp"
	"github.com/buildware/kbase/features/project"
	"github.com/buildware/kbase/features/stats"
	"github.com/buildware/kbase/internal/config"
	"github.com/buildware/kbase/internal/middleware"
	"github.com/buildware/kbase/internal/text"
	"github.com/buildware/kbase/internal/worker"
)

// Index is the vector store surface the application needs: storage and
// retrieval for the knowledge services plus the record count for stats.
type Index interface {
	knowledge.VectorIndex
	CountRecords(ctx context.Context) (int, error)
}

type App struct {
	Handler        http.Handler
	ProjectService *project.Service
	SyncedConsumer *worker.SyncedConsumer

	port int
}

func New(
	cfg *config.Config,
	db *sql.DB,
	index Index,
	events knowledge.EventPublisher,
) (*App, error) {

	// Feature: Project
	projectRepo := project.NewPostgresRepo(db)
	projectService := project.NewService(projectRepo)
	projectHandler := project.NewHandler(projectService)

	// Feature: Knowledge
	builder := knowledge.NewChunkBuilder(text.NewSplitter(cfg.ChunkMaxTokens))
	lookup := &projectLookup{service: projectService}

	queryService := knowledge.NewQueryService(index)
	ingestService := knowledge.NewIngestService(lookup, index, builder, events)
	syncService := knowledge.NewSyncService(lookup, index, builder, events)
	knowledgeHandler := knowledge.NewHandler(queryService, ingestService, syncService)

	// Feature: Stats
	statsHandler := stats.NewHandler(projectService, index)

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

	mux.Handle("GET /projects", middleware.CorrelationID(enableCORS(projectHandler.List)))
	mux.Handle("POST /projects", middleware.CorrelationID(enableCORS(projectHandler.Create)))
	mux.Handle("GET /projects/{code}", middleware.CorrelationID(enableCORS(projectHandler.Get)))
	mux.Handle("PUT /projects/{code}", middleware.CorrelationID(enableCORS(projectHandler.Update)))
	mux.Handle("DELETE /projects/{code}", middleware.CorrelationID(enableCORS(projectHandler.Delete)))

	mux.Handle("GET /knowledge/search", middleware.CorrelationID(enableCORS(knowledgeHandler.Search)))
	mux.Handle("POST /knowledge/ingest", middleware.CorrelationID(enableCORS(knowledgeHandler.Ingest)))
	mux.Handle("POST /knowledge/sync", middleware.CorrelationID(enableCORS(knowledgeHandler.SyncAll)))
	mux.Handle("POST /knowledge/sync/{code}", middleware.CorrelationID(enableCORS(knowledgeHandler.SyncProject)))

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	// Feature: MCP
	mcpHandler := mcp.NewHandler(queryService, ingestService, projectService)
	mux.Handle("/mcp", middleware.CorrelationID(mcpHandler)) // Legacy POST endpoint

	// SSE Endpoints
	mux.Handle("GET /mcp/sse", middleware.CorrelationID(enableCORS(mcpHandler.HandleSSE)))
	mux.Handle("POST /mcp/messages", middleware.CorrelationID(enableCORS(mcpHandler.HandleMessage)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Worker (Synced Consumer) Setup
	syncedConsumer := worker.NewSyncedConsumer(projectRepo)

	return &App{
		Handler:        mux,
		ProjectService: projectService,
		SyncedConsumer: syncedConsumer,
		port:           cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// projectLookup adapts the project service to the read-only view the
// knowledge services resolve codes against.
type projectLookup struct {
	service *project.Service
}

func (l *projectLookup) GetByCode(ctx context.Context, code string) (*knowledge.ProjectRef, error) {
	p, err := l.service.GetByCode(ctx, code)
	if err != nil || p == nil {
		return nil, err
	}
	return &knowledge.ProjectRef{ID: p.ID, Code: p.Code, BasePath: p.BasePath}, nil
}

func (l *projectLookup) ListAll(ctx context.Context) ([]knowledge.ProjectRef, error) {
	projects, err := l.service.List(ctx, true)
	if err != nil {
		return nil, err
	}
	refs := make([]knowledge.ProjectRef, len(projects))
	for i, p := range projects {
		refs[i] = knowledge.ProjectRef{ID: p.ID, Code: p.Code, BasePath: p.BasePath}
	}
	return refs, nil
}
