package main

import (
	"context"
	"net/http"
	"time"

	"taskTriage/internal/clock"
	"taskTriage/internal/config"
	"taskTriage/internal/handlers"
	"taskTriage/internal/logger"
	"taskTriage/internal/middleware"
	"taskTriage/internal/repository/inmemory"
	"taskTriage/internal/repository/inter"
	"taskTriage/internal/repository/postgres"
	"taskTriage/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func main() {
	cfg, err := config.Load("config.yml")
	if err != nil {
		panic(err)
	}

	if err := logger.Init(cfg.Logging.Development); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	var storage inter.Storage
	switch cfg.Repository.Type {
	case "postgres":
		pgStorage, err := postgres.New(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error("Не удалось подключиться к PostgreSQL", err)
			panic(err)
		}
		defer pgStorage.Close()

		if err := pgStorage.Migrate(ctx); err != nil {
			logger.Error("Не удалось применить миграции", err)
			panic(err)
		}
		storage = pgStorage
	default:
		storage = inmemory.NewStorage()
	}

	triageService := service.NewTriageService(storage, clock.System{}, cfg.Triage.SentinelProject)
	triageHandler := handlers.NewTriageHandler(&triageService)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.RateLimit(100))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))

	r.Route("/tasks", func(r chi.Router) {

		r.Get("/", triageHandler.GetTasks) // GET /tasks?project=&status=
		r.Post("/", triageHandler.PostTask)

		r.Get("/triage", triageHandler.GetTriage) // GET /tasks/triage?scheduled_sort=&completed_on=

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", triageHandler.GetTaskByID)
			r.Put("/", triageHandler.UpdateTaskByID)
			r.Delete("/", triageHandler.DeleteTaskByID)
		})
	})

	r.Route("/projects", func(r chi.Router) {

		r.Get("/", triageHandler.GetProjects) // имена с числом задач
		r.Post("/", triageHandler.PostProject)

		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", triageHandler.RenameProjectByID)
			r.Delete("/", triageHandler.DeleteProjectByID)
		})
	})

	r.Get("/health", triageHandler.HealthCheck)

	logger.Info("Server started")
	http.ListenAndServe(cfg.GetServerAddr(), r)
}
