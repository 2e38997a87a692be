package httpserver

import (
	"net/http"

	"github.com/aws-samples/ar-rewriting-orchestrator/internal/middleware"

	"log/slog"

	"github.com/go-chi/chi/v5"
)

type RouterDeps struct {
	Logger *slog.Logger
}

// NewRouter собирает chi-роутер с общими middleware. The orchestration core
// itself is reached in-process via orchestrator.Service, not over HTTP
// (transport framing is a non-goal); this router only carries the ambient
// liveness endpoint.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
