package wire

import (
	"net/http"

	"marketplace-auth/internal/adaptor"
	"marketplace-auth/internal/data/repository"
	"marketplace-auth/internal/usecase"
	"marketplace-auth/pkg/middleware"
	"marketplace-auth/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the assembled HTTP surface.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring assembles services, handlers and routes. gatherer backs /metrics.
func Wiring(
	repo *repository.Repository,
	deps usecase.Dependencies,
	config *utils.Config,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, deps, config, logger)
	handler := adaptor.NewHandler(service, config.App.IsDevelopment(), logger)

	router := setupRouter(handler, deps, gatherer, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	deps usecase.Dependencies,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	// Apply routes
	r.Route("/api/auth", func(r chi.Router) {
		wireAuth(r, handler.Auth)
		wireUser(r, handler.User, deps.Tokens, logger)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}
