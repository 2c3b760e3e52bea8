package rest

import (
	"net/http"

	"exerciselinks/interfaces/http/rest/handlers"
	"exerciselinks/interfaces/http/rest/middleware"
	apperrors "exerciselinks/pkg/errors"
	"exerciselinks/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Options controls optional router behaviour
type Options struct {
	EnableCORS     bool
	AllowedOrigins []string
}

// Router creates and configures the HTTP router
type Router struct {
	links     handlers.LinkService
	errors    *apperrors.ErrorHandler
	collector *observability.Collector
	tracer    *observability.Tracer
	options   Options
	logger    *zap.Logger
}

// NewRouter creates a new router instance. collector and tracer may be nil.
func NewRouter(
	links handlers.LinkService,
	errHandler *apperrors.ErrorHandler,
	collector *observability.Collector,
	tracer *observability.Tracer,
	options Options,
	logger *zap.Logger,
) *Router {
	return &Router{
		links:     links,
		errors:    errHandler,
		collector: collector,
		tracer:    tracer,
		options:   options,
		logger:    logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(rt.errors.Middleware)
	if rt.collector != nil {
		router.Use(rt.collector.Middleware)
	}
	if rt.tracer != nil {
		router.Use(rt.tracer.Middleware)
	}

	if rt.options.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.options.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.collector != nil {
		router.Method(http.MethodGet, "/metrics", rt.collector.Handler())
	}

	var annotator handlers.Annotator
	if rt.tracer != nil {
		annotator = rt.tracer
	}
	linkHandler := handlers.NewLinkHandler(rt.links, rt.errors, annotator, rt.logger)

	router.Route("/api/exercises/{exerciseId}/links", func(r chi.Router) {
		r.Post("/", linkHandler.CreateLink)
		r.Get("/", linkHandler.GetLinks)
		r.Get("/suggested", linkHandler.GetSuggestedLinks)
		r.Put("/{linkId}", linkHandler.UpdateLink)
		r.Delete("/{linkId}", linkHandler.DeleteLink)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports ready once the router is serving; storage adapters
// are constructed eagerly so there is nothing left to wait for
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
