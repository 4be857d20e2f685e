package rest

import (
	"net/http"

	"threadboard/interfaces/http/rest/handlers"
	"threadboard/interfaces/http/rest/middleware"
	"threadboard/pkg/auth"
	"threadboard/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router wires the HTTP surface of the board API
type Router struct {
	askHandler     *handlers.AskHandler
	boardHandler   *handlers.BoardHandler
	nodeHandler    *handlers.NodeHandler
	validator      *auth.JWTValidator
	tracer         *observability.Tracer
	authConfig     middleware.AuthConfig
	allowedOrigins []string
	logger         *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	askHandler *handlers.AskHandler,
	boardHandler *handlers.BoardHandler,
	nodeHandler *handlers.NodeHandler,
	validator *auth.JWTValidator,
	tracer *observability.Tracer,
	authConfig middleware.AuthConfig,
	allowedOrigins []string,
	logger *zap.Logger,
) *Router {
	return &Router{
		askHandler:     askHandler,
		boardHandler:   boardHandler,
		nodeHandler:    nodeHandler,
		validator:      validator,
		tracer:         tracer,
		authConfig:     authConfig,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(rt.tracer.Middleware)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.authConfig, rt.logger))

		r.Route("/boards", func(r chi.Router) {
			r.Post("/", rt.boardHandler.Create)
			r.Get("/", rt.boardHandler.List)

			r.Route("/{boardID}", func(r chi.Router) {
				r.Get("/", rt.boardHandler.Get)
				r.Patch("/", rt.boardHandler.Rename)
				r.Delete("/", rt.boardHandler.Delete)

				r.Post("/ask", rt.askHandler.Ask)

				r.Route("/nodes/{nodeID}", func(r chi.Router) {
					r.Get("/", rt.nodeHandler.Get)
					r.Patch("/", rt.nodeHandler.Update)
					r.Delete("/", rt.nodeHandler.Delete)
				})

				r.Get("/threads/{rootID}", rt.nodeHandler.GetThread)
			})
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
