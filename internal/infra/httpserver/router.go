package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appevents "github.com/bryanwahyu/aegis-api/internal/application/events"
	domain "github.com/bryanwahyu/aegis-api/internal/domain/events"
	"github.com/bryanwahyu/aegis-api/internal/middleware"
)

const (
	apiName    = "Aegis API"
	apiVersion = "1.0.0"

	// upper bound for a POST /api/v1/events body
	maxBodyBytes = 1 << 20
)

// EventService is what the router needs from the application layer.
type EventService interface {
	Create(ctx context.Context, cmd appevents.CreateEventCommand) (*domain.ScanEvent, error)
	List(ctx context.Context, f domain.ListFilter) ([]*domain.ScanEvent, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

type Router struct {
	events  EventService
	logger  *zap.Logger
	metrics *middleware.Metrics
}

// Options carries the optional collaborators of NewRouter.
type Options struct {
	Logger  *zap.Logger
	Metrics *middleware.Metrics
	// Readiness backs GET /ready; the route is omitted when nil.
	Readiness middleware.HealthChecker
}

func NewRouter(events EventService, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = middleware.NewMetrics()
	}
	r := &Router{events: events, logger: opts.Logger, metrics: opts.Metrics}

	mux := chi.NewRouter()
	mux.Use(chimw.RealIP)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Logging(r.logger))
	mux.Use(r.metrics.Middleware)
	mux.Use(chimw.Recoverer)

	// any origin, credentials allowed; the origin is reflected because "*"
	// cannot be combined with credentials
	mux.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  func(*http.Request, string) bool { return true },
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           600,
	}))

	mux.NotFound(func(w http.ResponseWriter, _ *http.Request) { writeDetail(w, http.StatusNotFound) })
	mux.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) { writeDetail(w, http.StatusMethodNotAllowed) })

	mux.Get("/", r.wrap(r.handleRoot))
	mux.Get("/health", middleware.LivenessHandler)
	if opts.Readiness != nil {
		mux.Get("/ready", middleware.ReadinessHandler(opts.Readiness, r.logger))
	}
	mux.Handle("/metrics", r.metrics.Handler())

	mux.Route("/api/v1", func(rt chi.Router) {
		rt.Post("/events", r.wrap(r.handleCreateEvent))
		rt.Get("/events", r.wrap(r.handleListEvents))
		rt.Get("/stats", r.wrap(r.handleStats))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var ve *ValidationError
		if errors.As(err, &ve) {
			_ = writeJSON(w, http.StatusUnprocessableEntity, ve)
			return
		}
		r.logger.Error("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("request_id", middleware.GetRequestID(req.Context())),
			zap.Error(err),
		)
		writeDetail(w, http.StatusInternalServerError)
	}
}

// GET /
func (r *Router) handleRoot(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]string{"message": apiName, "version": apiVersion})
}

// POST /api/v1/events
func (r *Router) handleCreateEvent(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge)
			return nil
		}
		return fmt.Errorf("read body: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return decodeError(err)
	}
	if ve := validateBody(doc); ve != nil {
		return ve
	}

	body, ve := decodeCreateBody(doc.(map[string]any))
	if ve != nil {
		return ve
	}

	e, err := r.events.Create(req.Context(), appevents.CreateEventCommand{
		Timestamp:   body.Timestamp,
		ProjectName: body.ProjectName,
		FilePath:    body.FilePath,
		SecretType:  body.SecretType,
		Confidence:  body.Confidence,
		LineNumber:  body.LineNumber,
		Preview:     body.Preview,
	})
	if err != nil {
		return err
	}
	r.metrics.IncEventsCreated()

	return writeJSON(w, http.StatusCreated, toEventResponse(e))
}

// GET /api/v1/events?project_name=&limit=100&offset=0
func (r *Router) handleListEvents(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()

	ve := &ValidationError{}
	limit, err := middleware.QueryInt(q, "limit", domain.DefaultLimit)
	if err != nil {
		ve.add(err.Error(), "type_error.integer", "query", "limit")
	}
	offset, err := middleware.QueryInt(q, "offset", domain.DefaultOffset)
	if err != nil {
		ve.add(err.Error(), "type_error.integer", "query", "offset")
	}
	if !ve.empty() {
		return ve
	}

	list, err := r.events.List(req.Context(), domain.ListFilter{
		ProjectName: q.Get("project_name"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, toEventResponses(list))
}

// GET /api/v1/stats
func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) error {
	st, err := r.events.Stats(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, toStatsResponse(st))
}
