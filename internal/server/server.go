package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/osse101/RentalsLedger_Go/internal/database"
	"github.com/osse101/RentalsLedger_Go/internal/handler"
	"github.com/osse101/RentalsLedger_Go/internal/listing"
	"github.com/osse101/RentalsLedger_Go/internal/logger"
	"github.com/osse101/RentalsLedger_Go/internal/metrics"
	"github.com/osse101/RentalsLedger_Go/internal/payment"
	"github.com/osse101/RentalsLedger_Go/internal/subscription"
	"github.com/osse101/RentalsLedger_Go/internal/worker"
)

// Options carries the listener settings
type Options struct {
	Port           int
	APIKey         string
	TrustedProxies []string
}

// Services are the domain services the routes call into
type Services struct {
	Subscriptions subscription.Service
	Listings      listing.Service
	Payments      payment.Service
	Reconciler    worker.CallbackReconciler
	Jobs          handler.JobQueue
	Tasks         handler.TaskRunner
}

type Server struct {
	httpServer *http.Server
	dbPool     database.Pool
}

// NewServer creates a new Server instance
func NewServer(opts Options, dbPool database.Pool, svc Services) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", opts.Port),
			Handler:           NewRouter(opts, dbPool, svc),
			ReadHeaderTimeout: 5 * time.Second,
		},
		dbPool: dbPool,
	}
}

// NewRouter builds the middleware stack and routes
func NewRouter(opts Options, dbPool database.Pool, svc Services) http.Handler {
	r := chi.NewRouter()

	// Chi middleware executes in order defined (outermost to innermost)
	detector := NewAbuseDetector(MaxRequestsPerWindow)

	r.Use(SecurityHeadersMiddleware())
	r.Use(loggingMiddleware)
	r.Use(RateLimitMiddleware(opts.TrustedProxies, detector))
	r.Use(AuthMiddleware(opts.APIKey, opts.TrustedProxies, detector))
	r.Use(RequestSizeLimitMiddleware(MaxRequestBodyBytes))
	r.Use(metrics.Middleware)

	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(dbPool))
	r.Get("/version", handler.HandleVersion())
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	subscriptions := handler.NewSubscriptionHandler(svc.Subscriptions)
	listings := handler.NewListingHandler(svc.Listings)
	payments := handler.NewPaymentHandler(svc.Payments, svc.Reconciler, svc.Jobs)
	admin := handler.NewAdminHandler(svc.Subscriptions, svc.Payments, svc.Tasks)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/plans", subscriptions.HandleListPlans)

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", subscriptions.HandleListUserSubscriptions)
			r.Get("/quota", subscriptions.HandleGetQuota)
		})

		r.Route("/listings", func(r chi.Router) {
			r.Post("/", listings.HandleCreate)
			r.Post("/{id}/publish", listings.HandlePublish)
			r.Post("/{id}/unpublish", listings.HandleUnpublish)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", payments.HandleInitiate)
			r.Get("/", payments.HandleList)
			r.Get("/{id}", payments.HandleGet)
			r.Post("/callback/{provider}", payments.HandleCallback)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Route("/subscriptions", func(r chi.Router) {
				r.Post("/grant", admin.HandleGrant)
				r.Post("/{id}/extend", admin.HandleExtend)
				r.Post("/{id}/reset-usage", admin.HandleResetUsage)
				r.Post("/{id}/deactivate", admin.HandleDeactivate)
			})

			r.Route("/plans", func(r chi.Router) {
				r.Post("/", admin.HandleCreatePlan)
				r.Put("/{id}", admin.HandleUpdatePlan)
				r.Delete("/{id}", admin.HandleDeletePlan)
				r.Post("/{id}/suspend", admin.HandleSuspendPlan)
				r.Post("/{id}/resume", admin.HandleResumePlan)
			})

			r.Post("/payments/{id}/refund", admin.HandleRefund)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", admin.HandleListTasks)
				r.Post("/{name}/run", admin.HandleRunTask)
			})
		})
	})

	return r
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func isQuietPath(path string) bool {
	for _, p := range quietPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// loggingMiddleware tags each request with an id (the caller's X-Request-ID when present),
// echoes it back and logs start and completion. Secret headers are redacted.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isQuietPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()

		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" || len(requestID) > 64 {
			requestID = logger.GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := logger.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)
		log := logger.FromContext(ctx)

		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength,
			"user_agent", r.UserAgent())

		sanitizedHeaders := make(http.Header, len(r.Header))
		for k, v := range r.Header {
			if strings.EqualFold(k, HeaderAPIKey) || strings.EqualFold(k, HeaderAuthorization) {
				sanitizedHeaders[k] = []string{RedactedValue}
			} else {
				sanitizedHeaders[k] = v
			}
		}
		log.Debug(LogMsgRequestHeaders, "headers", sanitizedHeaders)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds())
	})
}

// Start starts the server
func (s *Server) Start() error {
	slog.Default().Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
