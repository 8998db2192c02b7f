package api

import (
	"net/http"

	"payment-gateway/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter mounts the payment routes and wraps them in request tracing.
func NewRouter(h *Handler, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(Recoverer(log))

	r.Get("/health", h.Health)

	r.Route("/api/payments", func(r chi.Router) {
		r.Post("/", h.CreatePayment)
		r.Get("/{id}", h.GetPayment)
	})

	return otelhttp.NewHandler(r, "payment-gateway",
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}),
	)
}
