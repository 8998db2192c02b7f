package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"payment-gateway/internal/logger"
	"payment-gateway/internal/utils"

	"github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs one line per request with status and duration.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.LogAPI(r.Method, r.URL.Path, strconv.Itoa(status), time.Since(start).String())
		})
	}
}

// Recoverer turns a panic into a 500 with the standard error body. The panic
// value and stack only go to the log.
func Recoverer(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.Error("API", fmt.Sprintf("panic serving %s %s (request %s): %v\n%s",
					r.Method, r.URL.Path, middleware.GetReqID(r.Context()), rec, debug.Stack()))
				utils.WriteJSON(w, http.StatusInternalServerError,
					utils.ErrorResponse("An unexpected error occurred", "internal error"))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
