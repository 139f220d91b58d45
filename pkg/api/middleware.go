package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// zerologMiddleware logs HTTP requests using zerolog and records request metrics
func zerologMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status code
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			m.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
			m.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", elapsed).
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("remote", r.RemoteAddr).
				Msg("request")
		})
	}
}

// zerologRecoverer recovers from panics and logs with zerolog
func zerologRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				log.Error().
					Interface("panic", rvr).
					Str("path", r.URL.Path).
					Msg("Recovered from panic")

				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// noCache marks responses as volatile; quotes and balances must not be cached
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
		next.ServeHTTP(w, r)
	})
}

func newCORSHandler(allowedOrigins []string, next http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	// Wildcard origins cannot be combined with credentials
	allowCredentials := !(len(allowedOrigins) == 1 && allowedOrigins[0] == "*")

	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPut,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-Id",
		},
		AllowCredentials: allowCredentials,
		MaxAge:           int(2 * time.Hour / time.Second),
	}).Handler(next)
}
