package handler

import (
	"log/slog"
	"net/http"
	"time"

	servertiming "github.com/mitchellh/go-server-timing"
)

// Handlers groups everything the router serves.
type Handlers struct {
	Connections *ConnectionHandler
	Videos      *VideoHandler
	Jobs        *JobHandler
	CORSOrigin  string
	Logger      *slog.Logger
}

// NewRouter builds the HTTP API with CORS, Server-Timing and request logging.
func NewRouter(h Handlers) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /connection/status", h.Connections.Status)
	mux.HandleFunc("POST /connection", h.Connections.Connect)
	mux.HandleFunc("POST /connection/disconnect", h.Connections.Disconnect)
	mux.HandleFunc("POST /videos", h.Videos.Generate)
	mux.HandleFunc("POST /posts", h.Videos.Publish)
	mux.HandleFunc("POST /schedule", h.Jobs.CreateJob)
	mux.HandleFunc("GET /schedule", h.Jobs.ListJobs)
	mux.HandleFunc("GET /schedule/{id}", h.Jobs.GetJob)
	mux.HandleFunc("DELETE /schedule/{id}", h.Jobs.DeleteJob)
	mux.HandleFunc("GET /metrics", h.Jobs.GetMetrics)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, h.Logger, http.StatusOK, map[string]string{"status": "ok"})
	})

	var handler http.Handler = mux
	handler = servertiming.Middleware(handler, nil)
	handler = requestLogger(handler, h.Logger)
	return corsMiddleware(handler, h.CORSOrigin)
}

// corsMiddleware sets CORS headers on every response and answers preflights.
func corsMiddleware(next http.Handler, origin string) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Expose-Headers", "Server-Timing")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("elapsed", time.Since(started)),
		)
	})
}
