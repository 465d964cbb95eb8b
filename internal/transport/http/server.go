package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// NewHandler assembles the full route table behind the shared middleware
// chain. The timeout must stay above the slowest expected calendar query.
func NewHandler(calendar *CalendarHandler, clients *ClientsHandler, authH *AuthHandler, logger *slog.Logger, requestTimeout time.Duration) http.Handler {
	mux := http.NewServeMux()

	authH.Register(mux)
	calendar.Register(mux)
	clients.Register(mux)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return Chain(mux,
		WithAccessLog(logger),
		WithBodyLimit(maxBodyBytes),
		WithTimeout(requestTimeout),
	)
}
