package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/olgkv/tasklist/internal/config"
	"github.com/olgkv/tasklist/internal/domain"
	"github.com/olgkv/tasklist/internal/httpapi"
	"github.com/olgkv/tasklist/internal/metrics"
	"github.com/olgkv/tasklist/internal/ports"
	"github.com/olgkv/tasklist/internal/service"
	"github.com/olgkv/tasklist/internal/storage"
)

const rateLimiterTTL = 10 * time.Minute

// NewServer wires application dependencies and returns the configured HTTP
// server, the task service, and a function that releases storage resources.
func NewServer(ctx context.Context, cfg *config.Config) (*http.Server, *service.Service, func() error, error) {
	st, closeFn, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	svc := service.New(st)
	h := httpapi.NewHandler(svc)
	m := metrics.New()

	var limiter *ipRateLimiter
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
		limiter = newIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, rateLimiterTTL)
	}

	route := func(pattern string, next http.HandlerFunc) http.Handler {
		return requestIDMiddleware(rateLimitMiddleware(limiter, loggingMiddleware(m, pattern, next)))
	}

	mux := http.NewServeMux()
	mux.Handle("/", route("/", h.Index))
	mux.Handle("/action", route("/action", h.Action))
	mux.Handle("/report", route("/report", h.Report))
	mux.Handle("/static/", httpapi.StaticHandler())
	mux.Handle("/metrics", metricsHandler(svc, m))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv, svc, closeFn, nil
}

func newStorage(ctx context.Context, cfg *config.Config) (ports.TaskStorage, func() error, error) {
	switch cfg.Storage {
	case config.StorageMySQL:
		st, err := storage.OpenMySQL(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql storage: %w", err)
		}
		slog.Info("using mysql storage")
		return st, st.Close, nil
	default:
		repo := storage.NewJSONRepository(cfg.TasksFile)
		st := storage.NewFileStorage(repo)
		if _, err := st.List(ctx); err != nil {
			return nil, nil, fmt.Errorf("load storage: %w", err)
		}
		slog.Info("using file storage", "path", repo.Path())
		return st, func() error { return nil }, nil
	}
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(httpapi.WithRequestID(r.Context(), id)))
	})
}

func loggingMiddleware(m *metrics.Metrics, route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx, info := httpapi.WithRequestInfo(r.Context())
		lw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lw, r.WithContext(ctx))

		latency := time.Since(start)
		m.ObserveRequest(route, info.Action, lw.statusCode, latency)
		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"action", info.Action,
			"latency_ms", latency.Milliseconds(),
			"status", lw.statusCode,
			"request_id", httpapi.RequestID(r.Context()),
		)
	})
}

func rateLimitMiddleware(limiter *ipRateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.allow(clientIP(r)) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// metricsHandler refreshes the per-status task gauges before each scrape.
func metricsHandler(svc *service.Service, m *metrics.Metrics) http.Handler {
	promHandler := m.Handler()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tasks, err := svc.ListTasks(r.Context())
		if err != nil {
			slog.Warn("refresh task gauges", "error", err)
		} else {
			counts := make(map[domain.Status]int, len(domain.Statuses))
			for _, t := range tasks {
				counts[t.Status]++
			}
			for _, st := range domain.Statuses {
				m.SetTaskCount(string(st), counts[st])
			}
		}
		promHandler.ServeHTTP(w, r)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lw *loggingResponseWriter) WriteHeader(code int) {
	lw.statusCode = code
	lw.ResponseWriter.WriteHeader(code)
}

// ipRateLimiter keeps one token bucket per client IP. Buckets idle for
// longer than ttl are dropped.
type ipRateLimiter struct {
	mu          sync.Mutex
	limit       rate.Limit
	burst       int
	ttl         time.Duration
	visitors    map[string]*visitor
	lastCleanup time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPRateLimiter(rps float64, burst int, ttl time.Duration) *ipRateLimiter {
	return &ipRateLimiter{
		limit:       rate.Limit(rps),
		burst:       burst,
		ttl:         ttl,
		visitors:    make(map[string]*visitor),
		lastCleanup: time.Now(),
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastCleanup) > l.ttl {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.ttl {
				delete(l.visitors, key)
			}
		}
		l.lastCleanup = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
