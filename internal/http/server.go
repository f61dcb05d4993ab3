package http

import (
	"container/list"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"plazabi/internal/auth"
	"plazabi/internal/core"
	"plazabi/internal/insights"
	applog "plazabi/internal/log"
	"plazabi/internal/records"
	"plazabi/internal/storage"
)

// LRU cache with TTL and size-based eviction
type lruCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

func newLRUCache[T any](maxSize int, ttl time.Duration) *lruCache[T] {
	return &lruCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

func (c *lruCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, exists := c.items[key]
	if !exists {
		return zero, false
	}

	item := elem.Value.(*cacheItem[T])

	// Check if expired
	if time.Now().After(item.expiresAt) {
		c.removeElement(elem)
		return zero, false
	}

	// Move to front (most recently used)
	c.lru.MoveToFront(elem)
	return item.data, true
}

func (c *lruCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	item := &cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: now.Add(c.ttl),
	}

	// Check if key already exists
	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	// Add new item
	elem := c.lru.PushFront(item)
	c.items[key] = elem

	// Evict if over capacity
	if c.lru.Len() > c.maxSize {
		oldest := c.lru.Back()
		if oldest != nil {
			c.removeElement(oldest)
		}
	}
}

func (c *lruCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
	}
}

// Purge drops every cached entry. Called after record mutations, since any
// filter combination may be affected.
func (c *lruCache[T]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.lru.Init()
}

func (c *lruCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// CleanExpired removes all expired entries
func (c *lruCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var toRemove []*list.Element

	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		item := elem.Value.(*cacheItem[T])
		if now.After(item.expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}

	for _, elem := range toRemove {
		c.removeElement(elem)
	}

	return len(toRemove)
}

// Database is the queryable SQLite mirror surface (employee roster and
// records index). Nil when the memory backend is selected.
type Database interface {
	ListEmployees(ctx context.Context) ([]core.Employee, error)
	ListIndex(ctx context.Context, limit int) ([]storage.IndexEntry, error)
}

type Server struct {
	http.Server
	store    *records.Store
	auth     *auth.Service
	insights *insights.Service
	db       Database

	rateLimit        int
	rateLimiter      *rateLimiter
	ips              *ipResolver
	trustedCIDRs     []string
	metrics          *securityMetrics
	viewCache        *lruCache[[]byte]
	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once

	log *applog.StructuredLogger
	now func() time.Time
}

// Option customizes server construction.
type Option func(*Server)

// WithLogger routes request logging through the given logger, so LOG_LEVEL
// applies to HTTP logs too. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.log = applog.NewStructuredLogger(applog.FromSlog(l, applog.ComponentHTTP))
	}
}

// WithRateLimit sets the per-IP mutation budget per minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimit = perMinute }
}

// WithTrustedProxies replaces the default private-network proxy ranges.
// CIDRs must be valid; config.Validate guards the production path.
func WithTrustedProxies(cidrs []string) Option {
	return func(s *Server) { s.trustedCIDRs = cidrs }
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, store *records.Store, authSvc *auth.Service, ins *insights.Service, db Database, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:            store,
		auth:             authSvc,
		insights:         ins,
		db:               db,
		rateLimit:        60,
		metrics:          &securityMetrics{},
		viewCache:        newLRUCache[[]byte](100, 5*time.Minute), // Max 100 entries, 5min TTL
		stopCacheCleanup: make(chan struct{}),
		log:              applog.NewStructuredLogger(applog.FromSlog(slog.Default(), applog.ComponentHTTP)),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.rateLimiter = newRateLimiter(s.rateLimit, time.Minute)

	ips, err := newIPResolver(s.trustedCIDRs)
	if err != nil {
		// Misconfigured CIDRs must not silently widen trust.
		panic(err)
	}
	s.ips = ips

	// Start periodic cache cleanup
	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/dashboard", s.withSecurityHeaders(s.handleOverview))
	mux.HandleFunc("GET /api/operational", s.withSecurityHeaders(s.handleOperational))
	mux.HandleFunc("GET /api/safety", s.withSecurityHeaders(s.handleSafety))
	mux.HandleFunc("GET /api/esg", s.withSecurityHeaders(s.handleESG))
	mux.HandleFunc("GET /api/hr", s.withSecurityHeaders(s.handleHR))

	mux.HandleFunc("GET /api/history", s.withSecurityHeaders(s.handleListRecords))
	mux.HandleFunc("GET /api/history/export", s.withSecurityHeaders(s.handleExportCSV))
	mux.HandleFunc("POST /api/records", s.withSecurityHeaders(s.handleCreateRecord))
	mux.HandleFunc("PUT /api/records", s.withSecurityHeaders(s.handleReplaceRecords))
	mux.HandleFunc("GET /api/records/{id}", s.withSecurityHeaders(s.handleGetRecord))
	mux.HandleFunc("DELETE /api/records/{id}", s.withSecurityHeaders(s.handleDeleteRecord))

	mux.HandleFunc("POST /api/insights", s.withSecurityHeaders(s.handleInsights))

	mux.HandleFunc("GET /api/employees", s.withSecurityHeaders(s.handleListEmployees))
	mux.HandleFunc("POST /api/employees/import", s.withSecurityHeaders(s.handleImportEmployees))
	mux.HandleFunc("GET /api/database/records", s.withSecurityHeaders(s.handleRecordsIndex))

	mux.HandleFunc("POST /api/auth/login", s.withSecurityHeaders(s.handleSignIn))
	mux.HandleFunc("POST /api/auth/signup", s.withSecurityHeaders(s.handleSignUp))
	mux.HandleFunc("POST /api/auth/logout", s.withSecurityHeaders(s.handleSignOut))
	mux.HandleFunc("GET /api/auth/session", s.withSecurityHeaders(s.handleSession))
	mux.HandleFunc("GET /api/users", s.withSecurityHeaders(s.handleListUsers))
	mux.HandleFunc("POST /api/users/{id}/approve", s.withSecurityHeaders(s.handleApproveUser))
	mux.HandleFunc("POST /api/users/{id}/block", s.withSecurityHeaders(s.handleBlockUser))
	mux.HandleFunc("DELETE /api/users/{id}", s.withSecurityHeaders(s.handleDeleteUser))
	mux.HandleFunc("GET /api/audit", s.withSecurityHeaders(s.handleAuditLogs))

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute) // Cleanup every 10 minutes
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := s.viewCache.CleanExpired()
			if cleaned > 0 {
				slog.Debug("Cache cleanup completed", "view_entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	// Ensure shutdown logic runs only once
	s.shutdownOnce.Do(func() {
		// Stop cache cleanup goroutine
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}

		// Stop rate limiter cleanup goroutine
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}

		// Shutdown HTTP server
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := s.ips.clientIP(r)

		// Generate request ID for tracing
		requestID := generateRequestID()

		// Add request context with metadata and request ID
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		s.log.LogHTTPStart(ctx, r, requestID, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request", "client_ip", clientIP, "url", r.URL.String())
		}

		// Apply rate limiting to mutating requests
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Create a custom response writer to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		// Log request completion
		duration := time.Since(start)
		s.log.LogHTTPEnd(ctx, r, requestID, rw.statusCode, duration.Milliseconds(), clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}
