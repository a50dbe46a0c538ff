package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"bills/internal/cache"
	applog "bills/internal/log"
	"bills/internal/metrics"
	"bills/internal/middleware/ratelimit"
	"bills/internal/middleware/security"
	"bills/internal/middleware/trace"
	"bills/internal/services"
	"bills/internal/views"
)

// oauthStateTTL bounds how long a Drive sign-in may take between the auth
// URL and the callback.
const oauthStateTTL = 10 * time.Minute

// Options wires a Server. Bills is required; everything else is optional.
type Options struct {
	Addr  string
	Bills *services.BillService
	// Drive is nil when no Google OAuth client is configured.
	Drive *services.DriveService
	// FileCache, when set, is reported on /readyz.
	FileCache *cache.BlobStore
	Metrics   *metrics.Metrics
	Logger    *applog.Logger

	RateLimitPerMinute int
	CollationLocale    string
}

type Server struct {
	http.Server

	bills     *services.BillService
	drive     *services.DriveService
	fileCache *cache.BlobStore
	metrics   *metrics.Metrics
	logger    *applog.Logger
	grouper   views.Grouper
	limiter   *ratelimit.Limiter
	detector  *security.Detector

	oauthStates *cache.LRUCache[struct{}]
	started     time.Time
	now         func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentHTTP, Handler: slog.Default().Handler()})
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		bills:       opts.Bills,
		drive:       opts.Drive,
		fileCache:   opts.FileCache,
		metrics:     opts.Metrics,
		logger:      logger,
		grouper:     views.NewGrouper(opts.CollationLocale),
		oauthStates: cache.NewLRUCache[struct{}](64, oauthStateTTL),
		started:     time.Now(),
		now:         time.Now,
	}
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: opts.RateLimitPerMinute,
		MutatingOnly:      true,
	})
	s.detector = security.NewDetector(func(r *http.Request, clientIP string) {
		s.metrics.SuspiciousRequest()
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP)
	})

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = s.instrument(mux)
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.rateLimited)(handler)
	handler = security.NoStore(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = trace.NewMiddleware(logger, s.detector.ExtractClientIP).Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("GET /api/bills", s.handleListBills)
	mux.HandleFunc("POST /api/bills", s.handleCreateBill)
	mux.HandleFunc("GET /api/bills/{id}", s.handleGetBill)
	mux.HandleFunc("PUT /api/bills/{id}", s.handleUpdateBill)
	mux.HandleFunc("DELETE /api/bills/{id}", s.handleDeleteBill)
	mux.HandleFunc("PUT /api/bills/{id}/status", s.handleSetStatus)
	mux.HandleFunc("POST /api/bills/{id}/duplicate", s.handleDuplicateBill)
	mux.HandleFunc("POST /api/bills/{id}/files", s.handleAttachFiles)
	mux.HandleFunc("DELETE /api/bills/{id}/files/{fileId}", s.handleDetachFile)
	mux.HandleFunc("POST /api/bills/{id}/files/{fileId}/drive", s.handleUploadReceipt)
	mux.HandleFunc("GET /api/files/{id}", s.handleGetFile)

	mux.HandleFunc("GET /api/bill-types", s.handleListBillTypes)
	mux.HandleFunc("POST /api/bill-types", s.handleCreateBillType)
	mux.HandleFunc("PUT /api/bill-types/{id}", s.handleUpdateBillType)
	mux.HandleFunc("DELETE /api/bill-types/{id}", s.handleDeleteBillType)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleSaveSettings)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	mux.HandleFunc("GET /api/backup/export", s.handleExport)
	mux.HandleFunc("POST /api/backup/import", s.handleImport)
	mux.HandleFunc("POST /api/backup/remote", s.handleRequestRemoteBackup)
	mux.HandleFunc("DELETE /api/data", s.handleClearAll)

	mux.HandleFunc("GET /api/drive/status", s.handleDriveStatus)
	mux.HandleFunc("GET /api/drive/auth-url", s.handleDriveAuthURL)
	mux.HandleFunc("GET /api/drive/callback", s.handleDriveCallback)
	mux.HandleFunc("POST /api/drive/disconnect", s.handleDriveDisconnect)
	mux.HandleFunc("GET /api/drive/backups", s.handleListDriveBackups)
	mux.HandleFunc("POST /api/drive/backups", s.handleDriveBackup)
	mux.HandleFunc("POST /api/drive/backups/{id}/restore", s.handleDriveRestore)
	mux.HandleFunc("DELETE /api/drive/backups/{id}", s.handleDeleteDriveBackup)
}

// instrument records request metrics by mux pattern. It must wrap the mux
// directly so r.Pattern is visible after routing.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTP(r.Method, route, rec.status, time.Since(start))
	})
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.RateLimitHit()
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Shutdown gracefully shuts down the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
