// Package api exposes availability queries, order submission and staff
// decisions over HTTP.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"pizzaflow/internal/booking"
	"pizzaflow/internal/model"
	"pizzaflow/internal/timeutil"
)

// Booker is the write side of the API.
type Booker interface {
	SubmitOrder(ctx context.Context, req booking.SubmitRequest) (*booking.Result, error)
	AcceptOrder(ctx context.Context, id, actor string) (model.Order, error)
	ArchiveOrder(ctx context.Context, id, actor string) (model.Order, error)
	RejectOrder(ctx context.Context, id, actor string) error
	SetTableStatus(ctx context.Context, id int, status model.TableStatus, actor string) error
}

// Reader serves live orders and tables to the read paths.
type Reader interface {
	Orders() []model.Order
	Tables() []model.Table
}

// AuditSource lists the audit entries of a date for the agenda export.
type AuditSource interface {
	ListAudit(ctx context.Context, date string) ([]model.AuditEntry, error)
}

// ReadyCheck is a named dependency check for /readyz.
type ReadyCheck struct {
	Name  string
	Check func(context.Context) error
}

// Options configure the server. PublicRateLimit is requests per second per
// client address on public order submission; zero disables limiting.
type Options struct {
	Address         string
	StaffAPIKey     string
	PublicRateLimit float64
	PublicBurst     int
}

type HTTPServer struct {
	booker   Booker
	reader   Reader
	calendar booking.CalendarSource
	clock    timeutil.Clock
	staffKey string
	limiter  *clientLimiter
	audit    AuditSource
	checks   []ReadyCheck
	logger   *zerolog.Logger
	server   *http.Server
}

// SetAuditSource makes the agenda export include the audit sheet.
func (s *HTTPServer) SetAuditSource(src AuditSource) {
	s.audit = src
}

func NewHTTPServer(opts Options, booker Booker, reader Reader, calendar booking.CalendarSource, clock timeutil.Clock, logger *zerolog.Logger, checks ...ReadyCheck) *HTTPServer {
	if clock == nil {
		clock = timeutil.SystemClock
	}
	s := &HTTPServer{
		booker:   booker,
		reader:   reader,
		calendar: calendar,
		clock:    clock,
		staffKey: opts.StaffAPIKey,
		checks:   checks,
		logger:   logger,
	}
	if opts.PublicRateLimit > 0 {
		burst := opts.PublicBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = newClientLimiter(rate.Limit(opts.PublicRateLimit), burst)
	}
	s.server = &http.Server{
		Addr:              opts.Address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *HTTPServer) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(s.checks))

	mux.HandleFunc("GET /api/v1/slots", s.handleSlots)
	mux.HandleFunc("GET /api/v1/dates/status", s.handleDateStatus)
	mux.HandleFunc("POST /api/v1/dates/availability", s.handleDateRange)
	mux.HandleFunc("GET /api/v1/tables/available", s.handleAvailableTables)
	mux.Handle("POST /api/v1/orders", s.rateLimited(http.HandlerFunc(s.handlePublicOrder)))

	mux.Handle("GET /api/v1/staff/slots", s.staffOnly(http.HandlerFunc(s.handleStaffSlots)))
	mux.Handle("POST /api/v1/staff/orders", s.staffOnly(http.HandlerFunc(s.handleStaffCreate)))
	mux.Handle("PUT /api/v1/staff/orders/{id}", s.staffOnly(http.HandlerFunc(s.handleStaffUpdate)))
	mux.Handle("POST /api/v1/staff/orders/{id}/accept", s.staffOnly(http.HandlerFunc(s.handleAccept)))
	mux.Handle("POST /api/v1/staff/orders/{id}/archive", s.staffOnly(http.HandlerFunc(s.handleArchive)))
	mux.Handle("DELETE /api/v1/staff/orders/{id}", s.staffOnly(http.HandlerFunc(s.handleReject)))
	mux.Handle("PUT /api/v1/staff/tables/{id}/status", s.staffOnly(http.HandlerFunc(s.handleTableStatus)))
	mux.Handle("GET /api/v1/staff/agenda.xlsx", s.staffOnly(http.HandlerFunc(s.handleAgenda)))

	return mux
}

// Handler returns the routed handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctxShutdown)
	}()

	s.logger.Info().Str("address", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// HealthHandler serves /healthz and /readyz on their own, for a
// dedicated health port.
func HealthHandler(checks ...ReadyCheck) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(checks))
	return mux
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(checks []ReadyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var failures []string
		for _, check := range checks {
			if check.Check == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			err := check.Check(ctx)
			cancel()
			if err != nil {
				failures = append(failures, check.Name+": "+err.Error())
			}
		}
		if len(failures) > 0 {
			http.Error(w, strings.Join(failures, "; "), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}

func (s *HTTPServer) staffOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Api-Key")
		if s.staffKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.staffKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.allow(clientAddr(r)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// maxClients bounds the limiter table; it is reset when full.
const maxClients = 10000

type clientLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*rate.Limiter
}

func newClientLimiter(limit rate.Limit, burst int) *clientLimiter {
	return &clientLimiter{limit: limit, burst: burst, clients: make(map[string]*rate.Limiter)}
}

func (c *clientLimiter) allow(key string) bool {
	c.mu.Lock()
	l, ok := c.clients[key]
	if !ok {
		if len(c.clients) >= maxClients {
			c.clients = make(map[string]*rate.Limiter)
		}
		l = rate.NewLimiter(c.limit, c.burst)
		c.clients[key] = l
	}
	c.mu.Unlock()
	return l.Allow()
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
