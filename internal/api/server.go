package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/bmc/internal/catalog"
	"github.com/abhisek/bmc/internal/metrics"
	"github.com/abhisek/bmc/internal/offline"
	"github.com/abhisek/bmc/internal/tracker"
)

// Options configures a Server.
type Options struct {
	Controller *tracker.Controller
	// Worker is the offline cache layer; nil disables /v1/cache and sends
	// mirrored requests straight to the network.
	Worker *offline.Worker
	// AssetBaseURL is the origin mirrored for non-API GET requests.
	AssetBaseURL string
	Logger       *zap.Logger
}

// Server wires HTTP handlers to the tracker and the offline worker.
type Server struct {
	router chi.Router
	logger *zap.Logger

	// mu serializes tracker commands; the controller is single-threaded.
	mu   sync.Mutex
	ctrl *tracker.Controller

	worker    *offline.Worker
	assetBase *url.URL
	assets    *http.Client
}

// NewServer constructs a Server with middleware and routes.
func NewServer(opts Options) (*Server, error) {
	if opts.Controller == nil {
		return nil, errors.New("api: controller is required")
	}
	base, err := url.Parse(opts.AssetBaseURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("api: asset base url %q must be absolute", opts.AssetBaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		logger:    logger.Named("api"),
		ctrl:      opts.Controller,
		worker:    opts.Worker,
		assetBase: base,
		assets:    &http.Client{Timeout: 30 * time.Second},
	}
	if opts.Worker != nil {
		s.assets = opts.Worker.Client()
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/units", func(r chi.Router) {
			r.Get("/", s.listUnits)
			r.Route("/{unit_id}", func(r chi.Router) {
				r.Get("/", s.getUnit)
				r.Post("/select", s.selectUnit)
			})
		})
		r.Post("/complete", s.complete)
		r.Get("/progress", s.progress)
		r.Get("/exam", s.exam)
		r.Post("/navigate", s.navigate)
		r.Get("/cache", s.cacheStatus)
	})

	r.NotFound(s.mirror)

	s.router = r
	return s, nil
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("mirror listening", zap.String("addr", addr), zap.String("origin", s.assetBase.String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type unitsResponse struct {
	Units   []tracker.ListItem `json:"units"`
	Summary tracker.Summary    `json:"summary"`
	Label   string             `json:"label"`
}

func (s *Server) listUnits(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := s.ctrl.List(r.URL.Query().Get("q"))
	sum := s.ctrl.Summary()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, unitsResponse{Units: items, Summary: sum, Label: tracker.CountLabel(sum)})
}

type unitResponse struct {
	Unit      catalog.Unit `json:"unit"`
	Completed bool         `json:"completed"`
	Active    bool         `json:"active"`
}

func (s *Server) getUnit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "unit_id")

	s.mu.Lock()
	st := s.ctrl.State()
	s.mu.Unlock()

	u, ok := st.Catalog.Find(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unit not found")
		return
	}
	writeJSON(w, http.StatusOK, unitResponse{Unit: u, Completed: st.IsComplete(id), Active: st.ActiveID == id})
}

type stateResponse struct {
	Detail   *tracker.Detail `json:"detail"`
	Summary  tracker.Summary `json:"summary"`
	Gate     tracker.Gate    `json:"gate"`
	ActiveID string          `json:"active_unit_id"`
	Location string          `json:"location"`
}

// snapshot must be called with s.mu held.
func (s *Server) snapshot() stateResponse {
	resp := stateResponse{
		Summary:  s.ctrl.Summary(),
		Gate:     s.ctrl.Gate(),
		ActiveID: s.ctrl.State().ActiveID,
		Location: s.ctrl.Location(),
	}
	if d, ok := s.ctrl.Detail(); ok {
		resp.Detail = &d
	}
	return resp
}

func (s *Server) selectUnit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "unit_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.ctrl.SelectUnit(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, "unit not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "persist selection: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) complete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active, err := s.ctrl.CompleteActiveUnit(r.Context())
	if !active {
		writeError(w, http.StatusConflict, "no active unit")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "persist completion: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) progress(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.snapshot())
}

type examResponse struct {
	tracker.Gate
	URL string `json:"url,omitempty"`
}

func (s *Server) exam(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	gate := s.ctrl.Gate()
	examURL := s.ctrl.ExamURL()
	s.mu.Unlock()

	resp := examResponse{Gate: gate}
	if gate.Enabled {
		resp.URL = examURL
	}
	writeJSON(w, http.StatusOK, resp)
}

type navigateRequest struct {
	Link string `json:"link"`
}

func (s *Server) navigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctrl.Navigate(r.Context(), req.Link); err != nil {
		writeError(w, http.StatusInternalServerError, "persist selection: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot())
}

type cacheResponse struct {
	Enabled bool        `json:"enabled"`
	Phase   string      `json:"phase,omitempty"`
	Name    string      `json:"name,omitempty"`
	Caches  []cacheInfo `json:"caches,omitempty"`
}

type cacheInfo struct {
	Name       string `json:"name"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"total_bytes"`
}

func (s *Server) cacheStatus(w http.ResponseWriter, r *http.Request) {
	if s.worker == nil {
		writeJSON(w, http.StatusOK, cacheResponse{Enabled: false})
		return
	}
	st, err := s.worker.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := cacheResponse{Enabled: true, Phase: st.Phase.String(), Name: st.Name}
	for _, c := range st.Caches {
		resp.Caches = append(resp.Caches, cacheInfo{Name: c.Name, Entries: c.Entries, TotalBytes: c.TotalBytes})
	}
	writeJSON(w, http.StatusOK, resp)
}

// mirror serves every other GET/HEAD from the asset origin through the
// offline transport.
func (s *Server) mirror(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ref := &url.URL{Path: strings.TrimPrefix(r.URL.Path, "/"), RawQuery: r.URL.RawQuery}
	target := s.assetBase.ResolveReference(ref)

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	}
	resp, err := s.assets.Do(req)
	if err != nil {
		s.logger.Warn("mirror fetch failed", zap.String("url", target.String()), zap.Error(err))
		writeError(w, http.StatusBadGateway, "asset unavailable")
		return
	}
	defer resp.Body.Close()

	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Debug("mirror copy interrupted", zap.Error(err))
	}
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		reqID, _ := r.Context().Value(requestIDKey{}).(string)
		s.logger.Info("request completed",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
