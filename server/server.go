package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vitwit/kycsbt/clients"
	"github.com/vitwit/kycsbt/logger"
	"github.com/vitwit/kycsbt/metrics"
	"github.com/vitwit/kycsbt/types"
	"github.com/vitwit/kycsbt/utils"
	"github.com/vitwit/kycsbt/verification"
	"golang.org/x/sync/errgroup"
)

// Service is what the API reads from. Ledger may return nil while no RPC
// endpoint is bound.
type Service interface {
	Ledger() clients.Ledger
	Current() types.NetworkConfig
	Select(ctx context.Context, chainIdentifier *string) (types.NetworkConfig, error)
}

// Server is a read-only JSON view of the registry plus network selection.
type Server struct {
	svc      Service
	logger   logger.Logger
	metrics  metrics.Recorder
	gatherer prometheus.Gatherer
	timeout  time.Duration
	router   chi.Router
}

type Option func(*Server)

func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

func WithMetrics(m metrics.Recorder) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithGatherer exposes g on /metrics. Without it /metrics is not mounted.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithTimeout bounds each ledger read. Zero keeps the default.
func WithTimeout(t time.Duration) Option {
	return func(s *Server) {
		if t > 0 {
			s.timeout = t
		}
	}
}

func New(svc Service, opts ...Option) *Server {
	s := &Server{
		svc:     svc,
		logger:  logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Get("/network", s.handleGetNetwork)
	r.Post("/network", s.handleSelectNetwork)
	r.Get("/fee", s.handleFee)
	r.Route("/kyc/{address}", func(r chi.Router) {
		r.Get("/", s.handleKyc)
		r.Get("/human", s.handleHuman)
	})
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("api listening", map[string]any{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		network := s.svc.Current().Name()
		s.metrics.ObserveLatency("http_request", time.Since(start), map[string]string{"network": network})
		if ww.Status() >= http.StatusInternalServerError {
			s.metrics.IncCounter(metrics.EventHTTPError, map[string]string{"network": network})
		}
		s.logger.Debug("http request", map[string]any{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"requestId": middleware.GetReqID(r.Context()),
		})
	})
}

type healthResponse struct {
	Status  string `json:"status"`
	Network string `json:"network"`
	Bound   bool   `json:"bound"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Network: s.svc.Current().Name(),
		Bound:   s.svc.Ledger() != nil,
	})
}

func (s *Server) handleGetNetwork(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Current())
}

type selectRequest struct {
	ChainID *string `json:"chainId"`
}

func (s *Server) handleSelectNetwork(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, types.NewError(types.ErrInvalidInput, "invalid request body"))
		return
	}
	if req.ChainID != nil {
		id, err := utils.NormalizeChainIdentifier(*req.ChainID)
		if err != nil {
			s.writeError(w, types.NewError(types.ErrInvalidInput, err.Error()))
			return
		}
		req.ChainID = &id
	}

	cfg, err := s.svc.Select(r.Context(), req.ChainID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

type kycResponse struct {
	Address     common.Address  `json:"address"`
	Network     string          `json:"network"`
	Record      types.KycRecord `json:"record"`
	Registered  bool            `json:"registered"`
	Phase       types.Phase     `json:"phase"`
	PhaseText   string          `json:"phaseText"`
	LevelText   string          `json:"levelText"`
	StatusText  string          `json:"statusText"`
	CreatedText string          `json:"createdText"`
}

func (s *Server) handleKyc(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.address(w, r)
	if !ok {
		return
	}
	ledger, ok := s.ledger(w)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	rec, err := ledger.GetKycInfo(ctx, addr)
	if err != nil {
		s.writeError(w, err)
		return
	}

	phase := types.DerivePhase(true, &rec)
	writeJSON(w, http.StatusOK, kycResponse{
		Address:     addr,
		Network:     s.svc.Current().Name(),
		Record:      rec,
		Registered:  rec.Registered(),
		Phase:       phase,
		PhaseText:   phase.String(),
		LevelText:   rec.Level.String(),
		StatusText:  rec.Status.String(),
		CreatedText: rec.CreatedText(),
	})
}

func (s *Server) handleHuman(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.address(w, r)
	if !ok {
		return
	}

	minLevel := types.LevelBasic
	if raw := r.URL.Query().Get("minLevel"); raw != "" {
		lvl, ok := types.ParseLevel(raw)
		if !ok {
			s.writeError(w, types.NewError(types.ErrInvalidInput, "invalid minLevel: "+raw))
			return
		}
		minLevel = lvl
	}

	ledger, ok := s.ledger(w)
	if !ok {
		return
	}

	res, err := verification.NewVerificationService(ledger, s.timeout).Verify(r.Context(), addr, minLevel)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type feeResponse struct {
	Wei       string `json:"wei"`
	Formatted string `json:"formatted"`
}

func (s *Server) handleFee(w http.ResponseWriter, r *http.Request) {
	ledger, ok := s.ledger(w)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	fee, err := ledger.GetTotalFee(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feeResponse{Wei: fee.String(), Formatted: utils.FormatWei(fee)})
}

func (s *Server) address(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	addr, err := utils.ValidateAddress(chi.URLParam(r, "address"))
	if err != nil {
		s.writeError(w, types.NewError(types.ErrInvalidInput, err.Error()))
		return common.Address{}, false
	}
	return addr, true
}

func (s *Server) ledger(w http.ResponseWriter) (clients.Ledger, bool) {
	l := s.svc.Ledger()
	if l == nil {
		s.writeError(w, types.NewError(types.ErrConnectivity, "no ledger bound for "+s.svc.Current().Name()))
		return nil, false
	}
	return l, true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var ke *types.KycError
	if !errors.As(err, &ke) {
		ke = &types.KycError{Code: types.ErrReadFailed, Message: err.Error()}
	}
	status := statusFor(ke.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]any{"code": ke.Code, "error": err})
	}
	writeJSON(w, status, ke)
}

func statusFor(code string) int {
	switch code {
	case types.ErrInvalidInput:
		return http.StatusBadRequest
	case types.ErrConnectivity, types.ErrReadFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
