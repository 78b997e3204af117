package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/san-kum/wheelsim/internal/config"
	"github.com/san-kum/wheelsim/internal/experiment"
	"github.com/san-kum/wheelsim/internal/protocol"
	"github.com/san-kum/wheelsim/internal/storage"
)

// CompareFunc runs one PID/fuzzy comparison.
type CompareFunc func(ctx context.Context, params experiment.Params, opts experiment.Options) (*experiment.Comparison, error)

type Server struct {
	cfg      *config.ServerConfig
	log      *zap.Logger
	store    *storage.Store
	compare  CompareFunc
	upgrader websocket.Upgrader
	handler  http.Handler
	pongWait time.Duration

	// sessions outlive Shutdown because hijacked connections are not
	// tracked by http.Server; baseCtx ends them.
	baseCtx  context.Context
	cancel   context.CancelFunc
	sessions sync.WaitGroup
}

// New builds a server. store may be nil, in which case recording and the
// runs API are disabled.
func New(cfg *config.ServerConfig, log *zap.Logger, store *storage.Store) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:      cfg,
		log:      log,
		store:    store,
		compare:  experiment.Compare,
		pongWait: defaultPongWait,
		baseCtx:  ctx,
		cancel:   cancel,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.handler = s.routes()
	return s
}

// SetCompare replaces the comparison runner.
func (s *Server) SetCompare(fn CompareFunc) { s.compare = fn }

// SetKeepalive sets how long a socket may stay silent before it is dropped.
// Pings go out at nine tenths of that. Call before serving.
func (s *Server) SetKeepalive(pongWait time.Duration) { s.pongWait = pongWait }

func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(instrument)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(staticHandler()).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/simulate", s.handleSimulate).Methods(http.MethodPost)
	api.HandleFunc("/presets", s.handlePresets).Methods(http.MethodGet)
	api.HandleFunc("/runs", s.handleRuns).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}", s.handleRun).Methods(http.MethodGet)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	if len(s.cfg.AllowedOrigins) == 0 {
		return r
	}
	return cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         600,
	}).Handler(r)
}

// checkOrigin allows same-origin sockets, plus the configured origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Run serves until ctx is cancelled, then drains HTTP requests and closes
// open sockets.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.cancel()
		s.sessions.Wait()
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	s.cancel()
	s.sessions.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return err
}

// simulate runs a comparison and builds the reply, recording it when
// enabled. source labels metrics ("ws" or "http").
func (s *Server) simulate(ctx context.Context, params experiment.Params, source string) (*protocol.SimulationData, error) {
	start := time.Now()
	c, err := s.compare(ctx, params, s.cfg.Simulation)
	if err != nil {
		simulationsTotal.WithLabelValues(source, "error").Inc()
		return nil, err
	}
	elapsed := time.Since(start)
	simulationDuration.Observe(elapsed.Seconds())

	data := protocol.NewSimulationData(c, s.cfg.MaxPoints)
	if s.cfg.Record && s.store != nil {
		meta, err := s.store.Save(c)
		if err != nil {
			s.log.Warn("record run failed", zap.Error(err))
		} else {
			data.RunID = meta.ID
		}
	}

	simulationsTotal.WithLabelValues(source, "ok").Inc()
	simulationSamples.Observe(float64(data.Len()))
	s.log.Debug("simulation finished",
		zap.String("source", source),
		zap.Duration("elapsed", elapsed),
		zap.Int("samples", data.Len()),
		zap.Float64("omega_set", params.OmegaSet),
		zap.Float64("settling_pid", c.PID.Stats.SettlingTime),
		zap.Float64("settling_fuzzy", c.Fuzzy.Stats.SettlingTime),
		zap.String("run_id", data.RunID),
	)
	return data, nil
}
