package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/louweal/trusense-web-server/internal/alerting"
	"github.com/louweal/trusense-web-server/internal/config"
	"github.com/louweal/trusense-web-server/internal/handlers"
	"github.com/louweal/trusense-web-server/internal/ledger"
	"github.com/louweal/trusense-web-server/internal/logger"
	"github.com/louweal/trusense-web-server/internal/mail"
	"github.com/louweal/trusense-web-server/internal/middleware"
	"github.com/louweal/trusense-web-server/internal/stream"
	"github.com/louweal/trusense-web-server/internal/store"
)

// Server is the high-level coordinator wiring the ledger client, alerting
// engine, mailer, and HTTP surface together.
type Server struct {
	cfg        *config.Config
	hedera     *ledger.HederaClient
	engine     *alerting.Engine
	mailer     *mail.Service
	mirror     *stream.Mirror
	source     *store.PostgresSource
	httpServer *http.Server
	wg         sync.WaitGroup
}

// New constructs a fully wired server from config.
func New(cfg *config.Config) (*Server, error) {
	log := logger.WithComponent("server")

	hederaClient, err := ledger.NewHederaClient(cfg.Hedera)
	if err != nil {
		return nil, fmt.Errorf("initializing hedera client: %w", err)
	}

	var source *store.PostgresSource
	if cfg.Postgres.DSN != "" {
		source, err = store.NewPostgresSource(context.Background(), cfg.Postgres.DSN)
		if err != nil {
			// Run degraded rather than refuse to start: topics simply
			// hydrate as empty until the store comes back on a restart.
			log.Warn().Err(err).Msg("subscriber store unavailable, alerting runs without hydration")
			source = nil
		}
	}

	mailer := mail.NewService(cfg.SMTP)
	throttle := alerting.NewThrottle(cfg.ThrottleWindow)
	notifier := alerting.NewNotifier(mailer, throttle, cfg.DashboardURL)

	var subscriberSource alerting.SubscriberSource
	if source != nil {
		subscriberSource = source
	}
	thresholds := alerting.NewThresholdStore(subscriberSource)
	engine := alerting.NewEngine(thresholds, notifier)

	s := &Server{
		cfg:    cfg,
		hedera: hederaClient,
		engine: engine,
		mailer: mailer,
		mirror: stream.NewMirror(cfg.Mirror),
		source: source,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      s.buildMux(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s, nil
}

// buildMux wires routes and middleware.
func (s *Server) buildMux() http.Handler {
	mux := http.NewServeMux()

	dataHandler := handlers.NewDataHandler(s.hedera, s.engine, s.mirror)
	settingsHandler := handlers.NewSettingsHandler(s.engine.Store())

	mux.Handle("POST /data", dataHandler)
	mux.HandleFunc("POST /settings/{topicId}/{subscriberId}", settingsHandler.UpsertSubscriber)
	mux.HandleFunc("GET /device-settings/{topicId}", settingsHandler.GetDeviceSettings)
	mux.HandleFunc("POST /device-settings/{topicId}", settingsHandler.UpsertDeviceSettings)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return middleware.Chain(
		mux,
		middleware.Recovery,
		middleware.Logging,
		middleware.CORS,
	)
}

// Run starts background services and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	log := logger.WithComponent("server")

	s.mailer.Open()
	s.mirror.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info().Str("addr", s.cfg.HTTPAddr).Msg("starting HTTP server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")
	return s.shutdown()
}

// shutdown stops the HTTP server, flushes the mirror and mailer, and closes
// the external clients.
func (s *Server) shutdown() error {
	log := logger.WithComponent("server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown error")
	}
	s.wg.Wait()

	s.mirror.Stop()
	if err := s.mailer.Close(); err != nil {
		log.Warn().Err(err).Msg("mailer close error")
	}
	if s.source != nil {
		s.source.Close()
	}
	if err := s.hedera.Close(); err != nil {
		log.Warn().Err(err).Msg("hedera client close error")
	}

	log.Info().Msg("server stopped")
	return nil
}
