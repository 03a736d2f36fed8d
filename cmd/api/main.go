package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"library-streaming-api/internal/api"
	"library-streaming-api/internal/config"
	"library-streaming-api/internal/store"
	"library-streaming-api/pkg/auth"
	"library-streaming-api/pkg/broadcast"
	"library-streaming-api/pkg/kafka"
	"library-streaming-api/pkg/metrics"
	"library-streaming-api/pkg/stream"
	"library-streaming-api/pkg/websocket"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}

func run() error {
	cfg := config.Load()
	log := logrus.NewEntry(newLogger(cfg))

	preg := prometheus.NewRegistry()
	preg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	met := metrics.New("library", preg)

	hub := broadcast.NewHub()
	registry := stream.NewRegistry(hub, met, log.WithField("component", "stream"))

	st, err := store.Open(cfg.DataDir, log.WithField("component", "store"))
	if err != nil {
		return err
	}

	server := api.NewServer(api.Deps{
		Registry:       registry,
		Store:          st,
		Auth:           auth.NewService(cfg.JWTSecret, cfg.TokenTTL),
		WS:             websocket.NewHandler(hub, registry, met, log.WithField("component", "websocket")),
		Metrics:        met,
		Log:            log.WithField("component", "api"),
		MetricsHandler: promhttp.HandlerFor(preg, promhttp.HandlerOpts{}),
		RateLimit:      rate.Limit(cfg.RateLimit),
		RateBurst:      cfg.RateBurst,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MirrorEnabled() {
		mirror, err := kafka.NewMirror(cfg.KafkaBrokers, cfg.KafkaTopic, met, log.WithField("component", "kafka"))
		if err != nil {
			// The mirror is optional; an unreachable broker must not keep
			// the engine from serving.
			log.WithError(err).Warn("kafka mirror disabled")
		} else {
			defer mirror.Close()
			go mirror.Run(ctx, hub)
		}
	}

	httpServer := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     server.Router(),
		ReadTimeout: 15 * time.Second,
		// No write timeout: the websocket endpoint writes for as long as
		// a client stays connected.
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", httpServer.Addr).Info("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	stopped := registry.StopAll()
	log.WithField("streams", stopped).Info("streams stopped")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.LogJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
