package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dd0wney/kvconform/pkg/logging"
	"github.com/dd0wney/kvconform/pkg/metrics"
	"github.com/dd0wney/kvconform/pkg/server"
	"github.com/dd0wney/kvconform/pkg/store"
)

func main() {
	listenAddr := flag.String("listen", "tcp://127.0.0.1:4500", "Wire protocol listen address")
	sizeLimit := flag.Int64("size-limit", store.DefaultSizeLimit, "Default transaction size limit in bytes")
	metricsAddr := flag.String("metrics", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	st := store.New()
	if *sizeLimit != store.DefaultSizeLimit {
		if err := st.SetDefaultSizeLimit(*sizeLimit); err != nil {
			logger.Error("invalid size limit", "size_limit", *sizeLimit, "error", err)
			os.Exit(1)
		}
	}

	srv, err := server.New(server.DefaultConfig(*listenAddr), st)
	if err != nil {
		logger.Error("invalid server configuration", "error", err)
		os.Exit(1)
	}
	srv.SetLogger(logging.NewDefaultLogger().With(logging.Component("server")))

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.DefaultRegistry().Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
		logger.Info("serving metrics", "addr", *metricsAddr)
	}

	if err := srv.Start(); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}
	logger.Info("reference store server running",
		"listen", *listenAddr,
		"size_limit", st.DefaultSizeLimitBytes(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("shutting down", "signal", sig.String())
	srv.Stop()
}
