package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/dd0wney/kvconform/pkg/client"
	"github.com/dd0wney/kvconform/pkg/config"
	"github.com/dd0wney/kvconform/pkg/conformance"
	"github.com/dd0wney/kvconform/pkg/logging"
	"github.com/dd0wney/kvconform/pkg/metrics"
)

// Exit codes: 0 full pass, 1 conformance failure, 2 setup failure.
const (
	exitPass  = 0
	exitFail  = 1
	exitSetup = 2
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	existingKeys := flag.String("existing-keys", "", "Policy for scenario keys left by a prior run: fail or overwrite")
	metricsAddr := flag.String("metrics", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(exitSetup)
	}
	endpoint := flag.Arg(0)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := config.Default(endpoint)
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Error("failed to load configuration", "error", err)
			os.Exit(exitSetup)
		}
		cfg = loaded
		cfg.Endpoint = endpoint
	}
	if *existingKeys != "" {
		cfg.ExistingKeys = *existingKeys
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(exitSetup)
	}

	logger.Info("kvconform starting",
		"endpoint", cfg.Endpoint,
		"timeout_ms", cfg.TransactionTimeoutMS,
		"retry_limit", cfg.RetryLimit,
	)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.DefaultRegistry().Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
		logger.Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	if err := client.SelectAPIVersion(client.APIVersionCurrent); err != nil {
		logger.Error("failed to select API version", "error", err)
		os.Exit(exitSetup)
	}

	db, err := client.Open(cfg.Endpoint)
	if err != nil {
		logger.Error("failed to open database", "endpoint", cfg.Endpoint, "error", err)
		os.Exit(exitSetup)
	}
	defer db.Close()

	structured := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel))
	db.SetLogger(structured.With(logging.Component("client")))

	checker, err := conformance.New(db, cfg.ScenarioOptions())
	if err != nil {
		logger.Error("invalid scenario options", "error", err)
		os.Exit(exitSetup)
	}
	checker.SetLogger(structured.With(logging.Component("conformance")))

	report, runErr := checker.Run()
	fmt.Print(report.String())

	if runErr != nil {
		if len(report.Steps) > 0 {
			logger.Error("conformance run failed", "error", runErr)
			os.Exit(exitFail)
		}
		// Nothing ran: connection, configuration, or dirty-store problem.
		logger.Error("conformance run aborted", "error", runErr)
		os.Exit(exitSetup)
	}

	logger.Info("conformance run passed", "steps", len(report.Steps))
	os.Exit(exitPass)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <endpoint>\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Verifies transaction size-limit conformance of the store at <endpoint>.\n")
	fmt.Fprintf(os.Stderr, "Endpoints: local: (embedded reference store), tcp://host:port,\n")
	fmt.Fprintf(os.Stderr, "ipc://path or inproc://name (store server).\n\n")
	flag.PrintDefaults()
}
