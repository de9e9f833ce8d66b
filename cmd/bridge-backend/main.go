package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/vazco/EthereumBridgeBackend/pkg/api"
	"github.com/vazco/EthereumBridgeBackend/pkg/chain"
	"github.com/vazco/EthereumBridgeBackend/pkg/config"
	"github.com/vazco/EthereumBridgeBackend/pkg/jobs"
	"github.com/vazco/EthereumBridgeBackend/pkg/jobs/pairs"
	"github.com/vazco/EthereumBridgeBackend/pkg/jobs/statistics"
	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
	"github.com/vazco/EthereumBridgeBackend/pkg/metrics"
	"github.com/vazco/EthereumBridgeBackend/pkg/prices/oracles"
	"github.com/vazco/EthereumBridgeBackend/pkg/prices/updater"
	"github.com/vazco/EthereumBridgeBackend/pkg/store/mongostore"
	"github.com/vazco/EthereumBridgeBackend/pkg/version"
	"github.com/vazco/EthereumBridgeBackend/pkg/votes"
)

var (
	configFile = flag.String("config", "config/config.yaml", "Path to configuration file")
	showVer    = flag.Bool("version", false, "Show version and exit")
	jobsOnly   = flag.Bool("jobs", false, "Run scheduled jobs only")
	apiOnly    = flag.Bool("api", false, "Run HTTP API only")
	once       = flag.Bool("once", false, "Run every enabled job once and exit")
	broadcast  = flag.String("broadcast", "", "Broadcast a base64 encoded signed transaction from this file and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("bridge-backend version %s\n", version.Version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Override mode based on flags
	if *jobsOnly || *once {
		cfg.Mode = config.ModeJobs
	} else if *apiOnly {
		cfg.Mode = config.ModeAPI
	}

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.InitWithRotation(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, logging.FileOptions{
		MaxSize:    cfg.Logging.File.MaxSize,
		MaxBackups: cfg.Logging.File.MaxBackups,
		MaxAge:     cfg.Logging.File.MaxAge,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *broadcast != "" {
		if err := runBroadcast(ctx, cfg, *broadcast, logger); err != nil {
			logger.Error("Broadcast failed", "error", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("Starting bridge-backend", "version", version.Version, "mode", cfg.Mode)

	if cfg.Metrics.Enabled {
		metrics.Init()
		go func() {
			logger.Info("Starting metrics server", "addr", cfg.Metrics.Addr, "path", cfg.Metrics.Path)
			if err := metrics.ServeHTTP(cfg.Metrics.Addr, cfg.Metrics.Path); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	connector := &mongostore.Connector{
		URL:            cfg.MongoDB.URL,
		Database:       cfg.MongoDB.Database,
		ConnectTimeout: cfg.MongoDB.ConnectTimeout.ToDuration(),
	}

	var node *chain.Client
	if len(cfg.Chain.GRPCEndpoints) > 0 {
		node, err = newChainClient(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to create chain client", "error", err)
		}
		defer func() {
			if err := node.Close(); err != nil {
				logger.Warn("Failed to close chain client", "error", err)
			}
		}()
	}

	if *once {
		runner, err := buildRunner(cfg, connector, node, logger)
		if err != nil {
			logger.Fatal("Failed to build jobs", "error", err)
		}
		if err := runner.RunOnce(ctx); err != nil {
			logger.Error("Run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	errChan := make(chan error, 1)

	var runner *jobs.Runner
	if cfg.RunsJobs() {
		runner, err = buildRunner(cfg, connector, node, logger)
		if err != nil {
			logger.Fatal("Failed to build jobs", "error", err)
		}
		logger.Info("Starting scheduled jobs")
		runner.Start(ctx)
	}

	var server *api.Server
	var closeAPI func()
	if cfg.RunsAPI() {
		server, closeAPI, err = buildAPI(ctx, cfg, connector, node, logger)
		if err != nil {
			logger.Fatal("Failed to start API", "error", err)
		}
		go func() {
			errChan <- server.Start()
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-errChan:
		if err != nil {
			logger.Error("Component failed", "error", err)
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("Shutting down gracefully...")
	if server != nil {
		if err := server.Stop(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown failed", "error", err)
		}
		closeAPI()
	}
	if runner != nil {
		done := make(chan struct{})
		go func() {
			runner.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-shutdownCtx.Done():
			logger.Warn("Jobs did not stop before the shutdown timeout")
		}
	}
	logger.Info("Shutdown complete")
}

func newChainClient(cfg *config.Config, logger *logging.Logger) (*chain.Client, error) {
	endpoints := make([]chain.EndpointConfig, len(cfg.Chain.GRPCEndpoints))
	for i, ep := range cfg.Chain.GRPCEndpoints {
		endpoints[i] = chain.EndpointConfig{Address: ep.Address, TLS: ep.TLS}
	}
	return chain.NewClient(chain.Config{
		Endpoints: endpoints,
		Timeout:   cfg.Chain.Timeout.ToDuration(),
		Logger:    logger.With("component", "chain"),
	})
}

func buildRunner(cfg *config.Config, connector *mongostore.Connector, node *chain.Client, logger *logging.Logger) (*jobs.Runner, error) {
	list, err := oracles.Build(cfg.Prices.Oracles, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build oracles: %w", err)
	}
	names := make([]string, len(list))
	for i, o := range list {
		names[i] = o.Name()
	}
	logger.Info("Oracles enabled", "oracles", strings.Join(names, ","))

	runner := jobs.NewRunner(logger.With("component", "runner"))
	if err := runner.Add(updater.NewJob(&cfg.Prices, connector, list, logger), cfg.Prices.Interval.ToDuration()); err != nil {
		return nil, err
	}

	if cfg.Jobs.Pairs.Enabled {
		job := pairs.NewJob(&cfg.Jobs.Pairs, connector, node, logger)
		if err := runner.Add(job, cfg.Jobs.Pairs.Interval.ToDuration()); err != nil {
			return nil, err
		}
	}
	if cfg.Jobs.Statistics.Enabled {
		job := statistics.NewJob(&cfg.Jobs.Statistics, connector, node, logger)
		if err := runner.Add(job, cfg.Jobs.Statistics.Interval.ToDuration()); err != nil {
			return nil, err
		}
	}
	return runner, nil
}

// buildAPI opens the long-lived store connection the API reads from and
// returns the server with a function that releases its resources.
func buildAPI(ctx context.Context, cfg *config.Config, connector *mongostore.Connector, node *chain.Client, logger *logging.Logger) (*api.Server, func(), error) {
	st, err := connector.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	cache := api.NewCache(cfg.API.Cache, logger.With("component", "cache"))
	svc := votes.NewService(node, st, cfg.API.GovernancePoolAddr, logger)
	server := api.NewServer(cfg.API.HTTP, st, svc, cache, logger)

	release := func() {
		if err := cache.Close(); err != nil {
			logger.Warn("Failed to close cache", "error", err)
		}
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Warn("Failed to close database connection", "error", err)
		}
	}
	return server, release, nil
}

func runBroadcast(ctx context.Context, cfg *config.Config, path string, logger *logging.Logger) error {
	if len(cfg.Chain.GRPCEndpoints) == 0 {
		return chain.ErrNoEndpoints
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read tx file: %w", err)
	}
	txBytes, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("tx file is not base64: %w", err)
	}

	node, err := newChainClient(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = node.Close() }()

	resp, err := node.BroadcastTx(ctx, txBytes)
	if resp != nil {
		logger.Info("Transaction broadcast", "txhash", resp.TxHash, "code", resp.Code)
	}
	if errors.Is(err, chain.ErrTxFailed) {
		return fmt.Errorf("rejected by chain: %w", err)
	}
	return err
}
