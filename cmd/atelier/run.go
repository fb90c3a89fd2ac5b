package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"mercator-hq/atelier/pkg/cli"
	"mercator-hq/atelier/pkg/config"
	"mercator-hq/atelier/pkg/limits"
	"mercator-hq/atelier/pkg/limits/ratelimit"
	"mercator-hq/atelier/pkg/providers/genai"
	"mercator-hq/atelier/pkg/proxy/handlers"
	"mercator-hq/atelier/pkg/security/secrets"
	"mercator-hq/atelier/pkg/server"
	"mercator-hq/atelier/pkg/telemetry/health"
	"mercator-hq/atelier/pkg/telemetry/logging"
	"mercator-hq/atelier/pkg/telemetry/metrics"
	"mercator-hq/atelier/pkg/telemetry/tracing"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	envFile       string
	watch         bool
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the image proxy",
	Long: `Start the image proxy with the specified configuration.

The upstream API key is read from GEMINI_API_KEY, then VITE_GEMINI_API_KEY.
A .env file in the working directory is loaded first if present.

Examples:
  # Start with default config
  atelier run

  # Start with custom config
  atelier run --config /etc/atelier/config.yaml

  # Override listen address
  atelier run --listen 0.0.0.0:8080

  # Validate config without starting server
  atelier run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&runFlags.envFile, "env-file", ".env", "dotenv file loaded before configuration")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", true, "reload the config file when it changes")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := loadEnvFile(runFlags.envFile); err != nil {
		return cli.NewConfigError("env-file", err.Error())
	}

	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()
	fileLevel := cfg.Telemetry.Logging.Level

	if runFlags.listenAddress != "" {
		cfg.Proxy.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:         cfg.Telemetry.Logging.Level,
		Format:        cfg.Telemetry.Logging.Format,
		AddSource:     cfg.Telemetry.Logging.AddSource,
		RedactSecrets: cfg.Telemetry.Logging.RedactEnabled(),
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	log := logger.Slog()
	slog.SetDefault(log)

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		cli.Check(out, true, "Configuration valid")
		return nil
	}

	printBanner(cmd, cfg)

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to initialize tracing: %w", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, registry)

	checker := health.New(cfg.Telemetry.Health.CheckTimeout, Version)

	counter, err := newCounter(ctx, cfg, checker)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	var limiter *ratelimit.Limiter
	if cfg.Limits.RateLimitEnabled() {
		limiter = ratelimit.NewLimiter(counter, rateLimitConfig(cfg))
		defer limiter.Close()

		reporter := limits.NewReporter(limiter, collector, cfg.Limits.ReportSchedule, log)
		if err := reporter.Start(ctx); err != nil {
			log.Warn("failed to start rate limit reporter", "error", err)
		} else {
			defer reporter.Stop()
		}
	} else {
		_ = counter.Close()
		log.Warn("rate limiting disabled")
	}

	client := genai.NewClient(genai.Config{
		BaseURL:       cfg.Gemini.BaseURL,
		EditModel:     cfg.Gemini.EditModel,
		GenerateModel: cfg.Gemini.GenerateModel,
		Timeout:       cfg.Gemini.Timeout,
	}, genai.WithTracer(tracer.Tracer()), genai.WithObserver(collector))

	apiKey := func() string { return config.GetConfig().Gemini.APIKey }
	checker.RegisterCheck(handlers.GeminiServiceName, handlers.GeminiHealthCheck(client, apiKey))

	if key := apiKey(); key == "" {
		log.Warn("upstream API key not configured", "env", secrets.APIKeyEnvVars)
	} else {
		log.Info("upstream API key loaded", "source", secrets.APIKeySource(), "key", secrets.MaskAPIKey(key))
	}

	if runFlags.watch {
		startWatcher(ctx, log, fileLevel, logger, limiter)
	}

	srv := server.NewServer(cfg, server.Dependencies{
		Client:  client,
		Limiter: limiter,
		Health:  checker,
		Metrics: collector,
		Logger:  log,
		APIKey:  apiKey,
		Current: config.GetConfig,
	})

	scheme := "http"
	if cfg.Proxy.TLS.Enabled {
		scheme = "https"
	}
	cli.Check(out, true, "Listening on %s", cfg.Proxy.ListenAddress)
	fmt.Fprintf(out, "  Image endpoint:  %s://%s%s\n", scheme, cfg.Proxy.ListenAddress, server.PathGemini)
	fmt.Fprintf(out, "  Health endpoint: %s://%s%s\n", scheme, cfg.Proxy.ListenAddress, server.PathHealth)
	if cfg.Telemetry.MetricsEnabled() {
		fmt.Fprintf(out, "  Metrics:         %s://%s%s\n", scheme, cfg.Proxy.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	cli.Check(out, true, "Server stopped")
	return nil
}

// newCounter builds the configured rate limit store. A Redis store is also
// registered as a health dependency.
func newCounter(ctx context.Context, cfg *config.Config, checker *health.Checker) (ratelimit.Counter, error) {
	rl := cfg.Limits.RateLimit
	if rl.Backend != "redis" {
		return ratelimit.NewMemoryCounter(), nil
	}

	password := rl.Redis.Password
	if password == "" {
		// Falls back to ATELIER_REDIS_PASSWORD.
		if v, err := secrets.NewEnvProvider("ATELIER_").GetSecret(ctx, "redis-password"); err == nil {
			password = v
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     rl.Redis.Address,
		Password: password,
		DB:       rl.Redis.DB,
	})
	counter, err := ratelimit.NewRedisCounter(ratelimit.RedisCounterConfig{
		Client: client,
		Prefix: rl.Redis.KeyPrefix,
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := counter.Ping(pingCtx); err != nil {
		slog.Warn("redis not reachable at startup, rate limiting fails open until it is",
			"address", rl.Redis.Address, "error", err)
	}

	checker.RegisterCheck("redis", counter.Ping)
	return counter, nil
}

func rateLimitConfig(cfg *config.Config) ratelimit.Config {
	return ratelimit.Config{
		Window:      cfg.Limits.RateLimit.Window,
		MaxRequests: cfg.Limits.RateLimit.MaxRequests,
	}
}

// startWatcher applies reloaded log levels and rate limits without a restart.
func startWatcher(ctx context.Context, log *slog.Logger, fileLevel string, logger *logging.Logger, limiter *ratelimit.Limiter) {
	if _, err := os.Stat(cfgFile); err != nil {
		log.Debug("config file not present, hot reload disabled", "path", cfgFile)
		return
	}

	watcher, err := config.NewWatcher(cfgFile, 0, log)
	if err != nil {
		log.Warn("failed to create config watcher", "error", err)
		return
	}

	go func() {
		defer watcher.Stop()
		if err := watcher.Watch(ctx, reloadFunc(log, fileLevel, logger, limiter)); err != nil {
			log.Error("config watcher stopped", "error", err)
		}
	}()
}

// reloadFunc builds the watcher callback. fileLevel is the level the file
// held at startup; the running level only changes when the file's level
// does, so --log-level and --verbose survive unrelated edits.
func reloadFunc(log *slog.Logger, fileLevel string, logger *logging.Logger, limiter *ratelimit.Limiter) func(*config.Config) {
	return func(cfg *config.Config) {
		if level := cfg.Telemetry.Logging.Level; level != fileLevel {
			if err := logger.SetLevel(level); err != nil {
				log.Warn("ignoring reloaded log level", "error", err)
			} else {
				fileLevel = level
			}
		}
		if limiter != nil {
			limiter.Update(rateLimitConfig(cfg))
		}
	}
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func printBanner(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Atelier v%s\n", Version)
	fmt.Fprintf(out, "Loading configuration from: %s\n", cfgFile)
	cli.Check(out, true, "Configuration loaded")

	slog.Debug("upstream configured",
		"base_url", cfg.Gemini.BaseURL,
		"edit_model", cfg.Gemini.EditModel,
		"generate_model", cfg.Gemini.GenerateModel,
	)
	slog.Debug("rate limiting configured",
		"enabled", cfg.Limits.RateLimitEnabled(),
		"backend", cfg.Limits.RateLimit.Backend,
		"window", cfg.Limits.RateLimit.Window,
		"max_requests", cfg.Limits.RateLimit.MaxRequests,
	)
}
