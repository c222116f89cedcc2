package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"syscall"

	"github.com/yndnr/meterd/internal/core/service"
	"github.com/yndnr/meterd/internal/infra/buildinfo"
	"github.com/yndnr/meterd/internal/infra/confloader"
	"github.com/yndnr/meterd/internal/infra/shutdown"
	"github.com/yndnr/meterd/internal/infra/tlsroots"
	"github.com/yndnr/meterd/internal/server/config"
	"github.com/yndnr/meterd/internal/server/httpserver"
	"github.com/yndnr/meterd/internal/server/httpserver/handler"
	"github.com/yndnr/meterd/internal/server/localserver"
	"github.com/yndnr/meterd/internal/telemetry/logger"
	"github.com/yndnr/meterd/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("meterd-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := initLogger(cfg)
	build := buildinfo.Get()
	log.Info("starting meterd-server",
		"version", build.Version,
		"commit", build.Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Registry and its probes
	registry := service.NewRegistry(config.ToRegistryConfig(cfg, log))
	if err := registry.Start(ctx); err != nil {
		return fmt.Errorf("start registry: %w", err)
	}

	var metrics *metric.Registry
	if cfg.Metrics.PrometheusEnabled {
		metrics = metric.NewRegistry()
		if err := metrics.Register(metric.NewCollector(registry)); err != nil {
			registry.Close()
			return fmt.Errorf("register collector: %w", err)
		}
	}

	httpHandler := handler.New(service.NewCoordinator(registry), log)

	routerCfg := httpserver.DefaultRouterConfig()
	routerCfg.Handler = httpHandler
	routerCfg.Recorder = registry
	routerCfg.RecordAPI = cfg.Metrics.RecordAPI
	routerCfg.Metrics = metrics
	routerCfg.Logger = log
	routerCfg.AdminKeyHash = cfg.Admin.APIKeyHash
	routerCfg.AdminAllowList = cfg.Admin.AllowList
	routerCfg.TrustedProxies = cfg.Server.HTTP.TrustedProxies
	routerCfg.CORSAllowedOrigins = cfg.Server.HTTP.CORSAllowedOrigins
	routerCfg.RateLimit = cfg.Server.HTTP.RateLimit
	routerCfg.RateBurst = cfg.Server.HTTP.RateBurst

	serverOpts := []httpserver.Option{
		httpserver.WithTimeouts(cfg.Server.HTTP.ReadTimeout, cfg.Server.HTTP.WriteTimeout),
		httpserver.WithLogger(log),
	}

	var certs *tlsroots.CertReloader
	if cfg.Server.HTTP.TLSCertFile != "" {
		certs, err = tlsroots.NewCertReloader(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile,
			tlsroots.WithLogger(log))
		if err != nil {
			registry.Close()
			return fmt.Errorf("load tls certificate: %w", err)
		}
		serverOpts = append(serverOpts, httpserver.WithTLSConfig(certs.ServerConfig()))
		go func() {
			if err := certs.Watch(ctx); err != nil {
				log.Warn("certificate watcher stopped", "error", err)
			}
		}()
	}

	httpServer := httpserver.New(cfg.Server.HTTP.Addr, httpserver.NewRouter(routerCfg), serverOpts...)

	// The local socket is trusted: no key, no allow list, not recorded.
	var local *localserver.Server
	if path := cfg.Server.Local.SocketPath; path != "" {
		localCfg := *routerCfg
		localCfg.AdminKeyHash = ""
		localCfg.AdminAllowList = nil
		localCfg.RecordAPI = false
		localCfg.RateLimit = 0
		local = localserver.New(path, httpserver.NewRouter(&localCfg), log)
		if err := local.Listen(); err != nil {
			registry.Close()
			return fmt.Errorf("local socket: %w", err)
		}
	}

	if cfg.Admin.APIKeyHash == "" {
		log.Warn("admin.api_key_hash is empty; resetting reads and /admin endpoints are unauthenticated")
	}

	// Steps unwind newest first: HTTP, then the socket, then the probes.
	stack := shutdown.NewStack(cfg.Server.HTTP.ShutdownTimeout, log)

	stack.Push("registry", func(context.Context) error {
		log.Info("stopping probes")
		registry.Close()
		return nil
	})

	if local != nil {
		stack.Push("local", func(ctx context.Context) error {
			log.Info("shutting down local socket")
			return local.Shutdown(ctx)
		})
	}

	stack.Push("http", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		httpHandler.SetReady(false)
		return httpServer.Shutdown(ctx)
	})

	if *configFile != "" {
		w := confloader.NewFileWatcher(*configFile, func() {
			reloadConfig(*configFile, log)
		}, confloader.WithLogger(log))
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Warn("config watcher disabled", "error", err)
			}
		}()
	}

	go shutdown.OnSignal(ctx, func(os.Signal) {
		reloadConfig(*configFile, log)
		if certs != nil {
			if err := certs.Reload(); err != nil {
				log.Warn("certificate reload failed", "error", err)
			}
		}
	}, syscall.SIGHUP)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr)

		var err error
		if certs != nil {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			serveErr <- err
			cancel()
		}
	}()

	if local != nil {
		go func() {
			log.Info("local socket listening", "path", local.Path())
			if err := local.Serve(); err != nil {
				log.Error("local socket error", "error", err)
			}
		}()
	}

	httpHandler.SetReady(true)
	log.Info("server started, press Ctrl+C to stop")

	if err := stack.Await(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	default:
	}

	log.Info("server stopped gracefully")
	return nil
}

// initLogger builds the process logger and installs it as the default.
func initLogger(cfg *config.ServerConfig) *slog.Logger {
	l := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	slog.SetDefault(l)
	return l
}

// reloadConfig applies the settings that can change at runtime. Only
// log.level is live; other changes need a restart.
func reloadConfig(path string, log *slog.Logger) {
	cfg, err := config.Load(path)
	if err != nil {
		log.Warn("config reload rejected", "error", err)
		return
	}

	old := logger.Level()
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		log.Warn("log level not changed", "error", err)
		return
	}
	if now := logger.Level(); now != old {
		log.Info("log level changed", "from", old, "to", now)
	}
}
