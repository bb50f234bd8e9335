package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TomasB/geolookup/internal/clientip"
	"github.com/TomasB/geolookup/internal/config"
	"github.com/TomasB/geolookup/internal/data"
	grpchandler "github.com/TomasB/geolookup/internal/handler/grpc"
	"github.com/TomasB/geolookup/internal/handler/health"
	lookuphandler "github.com/TomasB/geolookup/internal/handler/lookup"
	"github.com/TomasB/geolookup/internal/handler/page"
	"github.com/TomasB/geolookup/internal/lookup"
	"github.com/TomasB/geolookup/internal/metrics"
	"github.com/TomasB/geolookup/internal/middleware"
	"github.com/TomasB/geolookup/internal/resolver"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

const (
	shutdownTimeout = 30 * time.Second
	sweepInterval   = time.Minute
	downloadHint    = "download it from https://dev.maxmind.com/geoip/geolite2-free-geolocation-data"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCommand(&cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "geolookup",
		Short:        "Geolocation and ASN lookup service for IP addresses and domain names",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), *cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Port, "port", cfg.Port, "HTTP port")
	f.StringVar(&cfg.GRPCPort, "grpc-port", cfg.GRPCPort, `gRPC port, "off" disables the gRPC listener`)
	f.StringVar(&cfg.CityDBPath, "city-db", cfg.CityDBPath, "path to the GeoLite2-City database")
	f.StringVar(&cfg.ASNDBPath, "asn-db", cfg.ASNDBPath, "path to the GeoLite2-ASN database")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	f.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (json, text)")
	f.StringVar(&cfg.DNSServer, "dns-server", cfg.DNSServer, "upstream DNS server host[:port]; empty uses the system resolver")
	f.DurationVar(&cfg.DNSTimeout, "dns-timeout", cfg.DNSTimeout, "bound on each DNS resolution")
	f.BoolVar(&cfg.WatchDatabases, "watch", cfg.WatchDatabases, "reload the databases when their files change")
	f.Float64Var(&cfg.RateLimitRPS, "rate-limit", cfg.RateLimitRPS, "requests per second allowed per client, 0 disables")
	f.IntVar(&cfg.RateLimitBurst, "rate-burst", cfg.RateLimitBurst, "per-client burst size")
	f.StringVar(&cfg.TrustedProxies, "trusted-proxies", cfg.TrustedProxies, "comma-separated proxy addresses or CIDRs whose X-Forwarded-For the rate limiter believes")

	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	// Initialize structured logging
	logLevel := config.ParseLogLevel(cfg.LogLevel)
	logger := newLogger(cfg.LogFormat, logLevel)
	slog.SetDefault(logger)

	slog.Info("service starting", "log_level", logLevel.String())

	// Set Gin mode based on log level
	if logLevel == slog.LevelDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	city, err := openDatabase(cfg.CityDBPath, data.EditionCity)
	if err != nil {
		return err
	}
	defer city.Close()

	asn, err := openDatabase(cfg.ASNDBPath, data.EditionASN)
	if err != nil {
		return err
	}
	defer asn.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.WatchDatabases {
		for _, r := range []*data.Reloader{city, asn} {
			r := r
			go func() {
				if err := r.Watch(ctx); err != nil {
					slog.Error("database watcher stopped", "error", err)
				}
			}()
		}
		slog.Info("watching databases for changes")
	}

	svc := lookup.NewService(city, asn, newResolver(cfg), lookup.WithResolveTimeout(cfg.DNSTimeout))

	// Create Gin router
	router := gin.New()
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())
	router.Use(gin.Recovery())

	healthHandler := health.NewHandler(health.All(city.Ready, asn.Ready))
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/", page.Index)

	lookupHandlers := []gin.HandlerFunc{lookuphandler.NewHandler(svc).LookupDetailed}
	if cfg.RateLimitRPS > 0 {
		proxies, err := clientip.ParseProxies(cfg.TrustedProxies)
		if err != nil {
			return err
		}
		limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, proxies)
		go limiter.Sweep(ctx, sweepInterval)
		lookupHandlers = append([]gin.HandlerFunc{limiter.Middleware()}, lookupHandlers...)
		slog.Info("rate limiting enabled", "rps", cfg.RateLimitRPS, "burst", cfg.RateLimitBurst)
	}
	router.GET("/lookup_detailed", lookupHandlers...)
	router.POST("/lookup_detailed", lookupHandlers...)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Bind gRPC before any server goroutine starts so a bad port fails cleanly.
	var grpcLis net.Listener
	if cfg.GRPCEnabled() {
		grpcLis, err = net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			return fmt.Errorf("failed to listen for gRPC on port %s: %w", cfg.GRPCPort, err)
		}
	}

	errCh := make(chan error, 2)

	go func() {
		slog.Info("service started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var grpcServer *grpc.Server
	if grpcLis != nil {
		grpcServer = grpc.NewServer()
		grpchandler.RegisterLookupServiceServer(grpcServer, grpchandler.NewHandler(svc))

		go func() {
			slog.Info("grpc service started", "port", cfg.GRPCPort)
			if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	// Wait for a signal or a server failure
	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		slog.Error("server failed", "error", runErr)
	}

	slog.Info("service shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if grpcServer != nil {
		stopGRPC(shutdownCtx, grpcServer)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		return errors.Join(runErr, err)
	}

	slog.Info("service stopped")
	return runErr
}

func newLogger(format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// openDatabase checks that path holds a database of the given edition and
// opens it. Every failure names the file and where to get it.
func openDatabase(path string, edition data.Edition) (*data.Reloader, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Error("database file not found", "path", path, "edition", edition, "hint", downloadHint)
		return nil, fmt.Errorf("%s database %s not found", edition, path)
	}

	r, err := data.NewReloader(path, edition)
	if err != nil {
		slog.Error("failed to open database", "path", path, "edition", edition, "error", err, "hint", downloadHint)
		return nil, fmt.Errorf("failed to open %s database %s: %w", edition, path, err)
	}

	slog.Info("database loaded", "path", path, "edition", edition)
	return r, nil
}

func newResolver(cfg config.Config) resolver.Resolver {
	if cfg.DNSServer == "" {
		slog.Info("using system resolver")
		return resolver.NewSystem()
	}
	u := resolver.NewUpstream(cfg.DNSServer, cfg.DNSTimeout)
	slog.Info("using upstream resolver", "server", u.Server())
	return u
}

// stopGRPC drains in-flight calls, forcing a stop when ctx expires first.
func stopGRPC(ctx context.Context, s *grpc.Server) {
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("grpc server forced to stop")
		s.Stop()
	}
}
