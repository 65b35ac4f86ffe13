// gobancho - osu! game server protocol endpoint.
//
// gobancho serves the bancho binary protocol over HTTP: clients log in
// with a single POST and then poll with a session token, carrying packet
// frames in both directions. Moderation tooling drives live sessions over
// redis pub/sub, and a small monitor API exposes server status.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/gobancho-project/gobancho/internal/api"
	"github.com/gobancho-project/gobancho/internal/auth"
	"github.com/gobancho-project/gobancho/internal/bancho"
	"github.com/gobancho-project/gobancho/internal/cli"
	"github.com/gobancho-project/gobancho/internal/config"
	"github.com/gobancho-project/gobancho/internal/control"
	"github.com/gobancho-project/gobancho/internal/events"
	"github.com/gobancho-project/gobancho/internal/geo"
	"github.com/gobancho-project/gobancho/internal/session"
	"github.com/gobancho-project/gobancho/internal/store"
	"github.com/gobancho-project/gobancho/internal/telemetry"
	"github.com/gobancho-project/gobancho/internal/util"
)

const (
	AppName    = "gobancho"
	AppVersion = "1.0.0"
	Banner     = `
             _                     _
   __ _  ___ | |__   __ _ _ __   ___| |__   ___
  / _' |/ _ \| '_ \ / _' | '_ \ / __| '_ \ / _ \
 | (_| | (_) | |_) | (_| | | | | (__| | | | (_) |
  \__, |\___/|_.__/ \__,_|_| |_|\___|_| |_|\___/
  |___/                                 v%s
 osu! game server protocol endpoint
`
)

func main() {
	fmt.Printf(Banner, AppVersion)
	fmt.Println()

	// Initialize logger with defaults first (reconfigured after config load)
	if err := util.InitLogger(util.DefaultLogConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info().
		Str("version", AppVersion).
		Str("platform", runtime.GOOS).
		Str("arch", runtime.GOARCH).
		Int("cpus", runtime.NumCPU()).
		Msg("starting gobancho")

	cfg, err := config.Load(config.DefaultConfigDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Re-initialize logger with config-based settings
	logCfg := util.LogConfig{
		Level:      cfg.Logging.Level,
		Directory:  cfg.Logging.Directory,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Console:    true,
	}
	if err := util.InitLogger(logCfg); err != nil {
		log.Warn().Err(err).Msg("failed to reconfigure logger, using defaults")
	}

	validation := config.Validate(cfg)
	for _, w := range validation.Warnings {
		log.Warn().Str("field", w.Field).Msg(w.Message)
	}
	if !validation.IsValid() {
		for _, e := range validation.Errors {
			log.Error().Str("field", e.Field).Msg(e.Message)
		}
		log.Fatal().Msg("configuration validation failed, please fix the errors above")
	}

	sysInfo := util.GetSystemInfo()
	log.Info().
		Str("hostname", sysInfo.Hostname).
		Str("os", sysInfo.OS).
		Str("cpu", sysInfo.CPUModel).
		Int("cores", sysInfo.CPUCores).
		Uint64("memory_mb", sysInfo.TotalMemory).
		Msg("system information")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---------------------------------------------------------------
	// Core components
	// ---------------------------------------------------------------
	st, err := store.OpenSQLite(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open account store")
	}
	defer st.Close()

	verifier, err := auth.NewVerifier(
		time.Duration(cfg.Bancho.PasswordCacheMinutes)*time.Minute,
		cfg.Bancho.VerifyPoolSize,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create password verifier")
	}
	defer verifier.Release()

	var resolver geo.Resolver = geo.NopResolver{}
	if cfg.GeoIP.Enabled {
		mm, err := geo.OpenMaxMind(cfg.GeoIP.DatabasePath)
		if err != nil {
			log.Warn().Err(err).Msg("failed to open GeoIP database, geolocation disabled")
		} else {
			resolver = mm
			defer mm.Close()
		}
	}

	bus := events.NewBus()
	registry := session.NewRegistry()

	handlers := bancho.NewHandlers(bancho.Config{
		ServerName:      cfg.Bancho.ServerName,
		ProtocolVersion: cfg.Bancho.ProtocolVersion,
		MenuIcon:        cfg.Bancho.MenuIcon,
		MenuIconURL:     cfg.Bancho.MenuIconURL,
	}, registry, st, verifier, resolver, bus)

	dispatcher := bancho.NewDispatcher(handlers)
	endpoint := bancho.NewEndpoint(handlers, dispatcher)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	endpoint.Register(router)

	banchoServer := &http.Server{
		Addr:         cfg.Server.BanchoAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	monitorServer := api.NewServer(cfg, registry)

	var pubsub *control.PubSub
	if cfg.Redis.Enabled {
		rdb := control.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pubsub = control.NewPubSub(rdb, handlers, verifier)
	}

	var mqttHandler *telemetry.MQTTHandler
	if cfg.MQTT.Enabled {
		mqttHandler, err = telemetry.NewMQTTHandler(cfg, bus)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize MQTT, telemetry disabled")
		}
	}

	cliHandler := cli.NewCLI(cfg, handlers, cancel)

	// ---------------------------------------------------------------
	// Launch all concurrent tasks
	// ---------------------------------------------------------------
	var wg sync.WaitGroup
	errCh := make(chan error, 4)

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Str("addr", cfg.Server.BanchoAddr).Msg("starting bancho endpoint")
		if err := banchoServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("bancho endpoint: %w", err)
		}
	}()

	if cfg.Server.MonitorAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := monitorServer.Start(ctx); err != nil {
				log.Warn().Err(err).Msg("monitor API failed (non-fatal)")
			}
		}()
	}

	if pubsub != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info().Str("addr", cfg.Redis.Addr).Msg("starting control plane")
			if err := pubsub.Run(ctx); err != nil {
				log.Error().Err(err).Msg("control plane failed")
				errCh <- fmt.Errorf("control plane: %w", err)
			}
		}()
	}

	if mqttHandler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info().Msg("starting MQTT telemetry")
			if err := mqttHandler.Start(ctx); err != nil {
				log.Warn().Err(err).Msg("MQTT telemetry failed (non-fatal)")
			}
		}()
	}

	// The console blocks on stdin, so it runs outside the waitgroup to keep
	// shutdown from stalling on a pending read.
	go func() {
		log.Info().Msg("starting interactive console")
		cliHandler.Start(ctx)
	}()

	// ---------------------------------------------------------------
	// Graceful shutdown handling
	// ---------------------------------------------------------------
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-errCh:
		log.Error().Err(err).Msg("critical error, initiating shutdown")
	case <-ctx.Done():
		// Console quit command.
	}

	log.Info().Msg("initiating graceful shutdown...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	banchoServer.Shutdown(shutdownCtx)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all tasks stopped gracefully")
	case <-time.After(30 * time.Second):
		log.Warn().Msg("shutdown timed out after 30 seconds, forcing exit")
	}

	bus.Stop()

	log.Info().Msg("gobancho stopped")
}
