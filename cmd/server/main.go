package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tariel-x/pushrelay/internal/config"
	"github.com/tariel-x/pushrelay/internal/handlers"
	"github.com/tariel-x/pushrelay/internal/push"
	"github.com/tariel-x/pushrelay/internal/store"
)

const AppVersion = "1.0.0"

func main() {
	selfSigned := flag.Bool("self-signed", false, "Serve HTTPS with a generated self-signed certificate")
	useAutocert := flag.Bool("autocert", false, "Serve HTTPS with Let's Encrypt certificates for DOMAIN")
	generateVAPID := flag.Bool("generate-vapid", false, "Print a new VAPID key pair and exit")
	flag.Parse()

	if *generateVAPID {
		publicKey, privateKey, err := push.GenerateVAPIDKeys()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", publicKey, privateKey)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(!*selfSigned && !*useAutocert)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	logger.Info(fmt.Sprintf("Push relay v%s", AppVersion))

	subscriptions, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open subscription store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	sender := push.NewWebPushSender(push.VAPIDKeys{
		PublicKey:  cfg.VAPIDKeys.PublicKey,
		PrivateKey: cfg.VAPIDKeys.PrivateKey,
		Subject:    cfg.VAPIDKeys.Subject,
	}, cfg.PushTimeout, logger)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(handlers.New(cfg, subscriptions, sender, logger), cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *useAutocert:
		startAutocertHTTPS(ctx, router, cfg, logger)
	case *selfSigned:
		startSelfSignedHTTPS(ctx, router, cfg, logger)
	default:
		startHTTP(ctx, router, cfg, logger)
	}
}

func openStore(cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	if cfg.DatabasePath == "" {
		logger.Info("using in-memory subscription store; state is lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}

	sqlStore, err := store.OpenSQL(cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using sqlite subscription store", "path", cfg.DatabasePath)
	return sqlStore, func() {
		if err := sqlStore.Close(); err != nil {
			logger.Warn("failed to close subscription store", "error", err)
		}
	}, nil
}

func newServer(addr string, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     log.New(newTLSErrorWriter(logger), "", 0),
	}
}

// serve runs listen until it fails or ctx is cancelled, then shuts the
// servers down.
func serve(ctx context.Context, logger *slog.Logger, listen func() error, servers ...*http.Server) {
	errCh := make(chan error, 1)
	go func() { errCh <- listen() }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed", "addr", srv.Addr, "error", err)
		}
	}
}

func startHTTP(ctx context.Context, router *gin.Engine, cfg *config.Config, logger *slog.Logger) {
	httpServer := newServer(":"+cfg.HTTPPort, router, logger)

	logger.Info("Starting HTTP server", "port", cfg.HTTPPort)
	serve(ctx, logger, httpServer.ListenAndServe, httpServer)
}
