// Package main boots the katalog HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/warungdata/katalog/internal/broadcast"
	"github.com/warungdata/katalog/internal/cache"
	"github.com/warungdata/katalog/internal/config"
	httpapi "github.com/warungdata/katalog/internal/http"
	"github.com/warungdata/katalog/internal/imgproxy"
	"github.com/warungdata/katalog/internal/notify"
	"github.com/warungdata/katalog/internal/obs"
	"github.com/warungdata/katalog/internal/sheets"
	"github.com/warungdata/katalog/internal/watch"
)

func main() {
	_ = godotenv.Load() // loads .env if present

	cfg := config.Load()
	obs.InitLogger()
	obs.Logger.Info("service_starting")

	shutdownTelemetry, err := obs.InitTelemetry(context.Background(), cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		obs.Logger.Error("telemetry_init_error", "error", err)
		os.Exit(1)
	}

	client := sheets.New(cfg.SheetID, cfg.SheetRange, cfg.ServiceKeyB64)
	products := cache.New(client, cfg.CacheTTL)
	hub := broadcast.NewHub()

	notifier := notify.New(hub, cfg.WatchDebounce)
	notifier.Start()
	watcher := watch.New(cfg.ImagesDir, notifier.Signal)
	watcher.Start()

	app := httpapi.NewApp(cfg, products, client, imgproxy.New(cfg.ImgUpstreamBase), hub, notifier)
	mux := httpapi.NewRouter(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obs.Logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	obs.Logger.Info("shutdown_signal", "signal", s.String())

	watcher.Stop()
	notifier.Stop()

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
	}

	ctxTel, cancelTel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelTel()
	if err := shutdownTelemetry(ctxTel); err != nil {
		obs.Logger.Warn("telemetry_shutdown_error", "error", err)
	}
	obs.Logger.Info("service_stopped")
}
