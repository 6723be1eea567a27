package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebovdev/quran-radio/internal/config"
	"github.com/glebovdev/quran-radio/internal/server"
	"github.com/glebovdev/quran-radio/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	readHeaderTimeout      = 15 * time.Second
	shutdownTimeout        = 10 * time.Second
	stationRefreshInterval = time.Hour
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog and audio API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupConsoleLogging()
			cfg := loadConfig()
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServe(cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func runServe(cfg *config.Config) error {
	c := newClients(cfg)

	stationService := service.NewStationService(c.qurancom, cfg.Stations, c.cache)
	warmCtx, cancelWarm := context.WithTimeout(context.Background(), cfg.API.Timeout)
	if _, err := stationService.GetStations(warmCtx); err != nil {
		log.Warn().Err(err).Msg("Reciter stations unavailable, serving curated stations only")
	}
	cancelWarm()
	stationService.StartPeriodicRefresh(stationRefreshInterval, nil)
	defer stationService.StopPeriodicRefresh()

	recitationID := ""
	if len(cfg.Stations) > 0 {
		recitationID = cfg.Stations[0].ReciterID
	}

	handler := server.New(c.qurancom, c.alquran, c.resolver,
		server.WithStations(stationService),
		server.WithMirrors(cfg.Stream.Mirrors, cfg.Stream.MirrorTimeout),
		server.WithDefaults(cfg.Reciter, recitationID),
		server.WithLogger(log.Logger),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msgf("%s API listening", config.AppName)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info().Msg("Server stopped")
		return nil
	}
}
