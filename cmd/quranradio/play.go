package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/glebovdev/quran-radio/internal/config"
	"github.com/glebovdev/quran-radio/internal/service"
	"github.com/glebovdev/quran-radio/internal/store"
	"github.com/glebovdev/quran-radio/internal/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	randomFlag  bool
	stationFlag string
)

func addPlayFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&randomFlag, "random", false, "Start with a random station")
	cmd.Flags().StringVar(&stationFlag, "station", "", "Start playing the station with this ID")
}

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Open the terminal player",
		Args:  cobra.NoArgs,
		RunE:  runPlay,
	}
	addPlayFlags(cmd)
	return cmd
}

func runPlay(cmd *cobra.Command, args []string) error {
	setupFileLogging()

	cfg := loadConfig()
	if stationFlag != "" {
		cfg.LastStation = stationFlag
		cfg.Autostart = true
	}

	c := newClients(cfg)
	port, element, ctrl := newPlayback(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := ctrl.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Player controller stopped")
		}
	}()

	library, err := store.Open()
	if err != nil {
		log.Warn().Err(err).Msg("Library unavailable, history and bookmarks are disabled")
	} else {
		defer library.Close()
	}

	stationService := service.NewStationService(c.qurancom, cfg.Stations, c.cache)
	quranUI := ui.NewUI(ui.Options{
		Config:      cfg,
		Stations:    stationService,
		Controller:  ctrl,
		Element:     element,
		Volume:      port,
		Library:     library,
		StartRandom: randomFlag,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			log.Info().Msg("Received shutdown signal, cleaning up...")
			quranUI.Shutdown()
		case <-ctx.Done():
		}
	}()

	log.Info().Msg("Starting UI...")
	uiErr := quranUI.Run()
	if uiErr != nil {
		log.Error().Err(uiErr).Msg("Error running UI")
	}

	// Stopping the controller unloads the element before the process exits.
	cancel()
	<-ctrl.Done()
	log.Info().Msgf("%s stopped", config.AppName)
	return uiErr
}
