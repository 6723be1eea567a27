package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebovdev/quran-radio/internal/api"
	"github.com/glebovdev/quran-radio/internal/cache"
	"github.com/glebovdev/quran-radio/internal/config"
	"github.com/glebovdev/quran-radio/internal/player"
	"github.com/glebovdev/quran-radio/internal/radio"
	"github.com/glebovdev/quran-radio/internal/resolver"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var debugFlag bool

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "quranradio",
		Short:   config.AppDescription,
		Version: config.AppVersion,
		// Without a subcommand the TUI starts, like "quranradio play".
		RunE:          runPlay,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetVersionTemplate(fmt.Sprintf("%s v{{.Version}}\n%s\n", config.AppName, config.AppDescription))
	root.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	addPlayFlags(root)

	root.AddCommand(newPlayCmd(), newServeCmd(), newReciteCmd())
	return root
}

// setupFileLogging sends logs to debug.log in the cache dir with --debug and
// discards everything below error otherwise, so terminal output stays clean.
func setupFileLogging() {
	if !debugFlag {
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		logFile, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0644)
		if err == nil {
			log.Logger = log.Output(logFile)
		}
		return
	}

	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	cacheDir, err := cache.GetCacheDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not get cache dir: %v\n", err)
		cacheDir = os.TempDir()
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log dir: %v\n", err)
	}
	logPath := filepath.Join(cacheDir, "debug.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log file: %v\n", err)
		logFile = os.Stderr
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: logFile, TimeFormat: "15:04:05"})
	fmt.Printf("Debug log: %s\n", logPath)
	log.Info().Msgf("Starting %s v%s (debug mode)", config.AppName, config.AppVersion)

	if configPath, err := config.GetConfigPath(); err == nil {
		log.Debug().Msgf("Config: %s", configPath)
	}
	log.Debug().Msgf("Cache: %s", cacheDir)
}

// setupConsoleLogging writes human-readable logs to stderr, for commands
// without a full-screen UI.
func setupConsoleLogging() {
	level := zerolog.InfoLevel
	if debugFlag {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
	}
	return cfg
}

// clients holds the upstream API clients shared by every command.
type clients struct {
	cache    *cache.Cache
	alquran  *api.AlQuranClient
	qurancom *api.QuranComClient
	resolver *resolver.Resolver
}

func newClients(cfg *config.Config) *clients {
	responseCache, err := cache.NewCache()
	if err != nil {
		log.Warn().Err(err).Msg("Response cache unavailable, using a temporary directory")
		responseCache = cache.NewCacheAt(filepath.Join(os.TempDir(), cache.AppName))
	}

	return &clients{
		cache:    responseCache,
		alquran:  api.NewAlQuranClient(cfg.API.AlQuranBaseURL, cfg.API.Timeout, responseCache),
		qurancom: api.NewQuranComClient(cfg.API.QuranComBaseURL, cfg.API.Timeout, responseCache),
		resolver: resolver.New(cfg.Resolver.ValidateTimeout, resolver.WithCacheSize(cfg.Resolver.CacheSize)),
	}
}

// newPlayback builds the speaker output, the retrying element on top of it
// and the controller owning both.
func newPlayback(cfg *config.Config) (*player.BeepPort, *player.Element, *radio.Controller) {
	port := player.NewBeepPort()
	element := player.NewElement(port,
		player.WithRetries(cfg.Resolver.ElementRetries),
		player.WithBackoff(cfg.Resolver.RetryBackoff),
	)
	ctrl := radio.NewController(element, cfg.Quality)
	return port, element, ctrl
}
