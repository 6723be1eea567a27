package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/glebovdev/quran-radio/internal/quran"
	"gopkg.in/yaml.v3"
)

const (
	AppName         = "Quran Radio"
	AppTagline      = "Terminal Quran recitation player"
	AppDescription  = "A terminal player and API service for Quran recitations"
	AppProjectURL   = "https://github.com/glebovdev/quran-radio"
	AppProjectShort = "github.com/glebovdev/quran-radio"

	ConfigDir      = ".config/quranradio"
	ConfigFileName = "config.yml"
	DefaultVolume  = 70
	MinVolume      = 0
	MaxVolume      = 100

	DefaultReciter         = "ar.alafasy"
	DefaultAlQuranBaseURL  = "https://api.alquran.cloud/v1"
	DefaultQuranComBaseURL = "https://api.quran.com/api/v4"
	DefaultServerAddr      = ":8080"

	DefaultElementRetries  = 2
	DefaultRetryBackoff    = 300 * time.Millisecond
	DefaultValidateTimeout = 8 * time.Second
	DefaultMirrorTimeout   = 10 * time.Second
	DefaultAPITimeout      = 30 * time.Second
	DefaultResolveWorkers  = 5
	DefaultURLCacheSize    = 2048
)

// ClampVolume ensures volume is within the valid range [0, 100].
func ClampVolume(volume int) int {
	if volume < MinVolume {
		return MinVolume
	}
	if volume > MaxVolume {
		return MaxVolume
	}
	return volume
}

// AppVersion can be overridden at build time using ldflags:
// go build -ldflags "-X github.com/glebovdev/quran-radio/internal/config.AppVersion=1.0.0"
var AppVersion = "dev"

type Theme struct {
	Background                  string `yaml:"background"`
	Foreground                  string `yaml:"foreground"`
	Borders                     string `yaml:"borders"`
	Highlight                   string `yaml:"highlight"`
	Warning                     string `yaml:"warning"`
	HeaderBackground            string `yaml:"header_background"`
	StationListHeaderBackground string `yaml:"station_list_header_background"`
	StationListHeaderForeground string `yaml:"station_list_header_foreground"`
	HelpBackground              string `yaml:"help_background"`
	HelpForeground              string `yaml:"help_foreground"`
	HelpHotkey                  string `yaml:"help_hotkey"`
	ModalBackground             string `yaml:"modal_background"`
}

type APIConfig struct {
	AlQuranBaseURL  string        `yaml:"alquran_base_url"`
	QuranComBaseURL string        `yaml:"qurancom_base_url"`
	Timeout         time.Duration `yaml:"timeout"`
}

type ResolverConfig struct {
	ElementRetries  int           `yaml:"element_retries"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"`
	ValidateTimeout time.Duration `yaml:"validate_timeout"`
	Workers         int           `yaml:"workers"`
	CacheSize       int           `yaml:"cache_size"`
}

// StreamConfig drives the server-side audio-stream fallback. Mirrors are URL
// templates where {surah} is the surah number and {surah3} the zero-padded one.
type StreamConfig struct {
	Mirrors       []string      `yaml:"mirrors"`
	MirrorTimeout time.Duration `yaml:"mirror_timeout"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type Config struct {
	Volume      int             `yaml:"volume"`
	LastStation string          `yaml:"last_station"`
	Autostart   bool            `yaml:"autostart"`
	Autoplay    bool            `yaml:"autoplay"`
	Reciter     string          `yaml:"reciter"`
	Quality     quran.Quality   `yaml:"quality"`
	Loop        bool            `yaml:"loop"`
	Shuffle     bool            `yaml:"shuffle"`
	Favorites   []string        `yaml:"favorites"`
	Stations    []quran.Station `yaml:"stations"`
	API         APIConfig       `yaml:"api"`
	Resolver    ResolverConfig  `yaml:"resolver"`
	Stream      StreamConfig    `yaml:"stream"`
	Server      ServerConfig    `yaml:"server"`
	Theme       Theme           `yaml:"theme"`
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(home, ConfigDir, ConfigFileName)
	return configPath, nil
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.normalize()

	return cfg, nil
}

func (c *Config) normalize() {
	defaults := DefaultConfig()

	c.Volume = ClampVolume(c.Volume)
	c.Quality = quran.ParseQuality(string(c.Quality))

	if c.Reciter == "" {
		c.Reciter = DefaultReciter
	}
	if c.API.AlQuranBaseURL == "" {
		c.API.AlQuranBaseURL = defaults.API.AlQuranBaseURL
	}
	if c.API.QuranComBaseURL == "" {
		c.API.QuranComBaseURL = defaults.API.QuranComBaseURL
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = defaults.API.Timeout
	}
	if c.Resolver.ElementRetries < 0 {
		c.Resolver.ElementRetries = defaults.Resolver.ElementRetries
	}
	if c.Resolver.RetryBackoff <= 0 {
		c.Resolver.RetryBackoff = defaults.Resolver.RetryBackoff
	}
	if c.Resolver.ValidateTimeout <= 0 {
		c.Resolver.ValidateTimeout = defaults.Resolver.ValidateTimeout
	}
	if c.Resolver.Workers < 1 {
		c.Resolver.Workers = defaults.Resolver.Workers
	}
	if c.Resolver.CacheSize < 1 {
		c.Resolver.CacheSize = defaults.Resolver.CacheSize
	}
	if len(c.Stream.Mirrors) == 0 {
		c.Stream.Mirrors = defaults.Stream.Mirrors
	}
	if c.Stream.MirrorTimeout <= 0 {
		c.Stream.MirrorTimeout = defaults.Stream.MirrorTimeout
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
}

// Save writes the configuration to disk atomically using temp file + rename.
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpFile, err := os.CreateTemp(configDir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, configPath); err != nil {
		return fmt.Errorf("failed to rename config file: %w", err)
	}

	tmpPath = "" // Prevent defer from removing the final file
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Volume:      DefaultVolume,
		LastStation: "",
		Autostart:   false,
		Autoplay:    true,
		Reciter:     DefaultReciter,
		Quality:     quran.QualityHigh,
		Favorites:   []string{},
		Stations:    DefaultStations(),
		API: APIConfig{
			AlQuranBaseURL:  DefaultAlQuranBaseURL,
			QuranComBaseURL: DefaultQuranComBaseURL,
			Timeout:         DefaultAPITimeout,
		},
		Resolver: ResolverConfig{
			ElementRetries:  DefaultElementRetries,
			RetryBackoff:    DefaultRetryBackoff,
			ValidateTimeout: DefaultValidateTimeout,
			Workers:         DefaultResolveWorkers,
			CacheSize:       DefaultURLCacheSize,
		},
		Stream: StreamConfig{
			Mirrors: []string{
				"https://download.quranicaudio.com/qdc/mishari_al_afasy/murattal/{surah}.mp3",
				"https://server8.mp3quran.net/afs/{surah3}.mp3",
				"https://cdn.islamic.network/quran/audio-surah/128/ar.alafasy/{surah}.mp3",
			},
			MirrorTimeout: DefaultMirrorTimeout,
		},
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
		Theme: Theme{
			Background:                  "#10161a",
			Foreground:                  "#b8c4bf",
			Borders:                     "#2f3d3a",
			Highlight:                   "#d9b86c",
			Warning:                     "#e06c5a",
			HeaderBackground:            "#1d3b33",
			StationListHeaderBackground: "#22302c",
			StationListHeaderForeground: "#d2ddd8",
			HelpBackground:              "#1a2622",
			HelpForeground:              "#94a59f",
			HelpHotkey:                  "#d9b86c",
			ModalBackground:             "#17201d",
		},
	}
}

// DefaultStations are the curated stations shipped with the app.
func DefaultStations() []quran.Station {
	return []quran.Station{
		{
			ID:          "evening",
			Title:       "Evening Recitation",
			Description: "Ya-Sin, Al-Waqi'ah and Al-Mulk",
			ReciterID:   "7",
			Surahs:      quran.SurahList(36, 56, 67),
		},
		{
			ID:          "friday",
			Title:       "Friday",
			Description: "Al-Kahf",
			ReciterID:   "7",
			Surahs:      quran.SurahList(18),
		},
		{
			ID:          "juz-amma",
			Title:       "Juz 'Amma",
			Description: "The short surahs of the 30th juz",
			ReciterID:   "2",
			Surahs:      quran.SurahList(78, 79, 80, 81, 82, 83, 84, 85, 86, 87, 88, 89, 90, 91, 92, 93, 94, 95, 96, 97, 98, 99, 100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110, 111, 112, 113, 114),
		},
	}
}

func (c *Config) IsFavorite(stationID string) bool {
	for _, id := range c.Favorites {
		if id == stationID {
			return true
		}
	}
	return false
}

func (c *Config) ToggleFavorite(stationID string) {
	for i, id := range c.Favorites {
		if id == stationID {
			c.Favorites = append(c.Favorites[:i], c.Favorites[i+1:]...)
			return
		}
	}
	c.Favorites = append(c.Favorites, stationID)
}

func (c *Config) CleanupFavorites(validStationIDs map[string]bool) {
	cleaned := []string{}
	for _, id := range c.Favorites {
		if validStationIDs[id] {
			cleaned = append(cleaned, id)
		}
	}
	c.Favorites = cleaned
}

func GetColor(colorStr string) tcell.Color {
	if colorStr == "" || colorStr == "default" {
		return tcell.ColorDefault
	}
	return tcell.GetColor(colorStr)
}
