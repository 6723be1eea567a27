// Package service provides the business logic layer for managing station data.
package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/glebovdev/quran-radio/internal/cache"
	"github.com/glebovdev/quran-radio/internal/playlist"
	"github.com/glebovdev/quran-radio/internal/quran"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// ReciterStationPrefix prefixes the IDs of the per-reciter "all surahs" stations.
const ReciterStationPrefix = "all-"

// Catalog is the part of the quran.com client the service needs.
type Catalog interface {
	GetRecitations(ctx context.Context) ([]quran.Reciter, error)
	GetChapterRecitations(ctx context.Context, reciterID string) ([]quran.AudioFile, error)
}

// StationService manages station data, including fetching, caching, and periodic refresh.
type StationService struct {
	catalog       Catalog
	curated       []quran.Station
	stations      []quran.Station
	mu            sync.RWMutex
	refreshTicker *time.Ticker
	stopRefresh   chan struct{}
	onRefresh     func([]quran.Station)
}

// NewStationService creates a service listing the curated stations first,
// followed by one station per reciter once GetStations has run. A non-nil
// response cache is swept of expired entries in the background.
func NewStationService(catalog Catalog, curated []quran.Station, responseCache *cache.Cache) *StationService {
	if responseCache != nil {
		go func() {
			if err := responseCache.CleanExpired(); err != nil {
				log.Debug().Err(err).Msg("Failed to clean expired cache")
			}
		}()
	}

	curated = lo.Filter(curated, func(st quran.Station, _ int) bool {
		return st.ID != "" && st.ReciterID != ""
	})

	return &StationService{
		catalog:  catalog,
		curated:  curated,
		stations: append([]quran.Station(nil), curated...),
	}
}

// GetStations refreshes the reciter stations. On failure the curated
// stations stay available and the error is returned.
func (s *StationService) GetStations(ctx context.Context) ([]quran.Station, error) {
	stations, err := s.fetch(ctx)
	if err != nil {
		return s.GetCachedStations(), err
	}

	s.mu.Lock()
	s.stations = stations
	s.mu.Unlock()

	return stations, nil
}

func (s *StationService) fetch(ctx context.Context) ([]quran.Station, error) {
	reciters, err := s.catalog.GetRecitations(ctx)
	if err != nil {
		return nil, err
	}

	reciterStations := lo.Map(reciters, func(r quran.Reciter, _ int) quran.Station {
		return ReciterStation(r)
	})
	sortStationsByTitle(reciterStations)

	stations := make([]quran.Station, 0, len(s.curated)+len(reciterStations))
	stations = append(stations, s.curated...)
	stations = append(stations, reciterStations...)
	return lo.UniqBy(stations, func(st quran.Station) string { return st.ID }), nil
}

// ReciterStation is the station playing every surah of one reciter.
func ReciterStation(r quran.Reciter) quran.Station {
	id := strconv.Itoa(r.ID)
	return quran.Station{
		ID:          ReciterStationPrefix + id,
		Title:       r.Name(),
		Description: "All 114 surahs",
		ReciterID:   id,
		Surahs:      quran.AllSurahs(),
	}
}

func sortStationsByTitle(stations []quran.Station) {
	sort.SliceStable(stations, func(i, j int) bool {
		return stations[i].Title < stations[j].Title
	})
}

func (s *StationService) GetCachedStations() []quran.Station {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]quran.Station, len(s.stations))
	copy(result, s.stations)
	return result
}

func (s *StationService) GetValidStationIDs() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	validIDs := make(map[string]bool)
	for _, st := range s.stations {
		validIDs[st.ID] = true
	}
	return validIDs
}

func (s *StationService) FindIndexByID(stationID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, st := range s.stations {
		if st.ID == stationID {
			return i
		}
	}
	return -1
}

func (s *StationService) StationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stations)
}

// GetStation returns a copy of the station at the given index.
// Returns nil if the index is out of bounds.
func (s *StationService) GetStation(index int) *quran.Station {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.stations) {
		return nil
	}
	st := s.stations[index]
	return &st
}

// Playlist fetches the reciter's audio files and builds the station playlist.
func (s *StationService) Playlist(ctx context.Context, st quran.Station) (quran.Playlist, error) {
	files, err := s.catalog.GetChapterRecitations(ctx, st.ReciterID)
	if err != nil {
		return nil, err
	}

	p := playlist.Build(st, files)
	if len(p) == 0 {
		return nil, fmt.Errorf("station %s has no playable surahs", st.ID)
	}

	log.Debug().Str("station", st.ID).Int("tracks", len(p)).Int("files", len(files)).Msg("Playlist built")
	return p, nil
}

func (s *StationService) StartPeriodicRefresh(interval time.Duration, callback func([]quran.Station)) {
	s.StopPeriodicRefresh()

	s.mu.Lock()
	s.onRefresh = callback
	s.stopRefresh = make(chan struct{})
	s.refreshTicker = time.NewTicker(interval)
	ticker := s.refreshTicker
	stopCh := s.stopRefresh
	s.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				s.refreshStationsInBackground()
			case <-stopCh:
				ticker.Stop()
				return
			}
		}
	}()

	log.Debug().Dur("interval", interval).Msg("Started periodic station refresh")
}

func (s *StationService) StopPeriodicRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopRefresh != nil {
		close(s.stopRefresh)
		s.stopRefresh = nil
	}
}

func (s *StationService) refreshStationsInBackground() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	newStations, err := s.fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Background refresh failed, keeping cached data")
		return
	}

	s.mu.Lock()
	s.stations = newStations
	callback := s.onRefresh
	s.mu.Unlock()

	if callback != nil {
		callback(newStations)
	}

	log.Debug().Int("count", len(newStations)).Msg("Station data refreshed in background")
}
