package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebovdev/quran-radio/internal/quran"
)

type fakeCatalog struct {
	reciters    []quran.Reciter
	files       map[string][]quran.AudioFile
	err         error
	recitations atomic.Int32
}

func (f *fakeCatalog) GetRecitations(ctx context.Context) ([]quran.Reciter, error) {
	f.recitations.Add(1)
	return f.reciters, f.err
}

func (f *fakeCatalog) GetChapterRecitations(ctx context.Context, reciterID string) ([]quran.AudioFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.files[reciterID], nil
}

func reciter(id int, name string) quran.Reciter {
	return quran.Reciter{ID: id, ReciterName: name}
}

func curatedStations() []quran.Station {
	return []quran.Station{
		{ID: "evening", Title: "Evening Recitation", ReciterID: "7", Surahs: quran.SurahList(36, 56, 67)},
		{ID: "friday", Title: "Friday", ReciterID: "7", Surahs: quran.SurahList(18)},
	}
}

func TestGetStationsOrdersCuratedFirst(t *testing.T) {
	catalog := &fakeCatalog{reciters: []quran.Reciter{
		reciter(7, "Mishari Rashid al-`Afasy"),
		reciter(2, "AbdulBaset AbdulSamad"),
	}}
	service := NewStationService(catalog, curatedStations(), nil)

	stations, err := service.GetStations(context.Background())
	if err != nil {
		t.Fatalf("GetStations() error = %v", err)
	}

	expected := []string{"evening", "friday", "all-2", "all-7"}
	if len(stations) != len(expected) {
		t.Fatalf("GetStations() returned %d stations, want %d", len(stations), len(expected))
	}
	for i, st := range stations {
		if st.ID != expected[i] {
			t.Errorf("stations[%d].ID = %q, want %q", i, st.ID, expected[i])
		}
	}

	if !stations[2].Surahs.All {
		t.Error("reciter station should select all surahs")
	}
	if stations[2].ReciterID != "2" {
		t.Errorf("reciter station ReciterID = %q, want 2", stations[2].ReciterID)
	}
}

func TestGetStationsErrorKeepsCurated(t *testing.T) {
	catalog := &fakeCatalog{err: errors.New("upstream down")}
	service := NewStationService(catalog, curatedStations(), nil)

	stations, err := service.GetStations(context.Background())
	if err == nil {
		t.Fatal("GetStations() should return the upstream error")
	}
	if len(stations) != 2 {
		t.Errorf("GetStations() on error returned %d stations, want 2 curated", len(stations))
	}
	if service.StationCount() != 2 {
		t.Errorf("StationCount() = %d, want 2", service.StationCount())
	}
}

func TestNewStationServiceDropsInvalidCurated(t *testing.T) {
	curated := append(curatedStations(), quran.Station{ID: "broken"}, quran.Station{ReciterID: "7"})
	service := NewStationService(&fakeCatalog{}, curated, nil)

	if service.StationCount() != 2 {
		t.Errorf("StationCount() = %d, want 2", service.StationCount())
	}
}

func TestGetValidStationIDs(t *testing.T) {
	service := &StationService{
		stations: []quran.Station{
			{ID: "evening"},
			{ID: "friday"},
			{ID: "all-7"},
		},
	}

	validIDs := service.GetValidStationIDs()

	if len(validIDs) != 3 {
		t.Fatalf("GetValidStationIDs() returned %d IDs, want 3", len(validIDs))
	}

	for _, id := range []string{"evening", "friday", "all-7"} {
		if !validIDs[id] {
			t.Errorf("GetValidStationIDs() missing %q", id)
		}
	}

	if validIDs["nonexistent"] {
		t.Error("GetValidStationIDs() should return false for nonexistent ID")
	}
}

func TestFindIndexByID(t *testing.T) {
	service := &StationService{
		stations: []quran.Station{
			{ID: "evening"},
			{ID: "friday"},
			{ID: "all-7"},
		},
	}

	tests := []struct {
		name     string
		id       string
		expected int
	}{
		{"first station", "evening", 0},
		{"middle station", "friday", 1},
		{"last station", "all-7", 2},
		{"nonexistent station", "notfound", -1},
		{"empty string", "", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := service.FindIndexByID(tt.id)
			if result != tt.expected {
				t.Errorf("FindIndexByID(%q) = %d, want %d", tt.id, result, tt.expected)
			}
		})
	}
}

func TestGetStation(t *testing.T) {
	service := &StationService{
		stations: []quran.Station{
			{ID: "evening", Title: "Evening Recitation"},
			{ID: "friday", Title: "Friday"},
		},
	}

	tests := []struct {
		name        string
		index       int
		expectedID  string
		expectedNil bool
	}{
		{"first station", 0, "evening", false},
		{"last station", 1, "friday", false},
		{"negative index", -1, "", true},
		{"index out of bounds", 2, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := service.GetStation(tt.index)

			if tt.expectedNil {
				if result != nil {
					t.Errorf("GetStation(%d) = %v, want nil", tt.index, result)
				}
			} else if result == nil {
				t.Fatalf("GetStation(%d) = nil, want station", tt.index)
			} else if result.ID != tt.expectedID {
				t.Errorf("GetStation(%d).ID = %q, want %q", tt.index, result.ID, tt.expectedID)
			}
		})
	}
}

func TestGetCachedStationsIsCopy(t *testing.T) {
	service := &StationService{stations: curatedStations()}

	result := service.GetCachedStations()
	result[0].ID = "changed"

	if service.FindIndexByID("evening") != 0 {
		t.Error("modifying GetCachedStations() result changed the service")
	}
}

func TestPlaylist(t *testing.T) {
	catalog := &fakeCatalog{files: map[string][]quran.AudioFile{
		"7": {
			{SurahID: 5, URL: "https://download.quranicaudio.com/qdc/005.mp3"},
			{SurahID: 2, URL: "https://download.quranicaudio.com/qdc/002.mp3"},
		},
	}}
	service := NewStationService(catalog, nil, nil)

	p, err := service.Playlist(context.Background(), quran.Station{ID: "custom", ReciterID: "7", Surahs: quran.SurahList(5, 2, 9)})
	if err != nil {
		t.Fatalf("Playlist() error = %v", err)
	}
	if len(p) != 2 || p[0].SurahID != 5 || p[1].SurahID != 2 {
		t.Errorf("Playlist() = %+v, want surahs [5 2]", p)
	}

	_, err = service.Playlist(context.Background(), quran.Station{ID: "empty", ReciterID: "7", Surahs: quran.SurahList(9)})
	if err == nil {
		t.Error("Playlist() should fail when no surah has audio")
	}
}

func TestStartAndStopPeriodicRefresh(t *testing.T) {
	catalog := &fakeCatalog{reciters: []quran.Reciter{reciter(7, "Mishari Rashid al-`Afasy")}}
	service := NewStationService(catalog, curatedStations(), nil)

	refreshed := make(chan []quran.Station, 1)
	service.StartPeriodicRefresh(10*time.Millisecond, func(stations []quran.Station) {
		select {
		case refreshed <- stations:
		default:
		}
	})

	select {
	case stations := <-refreshed:
		if len(stations) != 3 {
			t.Errorf("refresh delivered %d stations, want 3", len(stations))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("periodic refresh never ran")
	}

	service.StopPeriodicRefresh()
	service.StopPeriodicRefresh()
}

func TestStopPeriodicRefreshBeforeStart(t *testing.T) {
	service := &StationService{}
	service.StopPeriodicRefresh()
}
