// Package playlist turns a station's surah selection into an ordered list of
// tracks.
package playlist

import (
	"github.com/glebovdev/quran-radio/internal/quran"
	"github.com/samber/lo"
)

// Build maps a station and the reciter's audio files into a playlist.
//
// An "all" selection maps every file 1:1 in input order. An explicit list is
// walked in its own order; each surah takes the first file with a matching
// surah ID, and surahs without a file are left out.
func Build(station quran.Station, files []quran.AudioFile) quran.Playlist {
	if station.Surahs.All {
		return lo.Map(files, func(f quran.AudioFile, _ int) quran.Track {
			return track(station, f)
		})
	}

	playlist := make(quran.Playlist, 0, len(station.Surahs.IDs))
	for _, id := range station.Surahs.IDs {
		f, ok := lo.Find(files, func(f quran.AudioFile) bool {
			return f.SurahID == id
		})
		if !ok {
			continue
		}
		playlist = append(playlist, track(station, f))
	}
	return playlist
}

func track(station quran.Station, f quran.AudioFile) quran.Track {
	return quran.Track{
		SurahID:   f.SurahID,
		ReciterID: station.ReciterID,
		URL:       f.URL,
		Title:     quran.Track{SurahID: f.SurahID}.DisplayTitle(),
	}
}

// FromAyahs builds a verse-level playlist. Verses without a resolved URL keep
// an empty URL so their position is preserved.
func FromAyahs(reciterID string, ayahs []quran.Ayah, urls []string) quran.Playlist {
	return lo.Map(ayahs, func(a quran.Ayah, i int) quran.Track {
		t := quran.Track{
			SurahID:    a.Surah.Number,
			AyahNumber: a.Number,
			ReciterID:  reciterID,
		}
		if i < len(urls) {
			t.URL = urls[i]
		}
		t.Title = t.DisplayTitle()
		return t
	})
}
