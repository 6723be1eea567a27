// Package quran defines the data structures shared by the player, the
// resolver and the API clients.
package quran

import "fmt"

// Track is one playable unit in a playlist. Tracks are never mutated after
// they are added to a playlist; identity is the position in the playlist.
type Track struct {
	SurahID    int    `json:"surahId"`
	AyahNumber int    `json:"ayahNumber,omitempty"` // Absolute ayah number, 0 for whole-surah tracks
	ReciterID  string `json:"reciterId"`
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
}

// DisplayTitle returns the title or a generated label when none is set.
func (t Track) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	if t.AyahNumber > 0 {
		if surah, ayah, ok := SplitAbsolute(t.AyahNumber); ok {
			return fmt.Sprintf("%s %d:%d", SurahName(surah), surah, ayah)
		}
	}
	return fmt.Sprintf("%d. %s", t.SurahID, SurahName(t.SurahID))
}

// Playlist is an ordered sequence of tracks, replaced wholesale on station change.
type Playlist []Track

// Station is a curated or reciter-based grouping of playable surahs.
type Station struct {
	ID          string         `json:"id" yaml:"id"`
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	ReciterID   string         `json:"reciterId" yaml:"reciter"`
	Surahs      SurahSelection `json:"surahs" yaml:"surahs"`
}

// AudioFile is a whole-surah recitation file served by a CDN.
type AudioFile struct {
	SurahID int    `json:"chapter_id"`
	URL     string `json:"audio_url"`
	Format  string `json:"format"`
	Size    int64  `json:"file_size"`
}

// Reciter is a named recitation identified by an ID mapped to CDN paths.
type Reciter struct {
	ID             int    `json:"id"`
	ReciterName    string `json:"reciter_name"`
	Style          string `json:"style"`
	TranslatedName struct {
		Name string `json:"name"`
	} `json:"translated_name"`
}

// Name returns the display name of the reciter including the recitation style.
func (r Reciter) Name() string {
	if r.Style != "" {
		return fmt.Sprintf("%s (%s)", r.ReciterName, r.Style)
	}
	return r.ReciterName
}

// Chapter is a surah as described by the quran.com API.
type Chapter struct {
	ID              int    `json:"id"`
	RevelationPlace string `json:"revelation_place"`
	NameSimple      string `json:"name_simple"`
	NameArabic      string `json:"name_arabic"`
	VersesCount     int    `json:"verses_count"`
	TranslatedName  struct {
		Name string `json:"name"`
	} `json:"translated_name"`
}

// Juz is one of the 30 sections of the Quran with its surah:verse ranges.
type Juz struct {
	ID           int               `json:"id"`
	JuzNumber    int               `json:"juz_number"`
	VerseMapping map[string]string `json:"verse_mapping"`
	VersesCount  int               `json:"verses_count"`
}

// Surah is a surah as described by the alquran.cloud API.
type Surah struct {
	Number                 int    `json:"number"`
	Name                   string `json:"name"`
	EnglishName            string `json:"englishName"`
	EnglishNameTranslation string `json:"englishNameTranslation"`
	NumberOfAyahs          int    `json:"numberOfAyahs"`
	RevelationType         string `json:"revelationType"`
}

// Ayah is a single verse with its text, translation and audio sources.
type Ayah struct {
	Number         int      `json:"number"`
	NumberInSurah  int      `json:"numberInSurah"`
	Surah          Surah    `json:"surah"`
	Text           string   `json:"text"`
	Translation    string   `json:"translation,omitempty"`
	Audio          string   `json:"audio,omitempty"`
	AudioSecondary []string `json:"audioSecondary,omitempty"`
	Juz            int      `json:"juz"`
	Manzil         int      `json:"manzil"`
	Ruku           int      `json:"ruku"`
	Page           int      `json:"page"`
}

// Key returns the "surah:ayah" verse key.
func (a Ayah) Key() string {
	return fmt.Sprintf("%d:%d", a.Surah.Number, a.NumberInSurah)
}

// SearchResult is a single hit returned by the verse search.
type SearchResult struct {
	VerseKey string `json:"verse_key"`
	VerseID  int    `json:"verse_id"`
	Text     string `json:"text"`
}
