package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/glebovdev/quran-radio/internal/cache"
	"github.com/glebovdev/quran-radio/internal/quran"
)

// QuranComClient is the HTTP client for the api.quran.com v4 API.
type QuranComClient struct {
	fetcher
}

// NewQuranComClient creates a client for baseURL. c may be nil to disable caching.
func NewQuranComClient(baseURL string, timeout time.Duration, c *cache.Cache) *QuranComClient {
	return &QuranComClient{fetcher: newFetcher("qurancom", baseURL, timeout, c)}
}

// GetChapters fetches the list of the 114 chapters.
func (c *QuranComClient) GetChapters(ctx context.Context) ([]quran.Chapter, error) {
	var response struct {
		Chapters []quran.Chapter `json:"chapters"`
	}
	if err := c.getJSON(ctx, "/chapters", map[string]string{"language": "en"}, cache.TTLStatic, &response); err != nil {
		return nil, err
	}
	return response.Chapters, nil
}

// GetJuzs fetches the juz list with their verse mappings.
func (c *QuranComClient) GetJuzs(ctx context.Context) ([]quran.Juz, error) {
	var response struct {
		Juzs []quran.Juz `json:"juzs"`
	}
	if err := c.getJSON(ctx, "/juzs", nil, cache.TTLStatic, &response); err != nil {
		return nil, err
	}
	return response.Juzs, nil
}

// GetRecitations fetches the available reciters.
func (c *QuranComClient) GetRecitations(ctx context.Context) ([]quran.Reciter, error) {
	var response struct {
		Recitations []quran.Reciter `json:"recitations"`
	}
	if err := c.getJSON(ctx, "/resources/recitations", map[string]string{"language": "en"}, cache.TTLCatalog, &response); err != nil {
		return nil, err
	}
	return response.Recitations, nil
}

// GetChapterRecitations fetches the whole-surah audio files of one reciter,
// in the order the API returns them.
func (c *QuranComClient) GetChapterRecitations(ctx context.Context, reciterID string) ([]quran.AudioFile, error) {
	if _, err := strconv.Atoi(reciterID); err != nil {
		return nil, fmt.Errorf("invalid reciter id %q", reciterID)
	}

	var response struct {
		AudioFiles []quran.AudioFile `json:"audio_files"`
	}
	path := fmt.Sprintf("/chapter_recitations/%s", reciterID)
	if err := c.getJSON(ctx, path, nil, cache.TTLAudioMap, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch audio files for reciter %s: %w", reciterID, err)
	}
	return response.AudioFiles, nil
}

// GetChapterAudio fetches the audio file of one surah for one reciter.
func (c *QuranComClient) GetChapterAudio(ctx context.Context, reciterID string, surah int) (quran.AudioFile, error) {
	var response struct {
		AudioFile quran.AudioFile `json:"audio_file"`
	}
	if !quran.ValidSurah(surah) {
		return response.AudioFile, fmt.Errorf("surah %d out of range", surah)
	}
	path := fmt.Sprintf("/chapter_recitations/%s/%d", reciterID, surah)
	if err := c.getJSON(ctx, path, nil, cache.TTLAudioMap, &response); err != nil {
		return response.AudioFile, fmt.Errorf("failed to fetch audio of surah %d: %w", surah, err)
	}
	if response.AudioFile.SurahID == 0 {
		response.AudioFile.SurahID = surah
	}
	return response.AudioFile, nil
}

// Search runs a full-text verse search.
func (c *QuranComClient) Search(ctx context.Context, query string) ([]quran.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}

	var response struct {
		Search struct {
			Results []quran.SearchResult `json:"results"`
		} `json:"search"`
	}
	params := map[string]string{"q": query, "size": "20", "language": "en"}
	if err := c.getJSON(ctx, "/search", params, 0, &response); err != nil {
		return nil, err
	}
	return response.Search.Results, nil
}
