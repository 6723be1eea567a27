package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebovdev/quran-radio/internal/cache"
	"github.com/glebovdev/quran-radio/internal/quran"
	"github.com/samber/lo"
)

// SectionKind names a division of the Quran served by alquran.cloud.
type SectionKind string

const (
	SectionSurah  SectionKind = "surah"
	SectionJuz    SectionKind = "juz"
	SectionManzil SectionKind = "manzil"
	SectionRuku   SectionKind = "ruku"
	SectionPage   SectionKind = "page"
)

var sectionLimits = map[SectionKind]int{
	SectionSurah:  quran.SurahCount,
	SectionJuz:    30,
	SectionManzil: 7,
	SectionRuku:   556,
	SectionPage:   604,
}

// Max returns the highest valid section number, 0 for unknown kinds.
func (k SectionKind) Max() int {
	return sectionLimits[k]
}

// ParseSectionKind validates a section name.
func ParseSectionKind(s string) (SectionKind, error) {
	k := SectionKind(s)
	if _, ok := sectionLimits[k]; !ok {
		return "", fmt.Errorf("unknown section %q", s)
	}
	return k, nil
}

// DefaultTranslation is the edition merged into section text.
const DefaultTranslation = "en.asad"

// AlQuranClient is the HTTP client for the alquran.cloud v1 API.
type AlQuranClient struct {
	fetcher
}

// NewAlQuranClient creates a client for baseURL. c may be nil to disable caching.
func NewAlQuranClient(baseURL string, timeout time.Duration, c *cache.Cache) *AlQuranClient {
	return &AlQuranClient{fetcher: newFetcher("alquran", baseURL, timeout, c)}
}

type envelope struct {
	Code   int             `json:"code"`
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type sectionData struct {
	quran.Surah
	Ayahs []quran.Ayah `json:"ayahs"`
}

func (c *AlQuranClient) getData(ctx context.Context, path string, ttl time.Duration, out interface{}) error {
	var env envelope
	if err := c.getJSON(ctx, path, nil, ttl, &env); err != nil {
		return err
	}
	if env.Code != 0 && env.Code != 200 {
		return &StatusError{Upstream: c.name, Code: env.Code, Status: env.Status}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", path, err)
	}
	return nil
}

// GetSection fetches the verses of one section in the audio edition, with the
// text of translation merged in when it is not empty.
func (c *AlQuranClient) GetSection(ctx context.Context, kind SectionKind, number int, edition, translation string) ([]quran.Ayah, error) {
	limit := kind.Max()
	if number < 1 || number > limit {
		return nil, fmt.Errorf("%s number %d out of range 1-%d", kind, number, limit)
	}

	ayahs, err := c.sectionAyahs(ctx, kind, number, edition)
	if err != nil {
		return nil, err
	}

	if translation == "" {
		return ayahs, nil
	}

	translated, err := c.sectionAyahs(ctx, kind, number, translation)
	if err != nil {
		// Verses without translation are still playable.
		return ayahs, nil
	}
	byNumber := lo.SliceToMap(translated, func(a quran.Ayah) (int, string) {
		return a.Number, a.Text
	})
	for i := range ayahs {
		ayahs[i].Translation = byNumber[ayahs[i].Number]
	}

	return ayahs, nil
}

func (c *AlQuranClient) sectionAyahs(ctx context.Context, kind SectionKind, number int, edition string) ([]quran.Ayah, error) {
	var data sectionData
	path := fmt.Sprintf("/%s/%d/%s", kind, number, edition)
	if err := c.getData(ctx, path, cache.TTLStatic, &data); err != nil {
		return nil, fmt.Errorf("failed to fetch %s %d: %w", kind, number, err)
	}

	for i := range data.Ayahs {
		if kind == SectionSurah && data.Ayahs[i].Surah.Number == 0 {
			data.Ayahs[i].Surah = data.Surah
		}
	}
	return data.Ayahs, nil
}

func (c *AlQuranClient) GetSurah(ctx context.Context, number int, edition string) ([]quran.Ayah, error) {
	return c.GetSection(ctx, SectionSurah, number, edition, DefaultTranslation)
}

func (c *AlQuranClient) GetJuz(ctx context.Context, number int, edition string) ([]quran.Ayah, error) {
	return c.GetSection(ctx, SectionJuz, number, edition, DefaultTranslation)
}

func (c *AlQuranClient) GetManzil(ctx context.Context, number int, edition string) ([]quran.Ayah, error) {
	return c.GetSection(ctx, SectionManzil, number, edition, DefaultTranslation)
}

func (c *AlQuranClient) GetRuku(ctx context.Context, number int, edition string) ([]quran.Ayah, error) {
	return c.GetSection(ctx, SectionRuku, number, edition, DefaultTranslation)
}

func (c *AlQuranClient) GetPage(ctx context.Context, number int, edition string) ([]quran.Ayah, error) {
	return c.GetSection(ctx, SectionPage, number, edition, DefaultTranslation)
}

// GetAyah fetches one verse by absolute number. The result is not cached since
// it is only used to discover audio URLs.
func (c *AlQuranClient) GetAyah(ctx context.Context, number int, edition string) (quran.Ayah, error) {
	var ayah quran.Ayah
	if number < 1 || number > quran.AyahCount {
		return ayah, fmt.Errorf("ayah number %d out of range 1-%d", number, quran.AyahCount)
	}
	if err := c.getData(ctx, fmt.Sprintf("/ayah/%d/%s", number, edition), 0, &ayah); err != nil {
		return ayah, fmt.Errorf("failed to fetch ayah %d: %w", number, err)
	}
	return ayah, nil
}
