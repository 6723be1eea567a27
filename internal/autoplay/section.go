// Package autoplay plays the verses of one section of the Quran in order,
// resolving each verse's audio up front and skipping verses that have none.
package autoplay

import (
	"context"
	"fmt"

	"github.com/glebovdev/quran-radio/internal/api"
	"github.com/glebovdev/quran-radio/internal/quran"
	"github.com/rs/zerolog/log"
)

// SectionLoader fetches the verses of a section.
type SectionLoader interface {
	GetSection(ctx context.Context, kind api.SectionKind, number int, edition, translation string) ([]quran.Ayah, error)
}

// Section is a surah, juz, manzil, ruku or page with its verses.
type Section struct {
	Kind   api.SectionKind
	Number int
	Verses []quran.Ayah
}

// ID names the section, e.g. "juz-30".
func (s Section) ID() string {
	return fmt.Sprintf("%s-%d", s.Kind, s.Number)
}

func (s Section) Title() string {
	if s.Kind == api.SectionSurah {
		return fmt.Sprintf("%d. %s", s.Number, quran.SurahName(s.Number))
	}
	return fmt.Sprintf("%s %d", s.Kind, s.Number)
}

// LoadSection fetches a section. When a surah cannot be fetched, its verses
// are built from the static verse table so playback still works without text.
func LoadSection(ctx context.Context, loader SectionLoader, kind api.SectionKind, number int, edition string) (Section, error) {
	verses, err := loader.GetSection(ctx, kind, number, edition, api.DefaultTranslation)
	if err == nil {
		return Section{Kind: kind, Number: number, Verses: verses}, nil
	}

	if kind != api.SectionSurah || !quran.ValidSurah(number) || ctx.Err() != nil {
		return Section{}, err
	}

	log.Warn().Err(err).Int("surah", number).Msg("Falling back to static verse table")
	return Section{Kind: kind, Number: number, Verses: staticSurah(number)}, nil
}

func staticSurah(number int) []quran.Ayah {
	count := quran.VerseCount(number)
	surah := quran.Surah{
		Number:         number,
		EnglishName:    quran.SurahName(number),
		NumberOfAyahs:  count,
		RevelationType: quran.RevelationType(number),
	}
	verses := make([]quran.Ayah, count)
	for i := range verses {
		abs, _ := quran.AbsoluteNumber(number, i+1)
		verses[i] = quran.Ayah{Number: abs, NumberInSurah: i + 1, Surah: surah}
	}
	return verses
}

// IndexOf returns the position of surah:ayah in the section, or -1.
func (s Section) IndexOf(surah, ayah int) int {
	for i, v := range s.Verses {
		if v.Surah.Number == surah && v.NumberInSurah == ayah {
			return i
		}
	}
	return -1
}
