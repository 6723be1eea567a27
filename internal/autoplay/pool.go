package autoplay

import (
	"context"
	"sync"

	"github.com/glebovdev/quran-radio/internal/quran"
	"github.com/glebovdev/quran-radio/internal/resolver"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// DefaultWorkers bounds the verse resolution fan-out.
const DefaultWorkers = 5

// AyahSource fetches the upstream description of a single verse, used to
// discover audio URLs a section listing did not carry.
type AyahSource interface {
	GetAyah(ctx context.Context, number int, edition string) (quran.Ayah, error)
}

// Resolver finds a working URL for a verse.
type Resolver interface {
	Resolve(ctx context.Context, edition string, ref resolver.VerseRef, q quran.Quality, extra ...string) (string, error)
}

// Resolution is the outcome for one verse. URL is empty when Err is set.
type Resolution struct {
	URL string
	Err error
}

type job struct {
	index int
	verse quran.Ayah
}

// Preparer resolves the audio of many verses with a bounded worker pool.
type Preparer struct {
	ayahs    AyahSource
	resolver Resolver
	edition  string
	quality  quran.Quality
	workers  int
}

// NewPreparer creates a preparer. ayahs may be nil.
func NewPreparer(ayahs AyahSource, r Resolver, edition string, q quran.Quality, workers int) *Preparer {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Preparer{ayahs: ayahs, resolver: r, edition: edition, quality: q, workers: workers}
}

// Prepare resolves every verse and returns the results in verse order.
func (p *Preparer) Prepare(ctx context.Context, verses []quran.Ayah) []Resolution {
	results := make([]Resolution, len(verses))
	jobs := make(chan job, len(verses))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.index] = p.resolve(ctx, j.verse)
			}
		}()
	}

	for i, v := range verses {
		jobs <- job{index: i, verse: v}
	}
	close(jobs)
	wg.Wait()

	failed := lo.CountBy(results, func(r Resolution) bool { return r.Err != nil })
	log.Debug().Int("verses", len(verses)).Int("unresolved", failed).Msg("Verse audio prepared")
	return results
}

func (p *Preparer) resolve(ctx context.Context, verse quran.Ayah) Resolution {
	if ctx.Err() != nil {
		return Resolution{Err: ctx.Err()}
	}

	if verse.Audio == "" && p.ayahs != nil {
		if full, err := p.ayahs.GetAyah(ctx, verse.Number, p.edition); err == nil {
			verse.Audio = full.Audio
			verse.AudioSecondary = full.AudioSecondary
		} else {
			log.Debug().Err(err).Int("ayah", verse.Number).Msg("Ayah lookup failed")
		}
	}

	extra := lo.Map(append([]string{verse.Audio}, verse.AudioSecondary...), func(u string, _ int) string {
		return quran.WithQuality(u, p.quality)
	})

	ref := resolver.VerseRef{Number: verse.Number, Surah: verse.Surah.Number, Ayah: verse.NumberInSurah}
	url, err := p.resolver.Resolve(ctx, p.edition, ref, p.quality, extra...)
	if err != nil {
		return Resolution{Err: err}
	}
	return Resolution{URL: url}
}
