package autoplay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebovdev/quran-radio/internal/api"
	"github.com/glebovdev/quran-radio/internal/player"
	"github.com/glebovdev/quran-radio/internal/quran"
	"github.com/glebovdev/quran-radio/internal/radio"
	"github.com/glebovdev/quran-radio/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type fakeLoader struct {
	verses []quran.Ayah
	err    error
}

func (f *fakeLoader) GetSection(ctx context.Context, kind api.SectionKind, number int, edition, translation string) ([]quran.Ayah, error) {
	return f.verses, f.err
}

type fakeResolver struct {
	mu      sync.Mutex
	missing map[int]bool
	extras  map[int][]string
}

func (f *fakeResolver) Resolve(ctx context.Context, edition string, ref resolver.VerseRef, q quran.Quality, extra ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.extras == nil {
		f.extras = make(map[int][]string)
	}
	f.extras[ref.Number] = extra
	if f.missing[ref.Number] {
		return "", fmt.Errorf("verse %s: %w", ref, resolver.ErrNoSource)
	}
	return verseURL(ref.Number), nil
}

type fakeAyahs struct {
	calls int
}

func (f *fakeAyahs) GetAyah(ctx context.Context, number int, edition string) (quran.Ayah, error) {
	f.calls++
	return quran.Ayah{
		Number: number,
		Audio:  fmt.Sprintf("https://cdn.islamic.network/quran/audio/128/%s/%d.mp3", edition, number),
	}, nil
}

func verseURL(n int) string {
	return fmt.Sprintf("https://cdn.islamic.network/quran/audio/128/ar.alafasy/%d.mp3", n)
}

func fatihah(count int) []quran.Ayah {
	verses := make([]quran.Ayah, count)
	for i := range verses {
		verses[i] = quran.Ayah{
			Number:        i + 1,
			NumberInSurah: i + 1,
			Surah:         quran.Surah{Number: 1, EnglishName: "Al-Faatiha"},
		}
	}
	return verses
}

func startController(t *testing.T) (*radio.Controller, *player.Mock) {
	t.Helper()
	mock := player.NewMock()
	element := player.NewElement(mock, player.WithBackoff(time.Millisecond))
	c := radio.NewController(element, quran.QualityHigh)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errCh
	})
	return c, mock
}

func TestSectionID(t *testing.T) {
	assert.Equal(t, "juz-30", Section{Kind: api.SectionJuz, Number: 30}.ID())
	assert.Equal(t, "36. Ya-Sin", Section{Kind: api.SectionSurah, Number: 36}.Title())
}

func TestSectionIndexOf(t *testing.T) {
	section := Section{Kind: api.SectionSurah, Number: 1, Verses: fatihah(7)}
	assert.Equal(t, 2, section.IndexOf(1, 3))
	assert.Equal(t, -1, section.IndexOf(2, 3))
}

func TestLoadSection(t *testing.T) {
	loader := &fakeLoader{verses: fatihah(7)}

	section, err := LoadSection(context.Background(), loader, api.SectionSurah, 1, "ar.alafasy")
	require.NoError(t, err)
	assert.Len(t, section.Verses, 7)
	assert.Equal(t, "surah-1", section.ID())
}

func TestLoadSectionSurahFallsBackToStaticTable(t *testing.T) {
	loader := &fakeLoader{err: errors.New("upstream down")}

	section, err := LoadSection(context.Background(), loader, api.SectionSurah, 36, "ar.alafasy")
	require.NoError(t, err)
	require.Len(t, section.Verses, 83)

	first := section.Verses[0]
	assert.Equal(t, 3706, first.Number)
	assert.Equal(t, 1, first.NumberInSurah)
	assert.Equal(t, 36, first.Surah.Number)
	assert.Equal(t, 3788, section.Verses[82].Number)
}

func TestLoadSectionNoFallbackForOtherKinds(t *testing.T) {
	loader := &fakeLoader{err: errors.New("upstream down")}

	_, err := LoadSection(context.Background(), loader, api.SectionJuz, 30, "ar.alafasy")
	assert.Error(t, err)
}

func TestPreparerKeepsVerseOrder(t *testing.T) {
	res := &fakeResolver{missing: map[int]bool{4: true}}
	p := NewPreparer(nil, res, "ar.alafasy", quran.QualityHigh, 3)

	results := p.Prepare(context.Background(), fatihah(7))
	require.Len(t, results, 7)
	for i, r := range results {
		if i == 3 {
			assert.ErrorIs(t, r.Err, resolver.ErrNoSource)
			assert.Empty(t, r.URL)
			continue
		}
		assert.NoError(t, r.Err)
		assert.Equal(t, verseURL(i+1), r.URL)
	}
}

func TestPreparerPassesVerseAudioAtQuality(t *testing.T) {
	res := &fakeResolver{}
	p := NewPreparer(nil, res, "ar.alafasy", quran.QualityLow, 1)

	verses := fatihah(1)
	verses[0].Audio = "https://cdn.islamic.network/quran/audio/128/ar.alafasy/1.mp3"
	verses[0].AudioSecondary = []string{"https://cdn.islamic.network/quran/audio/64/ar.alafasy/1.mp3"}
	p.Prepare(context.Background(), verses)

	assert.Equal(t, []string{
		"https://cdn.islamic.network/quran/audio/64/ar.alafasy/1.mp3",
		"https://cdn.islamic.network/quran/audio/64/ar.alafasy/1.mp3",
	}, res.extras[1])
}

func TestPreparerLooksUpMissingAudio(t *testing.T) {
	res := &fakeResolver{}
	ayahs := &fakeAyahs{}
	p := NewPreparer(ayahs, res, "ar.husary", quran.QualityHigh, 1)

	p.Prepare(context.Background(), fatihah(2))

	assert.Equal(t, 2, ayahs.calls)
	assert.Equal(t, "https://cdn.islamic.network/quran/audio/128/ar.husary/2.mp3", res.extras[2][0])
}

func TestPreparerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPreparer(nil, &fakeResolver{}, "ar.alafasy", quran.QualityHigh, 0)
	results := p.Prepare(ctx, fatihah(3))
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestSessionSkipsUnresolvableVerse(t *testing.T) {
	ctrl, mock := startController(t)
	res := &fakeResolver{missing: map[int]bool{3: true}}
	session := NewSession(ctrl, NewPreparer(nil, res, "ar.alafasy", quran.QualityHigh, 5), "ar.alafasy")

	section := Section{Kind: api.SectionSurah, Number: 1, Verses: fatihah(5)}
	require.NoError(t, session.Start(context.Background(), section, 0))
	require.Equal(t, verseURL(1), mock.URL())

	for _, next := range []int{2, 4, 5} {
		mock.Finish()
		want := verseURL(next)
		require.Eventually(t, func() bool { return mock.URL() == want }, waitFor, time.Millisecond)
	}
	mock.Finish()

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, session.Wait(ctx))

	assert.Equal(t, []string{verseURL(1), verseURL(2), verseURL(4), verseURL(5)}, mock.Loads())

	state := ctrl.State()
	assert.False(t, state.IsPlaying)
	assert.Equal(t, 4, state.TrackIndex)
	assert.Contains(t, state.Errors, 2)
	assert.Len(t, state.Errors, 1)

	var errorsSeen []int
	for e := range drain(session.Events()) {
		if e.Kind == EventVerseError {
			errorsSeen = append(errorsSeen, e.Index)
			assert.Equal(t, 3, e.Verse.NumberInSurah)
		}
	}
	assert.Equal(t, []int{2}, errorsSeen)
}

func TestSessionStartsFromVerse(t *testing.T) {
	ctrl, mock := startController(t)
	session := NewSession(ctrl, NewPreparer(nil, &fakeResolver{}, "ar.alafasy", quran.QualityHigh, 2), "ar.alafasy")

	section := Section{Kind: api.SectionSurah, Number: 1, Verses: fatihah(7)}
	require.NoError(t, session.Start(context.Background(), section, section.IndexOf(1, 6)))

	assert.Equal(t, verseURL(6), mock.URL())
	assert.Equal(t, 5, ctrl.State().TrackIndex)
}

func TestSessionFirstHighlightIsStartVerse(t *testing.T) {
	ctrl, mock := startController(t)
	session := NewSession(ctrl, NewPreparer(nil, &fakeResolver{}, "ar.alafasy", quran.QualityHigh, 2), "ar.alafasy")

	section := Section{Kind: api.SectionSurah, Number: 1, Verses: fatihah(7)}
	require.NoError(t, session.Start(context.Background(), section, 5))

	select {
	case e := <-session.Events():
		assert.Equal(t, EventHighlight, e.Kind)
		assert.Equal(t, 5, e.Index)
		assert.Equal(t, 6, e.Verse.NumberInSurah)
	case <-time.After(waitFor):
		t.Fatal("no highlight for the start verse")
	}
	assert.Equal(t, []string{verseURL(6)}, mock.Loads())

	mock.Finish()
	select {
	case e := <-session.Events():
		assert.Equal(t, EventHighlight, e.Kind)
		assert.Equal(t, 6, e.Index)
	case <-time.After(waitFor):
		t.Fatal("no highlight after the start verse ended")
	}
}

func TestSessionPauseIsNotFinish(t *testing.T) {
	ctrl, _ := startController(t)
	session := NewSession(ctrl, NewPreparer(nil, &fakeResolver{}, "ar.alafasy", quran.QualityHigh, 2), "ar.alafasy")

	section := Section{Kind: api.SectionSurah, Number: 1, Verses: fatihah(3)}
	require.NoError(t, session.Start(context.Background(), section, 0))
	require.NoError(t, session.Pause())

	select {
	case <-session.Finished():
		t.Fatal("pause should not finish the session")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, session.Resume())
	assert.True(t, ctrl.State().IsPlaying)
}

func TestSessionRejectsUnplayableSection(t *testing.T) {
	ctrl, _ := startController(t)
	res := &fakeResolver{missing: map[int]bool{1: true, 2: true}}
	session := NewSession(ctrl, NewPreparer(nil, res, "ar.alafasy", quran.QualityHigh, 2), "ar.alafasy")

	err := session.Start(context.Background(), Section{Kind: api.SectionRuku, Number: 1, Verses: fatihah(2)}, 0)
	assert.ErrorIs(t, err, ErrNoVerses)
	assert.ErrorIs(t, err, resolver.ErrNoSource)

	err = session.Start(context.Background(), Section{Kind: api.SectionRuku, Number: 1, Verses: fatihah(2)}, 5)
	assert.Error(t, err)

	err = session.Start(context.Background(), Section{Kind: api.SectionRuku, Number: 1}, 0)
	assert.ErrorIs(t, err, ErrNoVerses)
}

// drain collects the events buffered so far without waiting for the channel
// to close.
func drain(ch <-chan Event) <-chan Event {
	out := make(chan Event, eventBufferSize)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				close(out)
				return out
			}
			out <- e
		default:
			close(out)
			return out
		}
	}
}
