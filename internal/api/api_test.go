package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebovdev/quran-radio/internal/cache"
)

func setupQuranCom(t *testing.T, handler http.HandlerFunc, c *cache.Cache) (*httptest.Server, *QuranComClient) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, NewQuranComClient(server.URL, 5*time.Second, c)
}

func setupAlQuran(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *AlQuranClient) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, NewAlQuranClient(server.URL, 5*time.Second, nil)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestGetChapterRecitations(t *testing.T) {
	_, client := setupQuranCom(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chapter_recitations/7" {
			t.Errorf("Expected path /chapter_recitations/7, got %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"audio_files":[
			{"id":1,"chapter_id":36,"file_size":100,"format":"mp3","audio_url":"https://download.quranicaudio.com/36.mp3"},
			{"id":2,"chapter_id":56,"file_size":200,"format":"mp3","audio_url":"https://download.quranicaudio.com/56.mp3"}
		]}`))
	}, nil)

	files, err := client.GetChapterRecitations(context.Background(), "7")
	if err != nil {
		t.Fatalf("GetChapterRecitations() error = %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("GetChapterRecitations() returned %d files, want 2", len(files))
	}
	if files[0].SurahID != 36 || files[1].URL != "https://download.quranicaudio.com/56.mp3" {
		t.Errorf("unexpected files %+v", files)
	}
}

func TestGetChapterRecitationsInvalidReciter(t *testing.T) {
	_, client := setupQuranCom(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an invalid reciter")
	}, nil)

	if _, err := client.GetChapterRecitations(context.Background(), "../x"); err == nil {
		t.Error("GetChapterRecitations() should reject a non-numeric reciter")
	}
}

func TestGetChaptersCached(t *testing.T) {
	var hits atomic.Int32
	c := cache.NewCacheAt(t.TempDir())

	_, client := setupQuranCom(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("language") != "en" {
			t.Errorf("language = %q, want en", r.URL.Query().Get("language"))
		}
		_, _ = w.Write([]byte(`{"chapters":[{"id":1,"name_simple":"Al-Fatihah","verses_count":7,"revelation_place":"makkah"}]}`))
	}, c)

	for i := 0; i < 3; i++ {
		chapters, err := client.GetChapters(context.Background())
		if err != nil {
			t.Fatalf("GetChapters() error = %v", err)
		}
		if len(chapters) != 1 || chapters[0].VersesCount != 7 {
			t.Fatalf("unexpected chapters %+v", chapters)
		}
	}

	if hits.Load() != 1 {
		t.Errorf("upstream hit %d times, want 1", hits.Load())
	}
}

func TestStatusErrorNotFound(t *testing.T) {
	_, client := setupQuranCom(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, nil)

	_, err := client.GetJuzs(context.Background())
	if err == nil {
		t.Fatal("GetJuzs() should fail on 404")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("errors.Is(err, ErrNotFound) = false for %v", err)
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Errorf("expected StatusError with 404, got %v", err)
	}
}

func TestInvalidJSON(t *testing.T) {
	_, client := setupQuranCom(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not valid json"))
	}, nil)

	if _, err := client.GetRecitations(context.Background()); err == nil {
		t.Error("GetRecitations() should return error for invalid JSON")
	}
}

func TestSearch(t *testing.T) {
	_, client := setupQuranCom(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "mercy" {
			t.Errorf("q = %q, want mercy", r.URL.Query().Get("q"))
		}
		_, _ = w.Write([]byte(`{"search":{"query":"mercy","results":[{"verse_key":"1:3","verse_id":3,"text":"The Most Merciful"}]}}`))
	}, nil)

	results, err := client.Search(context.Background(), " mercy ")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].VerseKey != "1:3" {
		t.Errorf("unexpected results %+v", results)
	}

	if _, err := client.Search(context.Background(), "  "); err == nil {
		t.Error("Search() should reject an empty query")
	}
}

func TestGetSurahMergesTranslation(t *testing.T) {
	_, client := setupAlQuran(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/surah/112/ar.alafasy":
			writeJSON(w, map[string]interface{}{
				"code": 200, "status": "OK",
				"data": map[string]interface{}{
					"number": 112, "englishName": "Al-Ikhlaas", "numberOfAyahs": 2,
					"ayahs": []map[string]interface{}{
						{"number": 6222, "numberInSurah": 1, "text": "arabic 1", "audio": "https://cdn/6222.mp3"},
						{"number": 6223, "numberInSurah": 2, "text": "arabic 2", "audio": "https://cdn/6223.mp3"},
					},
				},
			})
		case "/surah/112/en.asad":
			writeJSON(w, map[string]interface{}{
				"code": 200, "status": "OK",
				"data": map[string]interface{}{
					"number": 112,
					"ayahs": []map[string]interface{}{
						{"number": 6222, "numberInSurah": 1, "text": "Say: He is God"},
						{"number": 6223, "numberInSurah": 2, "text": "God the Eternal"},
					},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ayahs, err := client.GetSurah(context.Background(), 112, "ar.alafasy")
	if err != nil {
		t.Fatalf("GetSurah() error = %v", err)
	}

	if len(ayahs) != 2 {
		t.Fatalf("GetSurah() returned %d ayahs, want 2", len(ayahs))
	}
	if ayahs[0].Surah.Number != 112 || ayahs[0].Key() != "112:1" {
		t.Errorf("surah not propagated: %+v", ayahs[0])
	}
	if ayahs[1].Translation != "God the Eternal" {
		t.Errorf("Translation = %q", ayahs[1].Translation)
	}
	if ayahs[0].Audio != "https://cdn/6222.mp3" {
		t.Errorf("Audio = %q", ayahs[0].Audio)
	}
}

func TestGetSectionOutOfRange(t *testing.T) {
	_, client := setupAlQuran(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	tests := []struct {
		kind   SectionKind
		number int
	}{
		{SectionJuz, 31},
		{SectionManzil, 0},
		{SectionRuku, 557},
		{SectionSurah, 115},
	}
	for _, tt := range tests {
		if _, err := client.GetSection(context.Background(), tt.kind, tt.number, "ar.alafasy", ""); err == nil {
			t.Errorf("GetSection(%s, %d) should fail", tt.kind, tt.number)
		}
	}
}

func TestGetAyahEnvelopeError(t *testing.T) {
	_, client := setupAlQuran(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"code": 404, "status": "NOT FOUND", "data": "Not found"})
	})

	_, err := client.GetAyah(context.Background(), 10, "ar.unknown")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAyah() error = %v, want ErrNotFound", err)
	}
}

func TestGetAyah(t *testing.T) {
	_, client := setupAlQuran(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ayah/262/ar.alafasy" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"code":200,"status":"OK","data":{"number":262,"numberInSurah":255,
			"audio":"https://cdn.islamic.network/quran/audio/128/ar.alafasy/262.mp3",
			"audioSecondary":["https://cdn.islamic.network/quran/audio/64/ar.alafasy/262.mp3"],
			"surah":{"number":2,"englishName":"Al-Baqara"}}}`))
	})

	ayah, err := client.GetAyah(context.Background(), 262, "ar.alafasy")
	if err != nil {
		t.Fatalf("GetAyah() error = %v", err)
	}
	if ayah.Key() != "2:255" || len(ayah.AudioSecondary) != 1 {
		t.Errorf("unexpected ayah %+v", ayah)
	}
}

func TestParseSectionKind(t *testing.T) {
	if k, err := ParseSectionKind("manzil"); err != nil || k.Max() != 7 {
		t.Errorf("ParseSectionKind(manzil) = %v, %v", k, err)
	}
	if _, err := ParseSectionKind("hizb"); err == nil {
		t.Error("ParseSectionKind(hizb) should fail")
	}
}
