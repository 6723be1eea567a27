package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/glebovdev/quran-radio/internal/api"
	"github.com/glebovdev/quran-radio/internal/config"
	"github.com/glebovdev/quran-radio/internal/quran"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeData(w, map[string]string{"status": "ok", "version": config.AppVersion})
}

func (s *Server) handleChapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := s.catalog.GetChapters(r.Context())
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeData(w, chapters)
}

func (s *Server) handleJuzs(w http.ResponseWriter, r *http.Request) {
	juzs, err := s.catalog.GetJuzs(r.Context())
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeData(w, juzs)
}

func (s *Server) handleReciters(w http.ResponseWriter, r *http.Request) {
	reciters, err := s.catalog.GetRecitations(r.Context())
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeData(w, reciters)
}

func (s *Server) handleStations(w http.ResponseWriter, _ *http.Request) {
	stations := []quran.Station{}
	if s.stations != nil {
		stations = s.stations.GetCachedStations()
	}
	writeData(w, stations)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	results, err := s.catalog.Search(r.Context(), q)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeData(w, results)
}

func (s *Server) handleRuku(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number < 1 || number > api.SectionRuku.Max() {
		writeError(w, http.StatusBadRequest, "ruku number must be between 1 and "+strconv.Itoa(api.SectionRuku.Max()))
		return
	}

	edition := r.URL.Query().Get("reciter")
	if edition == "" {
		edition = s.edition
	}

	ayahs, err := s.texts.GetRuku(r.Context(), number, edition)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeData(w, map[string]interface{}{
		"number": number,
		"ayahs":  ayahs,
	})
}

// surahParam parses the surah query parameter.
func surahParam(r *http.Request) (int, bool) {
	surah, err := strconv.Atoi(r.URL.Query().Get("surah"))
	if err != nil || !quran.ValidSurah(surah) {
		return 0, false
	}
	return surah, true
}

// recitationParam returns the quran.com recitation ID, falling back to the default.
func (s *Server) recitationParam(r *http.Request) (string, bool) {
	id := r.URL.Query().Get("reciter")
	if id == "" {
		return s.recitationID, true
	}
	if _, err := strconv.Atoi(id); err != nil {
		return "", false
	}
	return id, true
}
