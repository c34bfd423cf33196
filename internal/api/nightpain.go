package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pbaille/essenskalender/internal/domain"
	"github.com/pbaille/essenskalender/internal/export"
)

// nightPainRequest uses pointers so a missing pain flag can be told apart from false
type nightPainRequest struct {
	Date  *string `json:"date"`
	Pain  *bool   `json:"pain"`
	Notes *string `json:"notes"`
}

func (s *Server) getNightPain(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if month := q.Get("month"); month != "" {
		if _, _, err := export.ParseMonth(month); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		records, err := s.store.ListNightPainByMonth(r.Context(), month)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
		return
	}

	date := q.Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "Missing date or month")
		return
	}

	record, err := s.store.GetNightPain(r.Context(), date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) saveNightPain(w http.ResponseWriter, r *http.Request) {
	var req nightPainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Date == nil || strings.TrimSpace(*req.Date) == "" || req.Pain == nil {
		writeError(w, http.StatusBadRequest, "Missing date or pain")
		return
	}

	record := domain.NightPain{Date: *req.Date, Pain: *req.Pain}
	if req.Notes != nil {
		record.Notes = *req.Notes
	}

	saved, err := s.store.UpsertNightPain(r.Context(), record)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.log.Info(r.Context(), "night pain saved", "date", saved.Date, "pain", saved.Pain)
	writeJSON(w, http.StatusCreated, saved)
}
