package api

import (
	"fmt"
	"net/http"

	"github.com/pbaille/essenskalender/internal/export"
	"github.com/pbaille/essenskalender/internal/store"
)

// exportMonth serves the month report as a text file download
func (s *Server) exportMonth(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("month")
	year, month, err := export.ParseMonth(key)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := s.store.ListEntries(r.Context(), store.EntryFilter{})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	pains, err := s.store.ListNightPainByMonth(r.Context(), key)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	report := export.Month(year, month, entries, pains)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.FileName(s.appName, year, month)))
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, report)
}
