package api

import (
	"encoding/json"
	"net/http"

	"github.com/pbaille/essenskalender/internal/domain"
	"github.com/pbaille/essenskalender/internal/store"
)

// Actions accepted by the legacy single-endpoint form of POST /entries.
const (
	actionCreate = ""
	actionUpdate = "update"
	actionDelete = "delete"
)

// entryRequest is the body of POST /entries. Action is only set by older
// clients that multiplex update and delete through the create endpoint.
type entryRequest struct {
	Action string `json:"action,omitempty"`
	domain.Entry
}

// IDResponse is returned by create and update
type IDResponse struct {
	ID string `json:"id"`
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	filter := store.EntryFilter{Date: r.URL.Query().Get("date")}

	entries, err := s.store.ListEntries(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.GetEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) postEntries(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch req.Action {
	case actionCreate:
		s.createEntry(w, r, req.Entry)
	case actionUpdate:
		if req.ID == "" {
			writeError(w, http.StatusBadRequest, "Missing id, date, food or mood")
			return
		}
		s.applyUpdate(w, r, req.ID, req.Entry)
	case actionDelete:
		if req.ID == "" {
			writeError(w, http.StatusBadRequest, "Missing id")
			return
		}
		s.applyDelete(w, r, req.ID)
	default:
		writeError(w, http.StatusBadRequest, "Unknown action "+req.Action)
	}
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request, e domain.Entry) {
	id, err := s.store.CreateEntry(r.Context(), e)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.log.Info(r.Context(), "entry created", "id", id, "date", e.Date)
	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	var e domain.Entry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.applyUpdate(w, r, r.PathValue("id"), e)
}

func (s *Server) applyUpdate(w http.ResponseWriter, r *http.Request, id string, e domain.Entry) {
	if err := s.store.UpdateEntry(r.Context(), id, e); err != nil {
		s.fail(w, r, err)
		return
	}

	s.log.Info(r.Context(), "entry updated", "id", id)
	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	s.applyDelete(w, r, r.PathValue("id"))
}

func (s *Server) applyDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.store.DeleteEntry(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}

	s.log.Info(r.Context(), "entry deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
