// Package client gives the calendar a uniform way to reach the diary, either
// over the REST API or directly through a local store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pbaille/essenskalender/internal/domain"
)

const apiPrefix = "/api"

// HTTP talks to the diary REST API
type HTTP struct {
	baseURL string
	client  *http.Client
}

// NewHTTP creates a client for the API served at baseURL. A zero timeout
// means no timeout.
func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// do sends the request and returns the response unless its status is an
// error. 404 is passed through: callers decide whether absence is an error.
func (c *HTTP) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.Errorf(domain.ErrTransport, "Server nicht erreichbar: %v", err)
	}

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp, nil
}

// statusError turns a failed response into a domain error, preferring the
// server's {"error": ...} message over the raw body.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	msg := strings.TrimSpace(string(raw))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	kind := domain.ErrServer
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		kind = domain.ErrValidation
	case resp.StatusCode == http.StatusConflict:
		kind = domain.ErrConflict
	}
	return domain.Errorf(kind, "%s", msg)
}

var whitespace = regexp.MustCompile(`\s+`)

// decode reads a JSON body into v. It reports a response that is not JSON
// at all separately from JSON that does not parse; an empty body leaves v
// untouched.
func decode(resp *http.Response, v any) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Errorf(domain.ErrTransport, "Antwort konnte nicht gelesen werden: %v", err)
	}

	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		preview := string(raw)
		if r := []rune(preview); len(r) > 50 {
			preview = string(r[:50])
		}
		preview = whitespace.ReplaceAllString(preview, " ")
		return domain.Errorf(domain.ErrNonJSONResponse,
			"API hat keine JSON-Antwort zurückgegeben (z. B. falsche URL oder Rewrite). Erste Zeichen: %s…", preview)
	}

	if strings.TrimSpace(string(raw)) == "" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return domain.Errorf(domain.ErrMalformedJSON,
			"Ungültige JSON-Antwort von der API. Bitte API-URL und Rewrites prüfen.")
	}
	return nil
}

// notFound drains a 404 response into a domain not-found error.
func notFound(resp *http.Response, format string, args ...any) error {
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return domain.NotFoundf("%s", body.Error)
	}
	return domain.NotFoundf(format, args...)
}

func (c *HTTP) listEntries(ctx context.Context, query string) ([]domain.Entry, error) {
	resp, err := c.do(ctx, http.MethodGet, "/entries"+query, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, notFound(resp, "Einträge nicht gefunden")
	}

	var entries []domain.Entry
	if err := decode(resp, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	return entries, nil
}

// GetAllEntries lists every entry, newest date first
func (c *HTTP) GetAllEntries(ctx context.Context) ([]domain.Entry, error) {
	return c.listEntries(ctx, "")
}

// GetEntriesByDate lists one day's entries in time order
func (c *HTTP) GetEntriesByDate(ctx context.Context, date string) ([]domain.Entry, error) {
	entries, err := c.listEntries(ctx, "?date="+url.QueryEscape(date))
	if err != nil {
		return nil, err
	}
	domain.SortByTime(entries)
	return entries, nil
}

// GetDatesWithEntries returns the set of dates that have entries
func (c *HTTP) GetDatesWithEntries(ctx context.Context) (map[string]struct{}, error) {
	entries, err := c.GetAllEntries(ctx)
	if err != nil {
		return nil, err
	}
	return domain.DistinctDates(entries), nil
}

// AddEntry creates e; its id must already be set
func (c *HTTP) AddEntry(ctx context.Context, e domain.Entry) error {
	resp, err := c.do(ctx, http.MethodPost, "/entries", e)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		return notFound(resp, "API-Endpunkt nicht gefunden")
	}
	var out struct {
		ID string `json:"id"`
	}
	return decode(resp, &out)
}

// UpdateEntry replaces the stored entry with id e.ID
func (c *HTTP) UpdateEntry(ctx context.Context, e domain.Entry) error {
	resp, err := c.do(ctx, http.MethodPut, "/entries/"+url.PathEscape(e.ID), e)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		return notFound(resp, "Eintrag %s nicht gefunden", e.ID)
	}
	var out struct {
		ID string `json:"id"`
	}
	return decode(resp, &out)
}

// DeleteEntry removes the entry with the given id
func (c *HTTP) DeleteEntry(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/entries/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		return notFound(resp, "Eintrag %s nicht gefunden", id)
	}
	resp.Body.Close()
	return nil
}

// GetNightPain returns the record for date, or nil when there is none
func (c *HTTP) GetNightPain(ctx context.Context, date string) (*domain.NightPain, error) {
	resp, err := c.do(ctx, http.MethodGet, "/night-pain?date="+url.QueryEscape(date), nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, nil
	}

	var record *domain.NightPain
	if err := decode(resp, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetNightPainByMonth lists the records whose date starts with month
func (c *HTTP) GetNightPainByMonth(ctx context.Context, month string) ([]domain.NightPain, error) {
	resp, err := c.do(ctx, http.MethodGet, "/night-pain?month="+url.QueryEscape(month), nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, notFound(resp, "API-Endpunkt nicht gefunden")
	}

	var records []domain.NightPain
	if err := decode(resp, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.NightPain{}
	}
	return records, nil
}

// SaveNightPain upserts n and returns what the server stored
func (c *HTTP) SaveNightPain(ctx context.Context, n domain.NightPain) (domain.NightPain, error) {
	resp, err := c.do(ctx, http.MethodPost, "/night-pain", n)
	if err != nil {
		return domain.NightPain{}, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return domain.NightPain{}, notFound(resp, "API-Endpunkt nicht gefunden")
	}

	saved := n
	if err := decode(resp, &saved); err != nil {
		return domain.NightPain{}, err
	}
	return saved, nil
}

// IsTransport reports whether err came from the network or a response that
// could not be understood, as opposed to the server rejecting the request.
func IsTransport(err error) bool {
	return errors.Is(err, domain.ErrTransport)
}
