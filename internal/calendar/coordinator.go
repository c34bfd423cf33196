// Package calendar keeps the calendar's view state consistent with the diary.
//
// The Coordinator owns which day is selected, which days have entries, the
// selected day's entries and night-pain record, and the entry form. Every
// mutation goes through the Adapter and is followed by a re-fetch; nothing is
// patched locally except the night-pain record after a successful save.
package calendar

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pbaille/essenskalender/internal/domain"
	"github.com/pbaille/essenskalender/internal/logging"
)

// Adapter is how the coordinator reaches storage. client.HTTP and
// client.Local implement it.
type Adapter interface {
	GetAllEntries(ctx context.Context) ([]domain.Entry, error)
	GetEntriesByDate(ctx context.Context, date string) ([]domain.Entry, error)
	GetDatesWithEntries(ctx context.Context) (map[string]struct{}, error)
	AddEntry(ctx context.Context, e domain.Entry) error
	UpdateEntry(ctx context.Context, e domain.Entry) error
	DeleteEntry(ctx context.Context, id string) error
	GetNightPain(ctx context.Context, date string) (*domain.NightPain, error)
	GetNightPainByMonth(ctx context.Context, month string) ([]domain.NightPain, error)
	SaveNightPain(ctx context.Context, n domain.NightPain) (domain.NightPain, error)
}

// ConfirmFunc is asked before an entry is deleted. Returning false cancels.
type ConfirmFunc func(e domain.Entry) bool

var (
	ErrSaveInProgress = errors.New("a save is already in progress")
	ErrNotConfirmed   = errors.New("deletion not confirmed")
	ErrNoDaySelected  = errors.New("no day selected")
)

// State is a snapshot of everything the calendar displays.
type State struct {
	SelectedDate     string // empty when no day is open
	DatesWithEntries map[string]struct{}
	DayEntries       []domain.Entry
	NightPain        *domain.NightPain // nil when the day has no record
	Form             Form
	ErrorMessage     string
	Saving           bool
}

// HasEntries reports whether date has at least one entry.
func (s State) HasEntries(date string) bool {
	_, ok := s.DatesWithEntries[date]
	return ok
}

// Coordinator serializes view-state updates. Adapter calls run without the
// lock held, so a slow fetch never blocks reads of the current state.
type Coordinator struct {
	adapter Adapter
	confirm ConfirmFunc
	log     logging.Logger
	newID   func() string

	mu    sync.Mutex
	state State
	// selection increases on every select/close. A fetch only applies its
	// result if the selection it was issued for is still current.
	selection uint64
	// datesGen orders dates fetches the same way; older results are dropped.
	datesGen uint64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithConfirm sets the delete confirmation. Without one, deletes are refused.
func WithConfirm(fn ConfirmFunc) Option {
	return func(c *Coordinator) { c.confirm = fn }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithIDGenerator replaces uuid generation for new entries.
func WithIDGenerator(fn func() string) Option {
	return func(c *Coordinator) { c.newID = fn }
}

// New creates a Coordinator over adapter.
func New(adapter Adapter, opts ...Option) *Coordinator {
	c := &Coordinator{
		adapter: adapter,
		confirm: func(domain.Entry) bool { return false },
		log:     logging.Discard(),
		newID:   func() string { return uuid.New().String() },
		state: State{
			DatesWithEntries: map[string]struct{}{},
			Form:             FormClosed{},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.DatesWithEntries = make(map[string]struct{}, len(c.state.DatesWithEntries))
	for d := range c.state.DatesWithEntries {
		s.DatesWithEntries[d] = struct{}{}
	}
	s.DayEntries = append([]domain.Entry(nil), c.state.DayEntries...)
	if c.state.NightPain != nil {
		n := *c.state.NightPain
		s.NightPain = &n
	}
	return s
}

// Load fetches the set of dates with entries, for the month grid.
func (c *Coordinator) Load(ctx context.Context) error {
	return c.refreshDates(ctx)
}

func (c *Coordinator) refreshDates(ctx context.Context) error {
	c.mu.Lock()
	c.datesGen++
	gen := c.datesGen
	c.mu.Unlock()

	dates, err := c.adapter.GetDatesWithEntries(ctx)
	if err != nil {
		c.setError(ctx, "load dates", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.datesGen {
		c.log.Debug(ctx, "discarding stale dates fetch")
		return nil
	}
	c.state.DatesWithEntries = dates
	return nil
}

// SelectDate opens date, closes any form and loads the day's entries and
// night-pain record together. If another date is selected before both
// fetches finish, their results are dropped.
func (c *Coordinator) SelectDate(ctx context.Context, date string) error {
	c.mu.Lock()
	c.selection++
	token := c.selection
	c.state.SelectedDate = date
	c.state.Form = FormClosed{}
	c.state.ErrorMessage = ""
	c.state.DayEntries = nil
	c.state.NightPain = nil
	c.mu.Unlock()

	return c.loadDay(ctx, token, date)
}

// loadDay fetches the day and applies it only while token is current.
func (c *Coordinator) loadDay(ctx context.Context, token uint64, date string) error {
	var (
		entries []domain.Entry
		pain    *domain.NightPain
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = c.adapter.GetEntriesByDate(gctx, date)
		return err
	})
	g.Go(func() error {
		var err error
		pain, err = c.adapter.GetNightPain(gctx, date)
		return err
	})
	err := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.selection {
		c.log.Debug(ctx, "discarding stale day fetch", "date", date)
		return nil
	}
	if err != nil {
		c.state.ErrorMessage = err.Error()
		c.log.Warn(ctx, "load day failed", "date", date, "error", err)
		return err
	}
	c.state.DayEntries = entries
	c.state.NightPain = pain
	return nil
}

// refreshDay re-fetches the selected day's entries if date is still selected.
func (c *Coordinator) refreshDay(ctx context.Context, date string) error {
	c.mu.Lock()
	token := c.selection
	selected := c.state.SelectedDate
	c.mu.Unlock()

	if selected == "" || selected != date {
		return nil
	}

	entries, err := c.adapter.GetEntriesByDate(ctx, date)

	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.selection {
		return nil
	}
	if err != nil {
		c.state.ErrorMessage = err.Error()
		return err
	}
	c.state.DayEntries = entries
	return nil
}

// CloseDay clears the selection, the form and the error. The dates with
// entries stay cached.
func (c *Coordinator) CloseDay() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selection++
	c.state.SelectedDate = ""
	c.state.DayEntries = nil
	c.state.NightPain = nil
	c.state.Form = FormClosed{}
	c.state.ErrorMessage = ""
}

// OpenNewEntry opens an empty form for the selected day.
func (c *Coordinator) OpenNewEntry() {
	c.setForm(FormCreating{})
}

// EditEntry opens the form prefilled with e.
func (c *Coordinator) EditEntry(e domain.Entry) {
	c.setForm(FormEditing{Entry: e})
}

// CancelForm closes the form without saving.
func (c *Coordinator) CancelForm() {
	c.setForm(FormClosed{})
}

func (c *Coordinator) setForm(f Form) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Form = f
}

// DismissError clears the error message.
func (c *Coordinator) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ErrorMessage = ""
}

func (c *Coordinator) setError(ctx context.Context, op string, err error) {
	c.log.Warn(ctx, op+" failed", "error", err)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ErrorMessage = err.Error()
}

func containsID(entries []domain.Entry, id string) bool {
	for _, e := range entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

// SaveEntry creates e, or updates it when its id is among the selected day's
// entries. An entry without id gets a fresh one. When the write fails the form
// stays open and the error is shown. Once the write succeeded the form closes
// and nil is returned; a failed re-fetch afterwards only sets the error message.
func (c *Coordinator) SaveEntry(ctx context.Context, e domain.Entry) error {
	c.mu.Lock()
	if c.state.Saving {
		c.mu.Unlock()
		return ErrSaveInProgress
	}
	c.state.Saving = true
	c.state.ErrorMessage = ""
	isUpdate := e.ID != "" && containsID(c.state.DayEntries, e.ID)
	// An update can move the entry off the open day, which then needs a refresh too.
	listedUnder := ""
	if isUpdate {
		listedUnder = c.state.SelectedDate
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state.Saving = false
		c.mu.Unlock()
	}()

	if e.ID == "" {
		e.ID = c.newID()
	}
	e = e.Normalize()

	var err error
	if isUpdate {
		err = c.adapter.UpdateEntry(ctx, e)
	} else {
		err = c.adapter.AddEntry(ctx, e)
	}
	if err != nil {
		c.setError(ctx, "save entry", err)
		return err
	}
	c.log.Info(ctx, "entry saved", "id", e.ID, "date", e.Date, "update", isUpdate)

	c.setForm(FormClosed{})
	c.refreshAfterWrite(ctx, uniqueDates(e.Date, listedUnder)...)
	return nil
}

// refreshAfterWrite re-fetches the dates and the given days after a
// successful write. Failures are shown and logged but do not undo the write.
func (c *Coordinator) refreshAfterWrite(ctx context.Context, days ...string) {
	if err := c.refreshDates(ctx); err != nil {
		return
	}
	for _, date := range days {
		if err := c.refreshDay(ctx, date); err != nil {
			c.log.Warn(ctx, "refresh day failed", "date", date, "error", err)
			return
		}
	}
}

func uniqueDates(dates ...string) []string {
	var out []string
	for _, d := range dates {
		if d == "" {
			continue
		}
		dup := false
		for _, o := range out {
			if o == d {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, d)
		}
	}
	return out
}

// DeleteEntry removes the entry with id after the confirmation accepts it.
func (c *Coordinator) DeleteEntry(ctx context.Context, id string) error {
	c.mu.Lock()
	target := domain.Entry{ID: id}
	for _, e := range c.state.DayEntries {
		if e.ID == id {
			target = e
			break
		}
	}
	selected := c.state.SelectedDate
	c.mu.Unlock()

	if !c.confirm(target) {
		return ErrNotConfirmed
	}

	if err := c.adapter.DeleteEntry(ctx, id); err != nil {
		c.setError(ctx, "delete entry", err)
		return err
	}
	c.log.Info(ctx, "entry deleted", "id", id)

	c.setForm(FormClosed{})
	c.refreshAfterWrite(ctx, selected)
	return nil
}

// SaveNightPain stores n and, once the write succeeded, shows it if its
// date is still selected. A failed write leaves the displayed record as it was.
func (c *Coordinator) SaveNightPain(ctx context.Context, n domain.NightPain) error {
	if n.Date == "" {
		c.mu.Lock()
		n.Date = c.state.SelectedDate
		c.mu.Unlock()
	}
	if n.Date == "" {
		return ErrNoDaySelected
	}

	saved, err := c.adapter.SaveNightPain(ctx, n)
	if err != nil {
		c.setError(ctx, "save night pain", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.SelectedDate == saved.Date {
		c.state.NightPain = &saved
	}
	return nil
}
