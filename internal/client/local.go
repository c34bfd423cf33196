package client

import (
	"context"
	"errors"

	"github.com/pbaille/essenskalender/internal/domain"
	"github.com/pbaille/essenskalender/internal/store"
)

// Local serves the calendar straight from a store, without a server in between
type Local struct {
	store store.Backend
}

// NewLocal wraps b
func NewLocal(b store.Backend) *Local {
	return &Local{store: b}
}

func (l *Local) GetAllEntries(ctx context.Context) ([]domain.Entry, error) {
	return l.store.ListEntries(ctx, store.EntryFilter{})
}

func (l *Local) GetEntriesByDate(ctx context.Context, date string) ([]domain.Entry, error) {
	return l.store.ListEntries(ctx, store.EntryFilter{Date: date})
}

func (l *Local) GetDatesWithEntries(ctx context.Context) (map[string]struct{}, error) {
	entries, err := l.GetAllEntries(ctx)
	if err != nil {
		return nil, err
	}
	return domain.DistinctDates(entries), nil
}

func (l *Local) AddEntry(ctx context.Context, e domain.Entry) error {
	_, err := l.store.CreateEntry(ctx, e)
	return err
}

func (l *Local) UpdateEntry(ctx context.Context, e domain.Entry) error {
	return l.store.UpdateEntry(ctx, e.ID, e)
}

func (l *Local) DeleteEntry(ctx context.Context, id string) error {
	return l.store.DeleteEntry(ctx, id)
}

// GetNightPain returns nil, not an error, when the date has no record
func (l *Local) GetNightPain(ctx context.Context, date string) (*domain.NightPain, error) {
	n, err := l.store.GetNightPain(ctx, date)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (l *Local) GetNightPainByMonth(ctx context.Context, month string) ([]domain.NightPain, error) {
	return l.store.ListNightPainByMonth(ctx, month)
}

func (l *Local) SaveNightPain(ctx context.Context, n domain.NightPain) (domain.NightPain, error) {
	return l.store.UpsertNightPain(ctx, n)
}
