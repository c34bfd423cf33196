// Package store persists diary entries and night-pain records.
//
// Three backends implement Backend: SQLStore over SQLite or PostgreSQL, and
// DiskStore, a file-per-record store used when the diary runs offline.
package store

import (
	"context"
	"fmt"

	"github.com/pbaille/essenskalender/internal/domain"
)

// EntryFilter narrows ListEntries. The zero value lists everything.
type EntryFilter struct {
	Date string
}

// Backend is the source of truth for entries and night-pain records.
//
// Errors carry the domain kinds: domain.ErrValidation, domain.ErrNotFound and
// domain.ErrConflict. Anything else is an unexpected backend fault.
type Backend interface {
	// Init prepares the schema. Every other method calls it lazily, so calling
	// it at startup is optional but surfaces setup problems early.
	Init(ctx context.Context) error
	Close() error

	// ListEntries orders by date descending without a filter, and always by
	// time ascending within a date with untimed entries last.
	ListEntries(ctx context.Context, filter EntryFilter) ([]domain.Entry, error)
	GetEntry(ctx context.Context, id string) (domain.Entry, error)
	CreateEntry(ctx context.Context, e domain.Entry) (string, error)
	UpdateEntry(ctx context.Context, id string, e domain.Entry) error
	DeleteEntry(ctx context.Context, id string) error

	GetNightPain(ctx context.Context, date string) (domain.NightPain, error)
	// ListNightPainByMonth matches month ("YYYY-MM") as a date prefix, date ascending.
	ListNightPainByMonth(ctx context.Context, month string) ([]domain.NightPain, error)
	UpsertNightPain(ctx context.Context, n domain.NightPain) (domain.NightPain, error)
}

// Kind names a backend implementation.
type Kind string

const (
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
	KindLocal    Kind = "local"
)

// Options selects and configures a backend.
type Options struct {
	Kind     Kind
	Path     string // sqlite database file
	DSN      string // postgres connection string
	LocalDir string // base directory of the disk store
}

// Open returns the backend described by opts. The schema is not touched
// until Init or the first operation.
func Open(opts Options) (Backend, error) {
	switch opts.Kind {
	case KindSQLite, "":
		return OpenSQLite(opts.Path)
	case KindPostgres:
		return OpenPostgres(opts.DSN)
	case KindLocal:
		return NewDiskStore(opts.LocalDir), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Kind)
	}
}

// prepareEntry normalizes e for writing and checks its required fields.
func prepareEntry(e domain.Entry) (domain.Entry, error) {
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return domain.Entry{}, err
	}
	return e, nil
}

func entryNotFound(id string) error {
	return domain.NotFoundf("Entry %s not found", id)
}

func nightPainNotFound(date string) error {
	return domain.NotFoundf("No night-pain record for %s", date)
}
