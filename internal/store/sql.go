package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/pbaille/essenskalender/internal/domain"
	"github.com/pbaille/essenskalender/internal/store/migrations"
)

// dialect captures what differs between the SQL engines.
type dialect struct {
	goose           goose.Dialect
	numberedParams  bool // $1, $2 instead of ?
	uniqueViolation func(error) bool
}

// SQLStore handles database operations for the SQL backends
type SQLStore struct {
	db      *sql.DB
	dialect dialect

	initMu sync.Mutex
	ready  bool
}

func newSQLStore(db *sql.DB, d dialect) *SQLStore {
	return &SQLStore{db: db, dialect: d}
}

// Init runs the embedded migrations once. A failed attempt is retried on
// the next call.
func (s *SQLStore) Init(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.ready {
		return nil
	}

	provider, err := goose.NewProvider(s.dialect.goose, s.db, migrations.FS)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	s.ready = true
	return nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders for engines that use numbered parameters.
func (s *SQLStore) rebind(query string) string {
	if !s.dialect.numberedParams {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const entryColumns = "id, date, time, food, mood"

// ListEntries returns entries, optionally restricted to one date
func (s *SQLStore) ListEntries(ctx context.Context, filter EntryFilter) ([]domain.Entry, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}

	query := "SELECT " + entryColumns + " FROM entries ORDER BY date DESC, time ASC NULLS LAST"
	var args []any
	if filter.Date != "" {
		query = "SELECT " + entryColumns + " FROM entries WHERE date = ? ORDER BY time ASC NULLS LAST"
		args = append(args, filter.Date)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (domain.Entry, error) {
	var (
		e  domain.Entry
		tm sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Date, &tm, &e.Food, &e.Mood); err != nil {
		return domain.Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	if tm.Valid {
		e.Time = domain.TimeOf(tm.String)
	}
	return e, nil
}

// GetEntry retrieves an entry by ID
func (s *SQLStore) GetEntry(ctx context.Context, id string) (domain.Entry, error) {
	if err := s.Init(ctx); err != nil {
		return domain.Entry{}, err
	}

	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+entryColumns+" FROM entries WHERE id = ?"), id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, entryNotFound(id)
	}
	if err != nil {
		return domain.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// CreateEntry inserts e under its own id, refusing ids that already exist
func (s *SQLStore) CreateEntry(ctx context.Context, e domain.Entry) (string, error) {
	e, err := prepareEntry(e)
	if err != nil {
		return "", err
	}
	if err := s.Init(ctx); err != nil {
		return "", err
	}

	_, err = s.db.ExecContext(ctx,
		s.rebind("INSERT INTO entries (id, date, time, food, mood) VALUES (?, ?, ?, ?, ?)"),
		e.ID, e.Date, nullable(e.Time), e.Food, e.Mood,
	)
	if err != nil {
		if s.dialect.uniqueViolation(err) {
			return "", domain.Errorf(domain.ErrConflict, "Entry %s already exists", e.ID)
		}
		return "", fmt.Errorf("insert entry: %w", err)
	}
	return e.ID, nil
}

// UpdateEntry replaces every field of the entry except its id
func (s *SQLStore) UpdateEntry(ctx context.Context, id string, e domain.Entry) error {
	e.ID = id
	e, err := prepareEntry(e)
	if err != nil {
		return err
	}
	if err := s.Init(ctx); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE entries SET date = ?, time = ?, food = ?, mood = ? WHERE id = ?"),
		e.Date, nullable(e.Time), e.Food, e.Mood, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return requireOneRow(res, entryNotFound(e.ID))
}

// DeleteEntry removes an entry. Deleting twice reports not found.
func (s *SQLStore) DeleteEntry(ctx context.Context, id string) error {
	if err := s.Init(ctx); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM entries WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return requireOneRow(res, entryNotFound(id))
}

func requireOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// GetNightPain returns the record stored for date
func (s *SQLStore) GetNightPain(ctx context.Context, date string) (domain.NightPain, error) {
	if err := s.Init(ctx); err != nil {
		return domain.NightPain{}, err
	}

	row := s.db.QueryRowContext(ctx, s.rebind("SELECT date, pain, notes FROM night_pain WHERE date = ?"), date)
	n, err := scanNightPain(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NightPain{}, nightPainNotFound(date)
	}
	if err != nil {
		return domain.NightPain{}, fmt.Errorf("get night pain: %w", err)
	}
	return n, nil
}

func scanNightPain(row rowScanner) (domain.NightPain, error) {
	var (
		n     domain.NightPain
		notes sql.NullString
	)
	if err := row.Scan(&n.Date, &n.Pain, &notes); err != nil {
		return domain.NightPain{}, fmt.Errorf("scan night pain: %w", err)
	}
	n.Notes = notes.String
	return n, nil
}

// ListNightPainByMonth returns the month's records in date order
func (s *SQLStore) ListNightPainByMonth(ctx context.Context, month string) ([]domain.NightPain, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		s.rebind("SELECT date, pain, notes FROM night_pain WHERE date LIKE ? ORDER BY date"),
		month+"-%",
	)
	if err != nil {
		return nil, fmt.Errorf("list night pain: %w", err)
	}
	defer rows.Close()

	records := []domain.NightPain{}
	for rows.Next() {
		n, err := scanNightPain(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list night pain: %w", err)
	}
	return records, nil
}

// UpsertNightPain creates or replaces the record for n.Date in one statement
func (s *SQLStore) UpsertNightPain(ctx context.Context, n domain.NightPain) (domain.NightPain, error) {
	n.Date = strings.TrimSpace(n.Date)
	if err := n.Validate(); err != nil {
		return domain.NightPain{}, err
	}
	if err := s.Init(ctx); err != nil {
		return domain.NightPain{}, err
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO night_pain (date, pain, notes) VALUES (?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET pain = excluded.pain, notes = excluded.notes
	`), n.Date, n.Pain, n.Notes)
	if err != nil {
		return domain.NightPain{}, fmt.Errorf("upsert night pain: %w", err)
	}
	return n, nil
}
