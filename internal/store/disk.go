package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/peterbourgon/diskv/v3"

	"github.com/pbaille/essenskalender/internal/domain"
)

const (
	entriesCollection   = "entries"
	nightPainCollection = "night-pain"
)

// DiskStore keeps one JSON file per record under a base directory:
// entries/<id> and night-pain/<date>. It is the offline fallback when no
// server is reachable.
type DiskStore struct {
	basePath string
	d        *diskv.Diskv

	mu     sync.Mutex // serializes writes so create-if-absent is atomic
	initMu sync.Mutex
	ready  bool
}

// NewDiskStore returns a store rooted at basePath
func NewDiskStore(basePath string) *DiskStore {
	return &DiskStore{
		basePath: basePath,
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			TempDir:           basePath + ".tmp",
			AdvancedTransform: keyToPath,
			InverseTransform:  pathToKey,
			CacheSizeMax:      1024 * 1024, // 1MB
		}),
	}
}

func keyToPath(key string) *diskv.PathKey {
	collection, name, found := strings.Cut(key, "/")
	if !found {
		return &diskv.PathKey{FileName: key}
	}
	return &diskv.PathKey{Path: []string{collection}, FileName: name}
}

func pathToKey(pk *diskv.PathKey) string {
	return strings.Join(append(append([]string{}, pk.Path...), pk.FileName), "/")
}

func recordKey(collection, name string) string {
	return collection + "/" + name
}

// safeName rejects names that would escape their collection directory.
func safeName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return domain.Errorf(domain.ErrValidation, "Invalid key %q", name)
	}
	return nil
}

// Init creates the base directory
func (s *DiskStore) Init(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.ready {
		return nil
	}
	if s.basePath == "" {
		return fmt.Errorf("local store: empty base path")
	}
	for _, dir := range []string{
		filepath.Join(s.basePath, entriesCollection),
		filepath.Join(s.basePath, nightPainCollection),
	} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}
	s.ready = true
	return nil
}

// Close is a no-op; diskv holds no open handles.
func (s *DiskStore) Close() error {
	return nil
}

func (s *DiskStore) readEntry(key string) (domain.Entry, error) {
	raw, err := s.d.Read(key)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("read %s: %w", key, err)
	}
	var e domain.Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return domain.Entry{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return e, nil
}

// keys drains the keys under prefix. The walk is always stopped before
// returning so diskv's walker goroutine cannot block on an abandoned channel.
func (s *DiskStore) keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cancel := make(chan struct{})
	defer close(cancel)

	var keys []string
	ch := s.d.KeysPrefix(prefix, cancel)
	for {
		select {
		case key, ok := <-ch:
			if !ok {
				return keys, nil
			}
			keys = append(keys, key)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *DiskStore) write(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.d.Write(key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// ListEntries reads every entry file and orders them like the SQL backends
func (s *DiskStore) ListEntries(ctx context.Context, filter EntryFilter) ([]domain.Entry, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}

	keys, err := s.keys(ctx, entriesCollection+"/")
	if err != nil {
		return nil, err
	}

	entries := []domain.Entry{}
	for _, key := range keys {
		e, err := s.readEntry(key)
		if err != nil {
			return nil, err
		}
		if filter.Date != "" && e.Date != filter.Date {
			continue
		}
		entries = append(entries, e)
	}

	// Files come back in directory order; make ties deterministic first.
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	if filter.Date != "" {
		domain.SortByTime(entries)
	} else {
		domain.SortForListing(entries)
	}
	return entries, nil
}

// GetEntry reads one entry file
func (s *DiskStore) GetEntry(ctx context.Context, id string) (domain.Entry, error) {
	if err := s.Init(ctx); err != nil {
		return domain.Entry{}, err
	}
	if err := safeName(id); err != nil {
		return domain.Entry{}, entryNotFound(id)
	}

	key := recordKey(entriesCollection, id)
	if !s.d.Has(key) {
		return domain.Entry{}, entryNotFound(id)
	}
	return s.readEntry(key)
}

// CreateEntry writes a new entry file, refusing ids that already exist
func (s *DiskStore) CreateEntry(ctx context.Context, e domain.Entry) (string, error) {
	e, err := prepareEntry(e)
	if err != nil {
		return "", err
	}
	if err := safeName(e.ID); err != nil {
		return "", err
	}
	if err := s.Init(ctx); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(entriesCollection, e.ID)
	if s.d.Has(key) {
		return "", domain.Errorf(domain.ErrConflict, "Entry %s already exists", e.ID)
	}
	if err := s.write(key, e); err != nil {
		return "", err
	}
	return e.ID, nil
}

// UpdateEntry overwrites an existing entry file
func (s *DiskStore) UpdateEntry(ctx context.Context, id string, e domain.Entry) error {
	e.ID = id
	e, err := prepareEntry(e)
	if err != nil {
		return err
	}
	if err := safeName(e.ID); err != nil {
		return entryNotFound(e.ID)
	}
	if err := s.Init(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(entriesCollection, e.ID)
	if !s.d.Has(key) {
		return entryNotFound(e.ID)
	}
	return s.write(key, e)
}

// DeleteEntry erases an entry file
func (s *DiskStore) DeleteEntry(ctx context.Context, id string) error {
	if err := safeName(id); err != nil {
		return entryNotFound(id)
	}
	if err := s.Init(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(entriesCollection, id)
	if !s.d.Has(key) {
		return entryNotFound(id)
	}
	if err := s.d.Erase(key); err != nil {
		return fmt.Errorf("erase %s: %w", key, err)
	}
	return nil
}

func (s *DiskStore) readNightPain(key string) (domain.NightPain, error) {
	raw, err := s.d.Read(key)
	if err != nil {
		return domain.NightPain{}, fmt.Errorf("read %s: %w", key, err)
	}
	var n domain.NightPain
	if err := json.Unmarshal(raw, &n); err != nil {
		return domain.NightPain{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return n, nil
}

// GetNightPain reads the record for date
func (s *DiskStore) GetNightPain(ctx context.Context, date string) (domain.NightPain, error) {
	if err := s.Init(ctx); err != nil {
		return domain.NightPain{}, err
	}
	if err := safeName(date); err != nil {
		return domain.NightPain{}, nightPainNotFound(date)
	}

	key := recordKey(nightPainCollection, date)
	if !s.d.Has(key) {
		return domain.NightPain{}, nightPainNotFound(date)
	}
	return s.readNightPain(key)
}

// ListNightPainByMonth reads the month's records in date order
func (s *DiskStore) ListNightPainByMonth(ctx context.Context, month string) ([]domain.NightPain, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}

	keys, err := s.keys(ctx, recordKey(nightPainCollection, month+"-"))
	if err != nil {
		return nil, err
	}

	records := []domain.NightPain{}
	for _, key := range keys {
		n, err := s.readNightPain(key)
		if err != nil {
			return nil, err
		}
		records = append(records, n)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Date < records[j].Date })
	return records, nil
}

// UpsertNightPain replaces the file for n.Date
func (s *DiskStore) UpsertNightPain(ctx context.Context, n domain.NightPain) (domain.NightPain, error) {
	n.Date = strings.TrimSpace(n.Date)
	if err := n.Validate(); err != nil {
		return domain.NightPain{}, err
	}
	if err := safeName(n.Date); err != nil {
		return domain.NightPain{}, err
	}
	if err := s.Init(ctx); err != nil {
		return domain.NightPain{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(recordKey(nightPainCollection, n.Date), n); err != nil {
		return domain.NightPain{}, err
	}
	return n, nil
}
