// Package history keeps the reports of finished batch runs in a Pebble
// store so past runs can be listed by the CLI and the HTTP server.
//
// Key layout:
//
//	run/<started unix nanos, 20 digits>/<id>  → Record JSON (chronological)
//	id/<id>                                   → run/... key
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pebble "github.com/cockroachdb/pebble"

	"github.com/backmassage/magickbatch/internal/pipeline"
)

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

const (
	runPrefix = "run/"
	idPrefix  = "id/"
)

// Record is one stored run.
type Record struct {
	pipeline.Report
	Completed bool `json:"completed"`
	Errors    int  `json:"errors"`
}

// FromLog snapshots a run log into a Record.
func FromLog(log *pipeline.RunLog) Record {
	return Record{
		Report:    log.Report(),
		Completed: log.Completed(),
		Errors:    len(log.Errors()),
	}
}

// Store is a Pebble-backed run history. Safe for concurrent use.
type Store struct {
	db  *pebble.DB
	now func() time.Time
}

// Open opens (or creates) the history store in dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save writes r and its ID index in one synced batch. Saving the same run
// twice replaces the earlier record.
func (s *Store) Save(r Record) error {
	if r.ID == "" {
		return errors.New("history: record has no ID")
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = s.now()
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	b := s.db.NewBatch()
	defer b.Close()
	if old, err := s.lookup(r.ID); err == nil {
		if err := b.Delete(old, nil); err != nil {
			return err
		}
	}
	key := runKey(r.StartedAt, r.ID)
	if err := b.Set(key, data, nil); err != nil {
		return err
	}
	if err := b.Set(idKey(r.ID), key, nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

// Get returns the record for id, or ErrNotFound.
func (s *Store) Get(id string) (Record, error) {
	key, err := s.lookup(id)
	if err != nil {
		return Record{}, err
	}
	data, closer, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	defer closer.Close()

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("failed to unmarshal run record: %w", err)
	}
	return r, nil
}

// List returns up to limit records, newest first. limit <= 0 means all.
// Undecodable records are skipped.
func (s *Store) List(limit int) ([]Record, error) {
	iter, err := s.db.NewIter(runBounds())
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []Record
	for iter.Last(); iter.Valid(); iter.Prev() {
		var r Record
		if err := json.Unmarshal(iter.Value(), &r); err != nil {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, iter.Error()
}

// Prune deletes runs that started more than maxAge ago and returns how many
// were removed. maxAge <= 0 keeps everything.
func (s *Store) Prune(maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	cutoff := runKey(s.now().Add(-maxAge), "")

	iter, err := s.db.NewIter(runBounds())
	if err != nil {
		return 0, err
	}
	b := s.db.NewBatch()
	defer b.Close()

	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		if string(iter.Key()) >= string(cutoff) {
			break
		}
		var r Record
		if err := json.Unmarshal(iter.Value(), &r); err == nil && r.ID != "" {
			if err := b.Delete(idKey(r.ID), nil); err != nil {
				iter.Close()
				return 0, err
			}
		}
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		if err := b.Delete(key, nil); err != nil {
			iter.Close()
			return 0, err
		}
		n++
	}
	if err := iter.Close(); err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return 0, fmt.Errorf("failed to prune run history: %w", err)
	}
	return n, nil
}

// lookup resolves an ID to its run key.
func (s *Store) lookup(id string) ([]byte, error) {
	data, closer, err := s.db.Get(idKey(id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()
	key := make([]byte, len(data))
	copy(key, data)
	return key, nil
}

func runKey(t time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d/%s", runPrefix, t.UnixNano(), id))
}

func idKey(id string) []byte { return []byte(idPrefix + id) }

func runBounds() *pebble.IterOptions {
	// '0' sorts directly after '/'.
	return &pebble.IterOptions{LowerBound: []byte(runPrefix), UpperBound: []byte("run0")}
}
