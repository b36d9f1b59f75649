// Package archive keeps a history of finished games in Pebble. It is only
// ever appended to and read for listings; sessions are never restored from it.
package archive

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble/v2"

	"github.com/aaronzipp/you-are-officially-mafia/internal/models"
)

var (
	keyPrefix = []byte("game/")
	keyUpper  = []byte("game0") // '0' sorts right after '/'
)

// Store persists game records keyed by a monotonically increasing sequence.
// A nil *Store is valid and discards everything.
type Store struct {
	db   *pebble.DB
	mu   sync.Mutex
	next uint64
}

// Open opens or creates the archive in dir. An empty dir disables archiving.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive dir: %w", err)
	}
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("opening pebble db: %w", err)
	}
	s := &Store{db: db}

	it, err := db.NewIter(s.bounds())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("scanning archive: %w", err)
	}
	defer func() { _ = it.Close() }()
	if it.Last() {
		s.next = sequence(it.Key()) + 1
	}
	return s, nil
}

func (s *Store) bounds() *pebble.IterOptions {
	return &pebble.IterOptions{LowerBound: keyPrefix, UpperBound: keyUpper}
}

func key(seq uint64) []byte {
	k := make([]byte, len(keyPrefix)+8)
	copy(k, keyPrefix)
	binary.BigEndian.PutUint64(k[len(keyPrefix):], seq)
	return k
}

func sequence(k []byte) uint64 {
	if len(k) < len(keyPrefix)+8 {
		return 0
	}
	return binary.BigEndian.Uint64(k[len(keyPrefix):])
}

// Record appends rec to the archive
func (s *Store) Record(rec models.GameRecord) error {
	if s == nil || s.db == nil {
		return nil
	}
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding game record: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Set(key(s.next), val, pebble.Sync); err != nil {
		return fmt.Errorf("writing game record: %w", err)
	}
	s.next++
	return nil
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (s *Store) Recent(limit int) ([]models.GameRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	it, err := s.db.NewIter(s.bounds())
	if err != nil {
		return nil, fmt.Errorf("scanning archive: %w", err)
	}
	defer func() { _ = it.Close() }()

	out := make([]models.GameRecord, 0)
	for it.Last(); it.Valid(); it.Prev() {
		if limit > 0 && len(out) >= limit {
			break
		}
		var rec models.GameRecord
		if err := json.Unmarshal(it.Value(), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
