package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// JournalEntry is one committed operation.
type JournalEntry struct {
	Seq  uint64          `json:"seq"`
	Kind string          `json:"kind"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data"`
}

// Journal is an append-only log of committed operations persisted to
// Pebble. Keys are "j:" followed by the big-endian sequence number so
// iteration order is append order.
type Journal struct {
	db *pebble.DB

	mu   sync.Mutex
	next uint64
	now  func() time.Time
}

var journalPrefix = []byte("j:")

func journalKey(seq uint64) []byte {
	k := make([]byte, len(journalPrefix)+8)
	copy(k, journalPrefix)
	binary.BigEndian.PutUint64(k[len(journalPrefix):], seq)
	return k
}

func journalUpperBound() []byte {
	return []byte("j;")
}

// OpenJournal opens (or creates) a journal in dir. A nil fs uses the
// operating system's file system.
func OpenJournal(dir string, fs vfs.FS) (*Journal, error) {
	opts := &pebble.Options{}
	if fs != nil {
		opts.FS = fs
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open journal at %s: %w", dir, err)
	}

	j := &Journal{db: db, next: 1, now: time.Now}

	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: journalPrefix,
		UpperBound: journalUpperBound(),
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	if iter.Last() {
		j.next = binary.BigEndian.Uint64(iter.Key()[len(journalPrefix):]) + 1
	}
	if err := iter.Close(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	return j, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append encodes data as JSON and stores it under the next sequence
// number with a synced write.
func (j *Journal) Append(kind string, data any) (uint64, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return 0, fmt.Errorf("marshal %s entry: %w", kind, err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	entry := JournalEntry{Seq: j.next, Kind: kind, At: j.now().UTC(), Data: raw}
	val, err := json.Marshal(entry)
	if err != nil {
		return 0, fmt.Errorf("marshal %s entry: %w", kind, err)
	}
	if err := j.db.Set(journalKey(entry.Seq), val, pebble.Sync); err != nil {
		return 0, fmt.Errorf("append %s entry: %w", kind, err)
	}
	j.next++
	return entry.Seq, nil
}

// Entries returns up to limit entries with Seq ≥ from, oldest first.
func (j *Journal) Entries(from uint64, limit int) ([]JournalEntry, error) {
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: journalKey(from),
		UpperBound: journalUpperBound(),
	})
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	defer iter.Close()

	entries := make([]JournalEntry, 0)
	for iter.First(); iter.Valid() && len(entries) < limit; iter.Next() {
		var e JournalEntry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			return nil, fmt.Errorf("decode journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return entries, nil
}
