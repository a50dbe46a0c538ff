package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketKV = []byte("kv")
	// bucketTombs holds the last revision of each deleted key.
	bucketTombs = []byte("kv_tombstones")
)

// revisionSize is the length of the big-endian revision prefix stored in front of each value.
const revisionSize = 8

// Bolt is a Backend persisted in a single bbolt file.
type Bolt struct {
	db *bbolt.DB
}

// NewBolt opens (or creates) the bbolt database at path.
func NewBolt(ctx context.Context, path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	b := &Bolt{db: db}
	if err := b.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}
	return b, nil
}

func (b *Bolt) initBuckets() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketKV, bucketTombs} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// DB exposes the underlying handle so other stores can share the file.
func (b *Bolt) DB() *bbolt.DB {
	return b.db
}

func (b *Bolt) Get(ctx context.Context, key string) (Entry, error) {
	if b.db == nil {
		return Entry{}, ErrClosed
	}
	var entry Entry
	err := b.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketKV).Get([]byte(key))
		if raw == nil {
			return ErrNotFound
		}
		e, err := decodeEntry(raw)
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		entry = e
		return nil
	})
	return entry, err
}

func (b *Bolt) Put(ctx context.Context, key string, value []byte, expected uint64) (uint64, error) {
	if b.db == nil {
		return 0, ErrClosed
	}
	var next uint64
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketKV)

		var current uint64
		if raw := bucket.Get([]byte(key)); raw != nil {
			e, err := decodeEntry(raw)
			if err != nil {
				return fmt.Errorf("key %q: %w", key, err)
			}
			current = e.Revision
		}
		if current != expected {
			next = current
			return ErrConflict
		}

		tombs := tx.Bucket(bucketTombs)
		floor := current
		if raw := tombs.Get([]byte(key)); len(raw) == revisionSize {
			floor = max(floor, binary.BigEndian.Uint64(raw))
		}
		next = floor + 1
		if err := bucket.Put([]byte(key), encodeEntry(value, next)); err != nil {
			return err
		}
		return tombs.Delete([]byte(key))
	})
	return next, err
}

func (b *Bolt) Delete(ctx context.Context, key string) error {
	if b.db == nil {
		return ErrClosed
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketKV)
		raw := bucket.Get([]byte(key))
		if raw == nil {
			return nil
		}
		e, err := decodeEntry(raw)
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		var rev [revisionSize]byte
		binary.BigEndian.PutUint64(rev[:], e.Revision)
		if err := tx.Bucket(bucketTombs).Put([]byte(key), rev[:]); err != nil {
			return err
		}
		return bucket.Delete([]byte(key))
	})
}

func (b *Bolt) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

func encodeEntry(value []byte, revision uint64) []byte {
	buf := make([]byte, revisionSize+len(value))
	binary.BigEndian.PutUint64(buf, revision)
	copy(buf[revisionSize:], value)
	return buf
}

// decodeEntry copies out of raw, which bbolt only keeps valid for the transaction.
func decodeEntry(raw []byte) (Entry, error) {
	if len(raw) < revisionSize {
		return Entry{}, fmt.Errorf("truncated entry (%d bytes)", len(raw))
	}
	return Entry{
		Revision: binary.BigEndian.Uint64(raw[:revisionSize]),
		Value:    append([]byte(nil), raw[revisionSize:]...),
	}, nil
}
