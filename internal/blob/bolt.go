package blob

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

var bucketBlobs = []byte("blobs")

// Bolt stores objects in the "blobs" bucket of an open bbolt database, usually
// the same file the key-value backend uses.
type Bolt struct {
	db *bbolt.DB
}

type boltRecord struct {
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

func NewBolt(db *bbolt.DB) (*Bolt, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketBlobs); err != nil {
			return fmt.Errorf("failed to create blobs bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Bolt{db: db}, nil
}

func (s *Bolt) Put(ctx context.Context, id string, content []byte, contentType string) (Object, error) {
	if err := validateID(id); err != nil {
		return Object{}, err
	}
	obj := Object{ID: id, ContentType: DetectContentType(content, contentType), Data: content}
	raw, err := json.Marshal(boltRecord{ContentType: obj.ContentType, Data: content})
	if err != nil {
		return Object{}, fmt.Errorf("encode blob %s: %w", id, err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBlobs).Put([]byte(id), raw)
	})
	if err != nil {
		return Object{}, fmt.Errorf("write blob %s: %w", id, err)
	}
	return obj, nil
}

func (s *Bolt) Get(ctx context.Context, id string) (Object, error) {
	var rec boltRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketBlobs).Get([]byte(id))
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, &rec)
	})
	if err != nil {
		return Object{}, err
	}
	return Object{ID: id, ContentType: rec.ContentType, Data: rec.Data}, nil
}

func (s *Bolt) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBlobs).Delete([]byte(id))
	})
}
