package cache

import (
	"context"
	"time"

	"bills/internal/blob"
)

// BlobStore is a read-through cache in front of a blob.Store. Writes and
// deletes go to the underlying store first and then invalidate the entry, so
// the cache never holds bytes the store does not.
type BlobStore struct {
	next  blob.Store
	cache *LRUCache[blob.Object]
}

func NewBlobStore(next blob.Store, maxEntries int, ttl time.Duration) *BlobStore {
	return &BlobStore{
		next:  next,
		cache: NewLRUCache[blob.Object](maxEntries, ttl),
	}
}

func (s *BlobStore) Put(ctx context.Context, id string, content []byte, contentType string) (blob.Object, error) {
	obj, err := s.next.Put(ctx, id, content, contentType)
	s.cache.Delete(id)
	return obj, err
}

func (s *BlobStore) Get(ctx context.Context, id string) (blob.Object, error) {
	if obj, ok := s.cache.Get(id); ok {
		return obj, nil
	}
	obj, err := s.next.Get(ctx, id)
	if err != nil {
		return blob.Object{}, err
	}
	s.cache.Set(id, obj)
	return obj, nil
}

func (s *BlobStore) Delete(ctx context.Context, id string) error {
	err := s.next.Delete(ctx, id)
	s.cache.Delete(id)
	return err
}

// Cache exposes the underlying LRU for registration with a Manager and for stats.
func (s *BlobStore) Cache() *LRUCache[blob.Object] {
	return s.cache
}
