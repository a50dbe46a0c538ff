package blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"bills/internal/storage"
)

var pdfHeader = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fsStore, err := NewFS(filepath.Join(dir, "files"))
	require.NoError(t, err)

	db, err := bbolt.Open(filepath.Join(dir, "blobs.db"), 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	boltStore, err := NewBolt(db)
	require.NoError(t, err)

	kv, err := storage.NewSQLite(filepath.Join(dir, "bills.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	srv := newFakeS3()
	t.Cleanup(srv.Close)
	s3Store, err := NewS3(S3Config{
		Endpoint:        srv.URL,
		Region:          "us-east-1",
		Bucket:          "attachments",
		Prefix:          "bills",
		AccessKeyID:     "test",
		AccessKeySecret: "secret",
	})
	require.NoError(t, err)

	return map[string]Store{
		"fs":     fsStore,
		"bolt":   boltStore,
		"sqlite": NewSQLite(kv.DB()),
		"s3":     s3Store,
	}
}

func TestStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			obj, err := s.Put(ctx, "f1", pdfHeader, "")
			require.NoError(t, err)
			assert.Equal(t, "application/pdf", obj.ContentType, "content type is sniffed when missing")
			assert.Equal(t, int64(len(pdfHeader)), obj.Size())

			got, err := s.Get(ctx, "f1")
			require.NoError(t, err)
			assert.Equal(t, pdfHeader, got.Data)
			assert.Equal(t, "application/pdf", got.ContentType)

			require.NoError(t, s.Delete(ctx, "f1"))
			_, err = s.Get(ctx, "f1")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Delete(ctx, "f1"), "deleting twice is a no-op")
		})
	}
}

func TestStore_DeclaredTypeWins(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Put(ctx, "f2", []byte("plain words"), "text/csv")
			require.NoError(t, err)

			got, err := s.Get(ctx, "f2")
			require.NoError(t, err)
			assert.Equal(t, "text/csv", got.ContentType)
		})
	}
}

func TestStore_PutReplaces(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Put(ctx, "f3", []byte("one"), "text/plain")
			require.NoError(t, err)
			_, err = s.Put(ctx, "f3", []byte("two"), "text/plain")
			require.NoError(t, err)

			got, err := s.Get(ctx, "f3")
			require.NoError(t, err)
			assert.Equal(t, "two", string(got.Data))
		})
	}
}

func TestFS_RejectsPathIDs(t *testing.T) {
	s, err := NewFS(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", "..", "../escape", `a\b`} {
		_, err := s.Put(context.Background(), id, []byte("x"), "")
		assert.Error(t, err, id)
	}
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", DetectContentType(pdfHeader, ""))
	assert.Equal(t, "application/pdf", DetectContentType(pdfHeader, "application/octet-stream"))
	assert.Equal(t, "image/png", DetectContentType(pdfHeader, "image/png"))
	assert.True(t, strings.HasPrefix(DetectContentType([]byte("hello"), ""), "text/plain"))
}

func TestNewS3_RequiresConfig(t *testing.T) {
	_, err := NewS3(S3Config{AccessKeyID: "a", AccessKeySecret: "b"})
	assert.Error(t, err)

	_, err = NewS3(S3Config{Bucket: "x"})
	assert.Error(t, err)
}

type fakeObject struct {
	contentType string
	data        []byte
}

// newFakeS3 serves the subset of the S3 REST API the store uses, with
// path-style addressing: /{bucket}/{key}.
func newFakeS3() *httptest.Server {
	var mu sync.Mutex
	objects := map[string]fakeObject{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		key := r.URL.Path
		switch r.Method {
		case http.MethodPut:
			data, _ := io.ReadAll(r.Body)
			objects[key] = fakeObject{contentType: r.Header.Get("Content-Type"), data: data}
			w.Header().Set("ETag", `"etag"`)
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			obj, ok := objects[key]
			if !ok {
				w.Header().Set("Content-Type", "application/xml")
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
				return
			}
			w.Header().Set("Content-Type", obj.contentType)
			_, _ = w.Write(obj.data)
		case http.MethodDelete:
			delete(objects, key)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

func TestS3_UsesPathStyleKeys(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewS3(S3Config{Endpoint: srv.URL, Bucket: "attachments", Prefix: "/bills/", AccessKeyID: "a", AccessKeySecret: "b"})
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "f1", []byte("x"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, []string{"PUT /attachments/bills/f1"}, seen)
}
