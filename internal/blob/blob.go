// Package blob stores attachment bytes keyed by BillFile id.
//
// Bills only keep metadata and a regenerable URL; the content itself lives in
// one of the Store implementations here.
package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("blob not found")

// Object is a stored attachment.
type Object struct {
	ID          string
	ContentType string
	Data        []byte
}

func (o Object) Size() int64 { return int64(len(o.Data)) }

// Store persists attachment bytes.
type Store interface {
	// Put stores content under id, replacing any previous object. An empty
	// contentType is sniffed from the content.
	Put(ctx context.Context, id string, content []byte, contentType string) (Object, error)
	Get(ctx context.Context, id string) (Object, error)
	// Delete removes id. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

// DetectContentType returns declared when it is set and otherwise sniffs content.
func DetectContentType(content []byte, declared string) string {
	if declared = strings.TrimSpace(declared); declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(content).String()
}

func validateID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("invalid blob id %q", id)
	}
	return nil
}
