package core

import (
	"fmt"
	"math"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// FileURLPrefix is the API path under which attachment bytes are served.
const FileURLPrefix = "/api/files/"

// LogicalFileName builds the human-readable name of an attachment:
//
//	{typeName}_{period}_{role}_{title}_{timestamp}{suffix}.{ext}
//
// The timestamp is at second precision with ':' replaced by '-'. Files after
// the first in one upload batch get a "_{index+1}" suffix. Collisions are not
// detected.
func LogicalFileName(typeName, period string, role FileRole, title, originalName string, index int, at time.Time) string {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(at.UTC().Format("2006-01-02T15:04:05"))

	suffix := ""
	if index > 0 {
		suffix = fmt.Sprintf("_%d", index+1)
	}

	return fmt.Sprintf("%s_%s_%s_%s_%s%s.%s", typeName, period, role, title, stamp, suffix, FileExtension(originalName))
}

// FileExtension returns the text after the last dot of name, or "file".
func FileExtension(name string) string {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if ext == "" {
		return "file"
	}
	return ext
}

// NewBillFile creates the immutable metadata record for a freshly attached file.
func NewBillFile(logicalName, originalName string, size int64, mimeType string, role FileRole, at time.Time) BillFile {
	id := uuid.NewString()
	return BillFile{
		ID:           id,
		Name:         logicalName,
		OriginalName: originalName,
		Size:         size,
		Type:         mimeType,
		Role:         role,
		URL:          FileURL(id),
		UploadedAt:   at.UTC(),
	}
}

// FileURL returns the retrieval path for an attachment id.
func FileURL(id string) string {
	return FileURLPrefix + id
}

var byteUnits = []string{"bytes", "KB", "MB", "GB"}

// FormatByteSize renders a byte count with 1024-based units and at most two
// decimals, e.g. 245760 -> "240 KB", 1536 -> "1.5 KB".
func FormatByteSize(n int64) string {
	if n <= 0 {
		return "0 bytes"
	}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100
	return humanize.FtoaWithDigits(v, 2) + " " + byteUnits[i]
}
