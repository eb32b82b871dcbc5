package storage

import (
	"context"
	"errors"
	"io"
)

// Sentinel errors the upload flow maps to user-facing messages.
var (
	ErrUnauthorized = errors.New("storage: access denied")
	ErrCanceled     = errors.New("storage: upload canceled")
	ErrUnknown      = errors.New("storage: unknown error")
)

// ProgressFunc receives integer percentages in [0,100]. Implementations must
// call it with non-decreasing values.
type ProgressFunc func(pct int)

// ObjectStore is the remote object store behind uploads and thumbnails.
type ObjectStore interface {
	// Upload streams r to objectName, reporting progress as bytes move.
	Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string, progress ProgressFunc) error
	// ResolveURL returns a fetchable URL for a stored object.
	ResolveURL(ctx context.Context, objectName string) (string, error)
	// Bucket names the bucket objects land in.
	Bucket() string
}

// progressReader wraps an upload body and reports percentage milestones.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	lastPct  int
	progress ProgressFunc
}

func newProgressReader(r io.Reader, total int64, progress ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, progress: progress}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 && p.progress != nil {
		p.read += int64(n)
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		if pct > p.lastPct {
			p.lastPct = pct
			p.progress(pct)
		}
	}
	return n, err
}
