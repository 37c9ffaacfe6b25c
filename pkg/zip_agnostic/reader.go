package zip_agnostic

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v3"
	"github.com/valyala/gozstd"
)

// Format is a compression format.
type Format int

const (
	None Format = iota
	Gzip
	Zstd
	LZ4
	Bzip2
)

func (f Format) String() string {
	switch f {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	case Bzip2:
		return "bzip2"
	}
	return "none"
}

var magics = []struct {
	format Format
	hdr    []byte
}{
	{Gzip, []byte("\x1f\x8b")},
	{Zstd, []byte("\x28\xb5\x2f\xfd")},
	{LZ4, []byte("\x04\x22\x4d\x18")},
	{Bzip2, []byte("BZh")},
}

// Detect returns the compression format whose magic number hdr starts with.
func Detect(hdr []byte) Format {
	for _, m := range magics {
		if bytes.HasPrefix(hdr, m.hdr) {
			return m.format
		}
	}
	return None
}

// NewReader returns an io.ReadCloser that reads from r, whether r is a reader
// over compressed data or not. It supports gzip, zstd, lz4 (frame format)
// and bzip2.
//
// Closing the returned reader releases the decompressor, not r.
//
// Note: NewReader is an utility function provided as a best effort, it's still
// possible to trick it into thinking a reader contains compressed data, while
// in fact it's not.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	// Peek blocks until 4 bytes are available, or the stream ends.
	hdr, err := br.Peek(4)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("zip_agnostic: can't read: %v", err)
	}

	switch Detect(hdr) {
	case Gzip:
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zip_agnostic (gzip): can't read: %v", err)
		}
		return gzr, nil
	case Zstd:
		zstdr := gozstd.NewReader(br)
		return makeReadCloser(zstdr, func() error { zstdr.Release(); return nil }), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(br)), nil
	case Bzip2:
		return io.NopCloser(bzip2.NewReader(br)), nil
	}

	return io.NopCloser(br), nil
}

// makeReadCloser converts an io.Reader and a close function into a ReadCloser.
func makeReadCloser(r io.Reader, close func() error) io.ReadCloser {
	return &readCloser{Reader: r, close: close}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (rc *readCloser) Close() error {
	err := rc.close()
	if err != nil {
		return fmt.Errorf("zip_agnostic: close: %v", err)
	}
	return nil
}
