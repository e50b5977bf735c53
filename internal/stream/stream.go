// Package stream provides request body sources with replay metadata and the
// bounded-memory chunk copier used for response bodies.
package stream

import (
	"bytes"
	"errors"
	"io"
	"os"
)

// DefaultChunkSize bounds per-chunk memory during transfers.
const DefaultChunkSize = 64 * 1024

// ErrNotReplayable reports an attempt to rewind a one-shot body.
var ErrNotReplayable = errors.New("stream: body source cannot be replayed")

// Source describes a request body. Len returns the byte count, or -1 when the
// length is unknown. Replayable sources can be Reset to the beginning, which
// makes the request safe to retry.
type Source interface {
	io.Reader
	Len() int64
	Replayable() bool
	Reset() error
}

// Bytes wraps an in-memory body. Replayable.
func Bytes(b []byte) Source {
	return &bytesSource{data: b, r: bytes.NewReader(b)}
}

type bytesSource struct {
	data []byte
	r    *bytes.Reader
}

func (s *bytesSource) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *bytesSource) Len() int64                 { return int64(len(s.data)) }
func (s *bytesSource) Replayable() bool           { return true }

func (s *bytesSource) Reset() error {
	_, err := s.r.Seek(0, io.SeekStart)
	return err
}

// Data exposes the underlying bytes for payload hashing.
func (s *bytesSource) Data() []byte { return s.data }

// File wraps an open file. Replayable via seek; the size is taken once at
// construction.
func File(f *os.File) (Source, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return &fileSource{f: f, size: info.Size()}, nil
}

type fileSource struct {
	f    *os.File
	size int64
}

func (s *fileSource) Read(p []byte) (int, error) { return s.f.Read(p) }
func (s *fileSource) Len() int64                 { return s.size }
func (s *fileSource) Replayable() bool           { return true }

func (s *fileSource) Reset() error {
	_, err := s.f.Seek(0, io.SeekStart)
	return err
}

// Reader wraps a caller-supplied reader. Pass length -1 when unknown; the
// transfer then uses chunked encoding. One-shot: never retried.
func Reader(r io.Reader, length int64) Source {
	return &readerSource{r: r, length: length}
}

type readerSource struct {
	r      io.Reader
	length int64
}

func (s *readerSource) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *readerSource) Len() int64                 { return s.length }
func (s *readerSource) Replayable() bool           { return false }
func (s *readerSource) Reset() error               { return ErrNotReplayable }

// InMemory returns the body bytes when the source is backed by memory, for
// payload hashing without a second pass.
func InMemory(s Source) ([]byte, bool) {
	if b, ok := s.(*bytesSource); ok {
		return b.Data(), true
	}
	return nil, false
}

// Chunked caps each Read at chunkSize so the transport never pulls more than
// one chunk into memory at a time.
func Chunked(r io.Reader, chunkSize int) io.Reader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &chunkedReader{r: r, chunk: chunkSize}
}

type chunkedReader struct {
	r     io.Reader
	chunk int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(p) > c.chunk {
		p = p[:c.chunk]
	}
	return c.r.Read(p)
}

// Copy moves src to dst one chunk at a time with a single reused buffer. Each
// chunk is fully handed to dst before the next is requested.
func Copy(dst io.Writer, src io.Reader, chunkSize int) (int64, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, werr
			}
			if wn < n {
				return written, io.ErrShortWrite
			}
		}
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}
