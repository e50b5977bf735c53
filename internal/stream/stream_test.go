package stream

import (
	"bytes"
	"crypto/sha256"
	"io"
	"testing"
)

// patternReader produces deterministic bytes without end, for bounded-memory
// checks against a source that could never be buffered whole.
type patternReader struct {
	pattern [32]byte
	offset  int64
}

func newPatternReader(seed string) *patternReader {
	return &patternReader{pattern: sha256.Sum256([]byte(seed))}
}

func (r *patternReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.pattern[(r.offset+int64(i))%int64(len(r.pattern))]
	}
	r.offset += int64(len(p))
	return len(p), nil
}

// boundedSink fails the test if any single write exceeds the chunk size.
type boundedSink struct {
	t        *testing.T
	max      int
	written  int64
	capAfter int64
}

func (s *boundedSink) Write(p []byte) (int, error) {
	if len(p) > s.max {
		s.t.Fatalf("write of %d bytes exceeds chunk size %d", len(p), s.max)
	}
	s.written += int64(len(p))
	if s.written >= s.capAfter {
		return len(p), io.ErrClosedPipe
	}
	return len(p), nil
}

func TestCopyBoundedMemory(t *testing.T) {
	const chunk = 1024
	const chunks = 8
	sink := &boundedSink{t: t, max: chunk, capAfter: chunk * chunks}
	_, err := Copy(sink, newPatternReader("unbounded"), chunk)
	if err != io.ErrClosedPipe {
		t.Fatalf("expected sink cap error, got %v", err)
	}
	if sink.written < chunk*chunks {
		t.Fatalf("expected at least %d bytes before cap, wrote %d", chunk*chunks, sink.written)
	}
}

func TestCopyDelivers(t *testing.T) {
	src := []byte("the quick brown fox jumps over the lazy dog")
	var dst bytes.Buffer
	n, err := Copy(&dst, bytes.NewReader(src), 8)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if n != int64(len(src)) || !bytes.Equal(dst.Bytes(), src) {
		t.Fatalf("copy wrote %d bytes %q", n, dst.Bytes())
	}
}

func TestChunkedCapsReads(t *testing.T) {
	r := Chunked(newPatternReader("cap"), 16)
	buf := make([]byte, 1024)
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 16 {
		t.Fatalf("read returned %d bytes, want 16", n)
	}
}

func TestBytesSource(t *testing.T) {
	s := Bytes([]byte("hello"))
	if !s.Replayable() || s.Len() != 5 {
		t.Fatalf("bytes source: replayable=%v len=%d", s.Replayable(), s.Len())
	}
	first, _ := io.ReadAll(s)
	if err := s.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	second, _ := io.ReadAll(s)
	if !bytes.Equal(first, second) {
		t.Fatalf("replay mismatch: %q vs %q", first, second)
	}
	if data, ok := InMemory(s); !ok || string(data) != "hello" {
		t.Fatalf("InMemory = %q, %v", data, ok)
	}
}

func TestReaderSourceOneShot(t *testing.T) {
	s := Reader(bytes.NewReader([]byte("once")), -1)
	if s.Replayable() {
		t.Fatalf("one-shot reader must not be replayable")
	}
	if s.Len() != -1 {
		t.Fatalf("unknown length should report -1, got %d", s.Len())
	}
	if err := s.Reset(); err != ErrNotReplayable {
		t.Fatalf("expected ErrNotReplayable, got %v", err)
	}
}
