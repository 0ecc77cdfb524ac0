// Package spool provides a write-then-read temporary buffer that
// lives in memory up to a threshold and spills to a temp file beyond
// it. It is used to hold FITS data units that are copied through
// unmodified during header write-back, which can be far larger than
// what should be buffered in memory.
package spool

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
)

// DefaultThreshold is the max number of bytes (currently 4MB) to hold
// in memory before starting to write to disk.
const DefaultThreshold = 4 * 1024 * 1024

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(nil)
	},
}

// File is the read side of a spooled buffer: a reader plus Len and
// Close. Close releases the memory buffer or deletes the temp file.
type File interface {
	io.Reader
	io.ReaderAt
	io.Seeker
	io.Closer
	Len() int64
}

// Buffer is a spooled temporary buffer with two phases: first Write,
// then Read/Seek. The first Read or Seek ends the write phase;
// writing after that panics.
type Buffer struct {
	buf       *bytes.Buffer
	mem       *bytes.Reader
	file      *os.File
	prefix    string
	dir       string
	threshold int
	reading   bool
	closed    bool
	size      int64
}

// New creates a spooled buffer. Writes stay in memory until threshold
// bytes, then everything moves to a temp file in dir (or the system
// temp directory when dir is empty). A threshold < 0 selects
// DefaultThreshold.
func New(prefix, dir string, threshold int) *Buffer {
	if threshold < 0 {
		threshold = DefaultThreshold
	}
	return &Buffer{
		buf:       bufferPool.Get().(*bytes.Buffer),
		prefix:    prefix,
		dir:       dir,
		threshold: threshold,
	}
}

func (b *Buffer) Len() int64 {
	return b.size
}

func (b *Buffer) Write(p []byte) (int, error) {
	if b.closed {
		return 0, io.EOF
	}
	if b.reading {
		panic("spool: write after read")
	}

	if b.file != nil {
		n, err := b.file.Write(p)
		b.size += int64(n)
		return n, err
	}

	if b.buf.Len()+len(p) > b.threshold {
		if err := b.spill(); err != nil {
			return 0, err
		}
		n, err := b.file.Write(p)
		b.size += int64(n)
		return n, err
	}

	n, err := b.buf.Write(p)
	b.size += int64(n)
	return n, err
}

// spill moves the in-memory content to a fresh temp file and releases
// the memory buffer back to the pool.
func (b *Buffer) spill() error {
	file, err := os.CreateTemp(b.dir, b.prefix+"-")
	if err != nil {
		return err
	}
	if _, err := file.Write(b.buf.Bytes()); err != nil {
		file.Close()
		os.Remove(file.Name())
		return err
	}
	b.releaseBuf()
	b.file = file
	return nil
}

func (b *Buffer) releaseBuf() {
	if b.buf == nil {
		return
	}
	b.buf.Reset()
	bufferPool.Put(b.buf)
	b.buf = nil
}

// prepareRead transitions the buffer from the write phase to the read
// phase, at most once.
func (b *Buffer) prepareRead() error {
	if b.closed {
		return io.EOF
	}
	if b.reading {
		return nil
	}
	b.reading = true
	if b.file != nil {
		if _, err := b.file.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("spool: rewind %s: %w", b.file.Name(), err)
		}
		return nil
	}
	b.mem = bytes.NewReader(b.buf.Bytes())
	return nil
}

func (b *Buffer) Read(p []byte) (int, error) {
	if err := b.prepareRead(); err != nil {
		return 0, err
	}
	if b.file != nil {
		return b.file.Read(p)
	}
	return b.mem.Read(p)
}

func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if err := b.prepareRead(); err != nil {
		return 0, err
	}
	if b.file != nil {
		return b.file.ReadAt(p, off)
	}
	return b.mem.ReadAt(p, off)
}

func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	if err := b.prepareRead(); err != nil {
		return 0, err
	}
	if b.file != nil {
		return b.file.Seek(offset, whence)
	}
	return b.mem.Seek(offset, whence)
}

// Close releases the buffer: the memory goes back to the pool, the
// temp file (if any) is closed and deleted. Close is idempotent.
func (b *Buffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.mem = nil
	b.releaseBuf()
	if b.file != nil {
		name := b.file.Name()
		if err := b.file.Close(); err != nil {
			os.Remove(name)
			return err
		}
		return os.Remove(name)
	}
	return nil
}
