package spool

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

func TestInMemory(t *testing.T) {
	buf := New("spool-test", t.TempDir(), 64)
	defer buf.Close()

	payload := []byte("hello spool")
	if _, err := buf.Write(payload); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if buf.Len() != int64(len(payload)) {
		t.Errorf("expected Len %d, got %d", len(payload), buf.Len())
	}
	if buf.file != nil {
		t.Fatal("small payload must stay in memory")
	}

	content, err := io.ReadAll(buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(content, payload) {
		t.Errorf("expected %q, got %q", payload, content)
	}
}

func TestSpillToDisk(t *testing.T) {
	dir := t.TempDir()
	buf := New("spool-test", dir, 16)

	payload := []byte(strings.Repeat("x", 64))
	if _, err := buf.Write(payload); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if buf.file == nil {
		t.Fatal("payload over the threshold must spill to disk")
	}

	content, err := io.ReadAll(buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(content, payload) {
		t.Error("spilled content does not match what was written")
	}

	name := buf.file.Name()
	if err := buf.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := os.Stat(name); !os.IsNotExist(err) {
		t.Errorf("temp file %s was not deleted on close", name)
	}
}

func TestSeekAndReadAt(t *testing.T) {
	buf := New("spool-test", t.TempDir(), -1)
	defer buf.Close()

	if _, err := buf.Write([]byte("0123456789")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := buf.Seek(4, io.SeekStart); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	rest, err := io.ReadAll(buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(rest) != "456789" {
		t.Errorf("expected %q, got %q", "456789", rest)
	}

	chunk := make([]byte, 3)
	if _, err := buf.ReadAt(chunk, 2); err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	if string(chunk) != "234" {
		t.Errorf("expected %q, got %q", "234", chunk)
	}
}

func TestWriteAfterReadPanics(t *testing.T) {
	buf := New("spool-test", t.TempDir(), -1)
	defer buf.Close()

	buf.Write([]byte("abc"))
	io.ReadAll(buf)

	defer func() {
		if recover() == nil {
			t.Error("write after read must panic")
		}
	}()
	buf.Write([]byte("def"))
}

func TestCloseIdempotent(t *testing.T) {
	buf := New("spool-test", t.TempDir(), -1)
	buf.Write([]byte("abc"))

	if err := buf.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := buf.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}

	if _, err := buf.Read(make([]byte, 1)); err != io.EOF {
		t.Errorf("expected io.EOF after close, got %v", err)
	}
}
