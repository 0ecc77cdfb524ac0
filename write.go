package fits

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	gzip "github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Writer writes FITS headers and data units to a stream, optionally
// through a gzip or zstd compressor.
type Writer struct {
	FileName    string
	Compression string
	GZIPWriter  *gzip.Writer
	ZSTDWriter  *zstd.Encoder
	FileWriter  *bufio.Writer
}

// NewWriter creates a new FITS writer. Compression is "", "GZIP" or
// "ZSTD".
func NewWriter(writer io.Writer, fileName string, compression string) (*Writer, error) {
	w := &Writer{
		FileName:    fileName,
		Compression: compression,
	}

	switch compression {
	case "GZIP":
		w.GZIPWriter = gzip.NewWriter(writer)
		w.FileWriter = bufio.NewWriter(w.GZIPWriter)
	case "ZSTD":
		encoder, err := zstd.NewWriter(writer)
		if err != nil {
			return nil, &IOError{Op: "create zstd encoder", Path: fileName, Err: err}
		}
		w.ZSTDWriter = encoder
		w.FileWriter = bufio.NewWriter(encoder)
	case "":
		w.FileWriter = bufio.NewWriter(writer)
	default:
		return nil, &IOError{Op: "create writer", Path: fileName, Err: fmt.Errorf("unknown compression %q", compression)}
	}

	return w, nil
}

// WriteHeader writes the header's card images followed by the END
// sentinel, padded with blank cards to a 2880-byte block boundary.
func (w *Writer) WriteHeader(h *Header) error {
	var b strings.Builder
	for _, image := range h.CardImages() {
		b.WriteString(image)
	}
	b.WriteString(padImage("END"))
	for b.Len()%BlockSize != 0 {
		b.WriteString(padImage(""))
	}

	if _, err := io.WriteString(w.FileWriter, b.String()); err != nil {
		return &IOError{Op: "write header", Path: w.FileName, Err: err}
	}
	return nil
}

// CopyData streams a data unit back out unchanged. The data is
// expected to already be padded to a block boundary, as produced by
// Reader.SpoolData.
func (w *Writer) CopyData(data io.Reader) error {
	if _, err := io.Copy(w.FileWriter, data); err != nil {
		return &IOError{Op: "write data unit", Path: w.FileName, Err: err}
	}
	return nil
}

// Close flushes the buffered writer and closes the compressors. It
// does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.FileWriter.Flush(); err != nil {
		return &IOError{Op: "flush", Path: w.FileName, Err: err}
	}
	if w.GZIPWriter != nil {
		if err := w.GZIPWriter.Close(); err != nil {
			return &IOError{Op: "close gzip writer", Path: w.FileName, Err: err}
		}
	}
	if w.ZSTDWriter != nil {
		if err := w.ZSTDWriter.Close(); err != nil {
			return &IOError{Op: "close zstd writer", Path: w.FileName, Err: err}
		}
	}
	return nil
}
