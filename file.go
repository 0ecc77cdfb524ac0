package fits

import (
	"io"
	"os"

	"github.com/google/uuid"
)

// tempFileName returns a sibling temp name for an in-progress
// write-back. The ".open" suffix marks files not yet fully written;
// they are renamed into place once complete.
func tempFileName(path string) string {
	return path + "." + uuid.NewString() + ".open"
}

// WriteBack atomically replaces the file at path with the given
// header followed by data (which may be nil). The new content is
// written to a temp file next to path and renamed over it, so a
// failure mid-write leaves the original file untouched.
func WriteBack(path string, h *Header, data io.Reader, compression string) error {
	tmp := tempFileName(path)

	file, err := os.Create(tmp)
	if err != nil {
		return &IOError{Op: "create", Path: tmp, Err: err}
	}

	fail := func(err error) error {
		file.Close()
		os.Remove(tmp)
		return err
	}

	writer, err := NewWriter(file, path, compression)
	if err != nil {
		return fail(err)
	}
	if err := writer.WriteHeader(h); err != nil {
		return fail(err)
	}
	if data != nil {
		if err := writer.CopyData(data); err != nil {
			return fail(err)
		}
	}
	if err := writer.Close(); err != nil {
		return fail(err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return &IOError{Op: "close", Path: tmp, Err: err}
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &IOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// OpenFile opens a FITS file for reading. The caller must close the
// returned Reader and file.
func OpenFile(path string) (*Reader, *os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, &IOError{Op: "open", Path: path, Err: err}
	}
	reader, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	return reader, file, nil
}
