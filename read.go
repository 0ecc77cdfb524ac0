package fits

import (
	"fmt"
	"io"

	"github.com/astrokit/fits/pkg/spool"
)

// Reader reads FITS headers from a stream, transparently
// decompressing gzip, bzip2, xz and zstd input. Headers are consumed
// HDU by HDU: ReadHeader, then SkipData or SpoolData to advance past
// the data unit that follows.
type Reader struct {
	source      io.ReadCloser
	compression CompressionType
}

// NewReader returns a new FITS reader over r.
func NewReader(r io.Reader) (*Reader, error) {
	compression, source, err := decompress(r)
	if err != nil {
		return nil, &IOError{Op: "open", Err: err}
	}
	return &Reader{source: source, compression: compression}, nil
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.source.Close()
}

// ReadHeader reads 2880-byte blocks of card images up to and
// including the END sentinel and returns the decoded header. The END
// card and the blank padding after it are consumed but not part of
// the returned header. At the end of the stream ReadHeader returns
// io.EOF; on any failure no partial header is returned.
func (r *Reader) ReadHeader() (*Header, error) {
	var images []string
	block := make([]byte, BlockSize)

	for {
		if _, err := io.ReadFull(r.source, block); err != nil {
			if (err == io.EOF || err == io.ErrUnexpectedEOF) && len(images) == 0 {
				return nil, io.EOF
			}
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, ErrMissingEnd
			}
			return nil, &IOError{Op: "read header block", Err: err}
		}

		for i := 0; i < CardsPerBlock; i++ {
			image := string(block[i*CardLength : (i+1)*CardLength])
			if CanonicalKeyword(image[:KeywordLength]) == "END" {
				return NewHeaderFromImages(images)
			}
			images = append(images, image)
		}
	}
}

// DataSize returns the size in bytes of the data unit described by a
// header, before padding: |BITPIX|/8 * GCOUNT * (PCOUNT + product of
// the NAXISn lengths). A header with NAXIS = 0 has no data unit.
func DataSize(h *Header) int64 {
	naxis := headerInt(h, "NAXIS", 0)
	if naxis <= 0 {
		return 0
	}

	elements := int64(1)
	for i := 1; i <= int(naxis); i++ {
		elements *= headerInt(h, fmt.Sprintf("NAXIS%d", i), 0)
	}

	bitpix := headerInt(h, "BITPIX", 8)
	if bitpix < 0 {
		bitpix = -bitpix
	}
	gcount := headerInt(h, "GCOUNT", 1)
	pcount := headerInt(h, "PCOUNT", 0)

	return bitpix / 8 * gcount * (pcount + elements)
}

// paddedSize rounds a byte count up to the next block boundary.
func paddedSize(n int64) int64 {
	blocks := (n + BlockSize - 1) / BlockSize
	return blocks * BlockSize
}

// headerInt reads an integer-valued keyword, falling back to def when
// the keyword is absent or not an integer.
func headerInt(h *Header, keyword string, def int64) int64 {
	card, ok := h.FirstCard(keyword)
	if !ok || card.Value.Kind() != ValueInteger {
		return def
	}
	return card.Value.Int()
}

// SkipData advances the reader past the data unit described by h,
// padding included, positioning it at the next HDU. A stream that
// ends exactly on the unpadded data is tolerated.
func (r *Reader) SkipData(h *Header) error {
	size := DataSize(h)
	n, err := io.CopyN(io.Discard, r.source, paddedSize(size))
	if err == io.EOF && n >= size {
		return nil
	}
	if err != nil {
		return &IOError{Op: "skip data unit", Err: err}
	}
	return nil
}

// SpoolData copies the data unit described by h, padding included,
// into a spooled buffer for pass-through write-back. The bytes are
// not interpreted. The caller owns the returned buffer and must
// close it.
func (r *Reader) SpoolData(h *Header) (spool.File, error) {
	buf := spool.New("fits-data", "", -1)
	size := DataSize(h)
	n, err := io.CopyN(buf, r.source, paddedSize(size))
	if err != nil && !(err == io.EOF && n >= size) {
		buf.Close()
		return nil, &IOError{Op: "spool data unit", Err: err}
	}
	return buf, nil
}

// SpoolRemainder copies everything left in the stream into a spooled
// buffer. Used by write-back to carry the untouched rest of a file
// across a header rewrite.
func (r *Reader) SpoolRemainder() (spool.File, error) {
	buf := spool.New("fits-tail", "", -1)
	if _, err := io.Copy(buf, r.source); err != nil {
		buf.Close()
		return nil, &IOError{Op: "spool remainder", Err: err}
	}
	return buf, nil
}
