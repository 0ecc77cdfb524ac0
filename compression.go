package fits

import (
	"bufio"
	"compress/bzip2"
	"io"

	gzip "github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

const (
	CompressionNone CompressionType = iota
	CompressionBZIP
	CompressionGZIP
	CompressionXZ
	CompressionZSTD
)

type CompressionType int

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "CompressionNone"
	case CompressionBZIP:
		return "CompressionBZIP"
	case CompressionGZIP:
		return "CompressionGZIP"
	case CompressionXZ:
		return "CompressionXZ"
	case CompressionZSTD:
		return "CompressionZSTD"
	}
	return ""
}

func (r *Reader) Compression() CompressionType {
	return r.compression
}

// guessCompression returns the compression type of a data stream by matching
// the first bytes with the magic numbers of compression formats.
func guessCompression(b *bufio.Reader) (CompressionType, error) {
	magic, err := b.Peek(6)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = nil
		}
		return CompressionNone, err
	}
	switch {
	case magic[0] == 0x42 && magic[1] == 0x5a:
		return CompressionBZIP, nil
	case magic[0] == 0x1f && magic[1] == 0x8b:
		return CompressionGZIP, nil
	case magic[0] == 0xfd && magic[1] == 0x37 && magic[2] == 0x7a &&
		magic[3] == 0x58 && magic[4] == 0x5a && magic[5] == 0x00:
		return CompressionXZ, nil
	case magic[0] == 0x28 && magic[1] == 0xb5 && magic[2] == 0x2f && magic[3] == 0xfd:
		return CompressionZSTD, nil
	}
	return CompressionNone, nil
}

// decompress automatically decompresses data streams and makes sure the result
// obeys the io.ReadCloser interface. This way callers don't need to check
// whether the underlying reader has a Close() function or not, they just call
// defer Close() on the result.
func decompress(r io.Reader) (compr CompressionType, res io.ReadCloser, err error) {
	// Create a buffered reader to peek the stream's magic number.
	dataReader := bufio.NewReader(r)
	compr, err = guessCompression(dataReader)
	if err != nil {
		return CompressionNone, nil, err
	}
	switch compr {
	case CompressionGZIP:
		gzipReader, err := gzip.NewReader(dataReader)
		if err != nil {
			return CompressionNone, nil, err
		}
		res = gzipReader
	case CompressionBZIP:
		bzipReader := bzip2.NewReader(dataReader)
		res = io.NopCloser(bzipReader)
	case CompressionXZ:
		xzReader, err := xz.NewReader(dataReader)
		if err != nil {
			return CompressionNone, nil, err
		}
		res = io.NopCloser(xzReader)
	case CompressionZSTD:
		zstdReader, err := zstd.NewReader(dataReader)
		if err != nil {
			return CompressionNone, nil, err
		}
		res = zstdReader.IOReadCloser()
	case CompressionNone:
		res = io.NopCloser(dataReader)
	}
	return compr, res, err
}
