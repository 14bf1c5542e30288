// Package vfsimage exports and imports a booted disk image as a compressed
// snapshot. The codec is chosen at call time rather than by build tag,
// since the whole module already depends on all three compression
// libraries.
package vfsimage

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
	"github.com/ulikunitz/xz"
)

// Codec names a compression algorithm usable for Export/Import.
type Codec int

const (
	// CodecZstd is the default: fast, good ratio, used by klauspost/compress.
	CodecZstd Codec = iota
	CodecLZ4
	CodecXZ
)

func (c Codec) String() string {
	switch c {
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	case CodecXZ:
		return "xz"
	default:
		return "unknown"
	}
}

// newWriter returns a streaming compressor over w for the given codec.
func newWriter(c Codec, w io.Writer) (io.WriteCloser, error) {
	switch c {
	case CodecZstd:
		return zstd.NewWriter(w)
	case CodecLZ4:
		return lz4.NewWriter(w), nil
	case CodecXZ:
		return xz.NewWriter(w)
	default:
		return nil, fmt.Errorf("vfsimage: unknown codec %d", c)
	}
}

// newReader returns a streaming decompressor over r for the given codec.
func newReader(c Codec, r io.Reader) (io.ReadCloser, error) {
	switch c {
	case CodecZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{dec}, nil
	case CodecLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case CodecXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	default:
		return nil, fmt.Errorf("vfsimage: unknown codec %d", c)
	}
}

// zstdReadCloser adapts *zstd.Decoder's no-error Close to io.ReadCloser.
type zstdReadCloser struct {
	dec *zstd.Decoder
}

func (z zstdReadCloser) Read(p []byte) (int, error) { return z.dec.Read(p) }
func (z zstdReadCloser) Close() error                { z.dec.Close(); return nil }
