package vfsimage

import (
	"fmt"
	"io"
	"os"
)

// Export streams the raw image file at imagePath through the given codec
// into dst. The engine must not be concurrently writing to imagePath; call
// Engine.Sync first so the snapshot reflects the last committed state.
func Export(imagePath string, dst io.Writer, codec Codec) error {
	src, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("vfsimage: open image: %w", err)
	}
	defer func() { _ = src.Close() }()

	cw, err := newWriter(codec, dst)
	if err != nil {
		return fmt.Errorf("vfsimage: new %s writer: %w", codec, err)
	}
	if _, err := io.Copy(cw, src); err != nil {
		_ = cw.Close()
		return fmt.Errorf("vfsimage: compress: %w", err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("vfsimage: flush %s stream: %w", codec, err)
	}
	return nil
}

// Import decompresses src, the product of an earlier Export, writing the
// raw image bytes to a fresh file at imagePath. The file must not already
// exist; Import never overwrites an existing image.
func Import(src io.Reader, imagePath string, codec Codec) error {
	if _, err := os.Stat(imagePath); err == nil {
		return fmt.Errorf("vfsimage: %s already exists", imagePath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("vfsimage: stat %s: %w", imagePath, err)
	}

	dst, err := os.OpenFile(imagePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("vfsimage: create %s: %w", imagePath, err)
	}
	defer func() { _ = dst.Close() }()

	cr, err := newReader(codec, src)
	if err != nil {
		return fmt.Errorf("vfsimage: new %s reader: %w", codec, err)
	}
	defer func() { _ = cr.Close() }()

	if _, err := io.Copy(dst, cr); err != nil {
		return fmt.Errorf("vfsimage: decompress: %w", err)
	}
	return nil
}
