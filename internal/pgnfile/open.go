package pgnfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zstd"
)

// IsPGNFile reports whether name looks like a PGN archive this package can open.
func IsPGNFile(name string) bool {
	ext := filepath.Ext(name)
	switch ext {
	case ".pgn":
		return true
	case ".zst", ".bz2":
		// Check for .pgn.zst / .pgn.bz2
		base := strings.TrimSuffix(name, ext)
		return filepath.Ext(base) == ".pgn"
	}
	return false
}

// File is an opened PGN archive. Reads return decompressed text.
type File struct {
	io.Reader
	f    *os.File
	zdec *zstd.Decoder
	bz   *bzip2.Reader
	size int64
}

// Open opens path, decompressing .zst and .bz2 archives transparently.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	pf := &File{Reader: f, f: f}
	if info, err := f.Stat(); err == nil {
		pf.size = info.Size()
	}

	switch filepath.Ext(path) {
	case ".zst":
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open zstd %s: %w", path, err)
		}
		pf.zdec = dec
		pf.Reader = dec
	case ".bz2":
		bz, err := bzip2.NewReader(f, nil)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open bzip2 %s: %w", path, err)
		}
		pf.bz = bz
		pf.Reader = bz
	}
	return pf, nil
}

// Size returns the on-disk (compressed) size of the archive.
func (p *File) Size() int64 {
	return p.size
}

// Close releases the decoder and the underlying file.
func (p *File) Close() error {
	if p.zdec != nil {
		p.zdec.Close()
	}
	if p.bz != nil {
		p.bz.Close()
	}
	return p.f.Close()
}
