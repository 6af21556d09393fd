package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/freeeve/pgnbook/internal/book"
)

// Snapshot file structure:
//
//	Header (32 bytes, little-endian):
//	  - Magic (4): "PGBK"
//	  - Version (2): 1
//	  - Flags (2): reserved
//	  - MetaSize (4): bytes of JSON metadata following the header
//	  - Checksum (4): CRC32 of the uncompressed body
//	  - BodySize (8): uncompressed body size
//	  - Reserved (8)
//	Metadata (MetaSize bytes of JSON)
//	Body (rest of file, zstd compressed, see encoding.go)

const (
	SnapshotMagic      = "PGBK"
	SnapshotVersion    = 1
	SnapshotHeaderSize = 32

	// DefaultFileName is the conventional snapshot name.
	DefaultFileName = "book.pgb"

	maxMetaSize = 16 << 20
)

var (
	ErrBadMagic = errors.New("store: not a book snapshot")
	ErrVersion  = errors.New("store: unsupported snapshot version")
	ErrChecksum = errors.New("store: snapshot checksum mismatch")
	ErrCorrupt  = errors.New("store: corrupt snapshot")
)

type header struct {
	Magic    [4]byte
	Version  uint16
	Flags    uint16
	MetaSize uint32
	Checksum uint32
	BodySize uint64
}

func encodeHeader(h *header) []byte {
	buf := make([]byte, SnapshotHeaderSize)
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], h.Flags)
	binary.LittleEndian.PutUint32(buf[8:12], h.MetaSize)
	binary.LittleEndian.PutUint32(buf[12:16], h.Checksum)
	binary.LittleEndian.PutUint64(buf[16:24], h.BodySize)
	return buf
}

func decodeHeader(buf []byte) (*header, error) {
	if len(buf) < SnapshotHeaderSize {
		return nil, fmt.Errorf("%w: header too short", ErrCorrupt)
	}
	h := &header{}
	copy(h.Magic[:], buf[0:4])
	if string(h.Magic[:]) != SnapshotMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadMagic, h.Magic)
	}
	h.Version = binary.LittleEndian.Uint16(buf[4:6])
	if h.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	h.Flags = binary.LittleEndian.Uint16(buf[6:8])
	h.MetaSize = binary.LittleEndian.Uint32(buf[8:12])
	h.Checksum = binary.LittleEndian.Uint32(buf[12:16])
	h.BodySize = binary.LittleEndian.Uint64(buf[16:24])
	if h.MetaSize > maxMetaSize {
		return nil, fmt.Errorf("%w: metadata size %d", ErrCorrupt, h.MetaSize)
	}
	return h, nil
}

// Save writes b to path through a temporary file and a rename. Missing
// metadata fields are filled in: a new ID, the creation time and the counts
// derived from b. The metadata actually written is returned.
func Save(path string, b *book.Book, meta Metadata) (Metadata, error) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	meta.fill(b)

	body, err := encodeBody(b)
	if err != nil {
		return meta, fmt.Errorf("encode book: %w", err)
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return meta, fmt.Errorf("encode metadata: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return meta, err
	}
	compressed := enc.EncodeAll(body, nil)
	enc.Close()

	h := header{
		Version:  SnapshotVersion,
		MetaSize: uint32(len(metaJSON)),
		Checksum: crc32.ChecksumIEEE(body),
		BodySize: uint64(len(body)),
	}
	copy(h.Magic[:], SnapshotMagic)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return meta, err
		}
	}

	tmpPath := path + ".tmp"
	if err := writeFile(tmpPath, encodeHeader(&h), metaJSON, compressed); err != nil {
		os.Remove(tmpPath)
		return meta, fmt.Errorf("write snapshot %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return meta, fmt.Errorf("rename snapshot %s: %w", path, err)
	}

	meta.CompressedBytes = int64(len(compressed))
	meta.UncompressedBytes = int64(len(body))
	return meta, nil
}

func writeFile(path string, parts ...[]byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	for _, p := range parts {
		if _, err := f.Write(p); err != nil {
			f.Close()
			return err
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadMetadata reads only the header and metadata of a snapshot.
func ReadMetadata(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, err
	}
	defer f.Close()

	buf := make([]byte, SnapshotHeaderSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	h, err := decodeHeader(buf)
	if err != nil {
		return Metadata{}, err
	}
	metaJSON := make([]byte, h.MetaSize)
	if _, err := io.ReadFull(f, metaJSON); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	var meta Metadata
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return Metadata{}, fmt.Errorf("%w: metadata: %v", ErrCorrupt, err)
	}
	meta.UncompressedBytes = int64(h.BodySize)
	if fi, err := f.Stat(); err == nil {
		meta.CompressedBytes = fi.Size() - SnapshotHeaderSize - int64(h.MetaSize)
	}
	return meta, nil
}

// Load reads a snapshot written by Save.
func Load(path string) (*book.Book, Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Metadata{}, err
	}
	h, err := decodeHeader(data)
	if err != nil {
		return nil, Metadata{}, err
	}
	bodyStart := SnapshotHeaderSize + int(h.MetaSize)
	if bodyStart > len(data) {
		return nil, Metadata{}, fmt.Errorf("%w: metadata runs past end of file", ErrCorrupt)
	}

	var meta Metadata
	if err := json.Unmarshal(data[SnapshotHeaderSize:bodyStart], &meta); err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: metadata: %v", ErrCorrupt, err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, Metadata{}, err
	}
	defer dec.Close()

	body, err := dec.DecodeAll(data[bodyStart:], nil)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: decompress: %v", ErrCorrupt, err)
	}
	if uint64(len(body)) != h.BodySize {
		return nil, Metadata{}, fmt.Errorf("%w: body is %d bytes, header says %d", ErrCorrupt, len(body), h.BodySize)
	}
	if crc32.ChecksumIEEE(body) != h.Checksum {
		return nil, Metadata{}, ErrChecksum
	}

	b := book.New(book.WithMaxDepth(meta.MaxDepth), book.WithMe(meta.Me))
	if err := decodeBody(body, b); err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	meta.CompressedBytes = int64(len(data) - bodyStart)
	meta.UncompressedBytes = int64(len(body))
	return b, meta, nil
}
