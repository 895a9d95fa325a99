// Package grf reads Ragnarok Online GRF archives, where zone files ship.
package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/Faultbox/midgard-zonebsp/pkg/encoding"
)

// GRF errors.
var (
	ErrInvalidMagic       = errors.New("invalid GRF magic")
	ErrUnsupportedVersion = errors.New("unsupported GRF version")
	ErrCorruptTable       = errors.New("corrupt GRF file table")
	ErrNotFound           = errors.New("file not found in archive")
	ErrEncrypted          = errors.New("encrypted GRF entries are not supported")
)

const (
	grfMagic   = "Master of Magic"
	headerSize = 46
	version200 = 0x200

	flagFile        = 0x01
	flagMixedCrypt  = 0x02
	flagHeaderCrypt = 0x04

	entryFixedSize = 17
)

// Header contains GRF file header information.
type Header struct {
	Magic         [15]byte
	EncryptionKey [15]byte
	TableOffset   uint32
	Seed          uint32
	FileCount     uint32
	Version       uint32
}

// Entry is one file in the archive. Offsets are relative to the end of the header.
type Entry struct {
	Name             string
	CompressedSize   uint32
	AlignedSize      uint32
	UncompressedSize uint32
	Flags            uint8
	Offset           uint32
}

// Encrypted reports whether the entry uses either DES scheme.
func (e *Entry) Encrypted() bool {
	return e.Flags&(flagMixedCrypt|flagHeaderCrypt) != 0
}

// Archive is an opened GRF archive. Reads are safe for concurrent use when
// the underlying ReaderAt is.
type Archive struct {
	r       io.ReaderAt
	closer  io.Closer
	header  Header
	entries map[string]*Entry
}

// Open opens a GRF archive on disk.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	a, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	a.closer = file
	return a, nil
}

// NewReader reads the header and file table from r.
func NewReader(r io.ReaderAt) (*Archive, error) {
	a := &Archive{r: r, entries: make(map[string]*Entry)}

	if err := a.readHeader(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := a.readFileTable(); err != nil {
		return nil, fmt.Errorf("reading file table: %w", err)
	}
	return a, nil
}

// Close closes the archive file, if Open created it.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

func (a *Archive) readHeader() error {
	sr := io.NewSectionReader(a.r, 0, headerSize)
	if err := binary.Read(sr, binary.LittleEndian, &a.header); err != nil {
		return err
	}
	if string(a.header.Magic[:]) != grfMagic {
		return ErrInvalidMagic
	}
	if a.header.Version != version200 {
		return fmt.Errorf("%w: 0x%x", ErrUnsupportedVersion, a.header.Version)
	}
	return nil
}

func (a *Archive) readFileTable() error {
	base := int64(a.header.TableOffset) + headerSize

	var sizes [8]byte
	if _, err := a.r.ReadAt(sizes[:], base); err != nil {
		return fmt.Errorf("%w: table sizes: %v", ErrCorruptTable, err)
	}
	compressedSize := binary.LittleEndian.Uint32(sizes[0:])
	uncompressedSize := binary.LittleEndian.Uint32(sizes[4:])

	table, err := inflate(io.NewSectionReader(a.r, base+8, int64(compressedSize)), uncompressedSize)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptTable, err)
	}

	if a.header.FileCount < a.header.Seed+7 {
		return fmt.Errorf("%w: file count %d below seed %d", ErrCorruptTable, a.header.FileCount, a.header.Seed)
	}
	fileCount := a.header.FileCount - a.header.Seed - 7

	offset := 0
	for i := uint32(0); i < fileCount; i++ {
		nameEnd := bytes.IndexByte(table[offset:], 0)
		if nameEnd < 0 || offset+nameEnd+1+entryFixedSize > len(table) {
			return fmt.Errorf("%w: entry %d truncated", ErrCorruptTable, i)
		}
		name := encoding.EUCKRToUTF8(table[offset : offset+nameEnd])
		rec := table[offset+nameEnd+1:]
		offset += nameEnd + 1 + entryFixedSize

		entry := &Entry{
			Name:             encoding.NormalizePath(name),
			CompressedSize:   binary.LittleEndian.Uint32(rec[0:]),
			AlignedSize:      binary.LittleEndian.Uint32(rec[4:]),
			UncompressedSize: binary.LittleEndian.Uint32(rec[8:]),
			Flags:            rec[12],
			Offset:           binary.LittleEndian.Uint32(rec[13:]),
		}
		// Directory records carry no file flag.
		if entry.Flags&flagFile != 0 {
			a.entries[entry.Name] = entry
		}
	}
	return nil
}

// inflate decompresses a zlib stream into exactly size bytes.
func inflate(r io.Reader, size uint32) ([]byte, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	out := make([]byte, size)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Header returns the archive header.
func (a *Archive) Header() Header {
	return a.header
}

// Len returns the number of files in the archive.
func (a *Archive) Len() int {
	return len(a.entries)
}

// List returns all file paths in the archive, sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.entries))
	for path := range a.entries {
		result = append(result, path)
	}
	slices.Sort(result)
	return result
}

// Glob returns the sorted paths whose base name matches pattern
// (filepath.Match syntax, case-insensitive).
func (a *Archive) Glob(pattern string) ([]string, error) {
	pattern = encoding.NormalizePath(pattern)
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, err
	}

	var result []string
	for path := range a.entries {
		if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
			result = append(result, path)
		}
	}
	slices.Sort(result)
	return result, nil
}

// Contains checks if a file exists.
func (a *Archive) Contains(path string) bool {
	_, ok := a.entries[encoding.NormalizePath(path)]
	return ok
}

// Entry returns the table record for path.
func (a *Archive) Entry(path string) (*Entry, bool) {
	e, ok := a.entries[encoding.NormalizePath(path)]
	return e, ok
}

// Read reads and decompresses a file from the archive.
func (a *Archive) Read(path string) ([]byte, error) {
	entry, ok := a.Entry(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if entry.Encrypted() {
		return nil, fmt.Errorf("%w: %s", ErrEncrypted, path)
	}

	sr := io.NewSectionReader(a.r, int64(entry.Offset)+headerSize, int64(entry.CompressedSize))
	if entry.CompressedSize == entry.UncompressedSize {
		data := make([]byte, entry.UncompressedSize)
		if _, err := io.ReadFull(sr, data); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return data, nil
	}

	data, err := inflate(sr, entry.UncompressedSize)
	if err != nil {
		return nil, fmt.Errorf("inflating %s: %w", path, err)
	}
	return data, nil
}
