// Package tablefile implements the on-disk rainbow-table format: a packed
// binary header followed by fixed-width chain records, memory-mapped for
// reading (spec.md §4.4).
package tablefile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/mmap"
)

const (
	Magic = 0x7274202d // ASCII "rt- ", little-endian.

	MaxCharsetLen = 128
	HeaderSize    = 4 + 1 + 1 + 1 + 1 + 8 + MaxCharsetLen // 144

	TypeUncompressed uint8 = 0
	TypeCompressed   uint8 = 1

	UncompressedRecordWidth = 16
	CompressedRecordWidth   = 8
)

// TableHeader is the wire-compatible header laid out at the start of every
// table file. Endianness is the host's native little-endian; there is no
// byte-swap on load.
type TableHeader struct {
	Type       uint8
	Algorithm  uint8
	Min        uint8
	Max        uint8
	CharsetLen uint8
	Length     uint64
	Charset    [MaxCharsetLen]byte
}

// FormatError reports a malformed table file: bad magic, a truncated
// header, an unrecognized table type, or a body size that isn't a multiple
// of the record width.
type FormatError struct{ err error }

func (e *FormatError) Error() string { return e.err.Error() }
func (e *FormatError) Unwrap() error { return e.err }

func (h TableHeader) RecordWidth() int {
	if h.Type == TypeCompressed {
		return CompressedRecordWidth
	}
	return UncompressedRecordWidth
}

func (h TableHeader) marshal() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	buf[4] = (h.Type & 0x3) | (h.Algorithm&0x3f)<<2
	buf[5] = h.Min
	buf[6] = h.Max
	buf[7] = h.CharsetLen
	binary.LittleEndian.PutUint64(buf[8:16], h.Length)
	copy(buf[16:16+MaxCharsetLen], h.Charset[:])
	return buf
}

func unmarshalHeader(buf []byte) (TableHeader, error) {
	if len(buf) < HeaderSize {
		return TableHeader{}, &FormatError{err: fmt.Errorf("tablefile: header truncated: got %d bytes, want %d", len(buf), HeaderSize)}
	}
	if magic := binary.LittleEndian.Uint32(buf[0:4]); magic != Magic {
		return TableHeader{}, &FormatError{err: fmt.Errorf("tablefile: bad magic %#x", magic)}
	}

	var h TableHeader
	h.Type = buf[4] & 0x3
	h.Algorithm = buf[4] >> 2
	if h.Type > TypeCompressed {
		return TableHeader{}, &FormatError{err: fmt.Errorf("tablefile: unknown table type %d", h.Type)}
	}
	h.Min = buf[5]
	h.Max = buf[6]
	h.CharsetLen = buf[7]
	if h.CharsetLen > MaxCharsetLen {
		return TableHeader{}, &FormatError{err: fmt.Errorf("tablefile: charset length %d exceeds %d", h.CharsetLen, MaxCharsetLen)}
	}
	h.Length = binary.LittleEndian.Uint64(buf[8:16])
	copy(h.Charset[:], buf[16:16+MaxCharsetLen])
	return h, nil
}

// TableRecord is one uncompressed chain: a (startpoint, endpoint) pair.
type TableRecord struct {
	Startpoint uint64
	Endpoint   uint64
}

// TableRecordCompressed is one compressed chain: the endpoint only, with
// its startpoint implied by file position.
type TableRecordCompressed struct {
	Endpoint uint64
}

// TableFile owns a table's header, its writable file handle (while open for
// writing), and an optional read-only memory mapping.
type TableFile struct {
	path   string
	header TableHeader

	wfile *os.File
	rmap  *mmap.ReaderAt
}

func (t *TableFile) Path() string        { return t.path }
func (t *TableFile) Header() TableHeader { return t.header }

// Create truncates path and writes header, leaving the file open for
// Append.
func Create(path string, header TableHeader) (*TableFile, error) {
	if header.CharsetLen > MaxCharsetLen {
		return nil, fmt.Errorf("tablefile: charset length %d exceeds %d", header.CharsetLen, MaxCharsetLen)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("tablefile: create %s: %w", path, err)
	}
	if _, err := f.Write(header.marshal()); err != nil {
		f.Close()
		return nil, fmt.Errorf("tablefile: write header: %w", err)
	}
	return &TableFile{path: path, header: header, wfile: f}, nil
}

// Load reads and validates the header of an existing table file. It does
// not map the file; call Map to do that.
func Load(path string) (*TableFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tablefile: open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, fmt.Errorf("tablefile: read header: %w", err)
	}
	header, err := unmarshalHeader(buf)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("tablefile: stat %s: %w", path, err)
	}
	body := info.Size() - HeaderSize
	if body < 0 || body%int64(header.RecordWidth()) != 0 {
		return nil, &FormatError{err: fmt.Errorf("tablefile: body size %d is not a multiple of record width %d", body, header.RecordWidth())}
	}

	return &TableFile{path: path, header: header}, nil
}

// Append opens the file for writing (if not already) and appends raw
// record bytes at the given byte offset from the start of the record
// region, growing the file if needed. Flushing is the caller's
// responsibility.
func (t *TableFile) Append(offset int64, records []byte) error {
	if t.rmap != nil {
		return fmt.Errorf("tablefile: cannot write while mapped read-only; call Unmap first")
	}
	if t.wfile == nil {
		f, err := os.OpenFile(t.path, os.O_RDWR, 0o644)
		if err != nil {
			return fmt.Errorf("tablefile: reopen %s for write: %w", t.path, err)
		}
		t.wfile = f
	}
	if _, err := t.wfile.WriteAt(records, HeaderSize+offset); err != nil {
		return fmt.Errorf("tablefile: write records at %d: %w", offset, err)
	}
	return nil
}

// Flush syncs the writable handle, if one is open.
func (t *TableFile) Flush() error {
	if t.wfile == nil {
		return nil
	}
	return t.wfile.Sync()
}

// Map memory-maps the file read-only. It is idempotent, and it closes any
// open write handle first; Append refuses to write while the file is
// mapped.
func (t *TableFile) Map() error {
	if t.rmap != nil {
		return nil
	}
	if t.wfile != nil {
		if err := t.wfile.Close(); err != nil {
			return fmt.Errorf("tablefile: close write handle before mapping: %w", err)
		}
		t.wfile = nil
	}
	r, err := mmap.Open(t.path)
	if err != nil {
		return fmt.Errorf("tablefile: mmap %s: %w", t.path, err)
	}
	t.rmap = r
	return nil
}

func (t *TableFile) Unmap() error {
	if t.rmap == nil {
		return nil
	}
	err := t.rmap.Close()
	t.rmap = nil
	if err != nil {
		return fmt.Errorf("tablefile: unmap %s: %w", t.path, err)
	}
	return nil
}

// Records returns a heap copy of the record region (everything past the
// header) read from the mapping, so it stays valid after Unmap or a remap.
// Map must have been called first.
func (t *TableFile) Records() ([]byte, error) {
	if t.rmap == nil {
		return nil, fmt.Errorf("tablefile: not mapped")
	}
	n := t.rmap.Len() - HeaderSize
	if n < 0 {
		return nil, fmt.Errorf("tablefile: mapped region shorter than header")
	}
	buf := make([]byte, n)
	if _, err := t.rmap.ReadAt(buf, HeaderSize); err != nil {
		return nil, fmt.Errorf("tablefile: read mapped records: %w", err)
	}
	return buf, nil
}

// Count returns the number of records implied by the file's current size
// and record width.
func (t *TableFile) Count() (int64, error) {
	info, err := os.Stat(t.path)
	if err != nil {
		return 0, fmt.Errorf("tablefile: stat %s: %w", t.path, err)
	}
	body := info.Size() - HeaderSize
	if body < 0 {
		return 0, fmt.Errorf("tablefile: file shorter than header")
	}
	return body / int64(t.header.RecordWidth()), nil
}

// EncodeRecord marshals an uncompressed record to its 16-byte wire form.
func EncodeRecord(r TableRecord) []byte {
	buf := make([]byte, UncompressedRecordWidth)
	binary.LittleEndian.PutUint64(buf[0:8], r.Startpoint)
	binary.LittleEndian.PutUint64(buf[8:16], r.Endpoint)
	return buf
}

func DecodeRecord(buf []byte) TableRecord {
	return TableRecord{
		Startpoint: binary.LittleEndian.Uint64(buf[0:8]),
		Endpoint:   binary.LittleEndian.Uint64(buf[8:16]),
	}
}

// EncodeRecordCompressed marshals a compressed record to its 8-byte wire
// form.
func EncodeRecordCompressed(r TableRecordCompressed) []byte {
	buf := make([]byte, CompressedRecordWidth)
	binary.LittleEndian.PutUint64(buf[0:8], r.Endpoint)
	return buf
}

func DecodeRecordCompressed(buf []byte) TableRecordCompressed {
	return TableRecordCompressed{Endpoint: binary.LittleEndian.Uint64(buf[0:8])}
}

// RecordsAs decodes a raw record region into typed records; T must be
// TableRecord (for an uncompressed table) or TableRecordCompressed (for a
// compressed one), or it returns an error.
func RecordsAs[T TableRecord | TableRecordCompressed](t *TableFile, data []byte) ([]T, error) {
	var zero T
	width := UncompressedRecordWidth
	if _, ok := any(zero).(TableRecordCompressed); ok {
		width = CompressedRecordWidth
	}
	if width != t.header.RecordWidth() {
		return nil, fmt.Errorf("tablefile: record type does not match table type %d", t.header.Type)
	}
	if len(data)%width != 0 {
		return nil, fmt.Errorf("tablefile: record region length %d not a multiple of width %d", len(data), width)
	}

	n := len(data) / width
	out := make([]T, n)
	for i := 0; i < n; i++ {
		row := data[i*width : (i+1)*width]
		switch any(zero).(type) {
		case TableRecord:
			out[i] = any(DecodeRecord(row)).(T)
		case TableRecordCompressed:
			out[i] = any(DecodeRecordCompressed(row)).(T)
		}
	}
	return out, nil
}
