package storage

import (
	"encoding/binary"
	"fmt"
)

// FileHeaderSize is the fixed size of the header stored at the start of
// page 1, ahead of that page's node header and cell content.
const FileHeaderSize = 100

var fileMagic = [16]byte{'S', 'Q', 'L', 'i', 't', 'e', ' ', 'f', 'o', 'r', 'm', 'a', 't', ' ', '3', 0}

// fixedSequence is the constant six bytes at 0x12-0x17: write format
// version, read format version, reserved-space-per-page, and the three
// payload-fraction bytes. Every file carries the same values.
var fixedSequence = [6]byte{0x01, 0x01, 0x00, 0x40, 0x20, 0x20}

// defaultPageCacheSize is the initial value of the page-cache-size hint
// at 0x30-0x33.
const defaultPageCacheSize = 20000

// FileHeader is the 100-byte header at the front of the file.
type FileHeader struct {
	PageSize          uint16
	FileChangeCounter uint32
	SchemaVersion     uint32
}

// NewFileHeader builds the header for a freshly created, single-page
// file.
func NewFileHeader(pageSize uint16) FileHeader {
	return FileHeader{
		PageSize:          pageSize,
		FileChangeCounter: 0,
		SchemaVersion:     0,
	}
}

// Encode writes the header in its on-disk form into buf, which must be
// at least FileHeaderSize bytes. Every byte not named by a field below
// is left zero, per the format's catch-all for unused header space.
func (h FileHeader) Encode(buf []byte) {
	copy(buf, fileMagic[:])

	binary.BigEndian.PutUint16(buf[0x10:0x12], h.PageSize)
	copy(buf[0x12:0x18], fixedSequence[:])
	binary.BigEndian.PutUint32(buf[0x18:0x1C], h.FileChangeCounter)
	binary.BigEndian.PutUint32(buf[0x2C:0x30], h.SchemaVersion)
	binary.BigEndian.PutUint32(buf[0x30:0x34], defaultPageCacheSize)
	binary.BigEndian.PutUint32(buf[0x38:0x3C], 1) // fixed validation sequence
}

// DecodeFileHeader parses a FileHeaderSize-byte buffer, validating the
// magic string, the fixed 0x12-0x17 sequence, and the fixed 0x38-0x3B
// sequence.
func DecodeFileHeader(buf []byte) (FileHeader, error) {
	if len(buf) != FileHeaderSize {
		return FileHeader{}, fmt.Errorf("%w: header is %d bytes, want %d", ErrCorruptHeader, len(buf), FileHeaderSize)
	}
	for i := range fileMagic {
		if buf[i] != fileMagic[i] {
			return FileHeader{}, fmt.Errorf("%w: bad magic", ErrCorruptHeader)
		}
	}
	for i := range fixedSequence {
		if buf[0x12+i] != fixedSequence[i] {
			return FileHeader{}, fmt.Errorf("%w: bad fixed sequence at 0x12", ErrCorruptHeader)
		}
	}
	if binary.BigEndian.Uint32(buf[0x38:0x3C]) != 1 {
		return FileHeader{}, fmt.Errorf("%w: bad fixed validation sequence", ErrCorruptHeader)
	}

	return FileHeader{
		PageSize:          binary.BigEndian.Uint16(buf[0x10:0x12]),
		FileChangeCounter: binary.BigEndian.Uint32(buf[0x18:0x1C]),
		SchemaVersion:     binary.BigEndian.Uint32(buf[0x2C:0x30]),
	}, nil
}
