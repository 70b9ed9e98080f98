package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileHeaderRoundTrip(t *testing.T) {
	r := require.New(t)
	h := NewFileHeader(4096)

	buf := make([]byte, FileHeaderSize)
	h.Encode(buf)

	decoded, err := DecodeFileHeader(buf)
	r.NoError(err)
	r.Equal(h.PageSize, decoded.PageSize)
	r.Equal(h.SchemaVersion, decoded.SchemaVersion)
}

func TestDecodeFileHeaderRejectsBadMagic(t *testing.T) {
	r := require.New(t)
	buf := make([]byte, FileHeaderSize)
	_, err := DecodeFileHeader(buf)
	r.ErrorIs(err, ErrCorruptHeader)
}

func TestDecodeFileHeaderRejectsWrongLength(t *testing.T) {
	r := require.New(t)
	_, err := DecodeFileHeader(make([]byte, 50))
	r.ErrorIs(err, ErrCorruptHeader)
}

func TestDecodeFileHeaderRejectsBadFixedSequence(t *testing.T) {
	r := require.New(t)
	buf := make([]byte, FileHeaderSize)
	h := NewFileHeader(4096)
	h.Encode(buf)
	buf[0x3B] = 0 // corrupt the fixed validation sequence

	_, err := DecodeFileHeader(buf)
	r.ErrorIs(err, ErrCorruptHeader)
}

func TestDecodeFileHeaderRejectsBadReservedSequence(t *testing.T) {
	r := require.New(t)
	buf := make([]byte, FileHeaderSize)
	h := NewFileHeader(4096)
	h.Encode(buf)
	buf[0x12] = 0x00 // flip the fixed 0x12-0x17 sequence

	_, err := DecodeFileHeader(buf)
	r.ErrorIs(err, ErrCorruptHeader)
}
