package storage

import (
	"encoding/binary"
	"fmt"
)

// PageType identifies the kind of B-Tree node a page holds.
type PageType byte

const (
	PageTypeInternal      PageType = 0x05 // table-internal
	PageTypeLeaf          PageType = 0x0D // table-leaf
	PageTypeInternalIndex PageType = 0x02 // index-internal
	PageTypeLeafIndex     PageType = 0x0A // index-leaf
)

func (t PageType) IsLeaf() bool {
	return t == PageTypeLeaf || t == PageTypeLeafIndex
}

func (t PageType) IsTable() bool {
	return t == PageTypeInternal || t == PageTypeLeaf
}

// LeafHeaderLen and InternalHeaderLen are the sizes, in bytes, of the
// node header that precedes the cell pointer array: 8 bytes for leaf
// nodes, 12 for internal nodes (the extra 4 bytes hold the rightmost
// child pointer).
const (
	LeafHeaderLen     = 8
	InternalHeaderLen = 12
)

func headerLen(t PageType) int {
	if t.IsLeaf() {
		return LeafHeaderLen
	}
	return InternalHeaderLen
}

// headerBase returns the byte offset within the page buffer where the
// node header begins: page 1 carries the 100-byte file header first.
func headerBase(pageNo uint32) int {
	if pageNo == 1 {
		return FileHeaderSize
	}
	return 0
}

// PageHeader is the in-memory view of a node's 8- or 12-byte header.
type PageHeader struct {
	Type                PageType
	FreeBlock           uint16
	NumCells            uint16
	CellsOffset         uint16 // absolute offset into the page buffer
	FragmentedFreeBytes byte
	RightPage           uint32 // internal nodes only
}

// newPageHeader builds the header for a freshly initialized, empty node
// of type t on page pageNo. FreeBlock starts immediately past the
// (empty) cell-offset array, i.e. right after the node header itself.
func newPageHeader(pageNo uint32, t PageType, pageSize uint16) PageHeader {
	return PageHeader{
		Type:        t,
		FreeBlock:   uint16(headerBase(pageNo) + headerLen(t)),
		CellsOffset: pageSize,
	}
}

// MemPage is a raw, fixed-size page buffer together with its parsed
// node header and the page number it was read from or allocated as.
type MemPage struct {
	Header   PageHeader
	PageNo   uint32
	Data     []byte
	Dirty    bool
	refCount int
}

// newMemPage allocates a zeroed page buffer of the given size and
// initializes it as an empty node of type t.
func newMemPage(pageNo uint32, pageSize uint16, t PageType) *MemPage {
	p := &MemPage{
		Header: newPageHeader(pageNo, t, pageSize),
		PageNo: pageNo,
		Data:   make([]byte, pageSize),
		Dirty:  true,
	}
	p.writeHeader()
	return p
}

// parseMemPage interprets an existing page buffer, taking ownership of
// data's backing array.
func parseMemPage(pageNo uint32, data []byte) (*MemPage, error) {
	base := headerBase(pageNo)
	if base+LeafHeaderLen > len(data) {
		return nil, fmt.Errorf("%w: page %d too small", ErrCorruptHeader, pageNo)
	}
	view := data[base:]
	h := PageHeader{
		Type:                PageType(view[0]),
		FreeBlock:           binary.BigEndian.Uint16(view[1:3]),
		NumCells:            binary.BigEndian.Uint16(view[3:5]),
		CellsOffset:         binary.BigEndian.Uint16(view[5:7]),
		FragmentedFreeBytes: view[7],
	}
	if !h.Type.IsLeaf() {
		if base+InternalHeaderLen > len(data) {
			return nil, fmt.Errorf("%w: page %d too small for internal header", ErrCorruptHeader, pageNo)
		}
		h.RightPage = binary.BigEndian.Uint32(view[8:12])
	}

	return &MemPage{
		Header: h,
		PageNo: pageNo,
		Data:   data,
	}, nil
}

// writeHeader serializes Header back into Data.
func (p *MemPage) writeHeader() {
	base := headerBase(p.PageNo)
	view := p.Data[base:]
	view[0] = byte(p.Header.Type)
	binary.BigEndian.PutUint16(view[1:3], p.Header.FreeBlock)
	binary.BigEndian.PutUint16(view[3:5], p.Header.NumCells)
	binary.BigEndian.PutUint16(view[5:7], p.Header.CellsOffset)
	view[7] = p.Header.FragmentedFreeBytes
	if !p.Header.Type.IsLeaf() {
		binary.BigEndian.PutUint32(view[8:12], p.Header.RightPage)
	}
}

// cellPointerArrayBase is the absolute offset of the first 2-byte cell
// pointer slot.
func (p *MemPage) cellPointerArrayBase() int {
	return headerBase(p.PageNo) + headerLen(p.Header.Type)
}

// cellPointer returns the absolute offset of cell i's encoded bytes.
func (p *MemPage) cellPointer(i int) uint16 {
	off := p.cellPointerArrayBase() + 2*i
	return binary.BigEndian.Uint16(p.Data[off : off+2])
}

func (p *MemPage) setCellPointer(i int, offset uint16) {
	off := p.cellPointerArrayBase() + 2*i
	binary.BigEndian.PutUint16(p.Data[off:off+2], offset)
}
