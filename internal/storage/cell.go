package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// indexCellMagic is the constant 4-byte tag that opens every index cell
// (leaf or internal), ahead of its keyIdx/keyPk fields.
var indexCellMagic = [4]byte{0x0B, 0x03, 0x04, 0x04}

// Cell is a tagged union over the four on-disk cell variants. Only the
// fields relevant to Type are meaningful; callers switch on Type before
// reading them. The nested fields struct keeps the table-leaf payload
// grouped the way a sum type would, without resorting to an interface
// per variant.
type Cell struct {
	Type PageType

	Key    uint32 // table-internal, table-leaf: the rowid key
	KeyIdx uint32 // index-internal, index-leaf: the indexed column's value
	KeyPk  uint32 // index-internal, index-leaf: the table row this index entry points at

	tableLeaf struct {
		Payload []byte
	}
	tableInternal struct {
		ChildPage uint32
	}
	indexInternal struct {
		ChildPage uint32
	}
}

// NewTableLeafCell builds a table-leaf cell holding payload under key.
func NewTableLeafCell(key uint32, payload []byte) Cell {
	c := Cell{Type: PageTypeLeaf, Key: key}
	c.tableLeaf.Payload = payload
	return c
}

// NewTableInternalCell builds a table-internal separator cell.
func NewTableInternalCell(key uint32, childPage uint32) Cell {
	c := Cell{Type: PageTypeInternal, Key: key}
	c.tableInternal.ChildPage = childPage
	return c
}

// NewIndexLeafCell builds an index-leaf cell recording that keyIdx maps
// to the table row keyPk.
func NewIndexLeafCell(keyIdx, keyPk uint32) Cell {
	return Cell{Type: PageTypeLeafIndex, KeyIdx: keyIdx, KeyPk: keyPk}
}

// NewIndexInternalCell builds an index-internal separator cell.
func NewIndexInternalCell(keyIdx, keyPk, childPage uint32) Cell {
	c := Cell{Type: PageTypeInternalIndex, KeyIdx: keyIdx, KeyPk: keyPk}
	c.indexInternal.ChildPage = childPage
	return c
}

func (c Cell) Payload() []byte { return c.tableLeaf.Payload }

func (c Cell) ChildPage() uint32 {
	if c.Type == PageTypeInternal {
		return c.tableInternal.ChildPage
	}
	return c.indexInternal.ChildPage
}

// SortKey is the value cells of c's type are ordered and deduplicated
// by: the rowid for table cells, keyIdx for index cells. Node routing
// and duplicate detection compare on this rather than on Key directly,
// so the same code paths serve table and index B-Trees alike.
func (c Cell) SortKey() uint32 {
	if c.Type == PageTypeLeafIndex || c.Type == PageTypeInternalIndex {
		return c.KeyIdx
	}
	return c.Key
}

// EncodedSize returns the exact number of bytes Encode will write for c.
// Table cell sizes are computed from the actual varint length of their
// key/payload-size fields rather than a fixed approximation, so a key
// needing the full 5-byte varint never overruns its budget. Index cells
// have a fixed size: 16 bytes internal, 12 bytes leaf.
func (c Cell) EncodedSize() int {
	switch c.Type {
	case PageTypeInternal:
		return 4 + Varint32Size(c.Key)
	case PageTypeLeaf:
		n := len(c.tableLeaf.Payload)
		return Varint32Size(uint32(n)) + Varint32Size(c.Key) + n
	case PageTypeInternalIndex:
		return 16
	case PageTypeLeafIndex:
		return 12
	default:
		return 0
	}
}

// Encode writes c's on-disk representation into buf, which must be at
// least c.EncodedSize() bytes, and returns the number of bytes written.
func (c Cell) Encode(buf []byte) int {
	switch c.Type {
	case PageTypeInternal:
		binary.BigEndian.PutUint32(buf, c.tableInternal.ChildPage)
		n := PutVarint32(buf[4:], c.Key)
		return 4 + n
	case PageTypeLeaf:
		payload := c.tableLeaf.Payload
		n := PutVarint32(buf, uint32(len(payload)))
		n += PutVarint32(buf[n:], c.Key)
		n += copy(buf[n:], payload)
		return n
	case PageTypeInternalIndex:
		binary.BigEndian.PutUint32(buf, c.indexInternal.ChildPage)
		copy(buf[4:8], indexCellMagic[:])
		binary.BigEndian.PutUint32(buf[8:12], c.KeyIdx)
		binary.BigEndian.PutUint32(buf[12:16], c.KeyPk)
		return 16
	case PageTypeLeafIndex:
		copy(buf[0:4], indexCellMagic[:])
		binary.BigEndian.PutUint32(buf[4:8], c.KeyIdx)
		binary.BigEndian.PutUint32(buf[8:12], c.KeyPk)
		return 12
	default:
		return 0
	}
}

// DecodeCell parses a single cell of the given type from the front of
// buf and returns it along with the number of bytes consumed.
func DecodeCell(t PageType, buf []byte) (Cell, int, error) {
	switch t {
	case PageTypeInternal:
		if len(buf) < 4 {
			return Cell{}, 0, fmt.Errorf("%w: short table-internal cell", ErrCorruptHeader)
		}
		child := binary.BigEndian.Uint32(buf)
		key, n := Uvarint32(buf[4:])
		if n == 0 {
			return Cell{}, 0, fmt.Errorf("%w: bad key varint", ErrCorruptHeader)
		}
		return NewTableInternalCell(key, child), 4 + n, nil

	case PageTypeLeaf:
		payloadLen, n1 := Uvarint32(buf)
		if n1 == 0 {
			return Cell{}, 0, fmt.Errorf("%w: bad payload-size varint", ErrCorruptHeader)
		}
		key, n2 := Uvarint32(buf[n1:])
		if n2 == 0 {
			return Cell{}, 0, fmt.Errorf("%w: bad key varint", ErrCorruptHeader)
		}
		start := n1 + n2
		end := start + int(payloadLen)
		if end > len(buf) {
			return Cell{}, 0, fmt.Errorf("%w: truncated payload", ErrCorruptHeader)
		}
		payload := append([]byte(nil), buf[start:end]...)
		return NewTableLeafCell(key, payload), end, nil

	case PageTypeInternalIndex:
		if len(buf) < 16 {
			return Cell{}, 0, fmt.Errorf("%w: short index-internal cell", ErrCorruptHeader)
		}
		child := binary.BigEndian.Uint32(buf)
		if !bytes.Equal(buf[4:8], indexCellMagic[:]) {
			return Cell{}, 0, fmt.Errorf("%w: bad index-internal magic", ErrCorruptHeader)
		}
		keyIdx := binary.BigEndian.Uint32(buf[8:12])
		keyPk := binary.BigEndian.Uint32(buf[12:16])
		return NewIndexInternalCell(keyIdx, keyPk, child), 16, nil

	case PageTypeLeafIndex:
		if len(buf) < 12 {
			return Cell{}, 0, fmt.Errorf("%w: short index-leaf cell", ErrCorruptHeader)
		}
		if !bytes.Equal(buf[0:4], indexCellMagic[:]) {
			return Cell{}, 0, fmt.Errorf("%w: bad index-leaf magic", ErrCorruptHeader)
		}
		keyIdx := binary.BigEndian.Uint32(buf[4:8])
		keyPk := binary.BigEndian.Uint32(buf[8:12])
		return NewIndexLeafCell(keyIdx, keyPk), 12, nil

	default:
		return Cell{}, 0, fmt.Errorf("%w: unknown page type %x", ErrCorruptHeader, byte(t))
	}
}
