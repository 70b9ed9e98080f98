package storage

import (
	"encoding/binary"
	"fmt"
)

// Node is the in-memory view of a page as a B-Tree node: a MemPage plus
// the cell-level operations that understand its cell pointer array and
// cell content area.
type Node struct {
	page *MemPage
}

// LoadNode wraps an already-parsed page as a Node.
func LoadNode(page *MemPage) *Node {
	return &Node{page: page}
}

func (n *Node) PageNo() uint32    { return n.page.PageNo }
func (n *Node) Type() PageType    { return n.page.Header.Type }
func (n *Node) NumCells() int     { return int(n.page.Header.NumCells) }
func (n *Node) RightPage() uint32 { return n.page.Header.RightPage }
func (n *Node) SetRightPage(p uint32) {
	n.page.Header.RightPage = p
	n.page.writeHeader()
	n.page.Dirty = true
}
func (n *Node) IsLeaf() bool { return n.page.Header.Type.IsLeaf() }

// InitEmpty resets the node to an empty node of type t, discarding any
// existing cells.
func (n *Node) InitEmpty(t PageType) {
	n.page.Header = newPageHeader(n.page.PageNo, t, uint16(len(n.page.Data)))
	n.page.writeHeader()
	n.page.Dirty = true
}

// GetCell decodes the cell at index i.
func (n *Node) GetCell(i int) (Cell, error) {
	if i < 0 || i >= n.NumCells() {
		return Cell{}, fmt.Errorf("%w: cell %d, have %d", ErrBadCellNo, i, n.NumCells())
	}
	off := n.page.cellPointer(i)
	cell, _, err := DecodeCell(n.page.Header.Type, n.page.Data[off:])
	if err != nil {
		return Cell{}, err
	}
	return cell, nil
}

// freeSpace returns the number of bytes available between the end of
// the cell pointer array and the start of the cell content area.
func (n *Node) freeSpace() int {
	pointerArrayEnd := n.page.cellPointerArrayBase() + 2*n.NumCells()
	return int(n.page.Header.CellsOffset) - pointerArrayEnd
}

// WouldOverflow reports whether inserting a cell of the given encoded
// size would not fit in the remaining free space: a new 2-byte pointer
// slot plus the cell body.
func (n *Node) WouldOverflow(cellSize int) bool {
	return n.freeSpace() < cellSize+2
}

// InsertCellAt inserts cell so that, once inserted, it occupies index i
// among the node's cells (i.e. the cell pointer array is shifted to make
// room at i). Callers are responsible for choosing i so that key order
// is preserved.
func (n *Node) InsertCellAt(i int, cell Cell) error {
	size := cell.EncodedSize()
	if n.WouldOverflow(size) {
		return fmt.Errorf("%w: cell of size %d does not fit", ErrNoMem, size)
	}
	if i < 0 || i > n.NumCells() {
		return fmt.Errorf("%w: insert index %d, have %d cells", ErrBadCellNo, i, n.NumCells())
	}

	newOffset := n.page.Header.CellsOffset - uint16(size)
	cell.Encode(n.page.Data[newOffset:])

	// Shift pointers [i, NumCells) right by one slot to open index i.
	for j := n.NumCells(); j > i; j-- {
		n.page.setCellPointer(j, n.page.cellPointer(j-1))
	}
	n.page.setCellPointer(i, newOffset)

	n.page.Header.CellsOffset = newOffset
	n.page.Header.NumCells++
	n.page.Header.FreeBlock += 2
	n.page.writeHeader()
	n.page.Dirty = true
	return nil
}

// findChildIndex returns the virtual child index an internal node would
// descend into for key. The subtree reached through an internal cell
// holds every key less than or equal to that cell's own key, so the
// right child is the first cell whose key is greater than or equal to
// the search key, or NumCells() (meaning the node's RightPage) if key
// is greater than every cell's key.
func (n *Node) findChildIndex(key uint32) (int, error) {
	for i := 0; i < n.NumCells(); i++ {
		c, err := n.GetCell(i)
		if err != nil {
			return 0, err
		}
		if key <= c.SortKey() {
			return i, nil
		}
	}
	return n.NumCells(), nil
}

// childPageAt resolves a virtual child index (as returned by
// findChildIndex) to an actual page number.
func (n *Node) childPageAt(idx int) (uint32, error) {
	if idx == n.NumCells() {
		return n.page.Header.RightPage, nil
	}
	c, err := n.GetCell(idx)
	if err != nil {
		return 0, err
	}
	return c.ChildPage(), nil
}

// setChildAt overwrites the child pointer of the internal cell (table or
// index) at index i in place, leaving its key untouched. Both internal
// cell encodings store the child page as the first 4 bytes, so this
// never needs to move any bytes around.
func (n *Node) setChildAt(i int, child uint32) {
	off := n.page.cellPointer(i)
	binary.BigEndian.PutUint32(n.page.Data[off:off+4], child)
	n.page.Dirty = true
}

// findInsertIndex returns the index at which a cell with the given key
// should be inserted to keep table cells in ascending key order, and
// whether a cell with that exact key already exists.
func (n *Node) findInsertIndex(key uint32) (int, bool, error) {
	lo, hi := 0, n.NumCells()
	for lo < hi {
		mid := (lo + hi) / 2
		c, err := n.GetCell(mid)
		if err != nil {
			return 0, false, err
		}
		if c.SortKey() < key {
			lo = mid + 1
		} else if c.SortKey() > key {
			hi = mid
		} else {
			return mid, true, nil
		}
	}
	return lo, false, nil
}
