package storage

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// RootPageNo is the fixed page number of the table B-Tree's root. It
// never changes identity: when the root overflows, its content is
// relocated to a freshly allocated page and the root page is rewritten
// in place as a one-child routing node, so every external reference to
// "the table" can keep pointing at page 1. Index trees get their own
// root page, allocated by CreateIndex, and are addressed by that page
// number instead.
const RootPageNo uint32 = 1

// BTree is the page-managed B-Tree engine: it opens/creates the backing
// file through a Pager and exposes Find/InsertInTable/InsertInIndex over
// any number of table and index trees living in the same file, each
// identified by its root page number.
type BTree struct {
	pager Pager
	log   *logrus.Entry
}

// Open readies a BTree over pager, creating an empty table root leaf
// page at RootPageNo if the file has no pages yet.
func Open(pager Pager, log *logrus.Entry) (*BTree, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	t := &BTree{pager: pager, log: log.WithField("component", "btree")}

	root, err := pager.ReadPage(RootPageNo)
	if err == nil {
		return t, pager.ReleasePage(root)
	}
	if !errors.Is(err, ErrBadPageNo) {
		return nil, err
	}

	pageNo, err := pager.AllocatePage()
	if err != nil {
		return nil, err
	}
	if pageNo != RootPageNo {
		return nil, fmt.Errorf("storage: expected first page to be %d, got %d", RootPageNo, pageNo)
	}
	root, err = pager.ReadPage(RootPageNo)
	if err != nil {
		return nil, err
	}
	LoadNode(root).InitEmpty(PageTypeLeaf)
	if err := pager.WritePage(root); err != nil {
		return nil, err
	}
	if err := pager.ReleasePage(root); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateIndex allocates a fresh, empty index-leaf page and returns its
// page number as the root of a new index B-Tree.
func (t *BTree) CreateIndex() (uint32, error) {
	pageNo, err := t.pager.AllocatePage()
	if err != nil {
		return 0, err
	}
	node, err := t.loadNode(pageNo)
	if err != nil {
		return 0, err
	}
	node.InitEmpty(PageTypeLeafIndex)
	if err := t.writeNode(node); err != nil {
		t.releaseNode(node)
		return 0, err
	}
	if err := t.releaseNode(node); err != nil {
		return 0, err
	}
	return pageNo, nil
}

func (t *BTree) loadNode(pageNo uint32) (*Node, error) {
	page, err := t.pager.ReadPage(pageNo)
	if err != nil {
		return nil, err
	}
	return LoadNode(page), nil
}

func (t *BTree) writeNode(n *Node) error {
	return t.pager.WritePage(n.page)
}

func (t *BTree) releaseNode(n *Node) error {
	return t.pager.ReleasePage(n.page)
}

// Close releases the underlying pager.
func (t *BTree) Close() error {
	return t.pager.Close()
}

// Find returns the cell stored under key in the tree rooted at root, or
// ErrNotFound.
func (t *BTree) Find(root uint32, key uint32) (Cell, error) {
	pageNo := root
	for {
		node, err := t.loadNode(pageNo)
		if err != nil {
			return Cell{}, err
		}
		if node.IsLeaf() {
			idx, exists, err := node.findInsertIndex(key)
			if err != nil {
				t.releaseNode(node)
				return Cell{}, err
			}
			if !exists {
				t.releaseNode(node)
				return Cell{}, ErrNotFound
			}
			cell, err := node.GetCell(idx)
			t.releaseNode(node)
			return cell, err
		}

		childIdx, err := node.findChildIndex(key)
		if err != nil {
			t.releaseNode(node)
			return Cell{}, err
		}
		childPageNo, err := node.childPageAt(childIdx)
		t.releaseNode(node)
		if err != nil {
			return Cell{}, err
		}
		pageNo = childPageNo
	}
}

// InsertInTable adds a new row under key with the given payload to the
// table tree rooted at root, growing the tree (including, pre-emptively,
// the root) whenever a node along the descent path would not have room
// for the new cell.
func (t *BTree) InsertInTable(root uint32, key uint32, payload []byte) error {
	cell := NewTableLeafCell(key, payload)
	return t.insert(root, key, cell)
}

// InsertInIndex records that keyIdx maps to the table row keyPk in the
// index tree rooted at root. A second call with the same keyIdx returns
// ErrDuplicate.
func (t *BTree) InsertInIndex(root uint32, keyIdx, keyPk uint32) error {
	cell := NewIndexLeafCell(keyIdx, keyPk)
	return t.insert(root, keyIdx, cell)
}

func (t *BTree) insert(root uint32, key uint32, cell Cell) error {
	rootNode, err := t.loadNode(root)
	if err != nil {
		return err
	}
	if rootNode.WouldOverflow(cell.EncodedSize()) {
		if err := t.growRoot(rootNode); err != nil {
			t.releaseNode(rootNode)
			return err
		}
	}
	t.releaseNode(rootNode)

	return t.insertNonFull(root, key, cell)
}

// internalTypeFor returns the internal node type that routes over leaves
// of type t: table-internal over table-leaf, index-internal over
// index-leaf.
func internalTypeFor(t PageType) PageType {
	if t.IsTable() {
		return PageTypeInternal
	}
	return PageTypeInternalIndex
}

// growRoot relocates the root's current content to a freshly allocated
// page and reinitializes the root page as an internal node (of the type
// matching the tree: table-internal or index-internal) with a single
// child, the relocated content, adding one level to the tree without
// altering any key's logical position.
func (t *BTree) growRoot(root *Node) error {
	newPageNo, err := t.pager.AllocatePage()
	if err != nil {
		return err
	}
	newNode, err := t.loadNode(newPageNo)
	if err != nil {
		return err
	}
	newNode.InitEmpty(root.Type())
	for i := 0; i < root.NumCells(); i++ {
		c, err := root.GetCell(i)
		if err != nil {
			t.releaseNode(newNode)
			return err
		}
		if err := newNode.InsertCellAt(i, c); err != nil {
			t.releaseNode(newNode)
			return err
		}
	}
	if !root.IsLeaf() {
		newNode.SetRightPage(root.RightPage())
	}
	if err := t.writeNode(newNode); err != nil {
		t.releaseNode(newNode)
		return err
	}
	if err := t.releaseNode(newNode); err != nil {
		return err
	}

	root.InitEmpty(internalTypeFor(root.Type()))
	root.SetRightPage(newPageNo)
	return t.writeNode(root)
}

// insertNonFull descends to the leaf that should hold key, splitting any
// child along the way whose free space could not accommodate cell.
func (t *BTree) insertNonFull(pageNo uint32, key uint32, cell Cell) error {
	node, err := t.loadNode(pageNo)
	if err != nil {
		return err
	}

	if node.IsLeaf() {
		defer t.releaseNode(node)
		idx, exists, err := node.findInsertIndex(key)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicate
		}
		if err := node.InsertCellAt(idx, cell); err != nil {
			return err
		}
		return t.writeNode(node)
	}

	childIdx, err := node.findChildIndex(key)
	if err != nil {
		t.releaseNode(node)
		return err
	}
	childPageNo, err := node.childPageAt(childIdx)
	if err != nil {
		t.releaseNode(node)
		return err
	}

	child, err := t.loadNode(childPageNo)
	if err != nil {
		t.releaseNode(node)
		return err
	}

	if child.WouldOverflow(cell.EncodedSize()) {
		childIsTable := child.Type().IsTable()
		sepKey, sepPk, newPageNo, err := t.split(child)
		t.releaseNode(child)
		if err != nil {
			t.releaseNode(node)
			return err
		}

		var sep Cell
		if childIsTable {
			sep = NewTableInternalCell(sepKey, childPageNo)
		} else {
			sep = NewIndexInternalCell(sepKey, sepPk, childPageNo)
		}
		if err := node.InsertCellAt(childIdx, sep); err != nil {
			t.releaseNode(node)
			return err
		}
		if childIdx == node.NumCells()-1 {
			node.SetRightPage(newPageNo)
		} else {
			node.setChildAt(childIdx+1, newPageNo)
		}
		if err := t.writeNode(node); err != nil {
			t.releaseNode(node)
			return err
		}
		t.releaseNode(node)

		if key <= sepKey {
			return t.insertNonFull(childPageNo, key, cell)
		}
		return t.insertNonFull(newPageNo, key, cell)
	}

	t.releaseNode(child)
	t.releaseNode(node)
	return t.insertNonFull(childPageNo, key, cell)
}

// split relocates the upper half of node's cells into a freshly
// allocated sibling page, leaving the lower half in node (same page
// number). It returns the key (and, for an index-leaf or index-internal
// split, the keyPk) promoted to the parent as a separator, and the new
// sibling's page number.
//
// Leaf splits (table-leaf and index-leaf alike) duplicate the median
// cell into the lower half in addition to promoting it: a leaf-level
// scan (Cursor) only ever visits leaf cells, so a tree's every entry
// must stay reachable there even after its key gets promoted as a
// routing separator. Internal splits (table-internal, index-internal)
// promote the median and remove it from both halves, since internal
// cells carry no payload of their own to preserve; the median's child
// pointer becomes the lower half's right pointer.
func (t *BTree) split(node *Node) (sepKey uint32, sepPk uint32, newPageNo uint32, err error) {
	n := node.NumCells()
	cells := make([]Cell, n)
	for i := 0; i < n; i++ {
		c, err := node.GetCell(i)
		if err != nil {
			return 0, 0, 0, err
		}
		cells[i] = c
	}

	newPageNo, err = t.pager.AllocatePage()
	if err != nil {
		return 0, 0, 0, err
	}
	newNode, err := t.loadNode(newPageNo)
	if err != nil {
		return 0, 0, 0, err
	}
	newNode.InitEmpty(node.Type())

	mid := n / 2

	if node.IsLeaf() {
		left := cells[:mid+1]
		right := cells[mid+1:]
		sepKey = cells[mid].SortKey()
		sepPk = cells[mid].KeyPk

		node.InitEmpty(node.Type())
		for i, c := range left {
			if err := node.InsertCellAt(i, c); err != nil {
				t.releaseNode(newNode)
				return 0, 0, 0, err
			}
		}
		for i, c := range right {
			if err := newNode.InsertCellAt(i, c); err != nil {
				t.releaseNode(newNode)
				return 0, 0, 0, err
			}
		}
		if err := t.writeNode(node); err != nil {
			t.releaseNode(newNode)
			return 0, 0, 0, err
		}
		if err := t.writeNode(newNode); err != nil {
			t.releaseNode(newNode)
			return 0, 0, 0, err
		}
		t.releaseNode(newNode)
		return sepKey, sepPk, newPageNo, nil
	}

	median := cells[mid]
	left := cells[:mid]
	right := cells[mid+1:]
	sepKey = median.SortKey()
	if node.Type() == PageTypeInternalIndex {
		sepPk = median.KeyPk
	}

	var oldRightPage uint32
	if !node.IsLeaf() {
		oldRightPage = node.RightPage()
	}

	node.InitEmpty(node.Type())
	for i, c := range left {
		if err := node.InsertCellAt(i, c); err != nil {
			t.releaseNode(newNode)
			return 0, 0, 0, err
		}
	}
	if !node.IsLeaf() {
		node.SetRightPage(median.ChildPage())
	}

	for i, c := range right {
		if err := newNode.InsertCellAt(i, c); err != nil {
			t.releaseNode(newNode)
			return 0, 0, 0, err
		}
	}
	if !newNode.IsLeaf() {
		newNode.SetRightPage(oldRightPage)
	}

	if err := t.writeNode(node); err != nil {
		t.releaseNode(newNode)
		return 0, 0, 0, err
	}
	if err := t.writeNode(newNode); err != nil {
		t.releaseNode(newNode)
		return 0, 0, 0, err
	}
	t.releaseNode(newNode)
	return sepKey, sepPk, newPageNo, nil
}
