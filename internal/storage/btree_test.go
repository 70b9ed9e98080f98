package storage

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestTree(t *testing.T, pageSize uint16) *BTree {
	t.Helper()
	r := require.New(t)
	path := filepath.Join(t.TempDir(), "tree.db")
	pager, err := OpenFile(path, pageSize, nil)
	r.NoError(err)
	bt, err := Open(pager, nil)
	r.NoError(err)
	return bt
}

func TestInsertAndFindSingleRow(t *testing.T) {
	r := require.New(t)
	bt := openTestTree(t, 4096)
	defer bt.Close()

	r.NoError(bt.InsertInTable(RootPageNo, 1, []byte("row one")))

	cell, err := bt.Find(RootPageNo, 1)
	r.NoError(err)
	r.Equal([]byte("row one"), cell.Payload())
}

func TestFindMissingKey(t *testing.T) {
	r := require.New(t)
	bt := openTestTree(t, 4096)
	defer bt.Close()

	r.NoError(bt.InsertInTable(RootPageNo, 1, []byte("x")))
	_, err := bt.Find(RootPageNo, 99)
	r.ErrorIs(err, ErrNotFound)
}

func TestInsertDuplicateKeyFails(t *testing.T) {
	r := require.New(t)
	bt := openTestTree(t, 4096)
	defer bt.Close()

	r.NoError(bt.InsertInTable(RootPageNo, 1, []byte("x")))
	err := bt.InsertInTable(RootPageNo, 1, []byte("y"))
	r.ErrorIs(err, ErrDuplicate)
}

func TestInsertManyRowsSurvivesLeafSplits(t *testing.T) {
	r := require.New(t)
	bt := openTestTree(t, 512)
	defer bt.Close()

	const n = 500
	for i := uint32(0); i < n; i++ {
		r.NoError(bt.InsertInTable(RootPageNo, i, []byte(fmt.Sprintf("payload-%d", i))))
	}

	for i := uint32(0); i < n; i++ {
		cell, err := bt.Find(RootPageNo, i)
		r.NoError(err, "key %d", i)
		r.Equal(fmt.Sprintf("payload-%d", i), string(cell.Payload()))
	}
}

func TestInsertOutOfOrderRowsSurviveSplitsAndStayFindable(t *testing.T) {
	r := require.New(t)
	bt := openTestTree(t, 512)
	defer bt.Close()

	keys := []uint32{50, 10, 90, 30, 70, 20, 80, 40, 60, 5, 95, 1, 99}
	for _, k := range keys {
		r.NoError(bt.InsertInTable(RootPageNo, k, []byte(fmt.Sprintf("v%d", k))))
	}
	for _, k := range keys {
		cell, err := bt.Find(RootPageNo, k)
		r.NoError(err, "key %d", k)
		r.Equal(fmt.Sprintf("v%d", k), string(cell.Payload()))
	}
}

func TestRootGrowsAcrossMultipleLevels(t *testing.T) {
	r := require.New(t)
	bt := openTestTree(t, 128)
	defer bt.Close()

	const n = 1000
	for i := uint32(0); i < n; i++ {
		r.NoError(bt.InsertInTable(RootPageNo, i, []byte(fmt.Sprintf("p%d", i))))
	}

	root, err := bt.loadNode(RootPageNo)
	r.NoError(err)
	r.False(root.IsLeaf(), "root should have grown into an internal node")
	r.NoError(bt.releaseNode(root))

	for _, k := range []uint32{0, 1, 500, 999} {
		cell, err := bt.Find(RootPageNo, k)
		r.NoError(err)
		r.Equal(fmt.Sprintf("p%d", k), string(cell.Payload()))
	}
}

func TestReopenPreservesData(t *testing.T) {
	r := require.New(t)
	path := filepath.Join(t.TempDir(), "tree.db")

	pager, err := OpenFile(path, 512, nil)
	r.NoError(err)
	bt, err := Open(pager, nil)
	r.NoError(err)
	for i := uint32(0); i < 50; i++ {
		r.NoError(bt.InsertInTable(RootPageNo, i, []byte(fmt.Sprintf("v%d", i))))
	}
	r.NoError(bt.Close())

	pager2, err := OpenFile(path, 512, nil)
	r.NoError(err)
	bt2, err := Open(pager2, nil)
	r.NoError(err)
	defer bt2.Close()

	cell, err := bt2.Find(RootPageNo, 25)
	r.NoError(err)
	r.Equal("v25", string(cell.Payload()))
}

func TestCreateIndexAndInsertFindSingleEntry(t *testing.T) {
	r := require.New(t)
	bt := openTestTree(t, 4096)
	defer bt.Close()

	idxRoot, err := bt.CreateIndex()
	r.NoError(err)
	r.NotEqual(RootPageNo, idxRoot)

	r.NoError(bt.InsertInIndex(idxRoot, 42, 7))

	cell, err := bt.Find(idxRoot, 42)
	r.NoError(err)
	r.Equal(uint32(42), cell.KeyIdx)
	r.Equal(uint32(7), cell.KeyPk)
}

func TestInsertInIndexDuplicateKeyIdxFails(t *testing.T) {
	r := require.New(t)
	bt := openTestTree(t, 4096)
	defer bt.Close()

	idxRoot, err := bt.CreateIndex()
	r.NoError(err)

	r.NoError(bt.InsertInIndex(idxRoot, 42, 7))
	err = bt.InsertInIndex(idxRoot, 42, 99)
	r.ErrorIs(err, ErrDuplicate)
}

func TestIndexTreeSurvivesSplitsAndStaysFindable(t *testing.T) {
	r := require.New(t)
	bt := openTestTree(t, 128)
	defer bt.Close()

	idxRoot, err := bt.CreateIndex()
	r.NoError(err)

	const n = 400
	for i := uint32(0); i < n; i++ {
		r.NoError(bt.InsertInIndex(idxRoot, i, i*10))
	}

	root, err := bt.loadNode(idxRoot)
	r.NoError(err)
	grew := !root.IsLeaf()
	r.NoError(bt.releaseNode(root))
	r.True(grew, "index root should have grown into an internal node")

	for _, k := range []uint32{0, 1, 199, 399} {
		cell, err := bt.Find(idxRoot, k)
		r.NoError(err, "keyIdx %d", k)
		r.Equal(k*10, cell.KeyPk)
	}
}

func TestTableAndIndexTreesCoexistInSameFile(t *testing.T) {
	r := require.New(t)
	bt := openTestTree(t, 512)
	defer bt.Close()

	idxRoot, err := bt.CreateIndex()
	r.NoError(err)

	for i := uint32(0); i < 50; i++ {
		r.NoError(bt.InsertInTable(RootPageNo, i, []byte(fmt.Sprintf("row-%d", i))))
		r.NoError(bt.InsertInIndex(idxRoot, i*2, i))
	}

	row, err := bt.Find(RootPageNo, 10)
	r.NoError(err)
	r.Equal("row-10", string(row.Payload()))

	entry, err := bt.Find(idxRoot, 20)
	r.NoError(err)
	r.Equal(uint32(10), entry.KeyPk)
}
