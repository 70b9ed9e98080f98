package storage

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursorRewindOnEmptyTable(t *testing.T) {
	r := require.New(t)
	bt := openTestTree(t, 4096)
	defer bt.Close()

	c := NewCursor(bt, RootPageNo)
	r.NoError(c.Rewind())
	_, err := c.Current()
	r.ErrorIs(err, ErrNotFound)
}

func TestCursorWalksRowsInKeyOrder(t *testing.T) {
	r := require.New(t)
	bt := openTestTree(t, 512)
	defer bt.Close()

	keys := []uint32{40, 10, 30, 20, 5, 50, 15, 25, 35, 45}
	for _, k := range keys {
		r.NoError(bt.InsertInTable(RootPageNo, k, []byte(fmt.Sprintf("v%d", k))))
	}

	c := NewCursor(bt, RootPageNo)
	r.NoError(c.Rewind())

	var seen []uint32
	for {
		cell, err := c.Current()
		r.NoError(err)
		seen = append(seen, cell.Key)
		if err := c.Next(); err != nil {
			r.ErrorIs(err, ErrCantMove)
			break
		}
	}

	r.Equal([]uint32{5, 10, 15, 20, 25, 30, 35, 40, 45, 50}, seen)
}

func TestCursorWalksBackward(t *testing.T) {
	r := require.New(t)
	bt := openTestTree(t, 512)
	defer bt.Close()

	for i := uint32(0); i < 30; i++ {
		r.NoError(bt.InsertInTable(RootPageNo, i, []byte(fmt.Sprintf("v%d", i))))
	}

	c := NewCursor(bt, RootPageNo)
	r.NoError(c.SeekLast())

	var seen []uint32
	for {
		cell, err := c.Current()
		r.NoError(err)
		seen = append(seen, cell.Key)
		if err := c.Prev(); err != nil {
			r.ErrorIs(err, ErrCantMove)
			break
		}
	}

	r.Len(seen, 30)
	r.Equal(uint32(29), seen[0])
	r.Equal(uint32(0), seen[len(seen)-1])
}

func TestCursorWalksAcrossSplitBoundaries(t *testing.T) {
	r := require.New(t)
	bt := openTestTree(t, 128)
	defer bt.Close()

	const n = 300
	for i := uint32(0); i < n; i++ {
		r.NoError(bt.InsertInTable(RootPageNo, i, []byte(fmt.Sprintf("p%d", i))))
	}

	c := NewCursor(bt, RootPageNo)
	r.NoError(c.Rewind())

	count := uint32(0)
	for {
		cell, err := c.Current()
		r.NoError(err)
		r.Equal(count, cell.Key)
		count++
		if err := c.Next(); err != nil {
			break
		}
	}
	r.Equal(uint32(n), count)
}

func TestCursorWalksIndexTreeInKeyIdxOrder(t *testing.T) {
	r := require.New(t)
	bt := openTestTree(t, 128)
	defer bt.Close()

	idxRoot, err := bt.CreateIndex()
	r.NoError(err)

	keys := []uint32{40, 10, 30, 20, 5, 50, 15, 25, 35, 45}
	for _, k := range keys {
		r.NoError(bt.InsertInIndex(idxRoot, k, k*100))
	}

	c := NewCursor(bt, idxRoot)
	r.NoError(c.Rewind())

	var seen []uint32
	for {
		cell, err := c.Current()
		r.NoError(err)
		seen = append(seen, cell.KeyIdx)
		r.Equal(cell.KeyIdx*100, cell.KeyPk)
		if err := c.Next(); err != nil {
			r.ErrorIs(err, ErrCantMove)
			break
		}
	}

	r.Equal([]uint32{5, 10, 15, 20, 25, 30, 35, 40, 45, 50}, seen)
}
