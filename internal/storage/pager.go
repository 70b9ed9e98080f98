package storage

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Pager is the collaborator the B-Tree engine consumes to turn page
// numbers into bytes. Implementations own the backing file and the page
// cache; the engine never touches an *os.File directly.
type Pager interface {
	ReadHeader() ([]byte, error)
	WriteHeader(header []byte) error
	SetPageSize(size uint16) error
	PageSize() uint16
	AllocatePage() (uint32, error)
	ReadPage(pageNo uint32) (*MemPage, error)
	WritePage(page *MemPage) error
	ReleasePage(page *MemPage) error
	Close() error
}

// filePager is the concrete, single-process, file-backed Pager.
type filePager struct {
	file      *os.File
	pageSize  uint16
	pageCount uint32
	cache     map[uint32]*MemPage
	log       *logrus.Entry
}

// OpenFile opens (creating if necessary) a database file at path and
// returns a ready-to-use Pager. pageSize is only consulted when the
// file is being created; an existing file's own header governs its
// page size.
func OpenFile(path string, pageSize uint16, log *logrus.Entry) (Pager, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	p := &filePager{
		file:     f,
		pageSize: pageSize,
		cache:    make(map[uint32]*MemPage),
		log:      log.WithField("component", "pager"),
	}

	if info.Size() == 0 {
		p.log.WithField("path", path).Debug("creating new database file")
		header := NewFileHeader(pageSize)
		buf := make([]byte, FileHeaderSize)
		header.Encode(buf)
		if _, err := f.WriteAt(buf, 0); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, err)
		}
		return p, nil
	}

	headerBuf := make([]byte, FileHeaderSize)
	if _, err := f.ReadAt(headerBuf, 0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	header, err := DecodeFileHeader(headerBuf)
	if err != nil {
		return nil, err
	}
	p.pageSize = header.PageSize
	p.pageCount = uint32(info.Size()) / uint32(header.PageSize)
	return p, nil
}

func (p *filePager) ReadHeader() ([]byte, error) {
	buf := make([]byte, FileHeaderSize)
	if _, err := p.file.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return buf, nil
}

func (p *filePager) WriteHeader(header []byte) error {
	if len(header) != FileHeaderSize {
		return fmt.Errorf("%w: header must be %d bytes", ErrCorruptHeader, FileHeaderSize)
	}
	if _, err := p.file.WriteAt(header, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

func (p *filePager) SetPageSize(size uint16) error {
	if p.pageCount > 0 {
		return fmt.Errorf("storage: cannot change page size of a non-empty file")
	}
	p.pageSize = size
	return nil
}

func (p *filePager) PageSize() uint16 { return p.pageSize }

// AllocatePage reserves the next logical page number. The backing bytes
// are materialized lazily by the first ReadPage/WritePage against it.
func (p *filePager) AllocatePage() (uint32, error) {
	p.pageCount++
	pageNo := p.pageCount
	p.log.WithField("page", pageNo).Debug("allocated page")
	return pageNo, nil
}

func (p *filePager) pageOffset(pageNo uint32) int64 {
	return int64(pageNo-1) * int64(p.pageSize)
}

// ReadPage returns the page from cache if present, otherwise reads it
// from disk. A read past the current end of file is not an error: it
// yields a zero-filled buffer, matching a just-allocated empty page.
func (p *filePager) ReadPage(pageNo uint32) (*MemPage, error) {
	if pageNo < 1 || pageNo > p.pageCount {
		return nil, fmt.Errorf("%w: %d", ErrBadPageNo, pageNo)
	}
	if cached, ok := p.cache[pageNo]; ok {
		cached.refCount++
		return cached, nil
	}

	data := make([]byte, p.pageSize)
	n, err := p.file.ReadAt(data, p.pageOffset(pageNo))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if n < int(p.pageSize) {
		// Unwritten tail of a just-allocated page: zero-pad it rather
		// than treating a short read as corruption.
		for i := n; i < len(data); i++ {
			data[i] = 0
		}
	}

	page, err := parseMemPage(pageNo, data)
	if err != nil {
		return nil, err
	}
	page.refCount = 1
	p.cache[pageNo] = page
	return page, nil
}

// WritePage persists page immediately and keeps it cached.
func (p *filePager) WritePage(page *MemPage) error {
	if page.PageNo < 1 || page.PageNo > p.pageCount {
		return fmt.Errorf("%w: %d", ErrBadPageNo, page.PageNo)
	}
	page.writeHeader()
	if _, err := p.file.WriteAt(page.Data, p.pageOffset(page.PageNo)); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	page.Dirty = false
	p.cache[page.PageNo] = page
	return nil
}

// ReleasePage drops a reference acquired by ReadPage (AllocatePage takes
// none). Releasing a page with no outstanding reference is a programmer
// error.
func (p *filePager) ReleasePage(page *MemPage) error {
	cached, ok := p.cache[page.PageNo]
	if !ok || cached.refCount <= 0 {
		return fmt.Errorf("%w: page %d released without a matching read", ErrBadPageNo, page.PageNo)
	}
	cached.refCount--
	return nil
}

func (p *filePager) Close() error {
	if err := p.file.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return p.file.Close()
}
