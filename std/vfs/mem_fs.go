package vfs

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/kaidokert/fsfw-sub000/std/cfdp"
)

type memEntry struct {
	dir  bool
	data []byte
}

// MemFs is an in-memory filesystem. The root directory always exists;
// parent directories are not required to.
type MemFs struct {
	mutex   sync.RWMutex
	entries map[string]*memEntry
}

func NewMemFs() *MemFs {
	return &MemFs{
		entries: map[string]*memEntry{"/": {dir: true}},
	}
}

func (m *MemFs) String() string {
	return "mem-fs"
}

func memPath(name string) string {
	return path.Clean("/" + name)
}

func (m *MemFs) Create(name string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.writeAllLocked(name, nil, false)
}

func (m *MemFs) Write(name string, offset uint64, data []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	e, err := m.fileLocked(name)
	if err != nil {
		return err
	}
	end := offset + uint64(len(data))
	if end > uint64(len(e.data)) {
		e.data = append(e.data, make([]byte, end-uint64(len(e.data)))...)
	}
	copy(e.data[offset:], data)
	return nil
}

func (m *MemFs) Read(name string, offset uint64, buf []byte) (int, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	e, err := m.fileLocked(name)
	if err != nil {
		return 0, err
	}
	if offset >= uint64(len(e.data)) {
		return 0, nil
	}
	return copy(buf, e.data[offset:]), nil
}

func (m *MemFs) IsDirectory(name string) bool {
	_, dir := m.stat(name)
	return dir
}

// Mkdir creates a directory.
func (m *MemFs) Mkdir(name string) error {
	return m.mkdir(name)
}

// ReadFile returns a copy of a file's content.
func (m *MemFs) ReadFile(name string) ([]byte, error) {
	return m.readAll(name)
}

// Exists reports whether a file or directory exists.
func (m *MemFs) Exists(name string) bool {
	ok, _ := m.stat(name)
	return ok
}

func (m *MemFs) PerformFilestoreAction(action cfdp.FilestoreActionCode, first, second string) (cfdp.FilestoreStatus, string) {
	return performAction(m, action, first, second)
}

func (m *MemFs) fileLocked(name string) (*memEntry, error) {
	p := memPath(name)
	e, ok := m.entries[p]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	if e.dir {
		return nil, &fs.PathError{Op: "open", Path: p, Err: ErrIsDirectory}
	}
	return e, nil
}

func (m *MemFs) writeAllLocked(name string, data []byte, appendData bool) error {
	p := memPath(name)
	e, ok := m.entries[p]
	if ok && e.dir {
		return &fs.PathError{Op: "write", Path: p, Err: ErrIsDirectory}
	}
	if !ok || !appendData {
		m.entries[p] = &memEntry{data: slices.Clone(data)}
		return nil
	}
	e.data = append(e.data, data...)
	return nil
}

func (m *MemFs) stat(name string) (bool, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	e, ok := m.entries[memPath(name)]
	if !ok {
		return false, false
	}
	return true, e.dir
}

func (m *MemFs) readAll(name string) ([]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	e, err := m.fileLocked(name)
	if err != nil {
		return nil, err
	}
	return slices.Clone(e.data), nil
}

func (m *MemFs) writeAll(name string, data []byte, appendData bool) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.writeAllLocked(name, data, appendData)
}

func (m *MemFs) remove(name string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, err := m.fileLocked(name); err != nil {
		return err
	}
	delete(m.entries, memPath(name))
	return nil
}

func (m *MemFs) rename(from, to string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	e, err := m.fileLocked(from)
	if err != nil {
		return err
	}
	delete(m.entries, memPath(from))
	m.entries[memPath(to)] = e
	return nil
}

func (m *MemFs) mkdir(name string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	p := memPath(name)
	if _, ok := m.entries[p]; ok {
		return &fs.PathError{Op: "mkdir", Path: p, Err: fs.ErrExist}
	}
	m.entries[p] = &memEntry{dir: true}
	return nil
}

func (m *MemFs) rmdir(name string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	p := memPath(name)
	if p == "/" {
		return fmt.Errorf("%w: cannot remove root", ErrOutsideRoot)
	}
	prefix := p + "/"
	for other := range m.entries {
		if strings.HasPrefix(other, prefix) {
			return &fs.PathError{Op: "rmdir", Path: p, Err: fs.ErrExist}
		}
	}
	delete(m.entries, p)
	return nil
}
