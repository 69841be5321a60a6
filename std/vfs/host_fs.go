package vfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kaidokert/fsfw-sub000/std/cfdp"
)

// HostFs is the host filesystem confined to a root directory.
// CFDP file names are slash separated and always relative to the root.
type HostFs struct {
	root string
}

// NewHostFs opens root, creating it if needed.
func NewHostFs(root string) (*HostFs, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &HostFs{root: abs}, nil
}

func (h *HostFs) String() string {
	return fmt.Sprintf("host-fs (%s)", h.root)
}

// Root is the absolute root directory.
func (h *HostFs) Root() string {
	return h.root
}

// Resolve maps a CFDP file name to a host path below the root.
func (h *HostFs) Resolve(name string) (string, error) {
	clean := filepath.Clean(string(filepath.Separator) + filepath.FromSlash(name))
	p := filepath.Join(h.root, clean)
	if p != h.root && !strings.HasPrefix(p, h.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, name)
	}
	return p, nil
}

func (h *HostFs) Create(name string) error {
	p, err := h.Resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

func (h *HostFs) Write(name string, offset uint64, data []byte) error {
	p, err := h.Resolve(name)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	_, err = f.WriteAt(data, int64(offset))
	return errors.Join(err, f.Close())
}

func (h *HostFs) Read(name string, offset uint64, buf []byte) (int, error) {
	p, err := h.Resolve(name)
	if err != nil {
		return 0, err
	}
	f, err := os.Open(p)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := f.ReadAt(buf, int64(offset))
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return n, err
}

func (h *HostFs) IsDirectory(name string) bool {
	_, dir := h.stat(name)
	return dir
}

func (h *HostFs) PerformFilestoreAction(action cfdp.FilestoreActionCode, first, second string) (cfdp.FilestoreStatus, string) {
	if _, err := h.Resolve(first); err != nil {
		return cfdp.FilestoreNotPerformed, err.Error()
	}
	if action.RequiresSecondFile() {
		if _, err := h.Resolve(second); err != nil {
			return cfdp.FilestoreNotPerformed, err.Error()
		}
	}
	return performAction(h, action, first, second)
}

func (h *HostFs) stat(name string) (bool, bool) {
	p, err := h.Resolve(name)
	if err != nil {
		return false, false
	}
	st, err := os.Stat(p)
	if err != nil {
		return false, false
	}
	return true, st.IsDir()
}

func (h *HostFs) readAll(name string) ([]byte, error) {
	p, err := h.Resolve(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (h *HostFs) writeAll(name string, data []byte, appendData bool) error {
	p, err := h.Resolve(name)
	if err != nil {
		return err
	}
	flags := os.O_CREATE | os.O_WRONLY
	if appendData {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(p, flags, 0o644)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	return errors.Join(err, f.Close())
}

func (h *HostFs) remove(name string) error {
	p, err := h.Resolve(name)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

func (h *HostFs) rename(from, to string) error {
	src, err := h.Resolve(from)
	if err != nil {
		return err
	}
	dst, err := h.Resolve(to)
	if err != nil {
		return err
	}
	return os.Rename(src, dst)
}

func (h *HostFs) mkdir(name string) error {
	p, err := h.Resolve(name)
	if err != nil {
		return err
	}
	return os.Mkdir(p, 0o755)
}

func (h *HostFs) rmdir(name string) error {
	p, err := h.Resolve(name)
	if err != nil {
		return err
	}
	if p == h.root {
		return fmt.Errorf("%w: cannot remove root", ErrOutsideRoot)
	}
	// os.Remove only deletes empty directories
	return os.Remove(p)
}
