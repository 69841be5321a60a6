// Package vfs provides the filesystems CFDP transactions write into.
package vfs

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/kaidokert/fsfw-sub000/std/cfdp"
)

var (
	ErrIsDirectory = errors.New("vfs: path is a directory")
	ErrOutsideRoot = errors.New("vfs: path escapes the filesystem root")
)

// backend is the set of primitives filestore actions are built from.
type backend interface {
	stat(path string) (exists bool, dir bool)
	readAll(path string) ([]byte, error)
	writeAll(path string, data []byte, appendData bool) error
	remove(path string) error
	rename(from, to string) error
	mkdir(path string) error
	rmdir(path string) error
}

// performAction runs a filestore request against b.
func performAction(b backend, action cfdp.FilestoreActionCode, first, second string) (cfdp.FilestoreStatus, string) {
	exists, dir := b.stat(first)
	isFile := exists && !dir

	switch action {
	case cfdp.FilestoreCreateFile:
		if dir {
			return cfdp.CreateNotAllowed, "is a directory"
		}
		if err := b.writeAll(first, nil, false); err != nil {
			return cfdp.CreateNotAllowed, reason(err)
		}

	case cfdp.FilestoreDeleteFile:
		if !isFile {
			return cfdp.DeleteFileDoesNotExist, ""
		}
		if err := b.remove(first); err != nil {
			return cfdp.DeleteNotAllowed, reason(err)
		}

	case cfdp.FilestoreRenameFile:
		if !isFile {
			return cfdp.RenameOldFileDoesNotExist, ""
		}
		if ok, _ := b.stat(second); ok {
			return cfdp.RenameNewFileAlreadyExists, ""
		}
		if err := b.rename(first, second); err != nil {
			return cfdp.RenameNotAllowed, reason(err)
		}

	case cfdp.FilestoreAppendFile, cfdp.FilestoreReplaceFile:
		if !isFile {
			return cfdp.FirstFileDoesNotExist, ""
		}
		if ok, secondDir := b.stat(second); !ok || secondDir {
			return cfdp.SecondFileDoesNotExist, ""
		}
		data, err := b.readAll(second)
		if err != nil {
			return cfdp.TwoFileNotAllowed, reason(err)
		}
		if err := b.writeAll(first, data, action == cfdp.FilestoreAppendFile); err != nil {
			return cfdp.TwoFileNotAllowed, reason(err)
		}

	case cfdp.FilestoreCreateDirectory:
		if err := b.mkdir(first); err != nil {
			return cfdp.DirectoryCannotBeCreated, reason(err)
		}

	case cfdp.FilestoreRemoveDirectory:
		if !exists || !dir {
			return cfdp.DirectoryDoesNotExist, ""
		}
		if err := b.rmdir(first); err != nil {
			return cfdp.RemoveDirectoryNotAllowed, reason(err)
		}

	case cfdp.FilestoreDenyFile:
		// deny succeeds when the file is already absent
		if isFile {
			if err := b.remove(first); err != nil {
				return cfdp.DenyNotAllowed, reason(err)
			}
		}

	case cfdp.FilestoreDenyDirectory:
		if exists && dir {
			if err := b.rmdir(first); err != nil {
				return cfdp.DenyNotAllowed, reason(err)
			}
		}

	default:
		return cfdp.FilestoreNotPerformed, fmt.Sprintf("unsupported action %s", action)
	}
	return cfdp.FilestoreSuccessful, ""
}

// reason is the short text put in a filestore response message.
func reason(err error) string {
	var perr *fs.PathError
	if errors.As(err, &perr) {
		return perr.Err.Error()
	}
	return err.Error()
}
