//go:build !unix

package impl

import (
	"syscall"
)

func SyscallReuseAddr(network string, address string, c syscall.RawConn) error {
	return nil
}
