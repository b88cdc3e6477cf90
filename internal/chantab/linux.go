//go:build linux

// File: internal/chantab/linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux channel I/O: non-blocking native cdev opens plus PTY-backed virtual
// UART creation, grounded on internal/transport/transport_linux.go's
// non-blocking-fd-plus-unix.Errno pattern and reactor/reactor_linux.go's use
// of golang.org/x/sys/unix for raw syscalls.
package chantab

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/momentics/ioc-mediator/api"
)

// Open opens every enabled native channel non-blocking and creates the
// virtual UART as a PTY, symlinked at uartPath. A critical channel's open
// failure aborts the whole table (already-opened fds are closed first); an
// optional channel's failure is logged and the channel stays closed.
func Open(uartPath string) (*Table, error) {
	if err := checkPlatformSentinel(); err != nil {
		return nil, err
	}

	t := newTable()
	for _, id := range t.order {
		e := t.entries[id]
		if e.spec.Kind != api.KindNative || !e.spec.Enabled {
			continue
		}
		fd, err := unix.Open(e.spec.Path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_NOCTTY, 0)
		if err != nil {
			e.openErr = err
			logOpenFailure(e.spec, err)
			if e.spec.Critical {
				t.closeAll()
				return nil, api.NewInitError(api.ErrCodeCriticalChannelOpen,
					fmt.Sprintf("critical channel %s", e.spec.Name), err)
			}
			continue
		}
		e.fd = uintptr(fd)
		e.open = true
	}

	masterFD, slavePath, err := openVirtualUART()
	if err != nil {
		t.closeAll()
		return nil, api.NewInitError(api.ErrCodeCriticalChannelOpen, "virtual UART", err)
	}
	if err := republishSymlink(uartPath, slavePath); err != nil {
		unix.Close(int(masterFD))
		t.closeAll()
		return nil, api.NewInitError(api.ErrCodeCriticalChannelOpen, "virtual UART symlink", err)
	}
	uartEntry := t.entries[api.ChVirtualUART]
	uartEntry.fd = masterFD
	uartEntry.open = true
	t.uartPath = uartPath
	return t, nil
}

// Close closes every open channel fd and removes the virtual UART symlink.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeAllLocked()
	if t.uartPath != "" {
		_ = os.Remove(t.uartPath)
	}
	return nil
}

func (t *Table) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeAllLocked()
}

func (t *Table) closeAllLocked() {
	for _, id := range t.order {
		e := t.entries[id]
		if e.open {
			unix.Close(int(e.fd))
			e.open = false
		}
	}
}

// Recv reads up to len(buf) bytes from id. A non-blocking empty read
// (EAGAIN) is not an error: it means the channel had nothing ready when the
// reactor woke the caller, and returns (0, nil).
func (t *Table) Recv(id api.ChannelID, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, api.ErrInvalidArgument
	}
	e, err := t.get(id)
	if err != nil {
		return 0, err
	}
	n, err := unix.Read(int(e.fd), buf)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// Xmit writes buf to id. A non-blocking full-buffer write (EAGAIN) is
// reported to the caller as zero bytes written, no error: the retry policy
// is left to the caller rather than blocking here.
func (t *Table) Xmit(id api.ChannelID, buf []byte) (int, error) {
	e, err := t.get(id)
	if err != nil {
		return 0, err
	}
	n, err := unix.Write(int(e.fd), buf)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// openVirtualUART allocates a PTY pair via /dev/ptmx, unlocks the slave,
// puts the master side into raw mode, and returns the master fd plus the
// slave's device path. The C original also calls grantpt before unlockpt;
// on Linux that only fixes up the slave's owner/group for interactive
// logins (devpts already mounts with the right gid for this use), and the
// permission bits it would otherwise set are overwritten anyway by the
// explicit chmod 0660 republishSymlink applies to the published path, so
// grantpt itself is not needed here.
func openVirtualUART() (uintptr, string, error) {
	fd, err := unix.Open("/dev/ptmx", unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return 0, "", fmt.Errorf("open /dev/ptmx: %w", err)
	}

	if err := unix.IoctlSetPointerInt(fd, unix.TIOCSPTLCK, 0); err != nil {
		unix.Close(fd)
		return 0, "", fmt.Errorf("unlockpt: %w", err)
	}
	n, err := unix.IoctlGetInt(fd, unix.TIOCGPTN)
	if err != nil {
		unix.Close(fd)
		return 0, "", fmt.Errorf("ptsname: %w", err)
	}

	if err := setRawMode(fd); err != nil {
		unix.Close(fd)
		return 0, "", fmt.Errorf("set raw mode: %w", err)
	}

	return uintptr(fd), fmt.Sprintf("/dev/pts/%d", n), nil
}

// setRawMode disables line discipline processing on fd so the virtual
// UART's byte stream reaches the CBC framer unmodified.
func setRawMode(fd int) error {
	term, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}
	term.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	term.Oflag &^= unix.OPOST
	term.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	term.Cflag &^= unix.CSIZE | unix.PARENB
	term.Cflag |= unix.CS8
	term.Cc[unix.VMIN] = 1
	term.Cc[unix.VTIME] = 0
	return unix.IoctlSetTermios(fd, unix.TCSETS, term)
}

// republishSymlink idempotently points uartPath at the pty slave and chmods
// it to 0660. A stale entry at uartPath that isn't there (ENOENT) is fine to
// ignore; any other removal failure aborts, matching ioc.c's
// unlink(dev_name)-then-goto-err on a non-ENOENT error.
func republishSymlink(uartPath, slavePath string) error {
	if err := os.Remove(uartPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale virtual UART symlink %s: %w", uartPath, err)
	}
	if err := os.Symlink(slavePath, uartPath); err != nil {
		return err
	}
	if err := os.Chmod(uartPath, 0o660); err != nil {
		return fmt.Errorf("chmod virtual UART symlink %s: %w", uartPath, err)
	}
	return nil
}
