// File: reactor/nonblock.go
// Author: momentics <momentics@gmail.com>

package reactor

import "golang.org/x/sys/unix"

// setNonblock forces O_NONBLOCK on the descriptor. Serial lines and
// other character devices can reject the SETFL with ENOTTY; that is
// tolerated, every other failure is construction-fatal.
func setNonblock(fd int) error {
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return err
	}
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFL, flags|unix.O_NONBLOCK); err != nil {
		if err == unix.ENOTTY {
			return nil
		}
		return err
	}
	return nil
}
