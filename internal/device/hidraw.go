package device

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// hidiocGRawInfo is _IOR('H', 0x03, struct hidraw_devinfo).
const hidiocGRawInfo = 0x80084803

type hidrawDevInfo struct {
	Bustype uint32
	Vendor  int16
	Product int16
}

// verifyHidraw confirms that an open character device reports the expected
// USB ids. Regular files are accepted as-is so a pinned path can point at a
// capture file.
func verifyHidraw(file *os.File, vendor, product uint16) error {
	var st unix.Stat_t
	if err := unix.Fstat(int(file.Fd()), &st); err != nil {
		return fmt.Errorf("stat %s: %w", file.Name(), err)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFCHR {
		return nil
	}

	var info hidrawDevInfo
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, file.Fd(), uintptr(hidiocGRawInfo), uintptr(unsafe.Pointer(&info)))
	if errno != 0 {
		return fmt.Errorf("HIDIOCGRAWINFO %s: %w", file.Name(), errno)
	}
	if uint16(info.Vendor) != vendor || uint16(info.Product) != product {
		return fmt.Errorf("%s is %04x:%04x, not %04x:%04x",
			file.Name(), uint16(info.Vendor), uint16(info.Product), vendor, product)
	}
	return nil
}
