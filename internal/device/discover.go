package device

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// hidBusUSB is the HID_ID bus field for USB devices.
const hidBusUSB = 0x0003

// Discover scans sysfs for a hidraw node belonging to vendor:product and
// returns its /dev path.
func Discover(sysfsRoot, devRoot string, vendor, product uint16) (string, error) {
	pattern := filepath.Join(sysfsRoot, "class", "hidraw", "hidraw*")
	nodes, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("%w: scan %s: %v", ErrDeviceUnavailable, pattern, err)
	}
	sort.Strings(nodes)

	for _, node := range nodes {
		bus, v, p, ok := readHIDID(filepath.Join(node, "device", "uevent"))
		if !ok || bus != hidBusUSB || v != vendor || p != product {
			continue
		}
		return filepath.Join(devRoot, filepath.Base(node)), nil
	}
	return "", fmt.Errorf("%w: no hidraw node for %04x:%04x", ErrDeviceUnavailable, vendor, product)
}

func readHIDID(path string) (bus, vendor, product uint16, ok bool) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, false
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		value, found := strings.CutPrefix(strings.TrimSpace(scanner.Text()), "HID_ID=")
		if !found {
			continue
		}
		return parseHIDID(value)
	}
	return 0, 0, 0, false
}

// parseHIDID parses "0003:000004D8:0000F372".
func parseHIDID(value string) (bus, vendor, product uint16, ok bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	var fields [3]uint16
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 16, 32)
		if err != nil || n > 0xFFFF {
			return 0, 0, 0, false
		}
		fields[i] = uint16(n)
	}
	return fields[0], fields[1], fields[2], true
}
