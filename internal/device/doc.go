// Package device drives the Luxafor flag.
//
// Device is the capability the rest of the program consumes: apply a color or
// turn the indicator off. Luxafor implements it over Linux hidraw, locating the
// flag through sysfs and writing raw output reports. HotplugMonitor listens for
// udev netlink events so an unplugged flag is reopened and restored when it
// comes back.
//
// Every hardware failure is reported as ErrDeviceUnavailable; callers log it
// and continue.
package device
