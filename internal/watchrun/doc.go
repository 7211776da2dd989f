// Package watchrun assembles and runs a watch session.
//
// Run wires configuration into concrete components: a per-run log file with a
// luxafor.log pointer, the single-instance lock, the history store, the hidraw
// driver with its hotplug monitor, the gsettings source, the shutdown
// coordinator, and finally the watch controller. Whatever ends the controller,
// the coordinator switches the flag off before Run returns.
package watchrun
