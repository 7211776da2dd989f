package device

import (
	"context"
	"errors"
	"testing"

	"github.com/pilebones/go-udev/netlink"
)

type fakeReattacher struct {
	invalidated []string
	reattached  int
	reattachErr error
}

func (f *fakeReattacher) Invalidate(devname string) bool {
	f.invalidated = append(f.invalidated, devname)
	return true
}

func (f *fakeReattacher) Reattach(context.Context) error {
	f.reattached++
	return f.reattachErr
}

func TestNewHotplugMonitor(t *testing.T) {
	if m := NewHotplugMonitor(nil, "", nil, nil); m != nil {
		t.Fatal("expected nil monitor for nil target")
	}
	m := NewHotplugMonitor(&fakeReattacher{}, "", nil, nil)
	if m == nil || m.devRoot != "/dev" {
		t.Fatalf("expected default dev root, got %+v", m)
	}
	if m.Running() {
		t.Fatal("unstarted monitor should not be running")
	}
	m.Stop()

	var nilMonitor *HotplugMonitor
	nilMonitor.Stop()
	if err := nilMonitor.Start(context.Background()); err != nil {
		t.Fatalf("Start on nil monitor: %v", err)
	}
}

func TestHotplugMatcher(t *testing.T) {
	matcher := buildMatcher()
	for _, action := range []netlink.KObjAction{netlink.ADD, netlink.REMOVE} {
		if !matcher.Evaluate(netlink.UEvent{Action: action, Env: map[string]string{"SUBSYSTEM": "hidraw"}}) {
			t.Errorf("expected %s hidraw event to match", action)
		}
	}
	if matcher.Evaluate(netlink.UEvent{Action: netlink.CHANGE, Env: map[string]string{"SUBSYSTEM": "hidraw"}}) {
		t.Error("change events should not match")
	}
	if matcher.Evaluate(netlink.UEvent{Action: netlink.ADD, Env: map[string]string{"SUBSYSTEM": "block"}}) {
		t.Error("non-hidraw events should not match")
	}
}

func TestHotplugHandleEvent(t *testing.T) {
	target := &fakeReattacher{}
	m := NewHotplugMonitor(target, "/dev", nil, nil)
	ctx := context.Background()

	m.handleEvent(ctx, netlink.UEvent{Action: netlink.REMOVE, Env: map[string]string{"DEVNAME": "hidraw3"}})
	if len(target.invalidated) != 1 || target.invalidated[0] != "/dev/hidraw3" {
		t.Fatalf("unexpected invalidations %v", target.invalidated)
	}

	target.reattachErr = errors.New("not present")
	m.handleEvent(ctx, netlink.UEvent{Action: netlink.ADD, Env: map[string]string{"DEVPATH": "/devices/pci0000:00/usb1/hidraw/hidraw4"}})
	if target.reattached != 1 {
		t.Fatalf("expected one reattach, got %d", target.reattached)
	}

	m.handleEvent(ctx, netlink.UEvent{Action: netlink.ADD, Env: map[string]string{}})
	if target.reattached != 1 {
		t.Fatal("events without a device name should be ignored")
	}
}

type panickingReattacher struct{ fakeReattacher }

func (p *panickingReattacher) Reattach(context.Context) error {
	panic("reattach exploded")
}

func TestHotplugHandlePanicReachesFaultHandler(t *testing.T) {
	var faults []any
	m := NewHotplugMonitor(&panickingReattacher{}, "/dev", nil, func(value any) {
		faults = append(faults, value)
	})
	ctx := context.Background()

	if !m.handle(ctx, netlink.UEvent{Action: netlink.REMOVE, Env: map[string]string{"DEVNAME": "hidraw3"}}) {
		t.Fatal("remove event should be handled normally")
	}
	if m.handle(ctx, netlink.UEvent{Action: netlink.ADD, Env: map[string]string{"DEVNAME": "hidraw3"}}) {
		t.Fatal("panicking event should stop the loop")
	}
	if len(faults) != 1 || faults[0] != "reattach exploded" {
		t.Fatalf("unexpected faults %v", faults)
	}
}

func TestHotplugHandlePanicWithoutFaultHandler(t *testing.T) {
	m := NewHotplugMonitor(&panickingReattacher{}, "/dev", nil, nil)
	if m.handle(context.Background(), netlink.UEvent{Action: netlink.ADD, Env: map[string]string{"DEVNAME": "hidraw3"}}) {
		t.Fatal("panicking event should stop the loop")
	}
}
