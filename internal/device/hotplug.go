package device

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"luxafor/internal/logging"
)

// Reattacher is the part of a driver the hotplug monitor manipulates.
type Reattacher interface {
	Invalidate(devname string) bool
	Reattach(ctx context.Context) error
}

// FaultFunc receives a panic recovered on the monitor goroutine.
type FaultFunc func(value any)

// HotplugMonitor listens for hidraw add/remove uevents so the flag can be
// unplugged and replugged while watch mode is running.
type HotplugMonitor struct {
	target  Reattacher
	devRoot string
	logger  *slog.Logger
	onFault FaultFunc

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewHotplugMonitor creates a monitor for target. A nil target yields nil.
// onFault is called if handling an event panics; the monitor stops afterwards.
func NewHotplugMonitor(target Reattacher, devRoot string, logger *slog.Logger, onFault FaultFunc) *HotplugMonitor {
	if target == nil {
		return nil
	}
	if strings.TrimSpace(devRoot) == "" {
		devRoot = "/dev"
	}
	return &HotplugMonitor{
		target:  target,
		devRoot: devRoot,
		logger:  logging.NewComponentLogger(logger, "hotplug"),
		onFault: onFault,
	}
}

// Start begins listening for uevents. Failing to open the netlink socket is
// logged and otherwise ignored; the driver still reopens lazily on the next write.
func (m *HotplugMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(m.logger, "failed to connect to netlink socket; hotplug detection disabled", "netlink_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure the process may open NETLINK_KOBJECT_UEVENT sockets"),
			logging.String(logging.FieldImpact, "replugged flag is restored on the next presence change only"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, conn, quit)

	m.logger.Info("hotplug monitor started",
		logging.String(logging.FieldEventType, "hotplug_monitor_started"),
	)
	return nil
}

// Stop shuts down the monitor.
func (m *HotplugMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("hotplug monitor stopped",
		logging.String(logging.FieldEventType, "hotplug_monitor_stopped"),
	)
}

// Running reports whether the monitor is active.
func (m *HotplugMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *HotplugMonitor) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, buildMatcher())
	defer close(monitorQuit)

	for {
		select {
		case <-ctx.Done():
			return
		case <-quit:
			return
		case uevent := <-queue:
			if !m.handle(ctx, uevent) {
				return
			}
		case err := <-errs:
			logging.WarnWithContext(m.logger, "netlink monitor error", "netlink_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "hotplug detection may be affected"),
			)
		}
	}
}

// buildMatcher matches SUBSYSTEM=hidraw with ACTION add or remove.
func buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "hidraw",
		},
	})
	return rules
}

// handle processes one uevent and reports false if it panicked.
func (m *HotplugMonitor) handle(ctx context.Context, uevent netlink.UEvent) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			m.fault(r)
		}
	}()
	m.handleEvent(ctx, uevent)
	return true
}

func (m *HotplugMonitor) fault(value any) {
	if m.onFault != nil {
		m.onFault(value)
		return
	}
	logging.ErrorWithContext(m.logger, "hotplug handler fault; monitor stopped", "hotplug_fault",
		logging.String("panic", fmt.Sprint(value)),
		logging.String(logging.FieldErrorHint, "report this crash with the log file attached"),
	)
}

func (m *HotplugMonitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	devname := m.deviceName(uevent)
	if devname == "" {
		m.logger.Debug("ignoring event without device name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}

	switch uevent.Action {
	case netlink.REMOVE:
		if m.target.Invalidate(devname) {
			m.logger.Info("flag unplugged",
				logging.String(logging.FieldEventType, "hotplug_remove"),
				logging.String("device", devname),
			)
		}
	case netlink.ADD:
		m.logger.Debug("hidraw node added", logging.String("device", devname))
		if err := m.target.Reattach(ctx); err != nil {
			m.logger.Debug("reattach skipped",
				logging.String("device", devname),
				logging.Error(err),
			)
		}
	}
}

// deviceName resolves the /dev path of a uevent. DEVNAME is relative
// ("hidraw3") in kernel uevents.
func (m *HotplugMonitor) deviceName(uevent netlink.UEvent) string {
	name := uevent.Env["DEVNAME"]
	if name == "" {
		devpath := uevent.Env["DEVPATH"]
		if devpath == "" {
			return ""
		}
		name = filepath.Base(devpath)
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(m.devRoot, name)
}
