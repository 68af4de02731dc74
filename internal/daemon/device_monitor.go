package daemon

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"soundlab/internal/config"
	"soundlab/internal/logging"
	"soundlab/internal/mixer"
)

// deviceMonitor listens for udev netlink events on the sound subsystem.
// When an audio card disappears mid-playback the transport is paused so
// the playhead does not drift against a dead output.
type deviceMonitor struct {
	cfg    *config.Config
	logger *slog.Logger
	mixer  *mixer.Mixer

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

func newDeviceMonitor(cfg *config.Config, logger *slog.Logger, mix *mixer.Mixer) *deviceMonitor {
	if cfg == nil || mix == nil {
		return nil
	}
	return &deviceMonitor{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "device-monitor"),
		mixer:  mix,
	}
}

// Start begins listening for sound card events. A failed netlink connect
// is non-fatal: playback still works, hotplug handling is just disabled.
func (m *deviceMonitor) Start(ctx context.Context) error {
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
		m.logger.Warn("failed to connect to netlink socket; sound card hotplug handling disabled",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("device monitor started",
		logging.String(logging.FieldEventType, "device_monitor_started"),
	)
	return nil
}

// Stop shuts down the monitor.
func (m *deviceMonitor) Stop() {
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

	m.logger.Info("device monitor stopped",
		logging.String(logging.FieldEventType, "device_monitor_stopped"),
	)
}

// Running reports whether the monitor is active.
func (m *deviceMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *deviceMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("device monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "device_monitor_error"),
			)
		}
	}
}

// buildMatcher matches add/remove events on sound card nodes.
func (m *deviceMonitor) buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "sound",
		},
	})
	return rules
}

func (m *deviceMonitor) handleEvent(uevent netlink.UEvent) {
	name := deviceName(uevent)
	if name == "" {
		return
	}

	switch uevent.Action {
	case netlink.REMOVE:
		m.logger.Info("sound device removed",
			logging.String("device", name),
			logging.String(logging.FieldEventType, "sound_device_removed"),
		)
		// Freeze the transport at the current position; the user resumes
		// once a working output is back.
		m.mixer.Pause()
	case netlink.ADD:
		m.logger.Info("sound device added",
			logging.String("device", name),
			logging.String(logging.FieldEventType, "sound_device_added"),
		)
	}
}

// deviceName extracts a card identifier from a uevent.
func deviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		return devname
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
