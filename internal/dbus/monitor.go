package dbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	// NotificationsInterface is the freedesktop notification interface.
	NotificationsInterface = "org.freedesktop.Notifications"

	notifyMatchRule = "type='method_call',interface='" + NotificationsInterface + "',member='Notify'"
)

// NotificationHandler is called for every observed notification.
type NotificationHandler func(notification *DBusNotification)

// Monitor passively observes D-Bus notification traffic without claiming ownership.
// This allows chime to run alongside any notification daemon (like dunst or mako).
type Monitor struct {
	mu     sync.Mutex
	conn   *dbus.Conn
	logger *slog.Logger
	stopCh chan struct{}
	doneCh chan struct{}

	onNotify NotificationHandler
}

// NewMonitor creates a new notification monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		logger: logger,
	}
}

// SetNotifyHandler sets the callback for observed notifications.
func (m *Monitor) SetNotifyHandler(handler NotificationHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onNotify = handler
}

// Start begins monitoring D-Bus for notification traffic. The monitor uses
// its own connection since a monitoring connection cannot make other calls.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil {
		return fmt.Errorf("monitor already running")
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	err = conn.BusObject().Call(
		"org.freedesktop.DBus.Monitoring.BecomeMonitor",
		0,
		[]string{notifyMatchRule},
		uint32(0),
	).Err
	if err != nil {
		// BecomeMonitor might not be available (older D-Bus versions)
		m.logger.Warn("BecomeMonitor not available, trying AddMatch", "error", err)
		if err := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, notifyMatchRule+",eavesdrop='true'").Err; err != nil {
			conn.Close()
			return fmt.Errorf("failed to add match rule (eavesdrop may require permissions): %w", err)
		}
		m.logger.Info("started D-Bus monitor using AddMatch with eavesdrop")
	} else {
		m.logger.Info("started D-Bus monitor using BecomeMonitor")
	}

	m.conn = conn
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})

	ch := make(chan *dbus.Message, 100)
	conn.Eavesdrop(ch)
	go m.processMessages(ch)

	return nil
}

// processMessages reads and processes D-Bus messages.
func (m *Monitor) processMessages(ch <-chan *dbus.Message) {
	defer close(m.doneCh)

	for {
		select {
		case <-m.stopCh:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			m.handleMessage(msg)
		}
	}
}

// handleMessage parses a Notify method call and invokes the handler.
func (m *Monitor) handleMessage(msg *dbus.Message) {
	if msg.Type != dbus.TypeMethodCall {
		return
	}
	if iface, _ := msg.Headers[dbus.FieldInterface].Value().(string); iface != NotificationsInterface {
		return
	}
	if member, _ := msg.Headers[dbus.FieldMember].Value().(string); member != "Notify" {
		return
	}

	notification, err := ParseNotify(msg.Body)
	if err != nil {
		m.logger.Warn("malformed Notify call", "error", err)
		return
	}

	m.logger.Debug("captured notification",
		"app", notification.AppName,
		"desktop_entry", notification.DesktopEntry(),
		"summary", notification.Summary,
		"category", notification.Category())

	m.mu.Lock()
	handler := m.onNotify
	m.mu.Unlock()

	if handler != nil {
		handler(notification)
	}
}

// ParseNotify decodes the arguments of a Notify call:
// Notify(app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout).
func ParseNotify(body []any) (*DBusNotification, error) {
	if len(body) < 8 {
		return nil, fmt.Errorf("expected 8 arguments, got %d", len(body))
	}

	notification := &DBusNotification{}

	var ok bool
	if notification.AppName, ok = body[0].(string); !ok {
		return nil, errors.New("invalid app_name type")
	}
	if notification.ReplacesID, ok = body[1].(uint32); !ok {
		return nil, errors.New("invalid replaces_id type")
	}
	if notification.AppIcon, ok = body[2].(string); !ok {
		return nil, errors.New("invalid app_icon type")
	}
	if notification.Summary, ok = body[3].(string); !ok {
		return nil, errors.New("invalid summary type")
	}
	if notification.Body, ok = body[4].(string); !ok {
		return nil, errors.New("invalid body type")
	}

	if actions, ok := body[5].([]string); ok {
		notification.Actions = actions
	}
	if hints, ok := body[6].(map[string]dbus.Variant); ok {
		notification.Hints = hints
	}
	if timeout, ok := body[7].(int32); ok {
		notification.ExpireTimeout = timeout
	}

	return notification, nil
}

// Stop stops the monitor and closes its connection.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn == nil {
		return nil
	}

	close(m.stopCh)
	err := conn.Close()
	<-m.doneCh
	return err
}
