package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const notificationsPath = "/org/freedesktop/Notifications"

// SendNotification delivers n to the desktop notification server and
// returns the ID it assigned.
func SendNotification(conn *dbus.Conn, n *DBusNotification) (uint32, error) {
	hints := n.Hints
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}
	actions := n.Actions
	if actions == nil {
		actions = []string{}
	}

	var id uint32
	err := conn.Object(NotificationsInterface, notificationsPath).Call(
		NotificationsInterface+".Notify", 0,
		n.AppName, n.ReplacesID, n.AppIcon, n.Summary, n.Body, actions, hints, n.ExpireTimeout,
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to send notification: %w", err)
	}
	return id, nil
}
