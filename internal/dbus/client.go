package dbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/chime/internal/sound"
)

// ErrDaemonNotRunning is returned when no daemon owns the control bus name.
var ErrDaemonNotRunning = errors.New("chimed is not running")

// PlayReply is the daemon's answer to a Play call.
type PlayReply struct {
	Outcome   sound.Outcome
	RequestID string
	Error     string
}

// Status is the daemon's answer to a Status call.
type Status struct {
	State     string        `json:"state" yaml:"state"`
	Category  string        `json:"category,omitempty" yaml:"category,omitempty"`
	RequestID string        `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	Uptime    time.Duration `json:"uptime" yaml:"uptime"`

	sound.Info `yaml:",inline"`
}

// Client talks to a running chimed over the session bus.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// Dial connects to the session bus and checks the daemon is present.
func Dial() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	var owned bool
	if err := conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, ChimeBusName).Store(&owned); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to query bus name: %w", err)
	}
	if !owned {
		conn.Close()
		return nil, ErrDaemonNotRunning
	}

	return &Client{
		conn: conn,
		obj:  conn.Object(ChimeBusName, ChimePath),
	}, nil
}

// Close closes the client's private bus connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Play asks the daemon to play category. An empty override uses the
// daemon's configured sound.
func (c *Client) Play(ctx context.Context, category sound.Category, override string) (PlayReply, error) {
	var reply PlayReply
	var outcome string
	err := c.call(ctx, "Play", []any{category.String(), override}, &outcome, &reply.RequestID, &reply.Error)
	reply.Outcome = sound.Outcome(outcome)
	return reply, err
}

// Pause pauses the active sound.
func (c *Client) Pause(ctx context.Context) error {
	return c.call(ctx, "Pause", nil)
}

// Resume resumes a paused sound. It returns the outcome and the daemon's
// error message, if any.
func (c *Client) Resume(ctx context.Context) (sound.Outcome, string, error) {
	var outcome, msg string
	err := c.call(ctx, "Resume", nil, &outcome, &msg)
	return sound.Outcome(outcome), msg, err
}

// Stop stops the active sound.
func (c *Client) Stop(ctx context.Context) error {
	return c.call(ctx, "Stop", nil)
}

// State returns the daemon's player state.
func (c *Client) State(ctx context.Context) (string, error) {
	var state string
	err := c.call(ctx, "State", nil, &state)
	return state, err
}

// Status returns the daemon's player state, active request, uptime and
// playback settings.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	var uptime int64
	if err := c.call(ctx, "Status", nil, &st.State, &st.Category, &st.RequestID, &uptime); err != nil {
		return Status{}, err
	}
	st.Uptime = time.Duration(uptime) * time.Second

	info, err := c.Info(ctx)
	if err != nil {
		return Status{}, err
	}
	st.Info = info
	return st, nil
}

// Info returns the daemon's playback settings.
func (c *Client) Info(ctx context.Context) (sound.Info, error) {
	var info sound.Info
	var port string
	err := c.call(ctx, "Info", nil, &info.Enabled, &info.OtherAudio, &info.Volume, &info.SessionActive, &port)
	info.OutputPort = sound.OutputPort(port)
	return info, err
}

// Categories lists the categories the daemon accepts.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var names []string
	err := c.call(ctx, "Categories", nil, &names)
	return names, err
}

func (c *Client) call(ctx context.Context, method string, args []any, retvalues ...any) error {
	call := c.obj.CallWithContext(ctx, ChimeInterface+"."+method, 0, args...)
	if call.Err != nil {
		return fmt.Errorf("%s failed: %w", method, call.Err)
	}
	if len(retvalues) == 0 {
		return nil
	}
	if err := call.Store(retvalues...); err != nil {
		return fmt.Errorf("failed to decode %s reply: %w", method, err)
	}
	return nil
}
