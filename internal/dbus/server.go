package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/chime/internal/sound"
)

const (
	// ChimeInterface is the control interface name.
	ChimeInterface = "io.github.jmylchreest.Chime"
	// ChimePath is the control object path.
	ChimePath = "/io/github/jmylchreest/Chime"
	// ChimeBusName is the bus name claimed by the daemon.
	ChimeBusName = "io.github.jmylchreest.Chime"

	introspectableInterface = "org.freedesktop.DBus.Introspectable"

	// playTimeout bounds how long a Play call may spend loading a sound.
	playTimeout = 10 * time.Second
)

// Controller is the playback surface exposed over D-Bus.
// *audio.Manager satisfies it.
type Controller interface {
	Play(ctx context.Context, category sound.Category, override string) sound.Result
	Pause()
	Resume() sound.Result
	StopSound()
	State() sound.State
	Active() (sound.Request, bool)
	Info() sound.Info
}

// busConn is the part of *dbus.Conn the control server uses.
type busConn interface {
	Export(v any, path dbus.ObjectPath, iface string) error
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)
	ReleaseName(name string) (dbus.ReleaseNameReply, error)
}

func sessionBus() (busConn, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// ControlServer exports a Controller on the session bus.
type ControlServer struct {
	conn       busConn
	connect    func() (busConn, error)
	logger     *slog.Logger
	controller Controller
	startedAt  time.Time

	mu      sync.Mutex
	running bool
}

// NewControlServer creates a server for controller.
func NewControlServer(controller Controller, logger *slog.Logger) *ControlServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlServer{
		connect:    sessionBus,
		logger:     logger,
		controller: controller,
		startedAt:  time.Now(),
	}
}

// Start connects to the session bus, exports the control object and claims
// the bus name.
func (s *ControlServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	conn, err := s.connect()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	s.conn = conn

	if err := conn.Export(&controlObject{server: s}, ChimePath, ChimeInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: ChimePath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    ChimeInterface,
				Methods: controlMethods(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ChimePath, introspectableInterface); err != nil {
		s.unexport()
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(ChimeBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		s.unexport()
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		s.unexport()
		return fmt.Errorf("bus name %s already taken (is chimed already running?)", ChimeBusName)
	}

	s.running = true
	s.logger.Info("D-Bus control server started", "interface", ChimeInterface, "path", ChimePath)
	return nil
}

// Stop releases the bus name and unexports the control object.
func (s *ControlServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if _, err := s.conn.ReleaseName(ChimeBusName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}
	s.unexport()
	// Don't close the connection as it's shared (SessionBus)

	s.logger.Info("D-Bus control server stopped")
	return nil
}

// unexport removes the control object and its introspection data.
func (s *ControlServer) unexport() {
	_ = s.conn.Export(nil, ChimePath, ChimeInterface)
	_ = s.conn.Export(nil, ChimePath, introspectableInterface)
}

// Uptime returns how long the server has existed.
func (s *ControlServer) Uptime() time.Duration {
	return time.Since(s.startedAt)
}

// controlObject carries the exported D-Bus methods, keeping them apart from
// the server's own lifecycle methods.
type controlObject struct {
	server *ControlServer
}

// Play plays the sound for a category.
// D-Bus method: Play(ss) -> (sss)
func (o *controlObject) Play(category, override string) (string, string, string, *dbus.Error) {
	s := o.server

	c, err := sound.ParseCategory(category)
	if err != nil {
		s.logger.Debug("Play called with unknown category", "category", category)
		return string(sound.OutcomeFailed), "", err.Error(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), playTimeout)
	defer cancel()

	result := s.controller.Play(ctx, c, override)
	s.logger.Debug("Play called", "category", c.String(), "override", override,
		"outcome", result.Outcome, "request_id", result.RequestID)

	return string(result.Outcome), result.RequestID, errorString(result.Err), nil
}

// Pause pauses the active sound.
// D-Bus method: Pause() -> nothing
func (o *controlObject) Pause() *dbus.Error {
	o.server.logger.Debug("Pause called")
	o.server.controller.Pause()
	return nil
}

// Resume resumes a paused sound.
// D-Bus method: Resume() -> (ss)
func (o *controlObject) Resume() (string, string, *dbus.Error) {
	o.server.logger.Debug("Resume called")
	result := o.server.controller.Resume()
	return string(result.Outcome), errorString(result.Err), nil
}

// Stop stops the active sound.
// D-Bus method: Stop() -> nothing
func (o *controlObject) Stop() *dbus.Error {
	o.server.logger.Debug("Stop called")
	o.server.controller.StopSound()
	return nil
}

// State returns the player state name.
// D-Bus method: State() -> s
func (o *controlObject) State() (string, *dbus.Error) {
	return o.server.controller.State().String(), nil
}

// Status returns the player state, the active request and the daemon uptime.
// D-Bus method: Status() -> (sssx)
func (o *controlObject) Status() (string, string, string, int64, *dbus.Error) {
	s := o.server
	state := s.controller.State()

	var category, requestID string
	if req, ok := s.controller.Active(); ok {
		category = req.Category.String()
		requestID = req.ID
	}
	return state.String(), category, requestID, int64(s.Uptime() / time.Second), nil
}

// Info reports the playback settings: enabled, other audio detected,
// volume, session active and output port.
// D-Bus method: Info() -> (bbdbs)
func (o *controlObject) Info() (bool, bool, float64, bool, string, *dbus.Error) {
	info := o.server.controller.Info()
	return info.Enabled, info.OtherAudio, info.Volume, info.SessionActive, string(info.OutputPort), nil
}

// Categories lists the category names accepted by Play.
// D-Bus method: Categories() -> as
func (o *controlObject) Categories() ([]string, *dbus.Error) {
	names := make([]string, 0, len(sound.Categories()))
	for _, c := range sound.Categories() {
		names = append(names, c.String())
	}
	return names, nil
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// controlMethods returns the D-Bus method introspection data.
func controlMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "Play",
			Args: []introspect.Arg{
				{Name: "category", Type: "s", Direction: "in"},
				{Name: "override", Type: "s", Direction: "in"},
				{Name: "outcome", Type: "s", Direction: "out"},
				{Name: "request_id", Type: "s", Direction: "out"},
				{Name: "error", Type: "s", Direction: "out"},
			},
		},
		{Name: "Pause"},
		{
			Name: "Resume",
			Args: []introspect.Arg{
				{Name: "outcome", Type: "s", Direction: "out"},
				{Name: "error", Type: "s", Direction: "out"},
			},
		},
		{Name: "Stop"},
		{
			Name: "State",
			Args: []introspect.Arg{
				{Name: "state", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Status",
			Args: []introspect.Arg{
				{Name: "state", Type: "s", Direction: "out"},
				{Name: "category", Type: "s", Direction: "out"},
				{Name: "request_id", Type: "s", Direction: "out"},
				{Name: "uptime_seconds", Type: "x", Direction: "out"},
			},
		},
		{
			Name: "Info",
			Args: []introspect.Arg{
				{Name: "enabled", Type: "b", Direction: "out"},
				{Name: "other_audio", Type: "b", Direction: "out"},
				{Name: "volume", Type: "d", Direction: "out"},
				{Name: "session_active", Type: "b", Direction: "out"},
				{Name: "output_port", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Categories",
			Args: []introspect.Arg{
				{Name: "categories", Type: "as", Direction: "out"},
			},
		},
	}
}
