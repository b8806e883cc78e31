package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/chime/internal/audio"
	"github.com/jmylchreest/chime/internal/bundle"
	"github.com/jmylchreest/chime/internal/dbus"
	"github.com/jmylchreest/chime/internal/sound"
	"github.com/jmylchreest/chime/internal/tui"
)

var tuiOpts struct {
	local bool
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive sound board",
	Long: `Launch a terminal sound board listing every category and its sound.

Sounds are played by chimed when it is running, otherwise in-process.

Key bindings:
  j/k, ↑/↓    Navigate list
  enter       Play the selected sound
  space, p    Pause or resume
  s           Stop
  c           Copy the selected sound's file name
  y           Copy every slot as YAML
  ?           Show help
  q           Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().BoolVar(&tuiOpts.local, "local", false,
		"Play in-process instead of through chimed")
}

func runTUI(cmd *cobra.Command, args []string) error {
	c := getConfig()
	slots := bundle.New(c.Audio.AssetsDir).Slots(c)

	if !tuiOpts.local {
		client, err := dbus.Dial()
		if err == nil {
			defer func() { _ = client.Close() }()
			return tui.Run(&remoteController{client: client}, slots)
		}
		logger.Debug("using local player", "reason", err)
	}

	mgr := audio.NewManager(c, dbus.DetectOtherAudio(logger), logger)
	if err := mgr.Start(cmd.Context()); err != nil {
		return err
	}
	defer mgr.Stop()
	return tui.Run(mgr, slots)
}

// remoteController drives chimed over D-Bus for the sound board.
type remoteController struct {
	client *dbus.Client
}

const remoteTimeout = 5 * time.Second

func (r *remoteController) Play(ctx context.Context, category sound.Category, override string) sound.Result {
	ctx, cancel := context.WithTimeout(ctx, 3*remoteTimeout)
	defer cancel()

	reply, err := r.client.Play(ctx, category, override)
	if err != nil {
		return sound.Result{Category: category, Outcome: sound.OutcomeFailed, Err: err}
	}
	res := sound.Result{RequestID: reply.RequestID, Category: category, Outcome: reply.Outcome}
	if reply.Outcome == sound.OutcomeFailed {
		res.Err = errors.New(reply.Error)
	}
	return res
}

func (r *remoteController) Pause() {
	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()
	if err := r.client.Pause(ctx); err != nil {
		logger.Debug("pause failed", "error", err)
	}
}

func (r *remoteController) Resume() sound.Result {
	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()

	outcome, msg, err := r.client.Resume(ctx)
	if err != nil {
		return sound.Result{Outcome: sound.OutcomeFailed, Err: err}
	}
	res := sound.Result{Outcome: outcome}
	if outcome == sound.OutcomeFailed {
		res.Err = errors.New(msg)
	}
	return res
}

func (r *remoteController) StopSound() {
	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()
	if err := r.client.Stop(ctx); err != nil {
		logger.Debug("stop failed", "error", err)
	}
}

func (r *remoteController) State() sound.State {
	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()

	state, err := r.client.State(ctx)
	if err != nil {
		return sound.StateIdle
	}
	return sound.ParseState(state)
}
