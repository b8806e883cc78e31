package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/chime/internal/dbus"
	"github.com/jmylchreest/chime/internal/sound"
)

var statusOpts struct {
	format string
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the sound chimed is playing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *dbus.Client) error {
			return c.Pause(ctx)
		})
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused sound",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *dbus.Client) error {
			outcome, msg, err := c.Resume(ctx)
			if err != nil {
				return err
			}
			switch outcome {
			case sound.OutcomeFailed:
				return errors.New(msg)
			case sound.OutcomeNone:
				logger.Debug("nothing paused to resume")
			}
			return nil
		})
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the sound chimed is playing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *dbus.Client) error {
			return c.Stop(ctx)
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what chimed is playing",
	Long: `Show the daemon's player state, the active sound, how long the
daemon has been running and the volume and session it plays with.

Examples:
  chime status
  chime status --format json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(pauseCmd, resumeCmd, stopCmd, statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.format, "format", "f", "plain",
		"Output format: plain, json, yaml")
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, c *dbus.Client) error {
		st, err := c.Status(ctx)
		if err != nil {
			return err
		}
		if statusOpts.format != "plain" {
			return writeFormatted(cmd.OutOrStdout(), statusOpts.format, st)
		}

		out := cmd.OutOrStdout()
		state := st.State
		if st.Category != "" {
			state += " (" + st.Category + ")"
		}
		fmt.Fprintf(out, "state:   %s\n", state)
		if st.RequestID != "" {
			fmt.Fprintf(out, "request: %s\n", st.RequestID)
		}
		fmt.Fprintf(out, "started: %s\n", humanize.Time(time.Now().Add(-st.Uptime)))
		fmt.Fprintf(out, "volume:  %.0f%%\n", st.Volume*100)
		if !st.Enabled {
			fmt.Fprintln(out, "sounds:  disabled")
		}
		if st.OtherAudio {
			fmt.Fprintln(out, "other audio playing: message sounds use the alert tone")
		}
		if st.SessionActive {
			fmt.Fprintf(out, "session: active (port %s)\n", st.OutputPort)
		}
		return nil
	})
}

// withClient dials chimed and runs fn with a bounded context.
func withClient(fn func(ctx context.Context, c *dbus.Client) error) error {
	client, err := dbus.Dial()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return fn(ctx, client)
}
