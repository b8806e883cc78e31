package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/chime/internal/audio"
	"github.com/jmylchreest/chime/internal/dbus"
	"github.com/jmylchreest/chime/internal/sound"
)

var playOpts struct {
	override string
	local    bool
}

var playCmd = &cobra.Command{
	Use:   "play <category>",
	Short: "Play the sound for a category",
	Long: `Play the notification sound for a category.

Categories:
  incoming-call                 Looping ringtone for an incoming call
  incoming-message              Received message
  incoming-message-from-other   Received message in another conversation
  outgoing-call                 Looping ringback tone for an outgoing call
  outgoing-message              Sent message

The sound is played by chimed when it is running. With --local, or when no
daemon is available, chime plays the sound itself and waits for it to finish.
Looping call sounds play until interrupted.

Examples:
  chime play incoming-message
  chime play outgoing-call --local
  chime play incoming-call --override ~/sounds/ring.ogg`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeCategories,
	RunE:              runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVar(&playOpts.override, "override", "",
		"Sound file or bundle name to play instead of the configured sound")
	playCmd.Flags().BoolVar(&playOpts.local, "local", false,
		"Play in-process instead of through chimed")
}

func runPlay(cmd *cobra.Command, args []string) error {
	category, err := sound.ParseCategory(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !playOpts.local {
		client, err := dbus.Dial()
		if err == nil {
			defer func() { _ = client.Close() }()
			return playRemote(ctx, client, category)
		}
		logger.Debug("playing locally", "reason", err)
	}

	return playLocal(ctx, category)
}

func playRemote(ctx context.Context, client *dbus.Client, category sound.Category) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	reply, err := client.Play(ctx, category, playOpts.override)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s %s\n", category, reply.Outcome, reply.RequestID)
	if reply.Outcome == sound.OutcomeFailed {
		return errors.New(reply.Error)
	}
	return nil
}

func playLocal(ctx context.Context, category sound.Category) error {
	c := getConfig()
	mgr := audio.NewManager(c, dbus.DetectOtherAudio(logger), logger)
	if err := mgr.Start(ctx); err != nil {
		return err
	}
	defer mgr.Stop()

	res := mgr.Play(ctx, category, playOpts.override)
	fmt.Println(res.String())
	if !res.OK() {
		return res.Err
	}

	if res.Outcome == sound.OutcomeAlerted {
		// The alert tone is fire-and-forget; give it time to be heard.
		wait(ctx, c.Alert.Duration.Duration()+100*time.Millisecond)
		return nil
	}

	waitUntilIdle(ctx, mgr)
	return nil
}

// waitUntilIdle blocks until the manager's sound ends or ctx is cancelled.
func waitUntilIdle(ctx context.Context, mgr *audio.Manager) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if mgr.State() == sound.StateIdle {
				return
			}
		}
	}
}

func wait(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// completeCategories offers category names for shell completion.
func completeCategories(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names := make([]string, 0, len(sound.Categories()))
	for _, c := range sound.Categories() {
		names = append(names, c.String())
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
