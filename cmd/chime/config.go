package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/chime/internal/config"
)

var configInitOpts struct {
	force       bool
	interactive bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the chime configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Long: `Write the default configuration to the config file.

With --interactive, ask for the common settings first.
A running chimed picks the new file up without a restart.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFilePath()
		if _, err := os.Stat(path); err == nil && !configInitOpts.force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		c := config.DefaultConfig()
		if configInitOpts.interactive {
			if err := askConfig(c); err != nil {
				return err
			}
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := c.Save(path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), configFilePath())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := toml.Marshal(getConfig())
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configPathCmd, configShowCmd)

	configInitCmd.Flags().BoolVar(&configInitOpts.force, "force", false,
		"Overwrite an existing config file")
	configInitCmd.Flags().BoolVarP(&configInitOpts.interactive, "interactive", "i", false,
		"Ask for the common settings")
}

// askConfig fills the common settings of c from a terminal form.
func askConfig(c *config.Config) error {
	volume := strconv.Itoa(c.Audio.Volume)
	mode := string(c.Session.OtherAudio)

	modes := make([]huh.Option[string], 0, len(config.ValidOtherAudioModes()))
	for _, m := range config.ValidOtherAudioModes() {
		modes = append(modes, huh.NewOption(string(m), string(m)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Play sounds?").
				Value(&c.Audio.Enabled),

			huh.NewInput().
				Title("Volume (0-100)").
				Value(&volume).
				CharLimit(3).
				Validate(func(str string) error {
					_, err := parseVolume(str)
					return err
				}),

			huh.NewSelect[string]().
				Title("When other audio is playing").
				Description("detect asks running media players, assume always plays the alert tone").
				Options(modes...).
				Value(&mode),

			huh.NewConfirm().
				Title("Play sounds for chat notifications seen on the session bus?").
				Value(&c.Monitor.Enabled),
		),
	).WithShowHelp(true)

	if err := form.Run(); err != nil {
		return err
	}

	v, err := parseVolume(volume)
	if err != nil {
		return err
	}
	c.Audio.Volume = v
	c.Session.OtherAudio = config.OtherAudioMode(mode)
	return nil
}

func parseVolume(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 || v > 100 {
		return 0, fmt.Errorf("volume must be a number between 0 and 100")
	}
	return v, nil
}

func configFilePath() string {
	if globalOpts.configPath != "" {
		return config.ExpandPath(globalOpts.configPath)
	}
	return config.ConfigPath()
}
