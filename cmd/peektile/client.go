package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/1broseidon/peektile/internal/config"
	"github.com/1broseidon/peektile/internal/ipc"
)

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the daemon is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().Ping(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "daemon: running")
			return nil
		},
	}
}

func newPositionsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Print the preview position of every known character",
		Long: `Print the preview position of every known character.

Positions come from the running daemon. When it is not running, the positions
saved in the config file are printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chars, err := a.client().Positions()
			if err != nil {
				res, loadErr := a.load()
				if loadErr != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "daemon not reachable, showing saved positions from %s\n", res.Path)
				chars = res.Config.Profile().Characters
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(chars)
			}
			return writePositions(out, chars)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

// writePositions prints chars as an aligned table sorted by name.
func writePositions(w io.Writer, chars map[string]config.CharacterSettings) error {
	if len(chars) == 0 {
		_, err := fmt.Fprintln(w, "no characters")
		return err
	}

	names := make([]string, 0, len(chars))
	for name := range chars {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHARACTER\tX\tY\tWIDTH\tHEIGHT")
	for _, name := range names {
		c := chars[name]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", name, c.X, c.Y, sizeOrDefault(c.Width), sizeOrDefault(c.Height))
	}
	return tw.Flush()
}

func sizeOrDefault(v uint16) string {
	if v == 0 {
		return "default"
	}
	return fmt.Sprint(v)
}

func newShutdownCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shutdown",
		Short: "Ask the daemon to exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().Shutdown(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "daemon: stopping")
			return nil
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print daemon events as they happen",
		Long: `Print daemon events as they happen.

Events are position_changed, character_added and character_removed. The
command runs until interrupted or the daemon exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			return a.client().Subscribe(ctx, func(msg ipc.Message) {
				if asJSON {
					data, err := json.Marshal(msg)
					if err != nil {
						return
					}
					fmt.Fprintln(out, string(data))
					return
				}
				fmt.Fprintln(out, formatEvent(msg))
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw event messages as JSON lines")
	return cmd
}

// formatEvent renders a daemon event as a single line of text.
func formatEvent(msg ipc.Message) string {
	switch msg.Type {
	case ipc.TypePositionChanged, ipc.TypeCharacterAdded:
		var p ipc.CharacterPayload
		if err := msg.Decode(&p); err != nil {
			return fmt.Sprintf("%s: %v", msg.Type, err)
		}
		return fmt.Sprintf("%s: %s at %d,%d size %dx%d", msg.Type, p.Character, p.X, p.Y, p.Width, p.Height)
	case ipc.TypeCharacterRemoved:
		var p ipc.CharacterRemovedPayload
		if err := msg.Decode(&p); err != nil {
			return fmt.Sprintf("%s: %v", msg.Type, err)
		}
		return fmt.Sprintf("%s: %s", msg.Type, p.Character)
	default:
		return string(msg.Type)
	}
}
