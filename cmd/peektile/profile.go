package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "List profiles or switch the daemon to another one",
	}
	cmd.AddCommand(newProfileListCmd(a), newProfileUseCmd(a))
	return cmd
}

func newProfileListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the profiles in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.load()
			if err != nil {
				return err
			}
			selected := res.Config.Profile().Name
			out := cmd.OutOrStdout()
			for _, p := range res.Config.Profiles {
				marker := " "
				if p.Name == selected {
					marker = "*"
				}
				line := fmt.Sprintf("%s %s (%d characters)", marker, p.Name, len(p.Characters))
				if p.Description != "" {
					line += "  " + p.Description
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func newProfileUseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use [name]",
		Short: "Push a profile from the config file to the running daemon",
		Long: `Push a profile from the config file to the running daemon.

The daemon rebuilds every preview with the new settings. The config file is
not changed, so the next daemon start uses selected_profile again. Without a
name, a profile is picked interactively.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.load()
			if err != nil {
				return err
			}
			cfg := res.Config

			var name string
			if len(args) == 1 {
				name = args[0]
			} else {
				if !term.IsTerminal(int(os.Stdin.Fd())) {
					return errors.New("profile name required when stdin is not a terminal")
				}
				name = cfg.Profile().Name
				err := huh.NewSelect[string]().
					Title("Profile").
					Options(huh.NewOptions(cfg.ProfileNames()...)...).
					Value(&name).
					Run()
				if err != nil {
					return err
				}
			}

			profile, ok := cfg.FindProfile(name)
			if !ok {
				return fmt.Errorf("unknown profile %q (available: %v)", name, cfg.ProfileNames())
			}
			if err := a.client().SetProfile(*profile, cfg.Global); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "profile %s applied\n", profile.Name)
			return nil
		},
	}
}
