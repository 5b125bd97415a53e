package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DhruvilJayani/coursecompass/pkg/session"
)

func newThemeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or change the colour scheme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "dark", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), a.theme.Mode())
				return nil
			}
			if args[0] == "toggle" {
				mode, err := a.theme.Toggle()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), mode)
				return nil
			}
			mode, err := session.ParseMode(args[0])
			if err != nil {
				return err
			}
			if err := a.theme.Set(mode); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mode)
			return nil
		},
	}
}
