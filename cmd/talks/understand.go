package main

import (
	"fmt"
	"net/url"

	"github.com/aretw0/talks/pkg/question"
	"github.com/spf13/cobra"
)

var understandCmd = &cobra.Command{
	Use:   "understand <name> <comment>",
	Short: "Record the command found in a comment",
	Long: `Asks the configured question about a comment and, when it names a
command, records the request in the talk.

  talks understand deploy "@talks deploy tag=` + "`1.9`" + `" --number 4 --author alice`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, _ := cmd.Flags().GetInt64("number")
		author, _ := cmd.Flags().GetString("author")
		rawHome, _ := cmd.Flags().GetString("home")

		var home *url.URL
		if rawHome != "" {
			u, err := url.Parse(rawHome)
			if err != nil {
				return fmt.Errorf("invalid home %q: %w", rawHome, err)
			}
			home = u
		}

		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		tk, err := app.Registry.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		c := question.Comment{Number: number, Author: author, Body: args[1]}
		req, err := app.Agent.Execute(cmd.Context(), tk, c, home)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), req)
		return nil
	},
}

var activeCmd = &cobra.Command{
	Use:   "active <name> <true|false>",
	Short: "Signal that a talk became active or inactive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var active bool
		switch args[1] {
		case "true", "on":
			active = true
		case "false", "off":
		default:
			return fmt.Errorf("expected true or false, got %q", args[1])
		}

		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		tk, err := app.Registry.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return tk.Active(cmd.Context(), active)
	},
}

func init() {
	rootCmd.AddCommand(understandCmd, activeCmd)
	understandCmd.Flags().Int64("number", 1, "Number of the comment in its thread")
	understandCmd.Flags().String("author", "", "Login of the comment author")
	understandCmd.Flags().String("home", "", "URL of the thread the comment belongs to")
}
