package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/talks/pkg/directive"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create <number> <name>",
	Short: "Create a talk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", args[0], err)
		}
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.Registry.Create(cmd.Context(), number, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created talk '%s' (#%d)\n", args[1], number)
		return nil
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all talks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		names, err := app.Registry.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No talks found.")
			return nil
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a talk, upgraded to the current schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		doc, err := app.Registry.Talk(args[0]).Read(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), doc.String())
		return nil
	},
}

var modifyCmd = &cobra.Command{
	Use:   "modify <name> [script]",
	Short: "Apply a directive script to a talk",
	Long: `Applies a directive script, all or nothing. The script is read from
standard input when omitted, e.g.

  talks modify deploy "XPATH '/talk'; ADD 'wire'; ADD 'href'; SET 'https://example.com';"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var script string
		if len(args) == 2 {
			script = args[1]
		} else {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read script: %w", err)
			}
			script = string(data)
		}
		dirs, err := directive.Parse(script)
		if err != nil {
			return err
		}

		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Registry.Talk(args[0]).Modify(cmd.Context(), dirs); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %d directives to '%s'\n", dirs.Len(), args[0])
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <name>...",
	Short: "Remove one or more talks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var failed []string
		for _, name := range args {
			if err := app.Registry.Delete(cmd.Context(), name); err != nil {
				fmt.Fprintf(os.Stderr, "Error removing '%s': %v\n", name, err)
				failed = append(failed, name)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed talk '%s'\n", name)
		}
		if len(failed) > 0 {
			return fmt.Errorf("failed to remove %s", strings.Join(failed, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd, lsCmd, showCmd, modifyCmd, rmCmd)
}
