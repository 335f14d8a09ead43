package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func NewOpenCmd(rt **Runtime) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "open <uri>",
		Short: "Run a protocol link",
		Long: `Run a protocol link and print what it did.

Examples:
  notetoolbar open "obsidian://note-toolbar?command=editor:toggle-bold"
  notetoolbar open "obsidian://note-toolbar?menu=Format" --note Daily/today.md
  notetoolbar open "obsidian://note-toolbar?folder=Projects"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := *rt
			if note != "" {
				if f, ok := r.Host.FileInfo(note); ok {
					r.Host.OpenView("cli", f.Path, "")
				}
			}

			err := r.Protocol.Handle(context.Background(), args[0])
			for _, a := range r.Host.Actions() {
				fmt.Fprintln(cmd.OutOrStdout(), a)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "note to treat as active")
	return cmd
}
