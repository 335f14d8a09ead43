package cmd

import (
	"context"
	"fmt"

	"notetoolbar/engine"
	"notetoolbar/models"
	"notetoolbar/views"

	"github.com/rohanthewiz/serr"
	"github.com/spf13/cobra"
)

func NewRenderCmd(rt **Runtime) *cobra.Command {
	var (
		mode      string
		width     int
		selection string
		html      bool
	)

	cmd := &cobra.Command{
		Use:   "render <note>",
		Short: "Render the toolbar that applies to a note",
		Long: `Render the toolbar that applies to a note.

Examples:
  notetoolbar render Daily/2024-01-01.md
  notetoolbar render projects/plan --mode preview
  notetoolbar render inbox.md --selection "some text" --html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := *rt
			f, ok := r.Host.FileInfo(args[0])
			if !ok || f.IsFolder {
				return serr.New("note not found: " + args[0])
			}

			view := r.Host.OpenView("cli", f.Path, models.ViewMode(mode))
			if width > 0 {
				view.SetWidth(width)
			}
			if selection != "" {
				view.SetSelection(selection)
			}

			out, err := r.Engine.Reconcile(context.Background(), view, engine.TriggerManual)
			if err != nil {
				return err
			}
			el, ok := r.Engine.Locate(view.ID())
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "No toolbar applies to %s (%s)\n", f.Path, out)
				return nil
			}

			if html {
				fmt.Fprintln(cmd.OutOrStdout(), el.HTML())
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", el.Name, el.Position)
			fmt.Fprintln(cmd.OutOrStdout(), views.RenderText(el))
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(models.ViewModeSource), "view mode: source or preview")
	cmd.Flags().IntVar(&width, "width", 0, "view width in pixels")
	cmd.Flags().StringVar(&selection, "selection", "", "editor selection for {{selection}}")
	cmd.Flags().BoolVar(&html, "html", false, "print the element markup instead of a terminal strip")
	return cmd
}
