package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rohanthewiz/serr"
	"github.com/spf13/cobra"
)

func NewResolveCmd(rt **Runtime) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <note>",
		Short: "Explain which toolbar applies to a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := *rt
			f, ok := r.Host.FileInfo(args[0])
			if !ok {
				return serr.New("note not found: " + args[0])
			}
			res := r.Engine.Resolver().Explain(f.Frontmatter, f.Path)

			out := map[string]any{
				"path":    f.Path,
				"kind":    string(res.Kind),
				"values":  res.Values,
				"missing": res.Missing,
			}
			if res.Toolbar != nil {
				out["toolbar"] = res.Toolbar.Name
			}
			if res.Mapping != nil {
				out["folder"] = res.Mapping.Folder
			}
			var skipped []string
			for _, m := range res.Skipped {
				skipped = append(skipped, m.Folder)
			}
			out["skipped"] = skipped

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			w := cmd.OutOrStdout()
			if res.Toolbar == nil {
				fmt.Fprintf(w, "%s: no toolbar", f.Path)
				if res.Kind != "" {
					fmt.Fprintf(w, " (%s)", res.Kind)
				}
				fmt.Fprintln(w)
			} else {
				fmt.Fprintf(w, "%s: %s by %s", f.Path, res.Toolbar.Name, res.Kind)
				if res.Mapping != nil {
					fmt.Fprintf(w, " %q", res.Mapping.Folder)
				}
				fmt.Fprintln(w)
			}
			if len(res.Missing) > 0 {
				fmt.Fprintf(w, "  unknown toolbars in properties: %s\n", strings.Join(res.Missing, ", "))
			}
			if len(skipped) > 0 {
				fmt.Fprintf(w, "  mappings to deleted toolbars: %s\n", strings.Join(skipped, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}
