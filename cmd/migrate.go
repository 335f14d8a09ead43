package cmd

import (
	"fmt"

	"notetoolbar/config"
	"notetoolbar/models"

	"github.com/spf13/cobra"
)

func NewMigrateCmd(cfg **config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade stored settings to the current schema version",
		Long: `Upgrade stored settings to the current schema version.

Settings are also migrated whenever they are opened; this command does it
on its own and reports the versions.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationRuntime: "none"},
		RunE: func(cmd *cobra.Command, args []string) error {
			persister, _, closeStore, err := (*cfg).Persister()
			if err != nil {
				return err
			}
			defer closeStore()

			doc, err := persister.Load()
			if err != nil {
				return err
			}
			if doc == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored settings")
				return nil
			}
			from := models.DocumentVersion(doc)
			if _, err := models.LoadSettings(persister); err != nil {
				return err
			}
			if from == models.CurrentVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "Settings already at version %d\n", from)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Settings migrated from version %d to %d\n", from, models.CurrentVersion)
			return nil
		},
	}
	return cmd
}
