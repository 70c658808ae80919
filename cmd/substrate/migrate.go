package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage migration jobs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "complete <name>",
		Short: "Retry the cut-over of a job stuck in ready-to-commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.CompleteMigration(args[0]); err != nil {
				return err
			}
			fmt.Printf("migration %s committed\n", args[0])
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "discard <name>",
		Short: "Delete a non-committed job along with its scratch data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.DiscardMigration(args[0]); err != nil {
				return err
			}
			fmt.Printf("migration %s discarded\n", args[0])
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Show the persisted state of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			info, ok, err := db.MigrationStatus(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no migration named %q", args[0])
			}
			fmt.Printf("name:    %s\nid:      %s\nstatus:  %s\ntargets: %v\ncreated: %s\nupdated: %s\n",
				info.Name, info.ID, info.Status, info.Targets,
				info.CreatedAt.Format("2006-01-02 15:04:05"),
				info.UpdatedAt.Format("2006-01-02 15:04:05"))
			if info.Error != "" {
				fmt.Printf("error:   %s\n", info.Error)
			}
			return nil
		},
	})
	return cmd
}
