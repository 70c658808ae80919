package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show generation, registered indexes and migration jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Printf("generation: %d\n", db.Generation())

			indexes, err := db.Indexes()
			if err != nil {
				return err
			}
			fmt.Printf("indexes: %d\n", len(indexes))
			for _, ix := range indexes {
				fmt.Printf("  %-40s %-6s id=%d\n", ix.Addr, ix.Type, ix.ID)
			}

			jobs, err := db.Migrations()
			if err != nil {
				return err
			}
			fmt.Printf("migrations: %d\n", len(jobs))
			for _, job := range jobs {
				fmt.Printf("  %-20s %-16s targets=%v updated=%s\n",
					job.Name, job.Status, job.Targets, job.UpdatedAt.Format("2006-01-02 15:04:05"))
				if job.Error != "" {
					fmt.Printf("    error: %s\n", job.Error)
				}
			}
			return nil
		},
	}
}
