package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/substratedb/substrate"
)

func newDumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <address>",
		Short: "Dump the raw entries of an index (keys and values in hex)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := substrate.ParseAddr(args[0])
			if err != nil {
				return err
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			snap, err := db.Snapshot()
			if err != nil {
				return err
			}
			defer snap.Release()

			entries, err := snap.RawEntries(addr)
			if err != nil {
				return err
			}
			for _, kv := range entries {
				fmt.Printf("%s\t%s\n", hex.EncodeToString(kv.Key), hex.EncodeToString(kv.Value))
			}
			fmt.Printf("# %d entries in %s\n", len(entries), addr)
			return nil
		},
	}
}
