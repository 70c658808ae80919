// Command substrate is an operator tool for inspecting substrate stores:
// keyspace status, raw index dumps, and migration job management.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/substratedb/substrate"
	"github.com/substratedb/substrate/backend"
	"github.com/substratedb/substrate/backend/boltdb"
	"github.com/substratedb/substrate/backend/leveldb"
	"github.com/substratedb/substrate/backend/memdb"
)

var (
	configPath string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:           "substrate",
		Short:         "Inspect and manage a substrate store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "substrate.yaml", "config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newStatusCommand())
	root.AddCommand(newDumpCommand())
	root.AddCommand(newMigrateCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "substrate: %v\n", err)
		os.Exit(1)
	}
}

// openDB opens the store described by the config file.
func openDB() (*substrate.DB, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	var b backend.Backend
	switch cfg.Engine {
	case "leveldb", "":
		b, err = leveldb.Open(cfg.Path, leveldb.Options{})
	case "bolt":
		b, err = boltdb.Open(cfg.Path, boltdb.Options{})
	case "memory":
		b = memdb.New()
	default:
		return nil, fmt.Errorf("unknown engine %q (want leveldb, bolt or memory)", cfg.Engine)
	}
	if err != nil {
		return nil, err
	}

	logger := zap.NewNop()
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
	}
	return substrate.Open(b, substrate.Options{Logger: logger})
}
