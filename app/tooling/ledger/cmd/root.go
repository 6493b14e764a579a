// Package cmd contains the ledger commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/powledger/foundation/logger"
	"github.com/spf13/cobra"
)

var (
	genesisPath string
	dbPath      string
	verbose     bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&genesisPath, "genesis", "g", "", "Path to the genesis file, the built in genesis is used when empty.")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db-path", "d", "", "Directory holding the blocks, blocks are kept in memory when empty.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log the mining and validation events.")
}

var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Proof of work ledger simulator",
}

// Execute runs the command named on the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadGenesis returns the genesis named by the genesis flag.
func loadGenesis() (genesis.Genesis, error) {
	if genesisPath == "" {
		return genesis.Default(), nil
	}

	return genesis.Load(genesisPath)
}

// eventHandler returns the handler the core packages report to. Events are
// only written when the verbose flag is set.
func eventHandler() (database.EventHandler, func(), error) {
	if !verbose {
		return nil, func() {}, nil
	}

	log, err := logger.New("LEDGER", "stderr")
	if err != nil {
		return nil, nil, fmt.Errorf("constructing logger: %w", err)
	}

	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}

	return ev, func() { log.Sync() }, nil
}
