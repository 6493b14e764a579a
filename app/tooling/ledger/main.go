// This program drives the ledger from the command line: it simulates a
// trading session and verifies chains written to disk.
package main

import "github.com/ardanlabs/powledger/app/tooling/ledger/cmd"

func main() {
	cmd.Execute()
}
