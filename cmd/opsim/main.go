// Command opsim is a runnable demonstration of the replica facade: it
// spins up a small in-process network of replicas exchanging operations
// over Go channels, playing the best-effort broadcast transport the
// library itself deliberately never implements.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
