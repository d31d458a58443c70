// Command barfeed feeds OHLCV bars into an in-memory store and runs the
// selected strategies on every bar, either replaying history from a CSV file
// or SQLite database, or streaming trades from a live websocket feed.
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
