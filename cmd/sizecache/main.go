// Command sizecache drives the size-bounded LRU cache: a synthetic benchmark,
// a cached directory scan and a config dump.
package main

import (
	"os"

	"github.com/IvanBrykalov/sizecache/internal/logging"
)

func main() {
	if err := Execute(); err != nil {
		logging.Error("command failed", "err", err)
		os.Exit(1)
	}
}
