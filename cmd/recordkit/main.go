// Command recordkit converts, inspects, merges and snapshots record lists.
package main

import (
	"os"

	"github.com/roach88/recordkit/internal/cli"
	"github.com/roach88/recordkit/internal/trace"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		// PersistentPostRunE is skipped when a command fails.
		trace.Default().Debug("exit:", err)
		trace.Default().Close()
	}
	os.Exit(cli.GetExitCode(err))
}
