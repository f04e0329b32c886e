// File: cmd/vivado-fetch/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/xkilldash9x/vivado-fetch/cmd"
	"github.com/xkilldash9x/vivado-fetch/internal/observability"
)

const panicLogFile = "vivado-fetch-panic.log"

// Function variables so tests can observe the exit path.
var (
	osWriteFile = os.WriteFile
	osExit      = os.Exit
)

func main() {
	defer handlePanic()

	// SIGINT and SIGTERM cancel the run; the deferred browser close still happens.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	stop()

	observability.Sync()
	osExit(cmd.ExitCode(err))
}

// handlePanic records a crash to panicLogFile and exits with a failure code.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}
	observability.Sync()

	panicMessage := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	if err := osWriteFile(panicLogFile, []byte(panicMessage), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write panic log: %v\n", err)
		fmt.Fprintf(os.Stderr, "Panic details:\n%s\n", panicMessage)
		osExit(cmd.ExitFailure)
		return
	}

	fmt.Fprintf(os.Stderr, "ERROR: vivado-fetch crashed, details logged to %s\n", panicLogFile)
	osExit(cmd.ExitFailure)
}
