package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/nyc-warehouse/snapload/internal/cli"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(snapload.ExitPanic)
		}
	}()

	if os.Getenv("SNAPLOAD_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(snapload.ExitCodeForError(err))
	}
}
