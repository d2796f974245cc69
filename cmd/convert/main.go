// Command convert turns a booking export into an invoicing import file
// without starting the web server.
package main

import (
	"context"
	"log/slog"
	"os"
)

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		slog.Error("convert failed", "error", err)
		os.Exit(1)
	}
}
