// Command medbot-console asks for up to three symptoms and prints the
// matching remedies. It always exits 0.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/giygas/medbot/console"
	"github.com/giygas/medbot/logging"
	"github.com/giygas/medbot/symptoms"
)

func main() {
	// Warnings only on stderr so logs never interleave with the prompts
	logs := logging.InitLogger(console.LogOptions(os.Stderr))
	defer logs.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := console.Run(ctx, os.Stdin, os.Stdout, symptoms.Default()); err != nil {
		logging.Warn("Console session ended early", "error", err)
	}
}
