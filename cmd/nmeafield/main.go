package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/edaniels/golog"
)

const usage = `usage: nmeafield <command> [flags]

commands:
  extract    print one field of one sentence from a file or stdin
  fix        decode a GGA or RMC position report as JSON
  run        replay an input through the configured queries
  summary    summarize a capture log
  record     write stdin to a capture log
  sentences  list supported sentence identifiers
`

func main() {
	logger := golog.NewDevelopmentLogger("nmeafield")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := runCommand(ctx, os.Args[1:], os.Stdin, os.Stdout, logger); err != nil {
		logger.Errorf("%v", err)
		cancel()
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, logger golog.Logger) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("command is required")
	}
	switch args[0] {
	case "extract":
		return extractCmd(args[1:], stdin, stdout)
	case "fix":
		return fixCmd(args[1:], stdin, stdout)
	case "run":
		return runCmd(ctx, args[1:], stdin, stdout, logger)
	case "summary":
		return summaryCmd(args[1:], stdout)
	case "record":
		return recordCmd(ctx, args[1:], stdin, logger)
	case "sentences":
		return sentencesCmd(stdout)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}
