package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/edaniels/golog"
	"go.uber.org/multierr"

	"nmeafield/internal/capture"
)

type chunk struct {
	at   time.Time
	data []byte
	err  error
}

func recordCmd(ctx context.Context, args []string, stdin io.Reader, logger golog.Logger) (err error) {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	out := fs.String("out", "", "Capture log path")
	readSize := fs.Int("read-size", 256, "Maximum bytes per read cycle")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("record: -out is required")
	}
	if *readSize <= 0 {
		return fmt.Errorf("record: -read-size must be > 0")
	}

	w, err := capture.CreateWriter(*out)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, w.Close()) }()

	logger.Infof("recording to %s", *out)

	// Reads on stdin cannot be interrupted; the reader goroutine is abandoned
	// on cancellation.
	chunks := make(chan chunk)
	go func() {
		buf := make([]byte, *readSize)
		for {
			n, rerr := stdin.Read(buf)
			c := chunk{at: time.Now(), err: rerr}
			if n > 0 {
				c.data = append([]byte(nil), buf[:n]...)
			}
			select {
			case chunks <- c:
			case <-ctx.Done():
				return
			}
			if rerr != nil {
				return
			}
		}
	}()

	count := 0
	for {
		select {
		case <-ctx.Done():
			logger.Infof("recorded chunks=%d (interrupted)", count)
			return nil
		case c := <-chunks:
			if len(c.data) > 0 {
				if err := w.WriteChunk(c.at, c.data); err != nil {
					return err
				}
				count++
			}
			if c.err != nil {
				if errors.Is(c.err, io.EOF) {
					logger.Infof("recorded chunks=%d", count)
					return nil
				}
				return c.err
			}
		}
	}
}
