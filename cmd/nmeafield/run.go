package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/edaniels/golog"
	"go.uber.org/multierr"

	"nmeafield/internal/capture"
	"nmeafield/internal/config"
	"nmeafield/internal/session"
	"nmeafield/internal/udp"
	"nmeafield/internal/web"
)

type ctxSleeper struct {
	ctx context.Context
}

func (s ctxSleeper) Sleep(d time.Duration) {
	select {
	case <-s.ctx.Done():
	case <-time.After(d):
	}
}

func runCmd(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, logger golog.Logger) (err error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stdout)
	configPath := fs.String("config", "./nmeafield.yaml", "Path to YAML config")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	b, err := readInput(cfg.Input.Path, stdin)
	if err != nil {
		return err
	}
	recs, err := loadRecords(b, cfg.Input.Format)
	if err != nil {
		return err
	}

	queries := make([]session.Query, 0, len(cfg.Queries))
	for _, q := range cfg.Queries {
		queries = append(queries, session.Query{Name: q.Name, Sentence: q.ID(), Field: q.Field})
	}
	sess, err := session.New(session.Options{
		Queries:        queries,
		Accumulate:     *cfg.Input.Accumulate,
		MaxBuffer:      cfg.Input.BufferBytes,
		VerifyChecksum: cfg.VerifyChecksum,
	})
	if err != nil {
		return err
	}

	var bc *udp.Broadcaster
	if cfg.Output.UDPDest != "" {
		bc, err = udp.NewBroadcaster(cfg.Output.UDPDest)
		if err != nil {
			return fmt.Errorf("udp broadcaster init failed: %w", err)
		}
		defer func() { err = multierr.Append(err, bc.Close()) }()
		logger.Infof("udp dest=%s", bc.Dest())
	}

	if cfg.Output.HTTPAddr != "" {
		webCtx, stopWeb := context.WithCancel(ctx)
		defer stopWeb()
		status := web.NewStatus(cfg.Input.Path, sess)
		go func() {
			if err := web.Serve(webCtx, cfg.Output.HTTPAddr, status); err != nil && webCtx.Err() == nil {
				logger.Errorf("web server stopped: %v", err)
			}
		}()
		logger.Infof("web listening on %s", cfg.Output.HTTPAddr)
	}

	logger.Infof("replaying records=%d queries=%d format=%s realtime=%t", len(recs), len(queries), cfg.Input.Format, cfg.Input.Realtime)

	var sleeper capture.Sleeper = capture.NoSleep{}
	if cfg.Input.Realtime {
		sleeper = ctxSleeper{ctx: ctx}
	}
	w := newResultWriter(stdout, cfg.Output.Format)

	playErr := capture.Play(recs, cfg.Input.Speed, cfg.Input.Loop, sleeper, func(data []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, r := range sess.Feed(data) {
			if r.Status == session.StatusWaiting {
				continue
			}
			if err := w.write(r); err != nil {
				return err
			}
			if bc != nil {
				if err := bc.SendJSON(r); err != nil {
					logger.Warnf("udp send failed: %v", err)
				}
			}
		}
		return nil
	})
	if playErr != nil && ctx.Err() == nil {
		return playErr
	}

	snap := sess.Snapshot()
	logger.Infof("done chunks=%d ok=%d empty=%d waiting=%d errors=%d consumed_bytes=%d dropped_bytes=%d",
		snap.Chunks, snap.OK, snap.Empty, snap.Waiting, snap.Errors, snap.Consumed, snap.Dropped)
	if snap.LastError != "" {
		logger.Warnf("last error: %s", snap.LastError)
	}
	return nil
}

type resultWriter struct {
	w    io.Writer
	json *json.Encoder
}

func newResultWriter(w io.Writer, format string) *resultWriter {
	rw := &resultWriter{w: w}
	if format == config.OutputJSON {
		rw.json = json.NewEncoder(w)
	}
	return rw
}

func (rw *resultWriter) write(r session.Result) error {
	if rw.json != nil {
		return rw.json.Encode(r)
	}
	var err error
	switch r.Status {
	case session.StatusError:
		_, err = fmt.Fprintf(rw.w, "%s error: %s\n", r.Name, r.Error)
	case session.StatusEmpty:
		_, err = fmt.Fprintf(rw.w, "%s (no data)\n", r.Name)
	default:
		_, err = fmt.Fprintf(rw.w, "%s=%s\n", r.Name, r.Value)
	}
	return err
}
