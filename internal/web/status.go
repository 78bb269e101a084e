package web

import (
	"sync/atomic"
	"time"

	"nmeafield/internal/session"
)

// SessionSource supplies the current session counters.
type SessionSource interface {
	Snapshot() session.Snapshot
}

type Status struct {
	startUnixNano int64
	input         atomic.Value // string
	source        SessionSource
}

func NewStatus(input string, source SessionSource) *Status {
	s := &Status{source: source}
	atomic.StoreInt64(&s.startUnixNano, time.Now().UTC().UnixNano())
	s.input.Store(input)
	return s
}

type StatusSnapshot struct {
	Service   string            `json:"service"`
	NowUTC    string            `json:"now_utc"`
	UptimeSec int64             `json:"uptime_sec"`
	Input     string            `json:"input"`
	Session   *session.Snapshot `json:"session,omitempty"`
}

func (s *Status) Snapshot(nowUTC time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()

	snap := StatusSnapshot{
		Service:   "nmeafield",
		NowUTC:    nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec: int64(nowUTC.Sub(start).Seconds()),
		Input:     s.input.Load().(string),
	}
	if s.source != nil {
		ss := s.source.Snapshot()
		snap.Session = &ss
	}
	return snap
}
